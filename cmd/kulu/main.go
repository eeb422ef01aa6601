// Kulu - Multi-Cloud Cost Scanner
// Discover. Price. Recommend.
package main

import (
	_ "github.com/kulucloud/kulu/adapters/aws"
	_ "github.com/kulucloud/kulu/adapters/azure"
	_ "github.com/kulucloud/kulu/adapters/gcp"
)

func main() {
	Execute()
}
