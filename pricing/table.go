package pricing

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kulucloud/kulu/types"
)

//go:embed tables/*.json
var tableFS embed.FS

// defaultRegion is the fallback row when a SKU has no price for the
// resource's region.
const defaultRegion = "default"

// rateTable is one provider's pricing data: resource type → SKU → region
// → rate. Rate units depend on the resource type: hourly for compute and
// managed databases, per GB-month for storage, flat monthly for load
// balancers.
type rateTable map[string]map[string]map[string]float64

// Table is the read-only pricing lookup shared by all calculators. Safe
// for concurrent use without locking; nothing mutates it after load.
type Table struct {
	providers map[types.Provider]rateTable
}

// LoadEmbedded parses the pricing tables compiled into the binary.
func LoadEmbedded() (*Table, error) {
	t := &Table{providers: make(map[types.Provider]rateTable)}
	for _, provider := range []types.Provider{types.ProviderAWS, types.ProviderAzure, types.ProviderGCP} {
		raw, err := tableFS.ReadFile("tables/" + string(provider) + ".json")
		if err != nil {
			return nil, fmt.Errorf("reading %s pricing table: %w", provider, err)
		}
		var rt rateTable
		if err := json.Unmarshal(raw, &rt); err != nil {
			return nil, fmt.Errorf("parsing %s pricing table: %w", provider, err)
		}
		t.providers[provider] = rt
	}
	return t, nil
}

// NewTable builds a table from already-parsed rate data. Tests use this
// to pin exact rates.
func NewTable(data map[types.Provider]map[string]map[string]map[string]float64) *Table {
	t := &Table{providers: make(map[types.Provider]rateTable, len(data))}
	for p, rt := range data {
		t.providers[p] = rt
	}
	return t
}

// Rate returns the rate for an exact SKU, falling back to the default
// region row when the specific region is absent.
func (t *Table) Rate(provider types.Provider, resourceType types.ResourceType, sku, region string) (float64, bool) {
	skus, ok := t.providers[provider][string(resourceType)]
	if !ok {
		return 0, false
	}
	regions, ok := skus[sku]
	if !ok {
		return 0, false
	}
	if rate, ok := regions[region]; ok {
		return rate, true
	}
	rate, ok := regions[defaultRegion]
	return rate, ok
}

// FamilyRoundUp finds the cheapest same-family SKU whose size rank is at
// least the given SKU's, for use when the exact SKU is missing. The scan
// over table keys is sorted so the substitution is deterministic.
func (t *Table) FamilyRoundUp(provider types.Provider, resourceType types.ResourceType, sku, region string) (float64, string, bool) {
	family, rank, ok := skuFamily(sku)
	if !ok {
		return 0, "", false
	}
	skus, ok := t.providers[provider][string(resourceType)]
	if !ok {
		return 0, "", false
	}
	candidates := make([]string, 0, len(skus))
	for candidate := range skus {
		cFamily, cRank, ok := skuFamily(candidate)
		if !ok || cFamily != family || cRank < rank {
			continue
		}
		candidates = append(candidates, candidate)
	}
	if len(candidates) == 0 {
		return 0, "", false
	}
	sort.Slice(candidates, func(i, j int) bool {
		_, ri, _ := skuFamily(candidates[i])
		_, rj, _ := skuFamily(candidates[j])
		if ri != rj {
			return ri < rj
		}
		return candidates[i] < candidates[j]
	})
	rate, ok := t.Rate(provider, resourceType, candidates[0], region)
	return rate, candidates[0], ok
}

// FamilyStepDown returns the largest same-family SKU ranked strictly
// below the given one, or false when the SKU is already the smallest
// priced size in its family.
func (t *Table) FamilyStepDown(provider types.Provider, resourceType types.ResourceType, sku string) (string, bool) {
	family, rank, ok := skuFamily(sku)
	if !ok {
		return "", false
	}
	skus, ok := t.providers[provider][string(resourceType)]
	if !ok {
		return "", false
	}
	best := ""
	bestRank := -1
	for candidate := range skus {
		cFamily, cRank, ok := skuFamily(candidate)
		if !ok || cFamily != family || cRank >= rank {
			continue
		}
		if cRank > bestRank || (cRank == bestRank && candidate < best) {
			best, bestRank = candidate, cRank
		}
	}
	return best, best != ""
}

// FamilyAverage returns the mean rate across all same-family SKUs.
func (t *Table) FamilyAverage(provider types.Provider, resourceType types.ResourceType, sku, region string) (float64, bool) {
	family, _, ok := skuFamily(sku)
	if !ok {
		return 0, false
	}
	skus, ok := t.providers[provider][string(resourceType)]
	if !ok {
		return 0, false
	}
	var sum float64
	var n int
	for candidate := range skus {
		cFamily, _, ok := skuFamily(candidate)
		if !ok || cFamily != family {
			continue
		}
		if rate, ok := t.Rate(provider, resourceType, candidate, region); ok {
			sum += rate
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// sizeOrder ranks named size tokens. Numbered sizes (2xlarge, D4, n1-standard-8)
// rank by their number offset past the named scale.
var sizeOrder = map[string]int{
	"nano":   1,
	"micro":  2,
	"small":  3,
	"medium": 4,
	"large":  5,
	"xlarge": 6,
}

// skuFamily splits a SKU into its family key and a size rank comparable
// within that family. Handles the three vendor naming shapes:
// "m5.large" (AWS), "Standard_D2s_v3" (Azure), "e2-medium" and
// "n1-standard-4" (GCP).
func skuFamily(sku string) (string, int, bool) {
	switch {
	case strings.Contains(sku, "."):
		i := strings.LastIndex(sku, ".")
		rank, ok := namedSizeRank(sku[i+1:])
		if !ok {
			return "", 0, false
		}
		return sku[:i], rank, true
	case strings.Contains(sku, "_"):
		digits := strings.IndexFunc(sku, isDigit)
		if digits < 0 {
			return "", 0, false
		}
		end := digits
		for end < len(sku) && isDigit(rune(sku[end])) {
			end++
		}
		n, err := strconv.Atoi(sku[digits:end])
		if err != nil {
			return "", 0, false
		}
		return sku[:digits] + sku[end:], n, true
	case strings.Contains(sku, "-"):
		i := strings.LastIndex(sku, "-")
		last := sku[i+1:]
		if n, err := strconv.Atoi(last); err == nil {
			return sku[:i], n, true
		}
		rank, ok := namedSizeRank(last)
		if !ok {
			return "", 0, false
		}
		return sku[:i], rank, true
	}
	return "", 0, false
}

// namedSizeRank maps "large", "2xlarge" etc. onto the size scale.
func namedSizeRank(size string) (int, bool) {
	if rank, ok := sizeOrder[size]; ok {
		return rank, true
	}
	if strings.HasSuffix(size, "xlarge") {
		n, err := strconv.Atoi(strings.TrimSuffix(size, "xlarge"))
		if err != nil || n < 2 {
			return 0, false
		}
		return sizeOrder["xlarge"] + n - 1, true
	}
	if size == "metal" {
		return 64, true
	}
	return 0, false
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
