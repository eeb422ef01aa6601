package aws

import (
	"context"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kulucloud/kulu/adapters"
	"github.com/kulucloud/kulu/types"
)

// listBuckets discovers S3 buckets. Bucket listing is account-global, so
// the adapter runs this only for its first region.
func (a *Adapter) listBuckets(ctx context.Context, c regionClients, region string) ([]types.RawResourceRecord, error) {
	out, err := adapters.WithRetry(ctx, types.ProviderAWS, "s3.ListBuckets", a.notify,
		func(ctx context.Context) (*s3.ListBucketsOutput, error) {
			return c.s3.ListBuckets(ctx, &s3.ListBucketsInput{})
		})
	if err != nil {
		return nil, err
	}

	records := make([]types.RawResourceRecord, 0, len(out.Buckets))
	for _, bucket := range out.Buckets {
		records = append(records, types.RawResourceRecord{
			Provider: types.ProviderAWS,
			Kind:     KindS3Bucket,
			NativeID: awssdk.ToString(bucket.Name),
			Region:   region,
			Attributes: map[string]string{
				types.AttrStorageClass: "STANDARD",
			},
			State:        types.StateRunning,
			DiscoveredAt: time.Now().UTC(),
		})
	}
	return records, nil
}
