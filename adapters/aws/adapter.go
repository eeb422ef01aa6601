package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kulucloud/kulu/adapters"
	"github.com/kulucloud/kulu/telemetry"
	"github.com/kulucloud/kulu/types"
)

const defaultRegion = "us-east-1"

// Vendor resource kinds this adapter emits.
const (
	KindEC2Instance  = "ec2_instance"
	KindEBSVolume    = "ebs_volume"
	KindS3Bucket     = "s3_bucket"
	KindRDSInstance  = "rds_instance"
	KindLoadBalancer = "elbv2_load_balancer"
)

func init() {
	adapters.Register(types.ProviderAWS, NewFactory)
}

// NewFactory builds an AWS adapter for the account using the default
// credential chain. The account's credential ref selects a shared-config
// profile; the secret material itself never passes through here.
func NewFactory(ctx context.Context, account types.CloudAccount) (adapters.Adapter, error) {
	regions := account.Regions
	if len(regions) == 0 {
		regions = []string{defaultRegion}
	}

	// The backoff wrapper owns the retry budget; the SDK's built-in retryer
	// would stack on top of it, so it is switched off.
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(regions[0]),
		config.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	}
	if account.CredentialRef != "" {
		opts = append(opts, config.WithSharedConfigProfile(account.CredentialRef))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	a := &Adapter{account: account, regions: regions, clients: make(map[string]regionClients), notify: telemetry.ObserveRetry}
	for _, region := range regions {
		rcfg := cfg.Copy()
		rcfg.Region = region
		a.clients[region] = regionClients{
			ec2:        ec2.NewFromConfig(rcfg),
			s3:         s3.NewFromConfig(rcfg),
			rds:        rds.NewFromConfig(rcfg),
			elbv2:      elasticloadbalancingv2.NewFromConfig(rcfg),
			cloudwatch: cloudwatch.NewFromConfig(rcfg),
		}
	}
	return a, nil
}

// EC2API is the slice of the EC2 client the adapter needs.
type EC2API interface {
	DescribeInstances(ctx context.Context, input *ec2.DescribeInstancesInput, opts ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	DescribeVolumes(ctx context.Context, input *ec2.DescribeVolumesInput, opts ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error)
}

// S3API is the slice of the S3 client the adapter needs.
type S3API interface {
	ListBuckets(ctx context.Context, input *s3.ListBucketsInput, opts ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
}

// RDSAPI is the slice of the RDS client the adapter needs.
type RDSAPI interface {
	DescribeDBInstances(ctx context.Context, input *rds.DescribeDBInstancesInput, opts ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error)
}

// ELBAPI is the slice of the ELBv2 client the adapter needs.
type ELBAPI interface {
	DescribeLoadBalancers(ctx context.Context, input *elasticloadbalancingv2.DescribeLoadBalancersInput, opts ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeLoadBalancersOutput, error)
}

// CloudWatchAPI is the slice of the CloudWatch client the adapter needs.
type CloudWatchAPI interface {
	GetMetricData(ctx context.Context, input *cloudwatch.GetMetricDataInput, opts ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error)
}

type regionClients struct {
	ec2        EC2API
	s3         S3API
	rds        RDSAPI
	elbv2      ELBAPI
	cloudwatch CloudWatchAPI
}

// Adapter implements the scan contract over aws-sdk-go-v2.
type Adapter struct {
	account types.CloudAccount
	regions []string
	clients map[string]regionClients
	notify  adapters.RetryNotify
}

// Provider reports aws.
func (a *Adapter) Provider() types.Provider {
	return types.ProviderAWS
}

// SetRetryNotify installs a backoff observer, used by telemetry.
func (a *Adapter) SetRetryNotify(fn adapters.RetryNotify) {
	a.notify = fn
}

type lister struct {
	kind string
	list func(ctx context.Context, c regionClients, region string) ([]types.RawResourceRecord, error)
}

// ListResources enumerates EC2 instances, EBS volumes, S3 buckets, RDS
// instances, and load balancers across the account's regions.
func (a *Adapter) ListResources(ctx context.Context, account types.CloudAccount, filter adapters.Filter) ([]types.RawResourceRecord, error) {
	listers := []lister{
		{KindEC2Instance, a.listInstances},
		{KindEBSVolume, a.listVolumes},
		{KindS3Bucket, a.listBuckets},
		{KindRDSInstance, a.listDBInstances},
		{KindLoadBalancer, a.listLoadBalancers},
	}

	var records []types.RawResourceRecord
	for _, region := range a.regions {
		if !filter.MatchesRegion(region) {
			continue
		}
		clients := a.clients[region]
		for _, l := range listers {
			if !filter.MatchesKind(l.kind) {
				continue
			}
			// S3 listing is global; only run it once.
			if l.kind == KindS3Bucket && region != a.regions[0] {
				continue
			}
			recs, err := l.list(ctx, clients, region)
			if err != nil {
				return nil, err
			}
			records = append(records, recs...)
		}
	}
	return records, nil
}
