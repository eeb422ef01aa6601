package aws

import (
	"context"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"

	"github.com/kulucloud/kulu/adapters"
	"github.com/kulucloud/kulu/types"
)

// listLoadBalancers discovers ALBs and NLBs in one region.
func (a *Adapter) listLoadBalancers(ctx context.Context, c regionClients, region string) ([]types.RawResourceRecord, error) {
	var records []types.RawResourceRecord
	var marker *string

	for {
		input := &elbv2.DescribeLoadBalancersInput{Marker: marker}
		out, err := adapters.WithRetry(ctx, types.ProviderAWS, "elbv2.DescribeLoadBalancers", a.notify,
			func(ctx context.Context) (*elbv2.DescribeLoadBalancersOutput, error) {
				return c.elbv2.DescribeLoadBalancers(ctx, input)
			})
		if err != nil {
			return nil, err
		}

		for _, lb := range out.LoadBalancers {
			records = append(records, convertLoadBalancer(lb, region))
		}

		if out.NextMarker == nil {
			break
		}
		marker = out.NextMarker
	}
	return records, nil
}

func convertLoadBalancer(lb elbv2types.LoadBalancer, region string) types.RawResourceRecord {
	state := types.StateUnknown
	if lb.State != nil {
		switch lb.State.Code {
		case elbv2types.LoadBalancerStateEnumActive:
			state = types.StateRunning
		case elbv2types.LoadBalancerStateEnumProvisioning:
			state = types.StateStopped
		case elbv2types.LoadBalancerStateEnumFailed:
			state = types.StateTerminated
		}
	}

	return types.RawResourceRecord{
		Provider: types.ProviderAWS,
		Kind:     KindLoadBalancer,
		NativeID: awssdk.ToString(lb.LoadBalancerArn),
		Region:   region,
		Attributes: map[string]string{
			types.AttrLBType: string(lb.Type),
		},
		State:        state,
		DiscoveredAt: time.Now().UTC(),
	}
}
