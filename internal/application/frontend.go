package application

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/route53"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"webapp-infra/internal/environment"
	"webapp-infra/internal/foundation"
)

const (
	FrontendTier = "frontend"
	timezone     = "Asia/Seoul"
)

type FrontendArgs struct {
	Env     environment.Environment
	Region  string
	Handles foundation.Handles
	Cluster *Cluster
}

// Frontend is the public web tier behind an internet-facing ALB.
type Frontend struct {
	pulumi.ResourceState

	Unit   *DeployableUnit
	Domain string
}

func NewFrontend(ctx *pulumi.Context, name string, args *FrontendArgs, opts ...pulumi.ResourceOption) (*Frontend, error) {
	f := &Frontend{}
	if err := ctx.RegisterComponentResource("webapp:application:Frontend", name, f, opts...); err != nil {
		return nil, err
	}
	env := args.Env
	h := args.Handles
	parent := pulumi.Parent(f)

	unit, err := NewDeployableUnit(ctx, FrontendTier, &UnitArgs{
		Env:                         env,
		Tier:                        FrontendTier,
		Sizing:                      env.Frontend,
		Region:                      args.Region,
		ClusterArn:                  args.Cluster.ClusterArn,
		ClusterName:                 args.Cluster.ClusterName,
		VpcID:                       h.VpcID,
		ServiceSubnetIDs:            h.PrivateSubnetIDs,
		LoadBalancerSubnetIDs:       h.PublicSubnetIDs,
		ServiceSecurityGroupID:      h.SecurityGroups.Frontend,
		LoadBalancerSecurityGroupID: h.SecurityGroups.FrontendLB,
		RepositoryURL:               h.FrontendRepositoryURL,
		Internal:                    false,
		Listener: ListenerSpec{
			Port:           443,
			Protocol:       "HTTPS",
			CertificateArn: h.CertificateArn,
		},
		RedirectHTTP:      true,
		Environment:       map[string]string{"TZ": timezone},
		CapacityProviders: args.Cluster.CapacityProviders,
	}, parent)
	if err != nil {
		return nil, err
	}

	for _, recordType := range []string{"A", "AAAA"} {
		_, err = route53.NewRecord(ctx, fmt.Sprintf("frontend-%s-%s", recordType, env.Name), &route53.RecordArgs{
			ZoneId: h.PublicZoneID,
			Name:   pulumi.String(env.Frontend.Domain),
			Type:   pulumi.String(recordType),
			Aliases: route53.RecordAliasArray{
				&route53.RecordAliasArgs{
					Name:                 unit.AlbDNSName,
					ZoneId:               unit.AlbZoneID,
					EvaluateTargetHealth: pulumi.Bool(true),
				},
			},
		}, parent)
		if err != nil {
			return nil, fmt.Errorf("creating frontend %s record: %w", recordType, err)
		}
	}

	f.Unit = unit
	f.Domain = env.Frontend.Domain

	if err := ctx.RegisterResourceOutputs(f, pulumi.Map{
		"serviceName": unit.ServiceName,
	}); err != nil {
		return nil, err
	}
	return f, nil
}
