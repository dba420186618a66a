package foundation

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/apigatewayv2"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"webapp-infra/internal/environment"
)

type VpcLinkArgs struct {
	Env              environment.Environment
	PrivateSubnetIDs pulumi.StringArrayInput
	SecurityGroupID  pulumi.StringInput
}

// VpcLink lets the HTTP API reach the internal backend load balancer.
type VpcLink struct {
	pulumi.ResourceState

	LinkID pulumi.StringOutput
}

func NewVpcLink(ctx *pulumi.Context, name string, args *VpcLinkArgs, opts ...pulumi.ResourceOption) (*VpcLink, error) {
	v := &VpcLink{}
	if err := ctx.RegisterComponentResource("webapp:foundation:VpcLink", name, v, opts...); err != nil {
		return nil, err
	}

	linkName := fmt.Sprintf("vpc-link-%s", args.Env.Name)
	link, err := apigatewayv2.NewVpcLink(ctx, linkName, &apigatewayv2.VpcLinkArgs{
		Name:             pulumi.String(linkName),
		SubnetIds:        args.PrivateSubnetIDs,
		SecurityGroupIds: pulumi.StringArray{args.SecurityGroupID},
		Tags:             pulumi.ToStringMap(args.Env.Tags("vpc-link")),
	}, pulumi.Parent(v))
	if err != nil {
		return nil, fmt.Errorf("creating vpc link: %w", err)
	}
	v.LinkID = link.ID().ToStringOutput()

	if err := ctx.RegisterResourceOutputs(v, pulumi.Map{"vpcLinkId": v.LinkID}); err != nil {
		return nil, err
	}
	return v, nil
}
