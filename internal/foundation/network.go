package foundation

import (
	"fmt"
	"net"

	"github.com/c-robinson/iplib"
	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws"
	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/ec2"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"webapp-infra/internal/environment"
)

// SubnetTier is the routing class of a subnet.
type SubnetTier string

const (
	// Public subnets route to the internet gateway.
	Public SubnetTier = "public"
	// Private subnets reach the internet through the NAT gateway.
	Private SubnetTier = "private"
	// Isolated subnets have no default route at all.
	Isolated SubnetTier = "isolated"
)

var subnetTiers = []SubnetTier{Public, Private, Isolated}

type NetworkArgs struct {
	Env    environment.Environment
	Region string
	// CIDR defaults to 10.0.0.0/16.
	CIDR string
	// MaxAZs defaults to 3.
	MaxAZs int
	// SubnetMask defaults to 20.
	SubnetMask int
}

type Network struct {
	pulumi.ResourceState

	VpcID             pulumi.StringOutput
	PublicSubnetIDs   pulumi.StringArrayOutput
	PrivateSubnetIDs  pulumi.StringArrayOutput
	IsolatedSubnetIDs pulumi.StringArrayOutput
	AvailabilityZones []string

	// PublicSubnets are kept for placing the bastion host.
	PublicSubnets []*ec2.Subnet
}

// SubnetCIDRs carves the VPC block into equally sized subnets, laid out tier by tier: every
// public subnet first, then private, then isolated.
func SubnetCIDRs(vpcCIDR string, mask, azCount int) (map[SubnetTier][]string, error) {
	ip, block, err := net.ParseCIDR(vpcCIDR)
	if err != nil {
		return nil, fmt.Errorf("parsing vpc cidr: %w", err)
	}
	ones, _ := block.Mask.Size()
	subnets, err := iplib.NewNet4(ip, ones).Subnet(mask)
	if err != nil {
		return nil, fmt.Errorf("splitting %s into /%d: %w", vpcCIDR, mask, err)
	}
	if need := azCount * len(subnetTiers); len(subnets) < need {
		return nil, fmt.Errorf("%s holds %d /%d subnets, need %d", vpcCIDR, len(subnets), mask, need)
	}

	out := make(map[SubnetTier][]string, len(subnetTiers))
	for t, tier := range subnetTiers {
		for az := 0; az < azCount; az++ {
			out[tier] = append(out[tier], subnets[t*azCount+az].String())
		}
	}
	return out, nil
}

func NewNetwork(ctx *pulumi.Context, name string, args *NetworkArgs, opts ...pulumi.ResourceOption) (*Network, error) {
	n := &Network{}
	if err := ctx.RegisterComponentResource("webapp:foundation:Network", name, n, opts...); err != nil {
		return nil, err
	}
	parent := pulumi.Parent(n)
	env := args.Env

	cidr := args.CIDR
	if cidr == "" {
		cidr = "10.0.0.0/16"
	}
	maxAZs := args.MaxAZs
	if maxAZs == 0 {
		maxAZs = 3
	}
	mask := args.SubnetMask
	if mask == 0 {
		mask = 20
	}

	azs, err := aws.GetAvailabilityZones(ctx, &aws.GetAvailabilityZonesArgs{
		State: pulumi.StringRef("available"),
	})
	if err != nil {
		return nil, err
	}
	if len(azs.Names) < 2 {
		return nil, fmt.Errorf("need at least 2 availability zones, got %d", len(azs.Names))
	}
	n.AvailabilityZones = azs.Names
	if len(n.AvailabilityZones) > maxAZs {
		n.AvailabilityZones = n.AvailabilityZones[:maxAZs]
	}

	cidrs, err := SubnetCIDRs(cidr, mask, len(n.AvailabilityZones))
	if err != nil {
		return nil, err
	}

	// Create VPC
	vpc, err := ec2.NewVpc(ctx, fmt.Sprintf("vpc-%s", env.Name), &ec2.VpcArgs{
		CidrBlock:          pulumi.String(cidr),
		EnableDnsHostnames: pulumi.Bool(true),
		EnableDnsSupport:   pulumi.Bool(true),
		Tags:               pulumi.ToStringMap(env.Tags("vpc")),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating vpc: %w", err)
	}

	igw, err := ec2.NewInternetGateway(ctx, fmt.Sprintf("igw-%s", env.Name), &ec2.InternetGatewayArgs{
		VpcId: vpc.ID(),
		Tags:  pulumi.ToStringMap(env.Tags("igw")),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating internet gateway: %w", err)
	}

	subnets := map[SubnetTier][]*ec2.Subnet{}
	ids := map[SubnetTier]pulumi.StringArray{}
	for _, tier := range subnetTiers {
		for i, az := range n.AvailabilityZones {
			component := fmt.Sprintf("subnet-%s-%d", tier, i+1)
			tags := env.Tags(component)
			tags["Tier"] = string(tier)

			subnet, err := ec2.NewSubnet(ctx, fmt.Sprintf("%s-%s", component, env.Name), &ec2.SubnetArgs{
				VpcId:               vpc.ID(),
				CidrBlock:           pulumi.String(cidrs[tier][i]),
				AvailabilityZone:    pulumi.String(az),
				MapPublicIpOnLaunch: pulumi.Bool(tier == Public),
				Tags:                pulumi.ToStringMap(tags),
			}, parent)
			if err != nil {
				return nil, fmt.Errorf("creating %s subnet in %s: %w", tier, az, err)
			}
			subnets[tier] = append(subnets[tier], subnet)
			ids[tier] = append(ids[tier], subnet.ID().ToStringOutput())
		}
	}

	// Single NAT gateway in the first public subnet
	eip, err := ec2.NewEip(ctx, fmt.Sprintf("nat-eip-%s", env.Name), &ec2.EipArgs{
		Domain: pulumi.String("vpc"),
		Tags:   pulumi.ToStringMap(env.Tags("nat-eip")),
	}, parent, pulumi.DependsOn([]pulumi.Resource{igw}))
	if err != nil {
		return nil, fmt.Errorf("creating nat eip: %w", err)
	}

	nat, err := ec2.NewNatGateway(ctx, fmt.Sprintf("nat-%s", env.Name), &ec2.NatGatewayArgs{
		AllocationId: eip.ID(),
		SubnetId:     subnets[Public][0].ID(),
		Tags:         pulumi.ToStringMap(env.Tags("nat")),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating nat gateway: %w", err)
	}

	routeTables := map[SubnetTier]*ec2.RouteTable{}
	for _, tier := range subnetTiers {
		rt, err := ec2.NewRouteTable(ctx, fmt.Sprintf("rt-%s-%s", tier, env.Name), &ec2.RouteTableArgs{
			VpcId: vpc.ID(),
			Tags:  pulumi.ToStringMap(env.Tags(fmt.Sprintf("rt-%s", tier))),
		}, parent)
		if err != nil {
			return nil, fmt.Errorf("creating %s route table: %w", tier, err)
		}
		routeTables[tier] = rt

		for i, subnet := range subnets[tier] {
			_, err = ec2.NewRouteTableAssociation(ctx, fmt.Sprintf("rt-assoc-%s-%d-%s", tier, i+1, env.Name), &ec2.RouteTableAssociationArgs{
				SubnetId:     subnet.ID(),
				RouteTableId: rt.ID(),
			}, parent)
			if err != nil {
				return nil, err
			}
		}
	}

	_, err = ec2.NewRoute(ctx, fmt.Sprintf("route-public-default-%s", env.Name), &ec2.RouteArgs{
		RouteTableId:         routeTables[Public].ID(),
		DestinationCidrBlock: pulumi.String("0.0.0.0/0"),
		GatewayId:            igw.ID(),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating public default route: %w", err)
	}

	_, err = ec2.NewRoute(ctx, fmt.Sprintf("route-private-default-%s", env.Name), &ec2.RouteArgs{
		RouteTableId:         routeTables[Private].ID(),
		DestinationCidrBlock: pulumi.String("0.0.0.0/0"),
		NatGatewayId:         nat.ID(),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating private default route: %w", err)
	}

	// Gateway endpoints keep S3 and DynamoDB traffic off the NAT
	for _, service := range []string{"s3", "dynamodb"} {
		_, err = ec2.NewVpcEndpoint(ctx, fmt.Sprintf("vpce-%s-%s", service, env.Name), &ec2.VpcEndpointArgs{
			VpcId:           vpc.ID(),
			ServiceName:     pulumi.String(fmt.Sprintf("com.amazonaws.%s.%s", args.Region, service)),
			VpcEndpointType: pulumi.String("Gateway"),
			RouteTableIds: pulumi.StringArray{
				routeTables[Private].ID(),
				routeTables[Isolated].ID(),
			},
			Tags: pulumi.ToStringMap(env.Tags(fmt.Sprintf("vpce-%s", service))),
		}, parent)
		if err != nil {
			return nil, fmt.Errorf("creating %s gateway endpoint: %w", service, err)
		}
	}

	n.VpcID = vpc.ID().ToStringOutput()
	n.PublicSubnetIDs = ids[Public].ToStringArrayOutput()
	n.PrivateSubnetIDs = ids[Private].ToStringArrayOutput()
	n.IsolatedSubnetIDs = ids[Isolated].ToStringArrayOutput()
	n.PublicSubnets = subnets[Public]

	if err := ctx.RegisterResourceOutputs(n, pulumi.Map{
		"vpcId":             n.VpcID,
		"publicSubnetIds":   n.PublicSubnetIDs,
		"privateSubnetIds":  n.PrivateSubnetIDs,
		"isolatedSubnetIds": n.IsolatedSubnetIDs,
	}); err != nil {
		return nil, err
	}
	return n, nil
}
