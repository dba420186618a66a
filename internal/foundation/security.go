package foundation

import (
	"fmt"
	"strings"

	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/ec2"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"webapp-infra/internal/environment"
)

// Group keys, also used in resource names.
const (
	BastionGroup    = "bastion"
	VpcLinkGroup    = "vpc-link"
	FrontendLBGroup = "frontend-lb"
	FrontendGroup   = "frontend"
	BackendLBGroup  = "backend-lb"
	BackendGroup    = "backend"
	DatabaseGroup   = "database"
	CacheGroup      = "cache"
)

var groupDescriptions = []struct{ key, description string }{
	{BastionGroup, "Bastion"},
	{VpcLinkGroup, "VPC Link"},
	{FrontendLBGroup, "Frontend LoadBalancer"},
	{FrontendGroup, "Frontend"},
	{BackendLBGroup, "Backend LoadBalancer"},
	{BackendGroup, "Backend"},
	{DatabaseGroup, "Database"},
	{CacheGroup, "Cache"},
}

// IngressRule opens one TCP port on a group, either to another group (Source) or to a CIDR.
type IngressRule struct {
	Group       string
	Port        int
	Source      string
	CIDR        string
	Description string
}

// IngressRules is the complete inbound policy. Anything not listed here is closed.
func IngressRules(bastionCIDR string) []IngressRule {
	return []IngressRule{
		{Group: BastionGroup, Port: 22, CIDR: bastionCIDR, Description: "SSH"},

		{Group: FrontendLBGroup, Port: 80, CIDR: "0.0.0.0/0", Description: "Allow from anyone on port 80"},
		{Group: FrontendLBGroup, Port: 443, CIDR: "0.0.0.0/0", Description: "Allow from anyone on port 443"},
		{Group: FrontendLBGroup, Port: 8080, CIDR: "0.0.0.0/0", Description: "Test listener"},
		{Group: FrontendGroup, Port: 3000, Source: FrontendLBGroup, Description: "Frontend LoadBalancer"},

		{Group: BackendLBGroup, Port: 80, CIDR: "0.0.0.0/0", Description: "Allow from anyone on port 80"},
		{Group: BackendLBGroup, Port: 8080, CIDR: "0.0.0.0/0", Description: "Test listener"},
		{Group: BackendGroup, Port: 3000, Source: BackendLBGroup, Description: "Load balancer to target"},

		{Group: DatabaseGroup, Port: 5432, Source: BastionGroup, Description: "Bastion"},
		{Group: DatabaseGroup, Port: 5432, Source: BackendGroup, Description: "Backend"},

		{Group: CacheGroup, Port: 6379, Source: BackendGroup, Description: "Backend"},
	}
}

type SecurityGroupsArgs struct {
	Env         environment.Environment
	VpcID       pulumi.StringInput
	BastionCIDR string
}

type SecurityGroups struct {
	pulumi.ResourceState

	groups map[string]*ec2.SecurityGroup
}

// ID returns the id output of the group with the given key.
func (s *SecurityGroups) ID(key string) pulumi.StringOutput {
	return s.groups[key].ID().ToStringOutput()
}

// IDs collects every group id.
func (s *SecurityGroups) IDs() SecurityGroupIDs {
	return SecurityGroupIDs{
		Bastion:    s.ID(BastionGroup),
		VpcLink:    s.ID(VpcLinkGroup),
		FrontendLB: s.ID(FrontendLBGroup),
		Frontend:   s.ID(FrontendGroup),
		BackendLB:  s.ID(BackendLBGroup),
		Backend:    s.ID(BackendGroup),
		Database:   s.ID(DatabaseGroup),
		Cache:      s.ID(CacheGroup),
	}
}

func NewSecurityGroups(ctx *pulumi.Context, name string, args *SecurityGroupsArgs, opts ...pulumi.ResourceOption) (*SecurityGroups, error) {
	s := &SecurityGroups{groups: map[string]*ec2.SecurityGroup{}}
	if err := ctx.RegisterComponentResource("webapp:foundation:SecurityGroups", name, s, opts...); err != nil {
		return nil, err
	}
	parent := pulumi.Parent(s)
	env := args.Env

	for _, g := range groupDescriptions {
		sgName := fmt.Sprintf("%s-sg-%s", g.key, env.Name)
		sg, err := ec2.NewSecurityGroup(ctx, sgName, &ec2.SecurityGroupArgs{
			Name:        pulumi.String(sgName),
			VpcId:       args.VpcID,
			Description: pulumi.String(g.description),
			Tags:        pulumi.ToStringMap(env.Tags(g.key + "-sg")),
		}, parent)
		if err != nil {
			return nil, fmt.Errorf("creating %s security group: %w", g.key, err)
		}
		s.groups[g.key] = sg

		// All groups allow all egress
		_, err = ec2.NewSecurityGroupRule(ctx, fmt.Sprintf("%s-egress-%s", g.key, env.Name), &ec2.SecurityGroupRuleArgs{
			Type:            pulumi.String("egress"),
			SecurityGroupId: sg.ID(),
			Protocol:        pulumi.String("-1"),
			FromPort:        pulumi.Int(0),
			ToPort:          pulumi.Int(0),
			CidrBlocks:      pulumi.StringArray{pulumi.String("0.0.0.0/0")},
			Description:     pulumi.String("Allow all outbound traffic"),
		}, parent)
		if err != nil {
			return nil, err
		}
	}

	for _, rule := range IngressRules(args.BastionCIDR) {
		ruleArgs := &ec2.SecurityGroupRuleArgs{
			Type:            pulumi.String("ingress"),
			SecurityGroupId: s.groups[rule.Group].ID(),
			Protocol:        pulumi.String("tcp"),
			FromPort:        pulumi.Int(rule.Port),
			ToPort:          pulumi.Int(rule.Port),
			Description:     pulumi.String(rule.Description),
		}
		from := rule.CIDR
		if rule.Source != "" {
			ruleArgs.SourceSecurityGroupId = s.groups[rule.Source].ID()
			from = rule.Source
		} else {
			ruleArgs.CidrBlocks = pulumi.StringArray{pulumi.String(rule.CIDR)}
		}

		_, err := ec2.NewSecurityGroupRule(ctx, fmt.Sprintf("%s-ingress-%d-%s-%s", rule.Group, rule.Port, sanitize(from), env.Name), ruleArgs, parent)
		if err != nil {
			return nil, fmt.Errorf("creating %s ingress on %d: %w", rule.Group, rule.Port, err)
		}
	}

	outputs := pulumi.Map{}
	for key := range s.groups {
		outputs[key] = s.ID(key)
	}
	if err := ctx.RegisterResourceOutputs(s, outputs); err != nil {
		return nil, err
	}
	return s, nil
}

var sanitize = strings.NewReplacer("/", "-", ".", "-").Replace
