package application

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/apigatewayv2"
	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/route53"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"webapp-infra/internal/environment"
	"webapp-infra/internal/foundation"
)

const (
	BackendTier = "backend"

	// WebhookRoute is the only path the public API forwards to the backend.
	WebhookRoute = "ANY /v1/webhooks/{proxy+}"
)

var backendTaskPolicies = []string{
	"arn:aws:iam::aws:policy/AmazonSQSFullAccess",
	"arn:aws:iam::aws:policy/AmazonS3FullAccess",
	"arn:aws:iam::aws:policy/CloudFrontFullAccess",
}

type BackendArgs struct {
	Env     environment.Environment
	Region  string
	Handles foundation.Handles
	Cluster *Cluster
}

// Backend is the internal API tier and the public HTTP API that fronts its webhooks.
type Backend struct {
	pulumi.ResourceState

	Unit         *DeployableUnit
	Domain       string
	APIGatewayID pulumi.StringOutput
	APIEndpoint  pulumi.StringOutput
}

func NewBackend(ctx *pulumi.Context, name string, args *BackendArgs, opts ...pulumi.ResourceOption) (*Backend, error) {
	b := &Backend{}
	if err := ctx.RegisterComponentResource("webapp:application:Backend", name, b, opts...); err != nil {
		return nil, err
	}
	env := args.Env
	h := args.Handles
	parent := pulumi.Parent(b)

	unit, err := NewDeployableUnit(ctx, BackendTier, &UnitArgs{
		Env:                         env,
		Tier:                        BackendTier,
		Sizing:                      env.Backend,
		Region:                      args.Region,
		ClusterArn:                  args.Cluster.ClusterArn,
		ClusterName:                 args.Cluster.ClusterName,
		VpcID:                       h.VpcID,
		ServiceSubnetIDs:            h.PrivateSubnetIDs,
		LoadBalancerSubnetIDs:       h.PrivateSubnetIDs,
		ServiceSecurityGroupID:      h.SecurityGroups.Backend,
		LoadBalancerSecurityGroupID: h.SecurityGroups.BackendLB,
		RepositoryURL:               h.BackendRepositoryURL,
		Internal:                    true,
		Listener:                    ListenerSpec{Port: 80, Protocol: "HTTP"},
		TaskRolePolicies:            backendTaskPolicies,
		CapacityProviders:           args.Cluster.CapacityProviders,
	}, parent)
	if err != nil {
		return nil, err
	}

	_, err = route53.NewRecord(ctx, fmt.Sprintf("backend-a-%s", env.Name), &route53.RecordArgs{
		ZoneId: h.PrivateZoneID,
		Name:   pulumi.String(env.Backend.Domain),
		Type:   pulumi.String("A"),
		Aliases: route53.RecordAliasArray{
			&route53.RecordAliasArgs{
				Name:                 unit.AlbDNSName,
				ZoneId:               unit.AlbZoneID,
				EvaluateTargetHealth: pulumi.Bool(true),
			},
		},
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating backend record: %w", err)
	}

	apiName := fmt.Sprintf("api-%s", env.Name)
	api, err := apigatewayv2.NewApi(ctx, apiName, &apigatewayv2.ApiArgs{
		Name:         pulumi.String(apiName),
		ProtocolType: pulumi.String("HTTP"),
		Tags:         pulumi.ToStringMap(env.Tags("api")),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating http api: %w", err)
	}

	integration, err := apigatewayv2.NewIntegration(ctx, apiName+"-alb", &apigatewayv2.IntegrationArgs{
		ApiId:                api.ID(),
		IntegrationType:      pulumi.String("HTTP_PROXY"),
		IntegrationMethod:    pulumi.String("ANY"),
		IntegrationUri:       unit.ProductionListenerArn,
		ConnectionType:       pulumi.String("VPC_LINK"),
		ConnectionId:         h.VpcLinkID,
		PayloadFormatVersion: pulumi.String("1.0"),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating api integration: %w", err)
	}

	_, err = apigatewayv2.NewRoute(ctx, apiName+"-webhooks", &apigatewayv2.RouteArgs{
		ApiId:    api.ID(),
		RouteKey: pulumi.String(WebhookRoute),
		Target:   pulumi.Sprintf("integrations/%s", integration.ID()),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating webhook route: %w", err)
	}

	stage, err := apigatewayv2.NewStage(ctx, apiName+"-default", &apigatewayv2.StageArgs{
		ApiId:      api.ID(),
		Name:       pulumi.String("$default"),
		AutoDeploy: pulumi.Bool(true),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating api stage: %w", err)
	}

	domain, err := apigatewayv2.NewDomainName(ctx, apiName+"-domain", &apigatewayv2.DomainNameArgs{
		DomainName: pulumi.String(env.APIGatewayDomain),
		DomainNameConfiguration: &apigatewayv2.DomainNameDomainNameConfigurationArgs{
			CertificateArn: h.CertificateArn,
			EndpointType:   pulumi.String("REGIONAL"),
			SecurityPolicy: pulumi.String("TLS_1_2"),
		},
		Tags: pulumi.ToStringMap(env.Tags("api")),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating api domain: %w", err)
	}

	for _, recordType := range []string{"A", "AAAA"} {
		_, err = route53.NewRecord(ctx, fmt.Sprintf("api-%s-%s", recordType, env.Name), &route53.RecordArgs{
			ZoneId: h.PublicZoneID,
			Name:   pulumi.String(env.APIGatewayDomain),
			Type:   pulumi.String(recordType),
			Aliases: route53.RecordAliasArray{
				&route53.RecordAliasArgs{
					Name:                 domain.DomainNameConfiguration.TargetDomainName().Elem(),
					ZoneId:               domain.DomainNameConfiguration.HostedZoneId().Elem(),
					EvaluateTargetHealth: pulumi.Bool(false),
				},
			},
		}, parent)
		if err != nil {
			return nil, fmt.Errorf("creating api %s record: %w", recordType, err)
		}
	}

	_, err = apigatewayv2.NewApiMapping(ctx, apiName+"-mapping", &apigatewayv2.ApiMappingArgs{
		ApiId:      api.ID(),
		DomainName: domain.ID(),
		Stage:      stage.ID(),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating api mapping: %w", err)
	}

	b.Unit = unit
	b.Domain = env.Backend.Domain
	b.APIGatewayID = api.ID().ToStringOutput()
	b.APIEndpoint = api.ApiEndpoint

	if err := ctx.RegisterResourceOutputs(b, pulumi.Map{
		"apiGatewayId": b.APIGatewayID,
	}); err != nil {
		return nil, err
	}
	return b, nil
}
