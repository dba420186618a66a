package application

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/appautoscaling"
	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/cloudwatch"
	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/ecs"
	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/iam"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"webapp-infra/internal/environment"
	"webapp-infra/internal/policy"
)

const (
	MinTasks            = 1
	MaxTasks            = 4
	CPUTargetPercent    = 70
	MemoryTargetPercent = 80
	ScalingCooldown     = 60
	BakeTimeMinutes     = 2
	OnDemandWeight      = 1
	SpotWeight          = 3

	healthCheckGrace  = 30
	minHealthyPercent = 100
	maxPercent        = 200
)

const loadBalancerRolePolicy = "arn:aws:iam::aws:policy/AmazonECSInfrastructureRolePolicyForLoadBalancers"

var ErrRedirectConflict = errors.New("redirect listener would collide with the production listener")

// UnitArgs parameterises a blue/green deployable unit.
type UnitArgs struct {
	Env environment.Environment
	// Tier is "backend" or "frontend" and prefixes every resource name.
	Tier   string
	Sizing environment.Tier
	Region string

	ClusterArn  pulumi.StringInput
	ClusterName pulumi.StringInput

	VpcID                       pulumi.StringInput
	ServiceSubnetIDs            pulumi.StringArrayInput
	LoadBalancerSubnetIDs       pulumi.StringArrayInput
	ServiceSecurityGroupID      pulumi.StringInput
	LoadBalancerSecurityGroupID pulumi.StringInput
	RepositoryURL               pulumi.StringInput

	Internal bool
	Listener ListenerSpec
	// RedirectHTTP adds a port 80 listener that redirects to the production listener.
	RedirectHTTP bool

	TaskRolePolicies []string
	Environment      map[string]string

	// CapacityProviders must be in place before the service is created.
	CapacityProviders pulumi.Resource
}

// DeployableUnit is one tier: task definition, Fargate service, ALB with blue and green
// target groups, and autoscaling.
type DeployableUnit struct {
	pulumi.ResourceState

	Tier   string
	CPU    environment.CPU
	Memory environment.Memory

	TaskDefinitionArn     pulumi.StringOutput
	ServiceName           pulumi.StringOutput
	ServiceArn            pulumi.StringOutput
	AlbArn                pulumi.StringOutput
	AlbDNSName            pulumi.StringOutput
	AlbZoneID             pulumi.StringOutput
	BlueTargetGroupArn    pulumi.StringOutput
	GreenTargetGroupArn   pulumi.StringOutput
	ProductionListenerArn pulumi.StringOutput
	TestListenerArn       pulumi.StringOutput
	AlarmName             string
}

func NewDeployableUnit(ctx *pulumi.Context, name string, args *UnitArgs, opts ...pulumi.ResourceOption) (*DeployableUnit, error) {
	if args.RedirectHTTP && args.Listener.Port == 80 {
		return nil, ErrRedirectConflict
	}

	u := &DeployableUnit{Tier: args.Tier, CPU: args.Sizing.CPU, Memory: args.Sizing.Memory}
	if err := ctx.RegisterComponentResource("webapp:application:DeployableUnit", name, u, opts...); err != nil {
		return nil, err
	}
	env := args.Env
	parent := pulumi.Parent(u)
	tags := pulumi.ToStringMap(env.Tags(args.Tier))

	t, err := newTask(ctx, taskArgs{unit: args, repositoryURL: args.RepositoryURL}, parent)
	if err != nil {
		return nil, err
	}

	balancer, err := newLoadBalancer(ctx, args, parent)
	if err != nil {
		return nil, err
	}

	lbRoleName := fmt.Sprintf("%s-ecs-load-balancer-role-%s", args.Tier, env.Name)
	lbRole, err := iam.NewRole(ctx, lbRoleName, &iam.RoleArgs{
		Name:             pulumi.String(lbRoleName),
		AssumeRolePolicy: policy.AssumeRole(ctx, "ecs.amazonaws.com"),
		Tags:             tags,
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating load balancer role: %w", err)
	}
	if err := attachPolicies(ctx, lbRole, lbRoleName, []string{loadBalancerRolePolicy}, parent); err != nil {
		return nil, err
	}

	// The service rolls back when its target group starts returning 5xx during the bake.
	u.AlarmName = fmt.Sprintf("%s-alarm-%s", args.Tier, env.Name)
	alarm, err := cloudwatch.NewMetricAlarm(ctx, u.AlarmName, &cloudwatch.MetricAlarmArgs{
		Name:               pulumi.String(u.AlarmName),
		AlarmDescription:   pulumi.String(fmt.Sprintf("%s 5xx responses during deployment", args.Tier)),
		Namespace:          pulumi.String("AWS/ApplicationELB"),
		MetricName:         pulumi.String("HTTPCode_Target_5XX_Count"),
		Statistic:          pulumi.String("Sum"),
		ComparisonOperator: pulumi.String("GreaterThanThreshold"),
		Threshold:          pulumi.Float64(10),
		Period:             pulumi.Int(60),
		EvaluationPeriods:  pulumi.Int(2),
		TreatMissingData:   pulumi.String("notBreaching"),
		Dimensions: pulumi.StringMap{
			"LoadBalancer": balancer.alb.ArnSuffix,
		},
		Tags: tags,
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating deployment alarm: %w", err)
	}

	dependsOn := []pulumi.Resource{balancer.productionRule, balancer.testRule, alarm}
	if args.CapacityProviders != nil {
		dependsOn = append(dependsOn, args.CapacityProviders)
	}

	serviceName := fmt.Sprintf("%s-service-%s", args.Tier, env.Name)
	service, err := ecs.NewService(ctx, serviceName, &ecs.ServiceArgs{
		Name:           pulumi.String(serviceName),
		Cluster:        args.ClusterArn,
		TaskDefinition: t.definition.Arn,
		DesiredCount:   pulumi.Int(args.Sizing.DesiredCount),
		CapacityProviderStrategies: ecs.ServiceCapacityProviderStrategyArray{
			&ecs.ServiceCapacityProviderStrategyArgs{
				CapacityProvider: pulumi.String("FARGATE"),
				Weight:           pulumi.Int(OnDemandWeight),
			},
			&ecs.ServiceCapacityProviderStrategyArgs{
				CapacityProvider: pulumi.String("FARGATE_SPOT"),
				Weight:           pulumi.Int(SpotWeight),
			},
		},
		NetworkConfiguration: &ecs.ServiceNetworkConfigurationArgs{
			Subnets:        args.ServiceSubnetIDs,
			SecurityGroups: pulumi.StringArray{args.ServiceSecurityGroupID},
			AssignPublicIp: pulumi.Bool(false),
		},
		DeploymentMinimumHealthyPercent: pulumi.Int(minHealthyPercent),
		DeploymentMaximumPercent:        pulumi.Int(maxPercent),
		DeploymentController: &ecs.ServiceDeploymentControllerArgs{
			Type: pulumi.String("ECS"),
		},
		DeploymentConfiguration: &ecs.ServiceDeploymentConfigurationArgs{
			Strategy:          pulumi.String("BLUE_GREEN"),
			BakeTimeInMinutes: pulumi.String(strconv.Itoa(BakeTimeMinutes)),
		},
		DeploymentCircuitBreaker: &ecs.ServiceDeploymentCircuitBreakerArgs{
			Enable:   pulumi.Bool(true),
			Rollback: pulumi.Bool(true),
		},
		Alarms: &ecs.ServiceAlarmsArgs{
			AlarmNames: pulumi.ToStringArray([]string{u.AlarmName}),
			Enable:     pulumi.Bool(true),
			Rollback:   pulumi.Bool(true),
		},
		HealthCheckGracePeriodSeconds: pulumi.Int(healthCheckGrace),
		LoadBalancers: ecs.ServiceLoadBalancerArray{
			&ecs.ServiceLoadBalancerArgs{
				TargetGroupArn: balancer.blue.Arn,
				ContainerName:  pulumi.String(env.ContainerName),
				ContainerPort:  pulumi.Int(env.ContainerPort),
				AdvancedConfiguration: &ecs.ServiceLoadBalancerAdvancedConfigurationArgs{
					AlternateTargetGroupArn: balancer.green.Arn,
					ProductionListenerRule:  balancer.productionRule.Arn,
					TestListenerRule:        balancer.testRule.Arn,
					RoleArn:                 lbRole.Arn,
				},
			},
		},
		PropagateTags: pulumi.String("SERVICE"),
		Tags:          tags,
	}, parent, pulumi.DependsOn(dependsOn), pulumi.IgnoreChanges([]string{"desiredCount"}))
	if err != nil {
		return nil, fmt.Errorf("creating service: %w", err)
	}

	if err := newAutoscaling(ctx, args, service, parent); err != nil {
		return nil, err
	}

	u.TaskDefinitionArn = t.definition.Arn
	u.ServiceName = service.Name
	u.ServiceArn = service.ID().ToStringOutput()
	u.AlbArn = balancer.alb.Arn
	u.AlbDNSName = balancer.alb.DnsName
	u.AlbZoneID = balancer.alb.ZoneId
	u.BlueTargetGroupArn = balancer.blue.Arn
	u.GreenTargetGroupArn = balancer.green.Arn
	u.ProductionListenerArn = balancer.productionListener.Arn
	u.TestListenerArn = balancer.testListener.Arn

	if err := ctx.RegisterResourceOutputs(u, pulumi.Map{
		"serviceName": u.ServiceName,
		"albDnsName":  u.AlbDNSName,
	}); err != nil {
		return nil, err
	}
	return u, nil
}

func newAutoscaling(ctx *pulumi.Context, args *UnitArgs, service *ecs.Service, opts ...pulumi.ResourceOption) error {
	env := args.Env
	name := fmt.Sprintf("%s-scaling-%s", args.Tier, env.Name)

	target, err := appautoscaling.NewTarget(ctx, name, &appautoscaling.TargetArgs{
		MinCapacity:       pulumi.Int(MinTasks),
		MaxCapacity:       pulumi.Int(MaxTasks),
		ResourceId:        pulumi.Sprintf("service/%s/%s", args.ClusterName, service.Name),
		ScalableDimension: pulumi.String("ecs:service:DesiredCount"),
		ServiceNamespace:  pulumi.String("ecs"),
	}, opts...)
	if err != nil {
		return fmt.Errorf("creating scaling target: %w", err)
	}

	metrics := []struct {
		suffix string
		metric string
		target float64
	}{
		{"cpu", "ECSServiceAverageCPUUtilization", CPUTargetPercent},
		{"memory", "ECSServiceAverageMemoryUtilization", MemoryTargetPercent},
	}
	for _, m := range metrics {
		policyName := fmt.Sprintf("%s-%s", name, m.suffix)
		_, err := appautoscaling.NewPolicy(ctx, policyName, &appautoscaling.PolicyArgs{
			Name:              pulumi.String(policyName),
			PolicyType:        pulumi.String("TargetTrackingScaling"),
			ResourceId:        target.ResourceId,
			ScalableDimension: target.ScalableDimension,
			ServiceNamespace:  target.ServiceNamespace,
			TargetTrackingScalingPolicyConfiguration: &appautoscaling.PolicyTargetTrackingScalingPolicyConfigurationArgs{
				TargetValue:      pulumi.Float64(m.target),
				ScaleInCooldown:  pulumi.Int(ScalingCooldown),
				ScaleOutCooldown: pulumi.Int(ScalingCooldown),
				PredefinedMetricSpecification: &appautoscaling.PolicyTargetTrackingScalingPolicyConfigurationPredefinedMetricSpecificationArgs{
					PredefinedMetricType: pulumi.String(m.metric),
				},
			},
		}, opts...)
		if err != nil {
			return fmt.Errorf("creating %s scaling policy: %w", m.suffix, err)
		}
	}
	return nil
}
