package application

import (
	"fmt"
	"strconv"

	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/lb"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

const (
	TestListenerPort = 8080
	TestHeaderName   = "X-Environment"
	TestHeaderValue  = "test"

	healthCheckPath      = "/health"
	healthCheckInterval  = 30
	healthCheckTimeout   = 5
	healthyThreshold     = 2
	unhealthyThreshold   = 2
	deregistrationDelay  = 30
	listenerRulePriority = 1

	tlsPolicy = "ELBSecurityPolicy-TLS13-1-2-2021-06"
)

// ListenerSpec is the production listener of a unit.
type ListenerSpec struct {
	Port     int
	Protocol string
	// CertificateArn is required when Protocol is HTTPS.
	CertificateArn pulumi.StringInput
}

type loadBalancer struct {
	alb   *lb.LoadBalancer
	blue  *lb.TargetGroup
	green *lb.TargetGroup

	productionListener *lb.Listener
	testListener       *lb.Listener
	productionRule     *lb.ListenerRule
	testRule           *lb.ListenerRule
}

// weightedForward sends all traffic to primary while keeping secondary attached at weight 0,
// so ECS can shift weights during a deployment.
func weightedForward(primary, secondary *lb.TargetGroup) lb.ListenerRuleActionArray {
	return lb.ListenerRuleActionArray{
		&lb.ListenerRuleActionArgs{
			Type: pulumi.String("forward"),
			Forward: &lb.ListenerRuleActionForwardArgs{
				TargetGroups: lb.ListenerRuleActionForwardTargetGroupArray{
					&lb.ListenerRuleActionForwardTargetGroupArgs{Arn: primary.Arn, Weight: pulumi.Int(100)},
					&lb.ListenerRuleActionForwardTargetGroupArgs{Arn: secondary.Arn, Weight: pulumi.Int(0)},
				},
			},
		},
	}
}

func forwardTo(tg *lb.TargetGroup) lb.ListenerDefaultActionArray {
	return lb.ListenerDefaultActionArray{
		&lb.ListenerDefaultActionArgs{
			Type:           pulumi.String("forward"),
			TargetGroupArn: tg.Arn,
		},
	}
}

func newTargetGroup(ctx *pulumi.Context, name string, u *UnitArgs, opts ...pulumi.ResourceOption) (*lb.TargetGroup, error) {
	return lb.NewTargetGroup(ctx, name, &lb.TargetGroupArgs{
		Name:                pulumi.String(name),
		Port:                pulumi.Int(u.Env.ContainerPort),
		Protocol:            pulumi.String("HTTP"),
		TargetType:          pulumi.String("ip"),
		VpcId:               u.VpcID,
		DeregistrationDelay: pulumi.Int(deregistrationDelay),
		HealthCheck: &lb.TargetGroupHealthCheckArgs{
			Enabled:            pulumi.Bool(true),
			Path:               pulumi.String(healthCheckPath),
			Protocol:           pulumi.String("HTTP"),
			Interval:           pulumi.Int(healthCheckInterval),
			Timeout:            pulumi.Int(healthCheckTimeout),
			HealthyThreshold:   pulumi.Int(healthyThreshold),
			UnhealthyThreshold: pulumi.Int(unhealthyThreshold),
			Matcher:            pulumi.String("200"),
		},
		Tags: pulumi.ToStringMap(u.Env.Tags(u.Tier)),
	}, opts...)
}

// newLoadBalancer creates the ALB with its blue and green target groups, the production and
// test listeners, and the rules ECS rewrites during a deployment.
func newLoadBalancer(ctx *pulumi.Context, u *UnitArgs, opts ...pulumi.ResourceOption) (*loadBalancer, error) {
	env := u.Env
	tags := pulumi.ToStringMap(env.Tags(u.Tier))
	// ECS owns the forward weights once the service exists.
	ecsManaged := pulumi.IgnoreChanges([]string{"defaultActions", "actions"})

	albName := fmt.Sprintf("%s-alb-%s", u.Tier, env.Name)
	alb, err := lb.NewLoadBalancer(ctx, albName, &lb.LoadBalancerArgs{
		Name:             pulumi.String(albName),
		LoadBalancerType: pulumi.String("application"),
		Internal:         pulumi.Bool(u.Internal),
		IpAddressType:    pulumi.String("ipv4"),
		SecurityGroups:   pulumi.StringArray{u.LoadBalancerSecurityGroupID},
		Subnets:          u.LoadBalancerSubnetIDs,
		Tags:             tags,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating load balancer: %w", err)
	}

	blue, err := newTargetGroup(ctx, fmt.Sprintf("%s-blue-%s", u.Tier, env.Name), u, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating blue target group: %w", err)
	}
	green, err := newTargetGroup(ctx, fmt.Sprintf("%s-green-%s", u.Tier, env.Name), u, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating green target group: %w", err)
	}

	prodArgs := &lb.ListenerArgs{
		LoadBalancerArn: alb.Arn,
		Port:            pulumi.Int(u.Listener.Port),
		Protocol:        pulumi.String(u.Listener.Protocol),
		DefaultActions:  forwardTo(blue),
		Tags:            tags,
	}
	if u.Listener.Protocol == "HTTPS" {
		prodArgs.CertificateArn = u.Listener.CertificateArn
		prodArgs.SslPolicy = pulumi.String(tlsPolicy)
	}
	prodListener, err := lb.NewListener(ctx, fmt.Sprintf("%s-listener-%d-%s", u.Tier, u.Listener.Port, env.Name),
		prodArgs, append(opts, ecsManaged)...)
	if err != nil {
		return nil, fmt.Errorf("creating production listener: %w", err)
	}

	prodRule, err := lb.NewListenerRule(ctx, fmt.Sprintf("%s-production-rule-%s", u.Tier, env.Name), &lb.ListenerRuleArgs{
		ListenerArn: prodListener.Arn,
		Priority:    pulumi.Int(listenerRulePriority),
		Conditions: lb.ListenerRuleConditionArray{
			&lb.ListenerRuleConditionArgs{
				PathPattern: &lb.ListenerRuleConditionPathPatternArgs{
					Values: pulumi.ToStringArray([]string{"/*"}),
				},
			},
		},
		Actions: weightedForward(blue, green),
		Tags:    tags,
	}, append(opts, ecsManaged)...)
	if err != nil {
		return nil, fmt.Errorf("creating production listener rule: %w", err)
	}

	testListener, err := lb.NewListener(ctx, fmt.Sprintf("%s-listener-%d-%s", u.Tier, TestListenerPort, env.Name), &lb.ListenerArgs{
		LoadBalancerArn: alb.Arn,
		Port:            pulumi.Int(TestListenerPort),
		Protocol:        pulumi.String("HTTP"),
		DefaultActions:  forwardTo(green),
		Tags:            tags,
	}, append(opts, ecsManaged)...)
	if err != nil {
		return nil, fmt.Errorf("creating test listener: %w", err)
	}

	testRule, err := lb.NewListenerRule(ctx, fmt.Sprintf("%s-test-rule-%s", u.Tier, env.Name), &lb.ListenerRuleArgs{
		ListenerArn: testListener.Arn,
		Priority:    pulumi.Int(listenerRulePriority),
		Conditions: lb.ListenerRuleConditionArray{
			&lb.ListenerRuleConditionArgs{
				HttpHeader: &lb.ListenerRuleConditionHttpHeaderArgs{
					HttpHeaderName: pulumi.String(TestHeaderName),
					Values:         pulumi.ToStringArray([]string{TestHeaderValue}),
				},
			},
		},
		Actions: weightedForward(green, blue),
		Tags:    tags,
	}, append(opts, ecsManaged)...)
	if err != nil {
		return nil, fmt.Errorf("creating test listener rule: %w", err)
	}

	if u.RedirectHTTP {
		_, err = lb.NewListener(ctx, fmt.Sprintf("%s-listener-80-%s", u.Tier, env.Name), &lb.ListenerArgs{
			LoadBalancerArn: alb.Arn,
			Port:            pulumi.Int(80),
			Protocol:        pulumi.String("HTTP"),
			DefaultActions: lb.ListenerDefaultActionArray{
				&lb.ListenerDefaultActionArgs{
					Type: pulumi.String("redirect"),
					Redirect: &lb.ListenerDefaultActionRedirectArgs{
						Port:       pulumi.String(strconv.Itoa(u.Listener.Port)),
						Protocol:   pulumi.String(u.Listener.Protocol),
						StatusCode: pulumi.String("HTTP_301"),
					},
				},
			},
			Tags: tags,
		}, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating redirect listener: %w", err)
		}
	}

	return &loadBalancer{
		alb:                alb,
		blue:               blue,
		green:              green,
		productionListener: prodListener,
		testListener:       testListener,
		productionRule:     prodRule,
		testRule:           testRule,
	}, nil
}
