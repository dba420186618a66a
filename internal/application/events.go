package application

import (
	"encoding/json"
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/cloudwatch"
	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/iam"
	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/scheduler"
	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/sqs"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"webapp-infra/internal/environment"
	"webapp-infra/internal/policy"
)

// Message groups the producers write to. Consumers dispatch on these.
const (
	DeleteOldVerificationsGroup     = "deleteOldVerifications"
	MediaConvertJobStateChangeGroup = "mediaConvertJobStateChange"
)

const (
	cleanupSchedule   = "cron(0 1 * * ? *)"
	scheduleTimezone  = "Asia/Seoul"
	cleanupInput      = `{"createdAt":"<aws.scheduler.scheduled-time>"}`
	mediaConvertInput = `{"createdAt":"<createdAt>","jobId":"<jobId>","status":"<status>","outputGroupDetails":"<outputGroupDetails>"}`
)

// MediaConvertEventPattern matches MediaConvert job state changes.
func MediaConvertEventPattern() (string, error) {
	b, err := json.Marshal(map[string][]string{
		"source":      {"aws.mediaconvert"},
		"detail-type": {"MediaConvert Job State Change"},
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type EventsArgs struct {
	Env      environment.Environment
	QueueArn pulumi.StringOutput
	QueueURL pulumi.StringOutput
}

// Events are the producers that feed the FIFO queue: a daily cleanup schedule and the
// MediaConvert job state rule.
type Events struct {
	pulumi.ResourceState

	ScheduleArn pulumi.StringOutput
	RuleArn     pulumi.StringOutput
}

func NewEvents(ctx *pulumi.Context, name string, args *EventsArgs, opts ...pulumi.ResourceOption) (*Events, error) {
	e := &Events{}
	if err := ctx.RegisterComponentResource("webapp:application:Events", name, e, opts...); err != nil {
		return nil, err
	}
	env := args.Env
	parent := pulumi.Parent(e)

	pattern, err := MediaConvertEventPattern()
	if err != nil {
		return nil, err
	}

	ruleName := fmt.Sprintf("rule-%s-media-convert-job-state-change", env.Name)
	rule, err := cloudwatch.NewEventRule(ctx, ruleName, &cloudwatch.EventRuleArgs{
		Name:         pulumi.String(ruleName),
		EventPattern: pulumi.String(pattern),
		Tags:         pulumi.ToStringMap(env.Tags("events")),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating event rule: %w", err)
	}

	queuePolicy, err := sqs.NewQueuePolicy(ctx, fmt.Sprintf("queue-policy-%s", env.Name), &sqs.QueuePolicyArgs{
		QueueUrl: args.QueueURL,
		Policy: policy.Document(ctx, iam.GetPolicyDocumentStatementArgs{
			Sid:        pulumi.String("AllowEventBridgeSend"),
			Effect:     pulumi.String("Allow"),
			Principals: policy.Service("events.amazonaws.com"),
			Actions:    pulumi.ToStringArray([]string{"sqs:SendMessage"}),
			Resources:  pulumi.StringArray{args.QueueArn},
			Conditions: policy.SourceArn("ArnEquals", "aws:SourceArn", rule.Arn),
		}),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating queue policy: %w", err)
	}

	_, err = cloudwatch.NewEventTarget(ctx, ruleName+"-target", &cloudwatch.EventTargetArgs{
		Rule: rule.Name,
		Arn:  args.QueueArn,
		SqsTarget: &cloudwatch.EventTargetSqsTargetArgs{
			MessageGroupId: pulumi.String(MediaConvertJobStateChangeGroup),
		},
		InputTransformer: &cloudwatch.EventTargetInputTransformerArgs{
			InputPaths: pulumi.StringMap{
				"createdAt":          pulumi.String("$.time"),
				"jobId":              pulumi.String("$.detail.jobId"),
				"status":             pulumi.String("$.detail.status"),
				"outputGroupDetails": pulumi.String("$.detail.outputGroupDetails"),
			},
			InputTemplate: pulumi.String(mediaConvertInput),
		},
	}, parent, pulumi.DependsOn([]pulumi.Resource{queuePolicy}))
	if err != nil {
		return nil, fmt.Errorf("creating event target: %w", err)
	}

	roleName := fmt.Sprintf("scheduler-role-%s", env.Name)
	role, err := iam.NewRole(ctx, roleName, &iam.RoleArgs{
		Name:             pulumi.String(roleName),
		AssumeRolePolicy: policy.AssumeRole(ctx, "scheduler.amazonaws.com"),
		Tags:             pulumi.ToStringMap(env.Tags("scheduler")),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating scheduler role: %w", err)
	}

	_, err = iam.NewRolePolicy(ctx, roleName+"-send", &iam.RolePolicyArgs{
		Role:   role.Name,
		Policy: policy.Document(ctx, policy.Allow(pulumi.StringArray{args.QueueArn}, "sqs:SendMessage")),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating scheduler role policy: %w", err)
	}

	scheduleName := fmt.Sprintf("schedule-%s-delete-old-verifications", env.Name)
	schedule, err := scheduler.NewSchedule(ctx, scheduleName, &scheduler.ScheduleArgs{
		Name:                       pulumi.String(scheduleName),
		ScheduleExpression:         pulumi.String(cleanupSchedule),
		ScheduleExpressionTimezone: pulumi.String(scheduleTimezone),
		FlexibleTimeWindow: &scheduler.ScheduleFlexibleTimeWindowArgs{
			Mode: pulumi.String("OFF"),
		},
		Target: &scheduler.ScheduleTargetArgs{
			Arn:     args.QueueArn,
			RoleArn: role.Arn,
			Input:   pulumi.String(cleanupInput),
			SqsParameters: &scheduler.ScheduleTargetSqsParametersArgs{
				MessageGroupId: pulumi.String(DeleteOldVerificationsGroup),
			},
			RetryPolicy: &scheduler.ScheduleTargetRetryPolicyArgs{
				MaximumRetryAttempts:     pulumi.Int(3),
				MaximumEventAgeInSeconds: pulumi.Int(3600),
			},
		},
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating schedule: %w", err)
	}

	e.ScheduleArn = schedule.Arn
	e.RuleArn = rule.Arn

	if err := ctx.RegisterResourceOutputs(e, pulumi.Map{
		"scheduleArn": e.ScheduleArn,
		"ruleArn":     e.RuleArn,
	}); err != nil {
		return nil, err
	}
	return e, nil
}
