package application

import (
	"encoding/json"
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/sqs"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"webapp-infra/internal/environment"
)

const (
	queueVisibilityTimeout = 30
	queueRetention         = 24 * 60 * 60
	deadLetterRetention    = 4 * 24 * 60 * 60
	// MaxReceiveCount is how many failed receives move a message to the dead-letter queue.
	MaxReceiveCount = 3
)

type QueuesArgs struct {
	Env environment.Environment
}

// Queues is the FIFO work queue and its dead-letter queue.
type Queues struct {
	pulumi.ResourceState

	QueueArn           pulumi.StringOutput
	QueueURL           pulumi.StringOutput
	DeadLetterQueueArn pulumi.StringOutput
	DeadLetterQueueURL pulumi.StringOutput
}

// RedrivePolicy is the queue attribute pointing failed messages at the dead-letter queue.
func RedrivePolicy(deadLetterArn string, maxReceiveCount int) (string, error) {
	b, err := json.Marshal(struct {
		DeadLetterTargetArn string `json:"deadLetterTargetArn"`
		MaxReceiveCount     int    `json:"maxReceiveCount"`
	}{deadLetterArn, maxReceiveCount})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func fifoQueueArgs(name string, retention int, tags map[string]string) *sqs.QueueArgs {
	return &sqs.QueueArgs{
		Name:                      pulumi.String(name),
		FifoQueue:                 pulumi.Bool(true),
		ContentBasedDeduplication: pulumi.Bool(true),
		DeduplicationScope:        pulumi.String("messageGroup"),
		FifoThroughputLimit:       pulumi.String("perMessageGroupId"),
		VisibilityTimeoutSeconds:  pulumi.Int(queueVisibilityTimeout),
		MessageRetentionSeconds:   pulumi.Int(retention),
		Tags:                      pulumi.ToStringMap(tags),
	}
}

func NewQueues(ctx *pulumi.Context, name string, args *QueuesArgs, opts ...pulumi.ResourceOption) (*Queues, error) {
	q := &Queues{}
	if err := ctx.RegisterComponentResource("webapp:application:Queues", name, q, opts...); err != nil {
		return nil, err
	}
	env := args.Env

	dlqName := fmt.Sprintf("dlq-%s", env.Name)
	dlq, err := sqs.NewQueue(ctx, dlqName,
		fifoQueueArgs(dlqName+".fifo", deadLetterRetention, env.Tags("dlq")),
		pulumi.Parent(q))
	if err != nil {
		return nil, fmt.Errorf("creating dead-letter queue: %w", err)
	}

	queueName := fmt.Sprintf("queue-%s", env.Name)
	queueArgs := fifoQueueArgs(queueName+".fifo", queueRetention, env.Tags("queue"))
	queueArgs.RedrivePolicy = dlq.Arn.ApplyT(func(arn string) (string, error) {
		return RedrivePolicy(arn, MaxReceiveCount)
	}).(pulumi.StringOutput)
	queue, err := sqs.NewQueue(ctx, queueName, queueArgs, pulumi.Parent(q))
	if err != nil {
		return nil, fmt.Errorf("creating queue: %w", err)
	}

	q.QueueArn = queue.Arn
	q.QueueURL = queue.Url
	q.DeadLetterQueueArn = dlq.Arn
	q.DeadLetterQueueURL = dlq.Url

	if err := ctx.RegisterResourceOutputs(q, pulumi.Map{
		"queueArn":           q.QueueArn,
		"deadLetterQueueArn": q.DeadLetterQueueArn,
	}); err != nil {
		return nil, err
	}
	return q, nil
}
