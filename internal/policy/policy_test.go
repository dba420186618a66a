package policy

import (
	"testing"

	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/iam"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webapp-infra/internal/pulumitest"
)

const rolePolicyType = "aws:iam/rolePolicy:RolePolicy"

func TestAssumeRole(t *testing.T) {
	mocks := pulumitest.NewMocks()
	err := mocks.Run(func(ctx *pulumi.Context) error {
		_, err := iam.NewRole(ctx, "task-role", &iam.RoleArgs{
			AssumeRolePolicy: AssumeRole(ctx, "ecs-tasks.amazonaws.com"),
		})
		return err
	})
	require.NoError(t, err)

	role, ok := mocks.Resource("aws:iam/role:Role", "task-role")
	require.True(t, ok)
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": {"Service": ["ecs-tasks.amazonaws.com"]},
			"Action": ["sts:AssumeRole"]
		}]
	}`, role.String("assumeRolePolicy"))
}

func TestDocumentResolvesOutputs(t *testing.T) {
	mocks := pulumitest.NewMocks()
	err := mocks.Run(func(ctx *pulumi.Context) error {
		bucketArn := pulumi.String("arn:aws:s3:::bucket").ToStringOutput()
		distributionArn := pulumi.String("arn:aws:cloudfront::123:distribution/ABC").ToStringOutput()
		_, err := iam.NewRolePolicy(ctx, "read", &iam.RolePolicyArgs{
			Role: pulumi.String("role"),
			Policy: Document(ctx, iam.GetPolicyDocumentStatementArgs{
				Sid:        pulumi.String("AllowCloudFrontRead"),
				Effect:     pulumi.String("Allow"),
				Principals: Service("cloudfront.amazonaws.com"),
				Actions:    pulumi.ToStringArray([]string{"s3:GetObject"}),
				Resources:  pulumi.StringArray{pulumi.Sprintf("%s/*", bucketArn)},
				Conditions: SourceArn("StringEquals", "AWS:SourceArn", distributionArn),
			}),
		})
		return err
	})
	require.NoError(t, err)

	p, ok := mocks.Resource(rolePolicyType, "read")
	require.True(t, ok)
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Sid": "AllowCloudFrontRead",
			"Effect": "Allow",
			"Principal": {"Service": ["cloudfront.amazonaws.com"]},
			"Action": ["s3:GetObject"],
			"Resource": ["arn:aws:s3:::bucket/*"],
			"Condition": {"StringEquals": {"AWS:SourceArn": ["arn:aws:cloudfront::123:distribution/ABC"]}}
		}]
	}`, p.String("policy"))
}

func TestAllow(t *testing.T) {
	mocks := pulumitest.NewMocks()
	err := mocks.Run(func(ctx *pulumi.Context) error {
		_, err := iam.NewRolePolicy(ctx, "send", &iam.RolePolicyArgs{
			Role:   pulumi.String("role"),
			Policy: Document(ctx, Allow(pulumi.ToStringArray([]string{"arn:aws:sqs:::queue.fifo"}), "sqs:SendMessage")),
		})
		return err
	})
	require.NoError(t, err)

	p, ok := mocks.Resource(rolePolicyType, "send")
	require.True(t, ok)
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{"Effect": "Allow", "Action": ["sqs:SendMessage"], "Resource": ["arn:aws:sqs:::queue.fifo"]}]
	}`, p.String("policy"))
}
