package application

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/cloudwatch"
	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/ecs"
	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/iam"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"webapp-infra/internal/policy"
)

const (
	logRetentionDays = 30
	logStreamPrefix  = "ecs"

	executionRolePolicy = "arn:aws:iam::aws:policy/service-role/AmazonECSTaskExecutionRolePolicy"
	s3ReadOnlyPolicy    = "arn:aws:iam::aws:policy/AmazonS3ReadOnlyAccess"
)

// ContainerSpec describes the single container of a task.
type ContainerSpec struct {
	Name        string
	Image       string
	Port        int
	EnvFileArn  string
	Environment map[string]string
	LogGroup    string
	Region      string
}

type portMapping struct {
	ContainerPort int    `json:"containerPort"`
	Protocol      string `json:"protocol"`
}

type keyValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type environmentFile struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type logConfiguration struct {
	LogDriver string            `json:"logDriver"`
	Options   map[string]string `json:"options"`
}

type containerDefinition struct {
	Name             string            `json:"name"`
	Image            string            `json:"image"`
	Essential        bool              `json:"essential"`
	PortMappings     []portMapping     `json:"portMappings"`
	Environment      []keyValue        `json:"environment,omitempty"`
	EnvironmentFiles []environmentFile `json:"environmentFiles,omitempty"`
	LogConfiguration logConfiguration  `json:"logConfiguration"`
}

// ContainerDefinitions renders the task's container definition list.
func ContainerDefinitions(spec ContainerSpec) (string, error) {
	def := containerDefinition{
		Name:         spec.Name,
		Image:        spec.Image,
		Essential:    true,
		PortMappings: []portMapping{{ContainerPort: spec.Port, Protocol: "tcp"}},
		LogConfiguration: logConfiguration{
			LogDriver: "awslogs",
			Options: map[string]string{
				"awslogs-group":         spec.LogGroup,
				"awslogs-region":        spec.Region,
				"awslogs-stream-prefix": logStreamPrefix,
			},
		},
	}
	if spec.EnvFileArn != "" {
		def.EnvironmentFiles = []environmentFile{{Type: "s3", Value: spec.EnvFileArn}}
	}

	keys := make([]string, 0, len(spec.Environment))
	for k := range spec.Environment {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		def.Environment = append(def.Environment, keyValue{Name: k, Value: spec.Environment[k]})
	}

	b, err := json.Marshal([]containerDefinition{def})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type taskArgs struct {
	unit          *UnitArgs
	repositoryURL pulumi.StringInput
}

type task struct {
	definition    *ecs.TaskDefinition
	executionRole *iam.Role
	taskRole      *iam.Role
	logGroup      *cloudwatch.LogGroup
}

func attachPolicies(ctx *pulumi.Context, role *iam.Role, roleName string, arns []string, opts ...pulumi.ResourceOption) error {
	for i, arn := range arns {
		_, err := iam.NewRolePolicyAttachment(ctx, fmt.Sprintf("%s-policy-%d", roleName, i), &iam.RolePolicyAttachmentArgs{
			Role:      role.Name,
			PolicyArn: pulumi.String(arn),
		}, opts...)
		if err != nil {
			return fmt.Errorf("attaching %s to %s: %w", arn, roleName, err)
		}
	}
	return nil
}

// newTask creates the roles, log group and task definition of a unit.
func newTask(ctx *pulumi.Context, args taskArgs, opts ...pulumi.ResourceOption) (*task, error) {
	u := args.unit
	env := u.Env
	tags := pulumi.ToStringMap(env.Tags(u.Tier))

	executionRoleName := fmt.Sprintf("%s-execution-role-%s", u.Tier, env.Name)
	executionRole, err := iam.NewRole(ctx, executionRoleName, &iam.RoleArgs{
		Name:             pulumi.String(executionRoleName),
		AssumeRolePolicy: policy.AssumeRole(ctx, "ecs-tasks.amazonaws.com"),
		Tags:             tags,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating execution role: %w", err)
	}
	if err := attachPolicies(ctx, executionRole, executionRoleName,
		[]string{executionRolePolicy, s3ReadOnlyPolicy}, opts...); err != nil {
		return nil, err
	}

	taskRoleName := fmt.Sprintf("%s-task-role-%s", u.Tier, env.Name)
	taskRole, err := iam.NewRole(ctx, taskRoleName, &iam.RoleArgs{
		Name:             pulumi.String(taskRoleName),
		AssumeRolePolicy: policy.AssumeRole(ctx, "ecs-tasks.amazonaws.com"),
		Tags:             tags,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating task role: %w", err)
	}
	if err := attachPolicies(ctx, taskRole, taskRoleName, u.TaskRolePolicies, opts...); err != nil {
		return nil, err
	}

	logGroupName := fmt.Sprintf("/ecs/%s-%s", u.Tier, env.Name)
	logGroup, err := cloudwatch.NewLogGroup(ctx, fmt.Sprintf("%s-logs-%s", u.Tier, env.Name), &cloudwatch.LogGroupArgs{
		Name:            pulumi.String(logGroupName),
		RetentionInDays: pulumi.Int(logRetentionDays),
		Tags:            tags,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating log group: %w", err)
	}

	image := pulumi.Sprintf("%s:%s", args.repositoryURL, env.ImageTag())
	containers := image.ApplyT(func(image string) (string, error) {
		return ContainerDefinitions(ContainerSpec{
			Name:        env.ContainerName,
			Image:       image,
			Port:        env.ContainerPort,
			EnvFileArn:  env.EnvFileArn(u.Sizing),
			Environment: u.Environment,
			LogGroup:    logGroupName,
			Region:      u.Region,
		})
	}).(pulumi.StringOutput)

	family := fmt.Sprintf("%s-task-def-%s", u.Tier, env.Name)
	definition, err := ecs.NewTaskDefinition(ctx, family, &ecs.TaskDefinitionArgs{
		Family:                  pulumi.String(family),
		Cpu:                     pulumi.String(strconv.Itoa(int(u.Sizing.CPU))),
		Memory:                  pulumi.String(strconv.Itoa(int(u.Sizing.Memory))),
		NetworkMode:             pulumi.String("awsvpc"),
		RequiresCompatibilities: pulumi.ToStringArray([]string{"FARGATE"}),
		ExecutionRoleArn:        executionRole.Arn,
		TaskRoleArn:             taskRole.Arn,
		ContainerDefinitions:    containers,
		RuntimePlatform: &ecs.TaskDefinitionRuntimePlatformArgs{
			CpuArchitecture:       pulumi.String("X86_64"),
			OperatingSystemFamily: pulumi.String("LINUX"),
		},
		Tags: tags,
	}, append(opts, pulumi.DependsOn([]pulumi.Resource{logGroup}))...)
	if err != nil {
		return nil, fmt.Errorf("creating task definition: %w", err)
	}

	return &task{
		definition:    definition,
		executionRole: executionRole,
		taskRole:      taskRole,
		logGroup:      logGroup,
	}, nil
}
