package application

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/ecs"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"webapp-infra/internal/environment"
)

type ClusterArgs struct {
	Env environment.Environment
}

// Cluster is the ECS cluster both deployable units run in.
type Cluster struct {
	pulumi.ResourceState

	ClusterArn  pulumi.StringOutput
	ClusterName pulumi.StringOutput
	// CapacityProviders must exist before any service names FARGATE_SPOT in its strategy.
	CapacityProviders *ecs.ClusterCapacityProviders
}

func NewCluster(ctx *pulumi.Context, name string, args *ClusterArgs, opts ...pulumi.ResourceOption) (*Cluster, error) {
	c := &Cluster{}
	if err := ctx.RegisterComponentResource("webapp:application:Cluster", name, c, opts...); err != nil {
		return nil, err
	}
	env := args.Env

	clusterName := fmt.Sprintf("cluster-%s", env.Name)
	cluster, err := ecs.NewCluster(ctx, clusterName, &ecs.ClusterArgs{
		Name: pulumi.String(clusterName),
		Settings: ecs.ClusterSettingArray{
			&ecs.ClusterSettingArgs{
				Name:  pulumi.String("containerInsights"),
				Value: pulumi.String("enabled"),
			},
		},
		Tags: pulumi.ToStringMap(env.Tags("cluster")),
	}, pulumi.Parent(c))
	if err != nil {
		return nil, fmt.Errorf("creating cluster: %w", err)
	}

	providers, err := ecs.NewClusterCapacityProviders(ctx, clusterName+"-capacity", &ecs.ClusterCapacityProvidersArgs{
		ClusterName:       cluster.Name,
		CapacityProviders: pulumi.ToStringArray([]string{"FARGATE", "FARGATE_SPOT"}),
	}, pulumi.Parent(c))
	if err != nil {
		return nil, fmt.Errorf("attaching capacity providers: %w", err)
	}

	c.ClusterArn = cluster.Arn
	c.ClusterName = cluster.Name
	c.CapacityProviders = providers

	if err := ctx.RegisterResourceOutputs(c, pulumi.Map{
		"clusterName": c.ClusterName,
	}); err != nil {
		return nil, err
	}
	return c, nil
}
