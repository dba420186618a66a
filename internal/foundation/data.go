package foundation

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/elasticache"
	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/iam"
	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/rds"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"webapp-infra/internal/environment"
	"webapp-infra/internal/policy"
)

const (
	databaseEngineVersion = "18.1"
	databaseFamily        = "postgres18"
	databaseInstanceClass = "db.t4g.small"
	databaseUsername      = "postgres"
	databasePort          = 5432
	cachePort             = 6379
)

type DataStoresArgs struct {
	Env               environment.Environment
	IsolatedSubnetIDs pulumi.StringArrayInput
	DatabaseGroupID   pulumi.StringInput
	CacheGroupID      pulumi.StringInput
	DatabasePassword  pulumi.StringInput
}

type DataStores struct {
	pulumi.ResourceState

	DatabaseArn  pulumi.StringOutput
	DatabaseHost pulumi.StringOutput
	DatabasePort pulumi.IntOutput
	CacheArn     pulumi.StringOutput
	CacheHost    pulumi.StringOutput
	CachePort    pulumi.IntOutput
}

func NewDataStores(ctx *pulumi.Context, name string, args *DataStoresArgs, opts ...pulumi.ResourceOption) (*DataStores, error) {
	d := &DataStores{}
	if err := ctx.RegisterComponentResource("webapp:foundation:DataStores", name, d, opts...); err != nil {
		return nil, err
	}
	parent := pulumi.Parent(d)
	env := args.Env

	// Create DB Parameter Group
	parameterGroup, err := rds.NewParameterGroup(ctx, fmt.Sprintf("database-pg-%s", env.Name), &rds.ParameterGroupArgs{
		Name:        pulumi.String(fmt.Sprintf("database-pg-%s", env.Name)),
		Family:      pulumi.String(databaseFamily),
		Description: pulumi.String(fmt.Sprintf("Postgres parameters for %s", env.Name)),
		Parameters: rds.ParameterGroupParameterArray{
			&rds.ParameterGroupParameterArgs{
				Name:  pulumi.String("log_min_duration_statement"),
				Value: pulumi.String("500"),
			},
			&rds.ParameterGroupParameterArgs{
				Name:        pulumi.String("shared_preload_libraries"),
				Value:       pulumi.String("pg_stat_statements,pg_cron"),
				ApplyMethod: pulumi.String("pending-reboot"),
			},
		},
		Tags: pulumi.ToStringMap(env.Tags("database-pg")),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating parameter group: %w", err)
	}

	// Create DB Subnet Group on the isolated tier
	subnetGroup, err := rds.NewSubnetGroup(ctx, fmt.Sprintf("database-subnets-%s", env.Name), &rds.SubnetGroupArgs{
		Name:      pulumi.String(fmt.Sprintf("database-subnets-%s", env.Name)),
		SubnetIds: args.IsolatedSubnetIDs,
		Tags:      pulumi.ToStringMap(env.Tags("database-subnets")),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating db subnet group: %w", err)
	}

	monitoringRole, err := iam.NewRole(ctx, fmt.Sprintf("database-monitoring-%s", env.Name), &iam.RoleArgs{
		AssumeRolePolicy: policy.AssumeRole(ctx, "monitoring.rds.amazonaws.com"),
		Tags:             pulumi.ToStringMap(env.Tags("database-monitoring")),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating monitoring role: %w", err)
	}
	_, err = iam.NewRolePolicyAttachment(ctx, fmt.Sprintf("database-monitoring-%s", env.Name), &iam.RolePolicyAttachmentArgs{
		Role:      monitoringRole.Name,
		PolicyArn: pulumi.String("arn:aws:iam::aws:policy/service-role/AmazonRDSEnhancedMonitoringRole"),
	}, parent)
	if err != nil {
		return nil, err
	}

	// Deletion protection plus a final snapshot
	identifier := fmt.Sprintf("database-%s", env.Name)
	db, err := rds.NewInstance(ctx, identifier, &rds.InstanceArgs{
		Identifier:                         pulumi.String(identifier),
		Engine:                             pulumi.String("postgres"),
		EngineVersion:                      pulumi.String(databaseEngineVersion),
		InstanceClass:                      pulumi.String(databaseInstanceClass),
		Username:                           pulumi.String(databaseUsername),
		Password:                           args.DatabasePassword,
		Port:                               pulumi.Int(databasePort),
		DbSubnetGroupName:                  subnetGroup.Name,
		VpcSecurityGroupIds:                pulumi.StringArray{args.DatabaseGroupID},
		ParameterGroupName:                 parameterGroup.Name,
		AllocatedStorage:                   pulumi.Int(20),
		MaxAllocatedStorage:                pulumi.Int(1000),
		StorageType:                        pulumi.String("gp3"),
		PubliclyAccessible:                 pulumi.Bool(false),
		MultiAz:                            pulumi.Bool(true),
		StorageEncrypted:                   pulumi.Bool(true),
		DeletionProtection:                 pulumi.Bool(true),
		SkipFinalSnapshot:                  pulumi.Bool(false),
		FinalSnapshotIdentifier:            pulumi.String(fmt.Sprintf("%s-final", identifier)),
		AutoMinorVersionUpgrade:            pulumi.Bool(true),
		MonitoringInterval:                 pulumi.Int(60),
		MonitoringRoleArn:                  monitoringRole.Arn,
		PerformanceInsightsEnabled:         pulumi.Bool(true),
		PerformanceInsightsRetentionPeriod: pulumi.Int(7),
		EnabledCloudwatchLogsExports:       pulumi.StringArray{pulumi.String("postgresql")},
		BackupRetentionPeriod:              pulumi.Int(7),
		BackupWindow:                       pulumi.String("15:00-16:00"),
		MaintenanceWindow:                  pulumi.String("sun:18:00-sun:19:00"),
		CopyTagsToSnapshot:                 pulumi.Bool(true),
		Tags:                               pulumi.ToStringMap(env.Tags("database")),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	cache, err := elasticache.NewServerlessCache(ctx, fmt.Sprintf("cache-%s", env.Name), &elasticache.ServerlessCacheArgs{
		Name:                   pulumi.String(fmt.Sprintf("valkey-cache-%s", env.Name)),
		Engine:                 pulumi.String("valkey"),
		MajorEngineVersion:     pulumi.String("8"),
		SubnetIds:              args.IsolatedSubnetIDs,
		SecurityGroupIds:       pulumi.StringArray{args.CacheGroupID},
		SnapshotRetentionLimit: pulumi.Int(1),
		Tags:                   pulumi.ToStringMap(env.Tags("cache")),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	d.DatabaseArn = db.Arn
	d.DatabaseHost = db.Address
	d.DatabasePort = db.Port
	d.CacheArn = cache.Arn
	d.CacheHost = cache.Endpoints.ApplyT(func(eps []elasticache.ServerlessCacheEndpoint) string {
		if len(eps) == 0 || eps[0].Address == nil {
			return ""
		}
		return *eps[0].Address
	}).(pulumi.StringOutput)
	d.CachePort = cache.Endpoints.ApplyT(func(eps []elasticache.ServerlessCacheEndpoint) int {
		if len(eps) == 0 || eps[0].Port == nil {
			return cachePort
		}
		return *eps[0].Port
	}).(pulumi.IntOutput)

	if err := ctx.RegisterResourceOutputs(d, pulumi.Map{
		"databaseArn":  d.DatabaseArn,
		"databaseHost": d.DatabaseHost,
		"databasePort": d.DatabasePort,
		"cacheArn":     d.CacheArn,
		"cacheHost":    d.CacheHost,
		"cachePort":    d.CachePort,
	}); err != nil {
		return nil, err
	}
	return d, nil
}
