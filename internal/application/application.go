// Package application provisions the per-release layer on top of the foundation: storage and
// CDN, the FIFO queue, the ECS cluster, the queue producers, and the backend and frontend
// blue/green units.
//
// Everything it needs from the foundation arrives as foundation.Handles.
package application

import (
	"fmt"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"webapp-infra/internal/environment"
	"webapp-infra/internal/foundation"
)

type Args struct {
	Config  *Config
	Handles foundation.Handles
}

// Application is the composed application layer.
type Application struct {
	pulumi.ResourceState

	Storage  *Storage
	Queues   *Queues
	Cluster  *Cluster
	Events   *Events
	Backend  *Backend
	Frontend *Frontend
}

func New(ctx *pulumi.Context, name string, args *Args, opts ...pulumi.ResourceOption) (*Application, error) {
	a := &Application{}
	if err := ctx.RegisterComponentResource("webapp:application:Application", name, a, opts...); err != nil {
		return nil, err
	}
	parent := pulumi.Parent(a)
	env := args.Config.Env
	h := args.Handles

	var err error
	a.Storage, err = NewStorage(ctx, "storage", &StorageArgs{
		Env:                  env,
		PublicZoneID:         h.PublicZoneID,
		GlobalCertificateArn: h.GlobalCertificateArn,
	}, parent)
	if err != nil {
		return nil, err
	}
	ctx.Log.Info(fmt.Sprintf("bucket removal policy for %s: %s",
		env.Name, environment.BucketRemovalPolicy(env.Name)), nil)

	a.Queues, err = NewQueues(ctx, "queues", &QueuesArgs{Env: env}, parent)
	if err != nil {
		return nil, err
	}

	a.Cluster, err = NewCluster(ctx, "cluster", &ClusterArgs{Env: env}, parent)
	if err != nil {
		return nil, err
	}

	a.Events, err = NewEvents(ctx, "events", &EventsArgs{
		Env:      env,
		QueueArn: a.Queues.QueueArn,
		QueueURL: a.Queues.QueueURL,
	}, parent)
	if err != nil {
		return nil, err
	}

	a.Backend, err = NewBackend(ctx, "backend-tier", &BackendArgs{
		Env:     env,
		Region:  args.Config.Region,
		Handles: h,
		Cluster: a.Cluster,
	}, parent)
	if err != nil {
		return nil, err
	}

	a.Frontend, err = NewFrontend(ctx, "frontend-tier", &FrontendArgs{
		Env:     env,
		Region:  args.Config.Region,
		Handles: h,
		Cluster: a.Cluster,
	}, parent)
	if err != nil {
		return nil, err
	}

	if err := ctx.RegisterResourceOutputs(a, pulumi.Map{
		"clusterName": a.Cluster.ClusterName,
	}); err != nil {
		return nil, err
	}
	return a, nil
}

func exportUnit(ctx *pulumi.Context, prefix string, u *DeployableUnit, domain string) {
	ctx.Export(prefix+"TaskDefinitionArn", u.TaskDefinitionArn)
	ctx.Export(prefix+"Cpu", pulumi.Int(int(u.CPU)))
	ctx.Export(prefix+"Memory", pulumi.Int(int(u.Memory)))
	ctx.Export(prefix+"ServiceName", u.ServiceName)
	ctx.Export(prefix+"ServiceArn", u.ServiceArn)
	ctx.Export(prefix+"AlbArn", u.AlbArn)
	ctx.Export(prefix+"AlbDnsName", u.AlbDNSName)
	ctx.Export(prefix+"Domain", pulumi.String(domain))
}

// Export publishes the application stack outputs.
func (a *Application) Export(ctx *pulumi.Context) {
	ctx.Export("clusterName", a.Cluster.ClusterName)

	exportUnit(ctx, "backend", a.Backend.Unit, a.Backend.Domain)
	ctx.Export("backendApiGatewayId", a.Backend.APIGatewayID)
	exportUnit(ctx, "frontend", a.Frontend.Unit, a.Frontend.Domain)

	ctx.Export("bucketName", a.Storage.BucketName)
	ctx.Export("bucketArn", a.Storage.BucketArn)
	ctx.Export("distributionDomainName", a.Storage.DistributionHost)
	ctx.Export("cloudFrontDomain", pulumi.String(a.Storage.Domain))

	ctx.Export("queueArn", a.Queues.QueueArn)
	ctx.Export("queueUrl", a.Queues.QueueURL)
	ctx.Export("deadLetterQueueArn", a.Queues.DeadLetterQueueArn)
	ctx.Export("deadLetterQueueUrl", a.Queues.DeadLetterQueueURL)
}
