package foundation

import (
	"encoding/json"
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/ecr"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"webapp-infra/internal/environment"
)

type lifecycleRule struct {
	RulePriority int                `json:"rulePriority"`
	Description  string             `json:"description,omitempty"`
	Selection    lifecycleSelection `json:"selection"`
	Action       map[string]string  `json:"action"`
}

type lifecycleSelection struct {
	TagStatus      string   `json:"tagStatus"`
	TagPatternList []string `json:"tagPatternList,omitempty"`
	CountType      string   `json:"countType"`
	CountUnit      string   `json:"countUnit,omitempty"`
	CountNumber    int      `json:"countNumber"`
}

// LifecyclePolicy keeps the last 100 production images and 10 staging images, and expires
// anything older than 14 days that neither rule kept.
func LifecyclePolicy() (string, error) {
	expire := map[string]string{"type": "expire"}
	rules := []lifecycleRule{
		{
			RulePriority: 10,
			Description:  "Keep 100 production images",
			Selection: lifecycleSelection{
				TagStatus:      "tagged",
				TagPatternList: []string{"production-*"},
				CountType:      "imageCountMoreThan",
				CountNumber:    100,
			},
			Action: expire,
		},
		{
			RulePriority: 20,
			Description:  "Keep 10 staging images",
			Selection: lifecycleSelection{
				TagStatus:      "tagged",
				TagPatternList: []string{"staging-*"},
				CountType:      "imageCountMoreThan",
				CountNumber:    10,
			},
			Action: expire,
		},
		{
			RulePriority: 30,
			Description:  "Expire after 14 days",
			Selection: lifecycleSelection{
				TagStatus:   "any",
				CountType:   "sinceImagePushed",
				CountUnit:   "days",
				CountNumber: 14,
			},
			Action: expire,
		},
	}
	b, err := json.Marshal(map[string]interface{}{"rules": rules})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type RegistryArgs struct {
	Env environment.Environment
}

// Registry holds one image repository per tier. Repositories outlive the stack.
type Registry struct {
	pulumi.ResourceState

	BackendRepositoryURL  pulumi.StringOutput
	FrontendRepositoryURL pulumi.StringOutput
	BackendRepositoryArn  pulumi.StringOutput
	FrontendRepositoryArn pulumi.StringOutput
}

func NewRegistry(ctx *pulumi.Context, name string, args *RegistryArgs, opts ...pulumi.ResourceOption) (*Registry, error) {
	r := &Registry{}
	if err := ctx.RegisterComponentResource("webapp:foundation:Registry", name, r, opts...); err != nil {
		return nil, err
	}
	parent := pulumi.Parent(r)

	lifecycle, err := LifecyclePolicy()
	if err != nil {
		return nil, fmt.Errorf("rendering lifecycle policy: %w", err)
	}

	repos := map[string]*ecr.Repository{}
	for _, tier := range []string{"backend", "frontend"} {
		repoName := fmt.Sprintf("%s-repository-%s", tier, args.Env.Name)
		repo, err := ecr.NewRepository(ctx, repoName, &ecr.RepositoryArgs{
			Name:               pulumi.String(repoName),
			ImageTagMutability: pulumi.String("MUTABLE"),
			Tags:               pulumi.ToStringMap(args.Env.Tags(tier + "-repository")),
		}, parent, pulumi.RetainOnDelete(true))
		if err != nil {
			return nil, fmt.Errorf("creating %s repository: %w", tier, err)
		}

		_, err = ecr.NewLifecyclePolicy(ctx, repoName, &ecr.LifecyclePolicyArgs{
			Repository: repo.Name,
			Policy:     pulumi.String(lifecycle),
		}, parent)
		if err != nil {
			return nil, fmt.Errorf("creating %s lifecycle policy: %w", tier, err)
		}
		repos[tier] = repo
	}

	r.BackendRepositoryURL = repos["backend"].RepositoryUrl
	r.FrontendRepositoryURL = repos["frontend"].RepositoryUrl
	r.BackendRepositoryArn = repos["backend"].Arn
	r.FrontendRepositoryArn = repos["frontend"].Arn

	if err := ctx.RegisterResourceOutputs(r, pulumi.Map{
		"backendRepositoryUrl":  r.BackendRepositoryURL,
		"frontendRepositoryUrl": r.FrontendRepositoryURL,
	}); err != nil {
		return nil, err
	}
	return r, nil
}
