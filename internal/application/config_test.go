package application

import (
	"testing"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webapp-infra/internal/environment"
	"webapp-infra/internal/pulumitest"
)

func loadConfig(t *testing.T, mocks *pulumitest.Mocks) (*Config, error) {
	t.Helper()
	var cfg *Config
	var loadErr error
	err := mocks.Run(func(ctx *pulumi.Context) error {
		cfg, loadErr = LoadConfig(ctx)
		return nil
	})
	require.NoError(t, err)
	return cfg, loadErr
}

func TestLoadConfigEnvironmentFromStack(t *testing.T) {
	for _, name := range []environment.Name{environment.Staging, environment.Production} {
		t.Run(name.String(), func(t *testing.T) {
			cfg, err := loadConfig(t, pulumitest.NewMocks().
				ForStack(name.String()).
				WithConfig("envBucketArn", envBucket).
				WithConfig("foundationStack", "acme/webapp-foundation/"+name.String()))
			require.NoError(t, err)

			assert.Equal(t, name, cfg.Env.Name)
			assert.Equal(t, "ap-northeast-2", cfg.Region)
			assert.Equal(t, "acme/webapp-foundation/"+name.String(), cfg.FoundationStack)
			assert.Equal(t, envBucket+"/backend/"+name.String()+"/.env", cfg.Env.EnvFileArn(cfg.Env.Backend))
		})
	}
}

func TestLoadConfigRejectsUnknownStack(t *testing.T) {
	_, err := loadConfig(t, pulumitest.NewMocks().
		ForStack("dev").
		WithConfig("envBucketArn", envBucket).
		WithConfig("foundationStack", "acme/webapp-foundation/dev"))
	assert.ErrorIs(t, err, environment.ErrUnknownEnvironment)
}
