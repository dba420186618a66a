package deploy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webapp-infra/internal/environment"
	"webapp-infra/internal/topology"
)

func TestParseConfig(t *testing.T) {
	cfg := testConfig()

	assert.Equal(t, "acme", cfg.Organization)
	assert.Equal(t, "infrastructure/application", cfg.Stacks[topology.Application].WorkDir)
	assert.Equal(t, "staging-pw", cfg.Environments[environment.Staging][topology.Foundation].Secrets["databasePassword"])
}

func TestMissingSecretIsRejected(t *testing.T) {
	_, err := ParseConfig([]byte(sampleConfig), lookupFrom(map[string]string{
		"STAGING_DATABASE_PASSWORD": "staging-pw",
	}))
	assert.ErrorIs(t, err, ErrMissingSecret)
	assert.ErrorContains(t, err, "PRODUCTION_DATABASE_PASSWORD")
}

func TestMissingStackIsRejected(t *testing.T) {
	_, err := ParseConfig([]byte(`
organization: acme
region: ap-northeast-2
stacks:
  foundation:
    project: webapp-foundation
    workDir: infrastructure/foundation
`), lookupFrom(nil))
	assert.ErrorContains(t, err, "stacks.application")
}

func TestUnknownEnvironmentNameIsRejected(t *testing.T) {
	_, err := ParseConfig([]byte(`
organization: acme
region: ap-northeast-2
stacks:
  foundation: {project: f, workDir: f}
  application: {project: a, workDir: a}
environments:
  qa: {}
`), lookupFrom(nil))
	assert.Error(t, err)
}

func TestRequiredFields(t *testing.T) {
	_, err := ParseConfig([]byte(`region: ap-northeast-2`), lookupFrom(nil))
	assert.Error(t, err)
}

func TestStackValues(t *testing.T) {
	cfg := testConfig()

	foundation, err := cfg.StackValues(topology.Foundation, environment.Staging)
	require.NoError(t, err)
	assert.Equal(t, Value{Value: "ap-northeast-2"}, foundation["aws:region"])
	assert.Equal(t, Value{Value: "staging"}, foundation["environment"])
	assert.Equal(t, Value{Value: "staging-pw", Secret: true}, foundation["databasePassword"])
	assert.NotContains(t, foundation, "foundationStack")

	app, err := cfg.StackValues(topology.Application, environment.Production)
	require.NoError(t, err)
	assert.Equal(t, Value{Value: "acme/webapp-foundation/production"}, app["foundationStack"])
	assert.Equal(t, Value{Value: "arn:aws:s3:::webapp-env-files"}, app["envBucketArn"])
}

func TestStackValuesUnknownEnvironment(t *testing.T) {
	cfg := testConfig()
	delete(cfg.Environments, environment.Production)

	_, err := cfg.StackValues(topology.Foundation, environment.Production)
	assert.ErrorIs(t, err, ErrUnknownEnvironment)
}
