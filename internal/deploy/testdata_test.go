package deploy

const sampleConfig = `
organization: acme
region: ap-northeast-2
stacks:
  foundation:
    project: webapp-foundation
    workDir: infrastructure/foundation
  application:
    project: webapp-application
    workDir: infrastructure/application
environments:
  staging:
    foundation:
      config:
        hostedZoneDomain: example.com
        privateHostedZoneDomain: example.internal
      secrets:
        databasePassword: ${STAGING_DATABASE_PASSWORD}
    application:
      config:
        envBucketArn: arn:aws:s3:::webapp-env-files
  production:
    foundation:
      config:
        hostedZoneDomain: example.com
        privateHostedZoneDomain: example.internal
      secrets:
        databasePassword: ${PRODUCTION_DATABASE_PASSWORD}
    application:
      config:
        envBucketArn: arn:aws:s3:::webapp-env-files
`

func lookupFrom(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func testConfig() *Config {
	cfg, err := ParseConfig([]byte(sampleConfig), lookupFrom(map[string]string{
		"STAGING_DATABASE_PASSWORD":    "staging-pw",
		"PRODUCTION_DATABASE_PASSWORD": "production-pw",
	}))
	if err != nil {
		panic(err)
	}
	return cfg
}
