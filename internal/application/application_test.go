package application

import (
	"encoding/json"
	"testing"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webapp-infra/internal/environment"
	"webapp-infra/internal/foundation"
	"webapp-infra/internal/pulumitest"
)

const (
	listenerType     = "aws:lb/listener:Listener"
	listenerRuleType = "aws:lb/listenerRule:ListenerRule"
	targetGroupType  = "aws:lb/targetGroup:TargetGroup"
	serviceType      = "aws:ecs/service:Service"
	taskDefType      = "aws:ecs/taskDefinition:TaskDefinition"
	queueType        = "aws:sqs/queue:Queue"
	roleType         = "aws:iam/role:Role"

	envBucket = "arn:aws:s3:::webapp-env-files"
)

func testHandles() foundation.Handles {
	s := func(v string) pulumi.StringOutput { return pulumi.String(v).ToStringOutput() }
	ss := func(v ...string) pulumi.StringArrayOutput { return pulumi.ToStringArray(v).ToStringArrayOutput() }
	return foundation.Handles{
		VpcID:             s("vpc-123"),
		PublicSubnetIDs:   ss("subnet-public-a", "subnet-public-b"),
		PrivateSubnetIDs:  ss("subnet-private-a", "subnet-private-b"),
		IsolatedSubnetIDs: ss("subnet-isolated-a", "subnet-isolated-b"),
		SecurityGroups: foundation.SecurityGroupIDs{
			Bastion:    s("sg-bastion"),
			VpcLink:    s("sg-vpc-link"),
			FrontendLB: s("sg-frontend-lb"),
			Frontend:   s("sg-frontend"),
			BackendLB:  s("sg-backend-lb"),
			Backend:    s("sg-backend"),
			Database:   s("sg-database"),
			Cache:      s("sg-cache"),
		},
		PublicZoneID:          s("ZPUBLIC"),
		PrivateZoneID:         s("ZPRIVATE"),
		CertificateArn:        s("arn:aws:acm:ap-northeast-2:123456789012:certificate/regional"),
		GlobalCertificateArn:  s("arn:aws:acm:us-east-1:123456789012:certificate/global"),
		VpcLinkID:             s("link-1"),
		BackendRepositoryURL:  s("123456789012.dkr.ecr.ap-northeast-2.amazonaws.com/backend-repository"),
		FrontendRepositoryURL: s("123456789012.dkr.ecr.ap-northeast-2.amazonaws.com/frontend-repository"),
	}
}

func runApplication(t *testing.T, env environment.Environment) (*pulumitest.Mocks, *Application) {
	t.Helper()
	mocks := pulumitest.NewMocks().ForStack(env.Name.String())
	var app *Application
	err := mocks.Run(func(ctx *pulumi.Context) error {
		var err error
		app, err = New(ctx, "application", &Args{
			Config: &Config{
				Env:             env.WithEnvBucket(envBucket),
				Region:          "ap-northeast-2",
				FoundationStack: "acme/foundation/" + env.Name.String(),
			},
			Handles: testHandles(),
		})
		if err != nil {
			return err
		}
		app.Export(ctx)
		return nil
	})
	require.NoError(t, err)
	return mocks, app
}

func mustResource(t *testing.T, mocks *pulumitest.Mocks, typ, name string) pulumitest.Resource {
	t.Helper()
	r, ok := mocks.Resource(typ, name)
	require.True(t, ok, "missing %s %s", typ, name)
	return r
}

func arn(typ, name string) string { return pulumitest.MockArn(typ, name) }

func TestProductionAndTestListeners(t *testing.T) {
	mocks, _ := runApplication(t, environment.StagingEnvironment())

	backendProd := mustResource(t, mocks, listenerType, "backend-listener-80-staging")
	assert.Equal(t, float64(80), backendProd.Number("port"))
	assert.Equal(t, "HTTP", backendProd.String("protocol"))
	assert.Equal(t, arn(targetGroupType, "backend-blue-staging"), backendProd.String("defaultActions.0.targetGroupArn"))

	for _, tier := range []string{"backend", "frontend"} {
		test := mustResource(t, mocks, listenerType, tier+"-listener-8080-staging")
		assert.Equal(t, "HTTP", test.String("protocol"))
		assert.Equal(t, arn(targetGroupType, tier+"-green-staging"), test.String("defaultActions.0.targetGroupArn"))
	}

	frontendProd := mustResource(t, mocks, listenerType, "frontend-listener-443-staging")
	assert.Equal(t, "HTTPS", frontendProd.String("protocol"))
	assert.Equal(t, "arn:aws:acm:ap-northeast-2:123456789012:certificate/regional", frontendProd.String("certificateArn"))
	assert.Equal(t, arn(targetGroupType, "frontend-blue-staging"), frontendProd.String("defaultActions.0.targetGroupArn"))

	redirect := mustResource(t, mocks, listenerType, "frontend-listener-80-staging")
	assert.Equal(t, "redirect", redirect.String("defaultActions.0.type"))
	assert.Equal(t, "443", redirect.String("defaultActions.0.redirect.port"))
	assert.Equal(t, "HTTPS", redirect.String("defaultActions.0.redirect.protocol"))
	assert.Equal(t, "HTTP_301", redirect.String("defaultActions.0.redirect.statusCode"))

	_, ok := mocks.Resource(listenerType, "backend-listener-443-staging")
	assert.False(t, ok)
	assert.Len(t, mocks.Resources(listenerType), 5)
}

func TestListenerRules(t *testing.T) {
	mocks, _ := runApplication(t, environment.StagingEnvironment())

	prod := mustResource(t, mocks, listenerRuleType, "backend-production-rule-staging")
	assert.Equal(t, float64(1), prod.Number("priority"))
	assert.Equal(t, []interface{}{"/*"}, prod.Value("conditions.0.pathPattern.values"))
	assert.Equal(t, arn(targetGroupType, "backend-blue-staging"), prod.String("actions.0.forward.targetGroups.0.arn"))
	assert.Equal(t, float64(100), prod.Number("actions.0.forward.targetGroups.0.weight"))
	assert.Equal(t, float64(0), prod.Number("actions.0.forward.targetGroups.1.weight"))

	test := mustResource(t, mocks, listenerRuleType, "backend-test-rule-staging")
	assert.Equal(t, arn(listenerType, "backend-listener-8080-staging"), test.String("listenerArn"))
	assert.Equal(t, TestHeaderName, test.String("conditions.0.httpHeader.httpHeaderName"))
	assert.Equal(t, []interface{}{TestHeaderValue}, test.Value("conditions.0.httpHeader.values"))
	assert.Equal(t, arn(targetGroupType, "backend-green-staging"), test.String("actions.0.forward.targetGroups.0.arn"))
}

func TestTargetGroupsAreDistinctWithHealthChecks(t *testing.T) {
	mocks, _ := runApplication(t, environment.StagingEnvironment())

	groups := mocks.Resources(targetGroupType)
	require.Len(t, groups, 4)
	names := map[string]bool{}
	for _, tg := range groups {
		names[tg.String("name")] = true
		assert.Equal(t, float64(3000), tg.Number("port"))
		assert.Equal(t, "ip", tg.String("targetType"))
		assert.Equal(t, float64(30), tg.Number("deregistrationDelay"))
		assert.Equal(t, "/health", tg.String("healthCheck.path"))
		assert.Equal(t, float64(30), tg.Number("healthCheck.interval"))
		assert.Equal(t, float64(5), tg.Number("healthCheck.timeout"))
		assert.Equal(t, float64(2), tg.Number("healthCheck.healthyThreshold"))
		assert.Equal(t, float64(2), tg.Number("healthCheck.unhealthyThreshold"))
	}
	assert.Len(t, names, 4)
}

func TestServiceBlueGreenDeployment(t *testing.T) {
	mocks, _ := runApplication(t, environment.StagingEnvironment())

	for _, tier := range []string{"backend", "frontend"} {
		svc := mustResource(t, mocks, serviceType, tier+"-service-staging")

		assert.Equal(t, arn(targetGroupType, tier+"-blue-staging"), svc.String("loadBalancers.0.targetGroupArn"))
		assert.Equal(t, "app", svc.String("loadBalancers.0.containerName"))
		assert.Equal(t, float64(3000), svc.Number("loadBalancers.0.containerPort"))

		advanced := "loadBalancers.0.advancedConfiguration."
		assert.Equal(t, arn(targetGroupType, tier+"-green-staging"), svc.String(advanced+"alternateTargetGroupArn"))
		assert.Equal(t, arn(listenerRuleType, tier+"-production-rule-staging"), svc.String(advanced+"productionListenerRule"))
		assert.Equal(t, arn(listenerRuleType, tier+"-test-rule-staging"), svc.String(advanced+"testListenerRule"))
		assert.Equal(t, arn(roleType, tier+"-ecs-load-balancer-role-staging"), svc.String(advanced+"roleArn"))

		assert.Equal(t, "BLUE_GREEN", svc.String("deploymentConfiguration.strategy"))
		assert.Equal(t, "2", svc.String("deploymentConfiguration.bakeTimeInMinutes"))
		assert.Equal(t, "ECS", svc.String("deploymentController.type"))
		assert.True(t, svc.Bool("deploymentCircuitBreaker.enable"))
		assert.True(t, svc.Bool("deploymentCircuitBreaker.rollback"))
		assert.Equal(t, float64(100), svc.Number("deploymentMinimumHealthyPercent"))
		assert.Equal(t, float64(200), svc.Number("deploymentMaximumPercent"))
		assert.Equal(t, float64(30), svc.Number("healthCheckGracePeriodSeconds"))
		assert.False(t, svc.Bool("networkConfiguration.assignPublicIp"))
		assert.Equal(t, []interface{}{tier + "-alarm-staging"}, svc.Value("alarms.alarmNames"))

		assert.Equal(t, "FARGATE", svc.String("capacityProviderStrategies.0.capacityProvider"))
		assert.Equal(t, float64(1), svc.Number("capacityProviderStrategies.0.weight"))
		assert.Equal(t, "FARGATE_SPOT", svc.String("capacityProviderStrategies.1.capacityProvider"))
		assert.Equal(t, float64(3), svc.Number("capacityProviderStrategies.1.weight"))

		_, ok := mocks.Resource("aws:cloudwatch/metricAlarm:MetricAlarm", tier+"-alarm-staging")
		assert.True(t, ok)
	}
}

func TestLoadBalancerPlacement(t *testing.T) {
	mocks, _ := runApplication(t, environment.StagingEnvironment())

	backend := mustResource(t, mocks, "aws:lb/loadBalancer:LoadBalancer", "backend-alb-staging")
	assert.True(t, backend.Bool("internal"))
	assert.Equal(t, []interface{}{"subnet-private-a", "subnet-private-b"}, backend.Value("subnets"))
	assert.Equal(t, []interface{}{"sg-backend-lb"}, backend.Value("securityGroups"))

	frontend := mustResource(t, mocks, "aws:lb/loadBalancer:LoadBalancer", "frontend-alb-staging")
	assert.False(t, frontend.Bool("internal"))
	assert.Equal(t, "ipv4", frontend.String("ipAddressType"))
	assert.Equal(t, "ipv4", backend.String("ipAddressType"))
	assert.Equal(t, []interface{}{"subnet-public-a", "subnet-public-b"}, frontend.Value("subnets"))

	svc := mustResource(t, mocks, serviceType, "frontend-service-staging")
	assert.Equal(t, []interface{}{"subnet-private-a", "subnet-private-b"}, svc.Value("networkConfiguration.subnets"))
	assert.Equal(t, []interface{}{"sg-frontend"}, svc.Value("networkConfiguration.securityGroups"))
}

func TestAutoscaling(t *testing.T) {
	mocks, _ := runApplication(t, environment.StagingEnvironment())

	target := mustResource(t, mocks, "aws:appautoscaling/target:Target", "backend-scaling-staging")
	assert.Equal(t, float64(1), target.Number("minCapacity"))
	assert.Equal(t, float64(4), target.Number("maxCapacity"))
	assert.Equal(t, "service/cluster-staging/backend-service-staging", target.String("resourceId"))

	want := map[string]struct {
		metric string
		value  float64
	}{
		"backend-scaling-staging-cpu":    {"ECSServiceAverageCPUUtilization", 70},
		"backend-scaling-staging-memory": {"ECSServiceAverageMemoryUtilization", 80},
	}
	for name, w := range want {
		p := mustResource(t, mocks, "aws:appautoscaling/policy:Policy", name)
		cfg := "targetTrackingScalingPolicyConfiguration."
		assert.Equal(t, "TargetTrackingScaling", p.String("policyType"))
		assert.Equal(t, w.metric, p.String(cfg+"predefinedMetricSpecification.predefinedMetricType"))
		assert.Equal(t, w.value, p.Number(cfg+"targetValue"))
		assert.Equal(t, float64(60), p.Number(cfg+"scaleInCooldown"))
		assert.Equal(t, float64(60), p.Number(cfg+"scaleOutCooldown"))
	}
}

func TestTaskDefinitionFollowsEnvironment(t *testing.T) {
	tests := []struct {
		env         environment.Environment
		cpu, memory string
	}{
		{environment.StagingEnvironment(), "256", "512"},
		{environment.ProductionEnvironment(), "512", "1024"},
	}
	for _, tt := range tests {
		t.Run(tt.env.Name.String(), func(t *testing.T) {
			mocks, app := runApplication(t, tt.env)
			name := tt.env.Name.String()

			td := mustResource(t, mocks, taskDefType, "backend-task-def-"+name)
			assert.Equal(t, "backend-task-def-"+name, td.String("family"))
			assert.Equal(t, tt.cpu, td.String("cpu"))
			assert.Equal(t, tt.memory, td.String("memory"))
			assert.Equal(t, "X86_64", td.String("runtimePlatform.cpuArchitecture"))
			assert.Equal(t, arn(roleType, "backend-execution-role-"+name), td.String("executionRoleArn"))

			var containers []map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(td.String("containerDefinitions")), &containers))
			require.Len(t, containers, 1)
			c := containers[0]
			assert.Equal(t, "123456789012.dkr.ecr.ap-northeast-2.amazonaws.com/backend-repository:"+name+"-latest", c["image"])
			assert.Equal(t, []interface{}{map[string]interface{}{
				"type": "s3", "value": envBucket + "/backend/" + name + "/.env",
			}}, c["environmentFiles"])
			assert.Equal(t, "/ecs/backend-"+name, c["logConfiguration"].(map[string]interface{})["options"].(map[string]interface{})["awslogs-group"])

			svc := mustResource(t, mocks, serviceType, "backend-service-"+name)
			assert.Equal(t, float64(tt.env.Backend.DesiredCount), svc.Number("desiredCount"))
			assert.Equal(t, tt.env.Backend.CPU, app.Backend.Unit.CPU)
			assert.Equal(t, tt.env.Backend.Memory, app.Backend.Unit.Memory)
		})
	}
}

func TestFrontendContainerTimezone(t *testing.T) {
	mocks, _ := runApplication(t, environment.StagingEnvironment())

	td := mustResource(t, mocks, taskDefType, "frontend-task-def-staging")
	var containers []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(td.String("containerDefinitions")), &containers))
	assert.Equal(t, []interface{}{map[string]interface{}{"name": "TZ", "value": "Asia/Seoul"}}, containers[0]["environment"])
}

func TestTaskRolePolicies(t *testing.T) {
	mocks, _ := runApplication(t, environment.StagingEnvironment())

	attached := map[string][]string{}
	for _, r := range mocks.Resources("aws:iam/rolePolicyAttachment:RolePolicyAttachment") {
		attached[r.String("role")] = append(attached[r.String("role")], r.String("policyArn"))
	}
	assert.ElementsMatch(t, backendTaskPolicies, attached["backend-task-role-staging"])
	assert.Empty(t, attached["frontend-task-role-staging"])
	assert.ElementsMatch(t, []string{executionRolePolicy, s3ReadOnlyPolicy}, attached["frontend-execution-role-staging"])
	assert.Equal(t, []string{loadBalancerRolePolicy}, attached["backend-ecs-load-balancer-role-staging"])
}

func TestBucketRemovalPolicy(t *testing.T) {
	mocks, app := runApplication(t, environment.StagingEnvironment())
	bucket := mustResource(t, mocks, "aws:s3/bucket:Bucket", "bucket-staging")
	assert.True(t, bucket.Bool("forceDestroy"))
	assert.False(t, app.Storage.Teardown.RetainOnDelete)

	mocks, app = runApplication(t, environment.ProductionEnvironment())
	bucket = mustResource(t, mocks, "aws:s3/bucket:Bucket", "bucket-production")
	assert.False(t, bucket.Bool("forceDestroy"))
	assert.True(t, app.Storage.Teardown.RetainOnDelete)
}

func TestDistribution(t *testing.T) {
	mocks, _ := runApplication(t, environment.StagingEnvironment())

	d := mustResource(t, mocks, "aws:cloudfront/distribution:Distribution", "distribution-staging")
	assert.Equal(t, []interface{}{"staging-cdn.example.com"}, d.Value("aliases"))
	assert.Equal(t, "http2and3", d.String("httpVersion"))
	assert.Equal(t, "PriceClass_200", d.String("priceClass"))
	assert.True(t, d.Bool("isIpv6Enabled"))
	assert.Equal(t, CachingOptimizedPolicyID, d.String("defaultCacheBehavior.cachePolicyId"))
	assert.Equal(t, "redirect-to-https", d.String("defaultCacheBehavior.viewerProtocolPolicy"))
	assert.Equal(t, "TLSv1.2_2021", d.String("viewerCertificate.minimumProtocolVersion"))
	assert.Equal(t, "arn:aws:acm:us-east-1:123456789012:certificate/global", d.String("viewerCertificate.acmCertificateArn"))

	headers := mustResource(t, mocks, "aws:cloudfront/responseHeadersPolicy:ResponseHeadersPolicy", "response-headers-staging")
	assert.Equal(t, "DENY", headers.String("securityHeadersConfig.frameOptions.frameOption"))
	assert.Equal(t, []interface{}{"example.com", "*.example.com"}, headers.Value("corsConfig.accessControlAllowOrigins.items"))

	bucketPolicy := mustResource(t, mocks, "aws:s3/bucketPolicy:BucketPolicy", "bucket-staging-policy")
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Sid": "AllowCloudFrontRead",
			"Effect": "Allow",
			"Principal": {"Service": ["cloudfront.amazonaws.com"]},
			"Action": ["s3:GetObject"],
			"Resource": ["`+arn("aws:s3/bucket:Bucket", "bucket-staging")+`/*"],
			"Condition": {"StringEquals": {"AWS:SourceArn": ["`+arn("aws:cloudfront/distribution:Distribution", "distribution-staging")+`"]}}
		}]
	}`, bucketPolicy.String("policy"))
}

func TestFifoQueueRedrive(t *testing.T) {
	mocks, _ := runApplication(t, environment.StagingEnvironment())

	dlq := mustResource(t, mocks, queueType, "dlq-staging")
	assert.Equal(t, "dlq-staging.fifo", dlq.String("name"))
	assert.Equal(t, float64(4*24*60*60), dlq.Number("messageRetentionSeconds"))
	assert.Empty(t, dlq.String("redrivePolicy"))

	q := mustResource(t, mocks, queueType, "queue-staging")
	assert.Equal(t, "queue-staging.fifo", q.String("name"))
	assert.True(t, q.Bool("fifoQueue"))
	assert.True(t, q.Bool("contentBasedDeduplication"))
	assert.Equal(t, "messageGroup", q.String("deduplicationScope"))
	assert.Equal(t, "perMessageGroupId", q.String("fifoThroughputLimit"))
	assert.Equal(t, float64(30), q.Number("visibilityTimeoutSeconds"))
	assert.Equal(t, float64(24*60*60), q.Number("messageRetentionSeconds"))
	assert.JSONEq(t, `{"deadLetterTargetArn":"`+arn(queueType, "dlq-staging")+`","maxReceiveCount":3}`, q.String("redrivePolicy"))
}

func TestQueueProducers(t *testing.T) {
	mocks, _ := runApplication(t, environment.StagingEnvironment())

	schedule := mustResource(t, mocks, "aws:scheduler/schedule:Schedule", "schedule-staging-delete-old-verifications")
	assert.Equal(t, "cron(0 1 * * ? *)", schedule.String("scheduleExpression"))
	assert.Equal(t, "Asia/Seoul", schedule.String("scheduleExpressionTimezone"))
	assert.Equal(t, arn(queueType, "queue-staging"), schedule.String("target.arn"))
	assert.Equal(t, DeleteOldVerificationsGroup, schedule.String("target.sqsParameters.messageGroupId"))

	target := mustResource(t, mocks, "aws:cloudwatch/eventTarget:EventTarget", "rule-staging-media-convert-job-state-change-target")
	assert.Equal(t, MediaConvertJobStateChangeGroup, target.String("sqsTarget.messageGroupId"))
	assert.Equal(t, "$.detail.jobId", target.String("inputTransformer.inputPaths.jobId"))
	assert.JSONEq(t, `{
		"createdAt": "<createdAt>",
		"jobId": "<jobId>",
		"status": "<status>",
		"outputGroupDetails": "<outputGroupDetails>"
	}`, target.String("inputTransformer.inputTemplate"))

	rule := mustResource(t, mocks, "aws:cloudwatch/eventRule:EventRule", "rule-staging-media-convert-job-state-change")
	assert.JSONEq(t, `{"source":["aws.mediaconvert"],"detail-type":["MediaConvert Job State Change"]}`, rule.String("eventPattern"))

	queuePolicy := mustResource(t, mocks, "aws:sqs/queuePolicy:QueuePolicy", "queue-policy-staging")
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Sid": "AllowEventBridgeSend",
			"Effect": "Allow",
			"Principal": {"Service": ["events.amazonaws.com"]},
			"Action": ["sqs:SendMessage"],
			"Resource": ["`+arn(queueType, "queue-staging")+`"],
			"Condition": {"ArnEquals": {"aws:SourceArn": ["`+arn("aws:cloudwatch/eventRule:EventRule", "rule-staging-media-convert-job-state-change")+`"]}}
		}]
	}`, queuePolicy.String("policy"))

	role := mustResource(t, mocks, roleType, "scheduler-role-staging")
	assert.Contains(t, role.String("assumeRolePolicy"), `"scheduler.amazonaws.com"`)

	send := mustResource(t, mocks, "aws:iam/rolePolicy:RolePolicy", "scheduler-role-staging-send")
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{"Effect": "Allow", "Action": ["sqs:SendMessage"], "Resource": ["`+arn(queueType, "queue-staging")+`"]}]
	}`, send.String("policy"))
}

func TestBackendHTTPAPI(t *testing.T) {
	mocks, _ := runApplication(t, environment.StagingEnvironment())

	integration := mustResource(t, mocks, "aws:apigatewayv2/integration:Integration", "api-staging-alb")
	assert.Equal(t, "VPC_LINK", integration.String("connectionType"))
	assert.Equal(t, "link-1", integration.String("connectionId"))
	assert.Equal(t, arn(listenerType, "backend-listener-80-staging"), integration.String("integrationUri"))

	route := mustResource(t, mocks, "aws:apigatewayv2/route:Route", "api-staging-webhooks")
	assert.Equal(t, WebhookRoute, route.String("routeKey"))
	assert.Equal(t, "integrations/api-staging-alb-id", route.String("target"))

	stage := mustResource(t, mocks, "aws:apigatewayv2/stage:Stage", "api-staging-default")
	assert.Equal(t, "$default", stage.String("name"))
	assert.True(t, stage.Bool("autoDeploy"))

	domain := mustResource(t, mocks, "aws:apigatewayv2/domainName:DomainName", "api-staging-domain")
	assert.Equal(t, "staging-api.example.com", domain.String("domainName"))

	record := mustResource(t, mocks, "aws:route53/record:Record", "backend-a-staging")
	assert.Equal(t, "ZPRIVATE", record.String("zoneId"))
	assert.Equal(t, "staging-api.example.internal", record.String("name"))
}

func TestClusterCapacityProviders(t *testing.T) {
	mocks, _ := runApplication(t, environment.StagingEnvironment())

	cp := mustResource(t, mocks, "aws:ecs/clusterCapacityProviders:ClusterCapacityProviders", "cluster-staging-capacity")
	assert.Equal(t, []interface{}{"FARGATE", "FARGATE_SPOT"}, cp.Value("capacityProviders"))
	assert.Equal(t, "cluster-staging", cp.String("clusterName"))
}
