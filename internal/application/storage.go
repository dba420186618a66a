package application

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/cloudfront"
	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/iam"
	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/route53"
	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/s3"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"webapp-infra/internal/environment"
	"webapp-infra/internal/policy"
)

const (
	// CachingOptimizedPolicyID is the AWS managed CachingOptimized cache policy.
	CachingOptimizedPolicyID = "658327ea-f89d-4fab-a63d-7e88639e58f6"

	contentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline' https:; " +
		"style-src 'self' 'unsafe-inline' https:; img-src 'self' data: https:; " +
		"font-src 'self' data: https:; connect-src 'self' https:; media-src 'self' https:; " +
		"object-src 'none'; frame-ancestors 'none'; base-uri 'self';"

	s3OriginID = "s3-origin"
)

// Teardown is how a removal policy maps onto bucket settings.
type Teardown struct {
	// ForceDestroy empties the bucket so it can be deleted.
	ForceDestroy bool
	// RetainOnDelete leaves the bucket in the account when the stack drops it.
	RetainOnDelete bool
}

// BucketTeardown resolves the teardown behaviour for a removal policy. Snapshot has no
// meaning for a bucket and is treated as Retain.
func BucketTeardown(p environment.RemovalPolicy) Teardown {
	switch p {
	case environment.Destroy:
		return Teardown{ForceDestroy: true}
	default:
		return Teardown{RetainOnDelete: true}
	}
}

type StorageArgs struct {
	Env                  environment.Environment
	PublicZoneID         pulumi.StringInput
	GlobalCertificateArn pulumi.StringInput
}

// Storage is the primary bucket and the CDN in front of it.
type Storage struct {
	pulumi.ResourceState

	BucketName       pulumi.StringOutput
	BucketArn        pulumi.StringOutput
	DistributionID   pulumi.StringOutput
	DistributionHost pulumi.StringOutput
	Domain           string
	Teardown         Teardown
}

func NewStorage(ctx *pulumi.Context, name string, args *StorageArgs, opts ...pulumi.ResourceOption) (*Storage, error) {
	s := &Storage{}
	if err := ctx.RegisterComponentResource("webapp:application:Storage", name, s, opts...); err != nil {
		return nil, err
	}
	env := args.Env
	parent := pulumi.Parent(s)

	s.Teardown = BucketTeardown(environment.BucketRemovalPolicy(env.Name))
	bucketOpts := []pulumi.ResourceOption{parent}
	if s.Teardown.RetainOnDelete {
		bucketOpts = append(bucketOpts, pulumi.RetainOnDelete(true))
	}

	bucketName := fmt.Sprintf("bucket-%s", env.Name)
	bucket, err := s3.NewBucket(ctx, bucketName, &s3.BucketArgs{
		Bucket:       pulumi.String(bucketName),
		ForceDestroy: pulumi.Bool(s.Teardown.ForceDestroy),
		Tags:         pulumi.ToStringMap(env.Tags("bucket")),
	}, bucketOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	_, err = s3.NewBucketServerSideEncryptionConfiguration(ctx, bucketName+"-sse", &s3.BucketServerSideEncryptionConfigurationArgs{
		Bucket: bucket.ID(),
		Rules: s3.BucketServerSideEncryptionConfigurationRuleArray{
			&s3.BucketServerSideEncryptionConfigurationRuleArgs{
				ApplyServerSideEncryptionByDefault: &s3.BucketServerSideEncryptionConfigurationRuleApplyServerSideEncryptionByDefaultArgs{
					SseAlgorithm: pulumi.String("AES256"),
				},
				BucketKeyEnabled: pulumi.Bool(true),
			},
		},
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("configuring bucket encryption: %w", err)
	}

	publicAccess, err := s3.NewBucketPublicAccessBlock(ctx, bucketName+"-pab", &s3.BucketPublicAccessBlockArgs{
		Bucket:                bucket.ID(),
		BlockPublicAcls:       pulumi.Bool(true),
		BlockPublicPolicy:     pulumi.Bool(true),
		IgnorePublicAcls:      pulumi.Bool(true),
		RestrictPublicBuckets: pulumi.Bool(true),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("blocking bucket public access: %w", err)
	}

	_, err = s3.NewBucketCorsConfiguration(ctx, bucketName+"-cors", &s3.BucketCorsConfigurationArgs{
		Bucket: bucket.ID(),
		CorsRules: s3.BucketCorsConfigurationCorsRuleArray{
			&s3.BucketCorsConfigurationCorsRuleArgs{
				AllowedHeaders: pulumi.ToStringArray([]string{"*"}),
				AllowedMethods: pulumi.ToStringArray([]string{"PUT", "GET", "HEAD"}),
				AllowedOrigins: pulumi.ToStringArray([]string{"*"}),
				ExposeHeaders:  pulumi.ToStringArray([]string{"ETag"}),
			},
		},
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("configuring bucket cors: %w", err)
	}

	_, err = s3.NewBucketLifecycleConfiguration(ctx, bucketName+"-lifecycle", &s3.BucketLifecycleConfigurationArgs{
		Bucket: bucket.ID(),
		Rules: s3.BucketLifecycleConfigurationRuleArray{
			&s3.BucketLifecycleConfigurationRuleArgs{
				Id:     pulumi.String("abort-incomplete-multipart-uploads"),
				Status: pulumi.String("Enabled"),
				Filter: &s3.BucketLifecycleConfigurationRuleFilterArgs{},
				AbortIncompleteMultipartUpload: &s3.BucketLifecycleConfigurationRuleAbortIncompleteMultipartUploadArgs{
					DaysAfterInitiation: pulumi.Int(7),
				},
			},
		},
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("configuring bucket lifecycle: %w", err)
	}

	oac, err := cloudfront.NewOriginAccessControl(ctx, fmt.Sprintf("oac-%s", env.Name), &cloudfront.OriginAccessControlArgs{
		Name:                          pulumi.Sprintf("oac-%s", env.Name),
		OriginAccessControlOriginType: pulumi.String("s3"),
		SigningBehavior:               pulumi.String("always"),
		SigningProtocol:               pulumi.String("sigv4"),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating origin access control: %w", err)
	}

	headers, err := cloudfront.NewResponseHeadersPolicy(ctx, fmt.Sprintf("response-headers-%s", env.Name), &cloudfront.ResponseHeadersPolicyArgs{
		Name: pulumi.Sprintf("response-headers-%s", env.Name),
		CorsConfig: &cloudfront.ResponseHeadersPolicyCorsConfigArgs{
			AccessControlAllowCredentials: pulumi.Bool(false),
			AccessControlAllowHeaders: &cloudfront.ResponseHeadersPolicyCorsConfigAccessControlAllowHeadersArgs{
				Items: pulumi.ToStringArray([]string{"*"}),
			},
			AccessControlAllowMethods: &cloudfront.ResponseHeadersPolicyCorsConfigAccessControlAllowMethodsArgs{
				Items: pulumi.ToStringArray([]string{"GET", "HEAD", "OPTIONS"}),
			},
			AccessControlAllowOrigins: &cloudfront.ResponseHeadersPolicyCorsConfigAccessControlAllowOriginsArgs{
				Items: pulumi.ToStringArray(env.CorsAllowedOrigins),
			},
			AccessControlMaxAgeSec: pulumi.Int(24 * 60 * 60),
			OriginOverride:         pulumi.Bool(true),
		},
		SecurityHeadersConfig: &cloudfront.ResponseHeadersPolicySecurityHeadersConfigArgs{
			ContentTypeOptions: &cloudfront.ResponseHeadersPolicySecurityHeadersConfigContentTypeOptionsArgs{
				Override: pulumi.Bool(true),
			},
			ReferrerPolicy: &cloudfront.ResponseHeadersPolicySecurityHeadersConfigReferrerPolicyArgs{
				Override:       pulumi.Bool(true),
				ReferrerPolicy: pulumi.String("origin-when-cross-origin"),
			},
			ContentSecurityPolicy: &cloudfront.ResponseHeadersPolicySecurityHeadersConfigContentSecurityPolicyArgs{
				Override:              pulumi.Bool(true),
				ContentSecurityPolicy: pulumi.String(contentSecurityPolicy),
			},
			FrameOptions: &cloudfront.ResponseHeadersPolicySecurityHeadersConfigFrameOptionsArgs{
				Override:    pulumi.Bool(true),
				FrameOption: pulumi.String("DENY"),
			},
		},
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating response headers policy: %w", err)
	}

	distribution, err := cloudfront.NewDistribution(ctx, fmt.Sprintf("distribution-%s", env.Name), &cloudfront.DistributionArgs{
		Enabled:       pulumi.Bool(true),
		Aliases:       pulumi.ToStringArray([]string{env.CloudFrontDomain}),
		HttpVersion:   pulumi.String("http2and3"),
		PriceClass:    pulumi.String("PriceClass_200"),
		IsIpv6Enabled: pulumi.Bool(true),
		Origins: cloudfront.DistributionOriginArray{
			&cloudfront.DistributionOriginArgs{
				OriginId:              pulumi.String(s3OriginID),
				DomainName:            bucket.BucketRegionalDomainName,
				OriginAccessControlId: oac.ID(),
			},
		},
		DefaultCacheBehavior: &cloudfront.DistributionDefaultCacheBehaviorArgs{
			TargetOriginId:          pulumi.String(s3OriginID),
			ViewerProtocolPolicy:    pulumi.String("redirect-to-https"),
			AllowedMethods:          pulumi.ToStringArray([]string{"GET", "HEAD", "OPTIONS"}),
			CachedMethods:           pulumi.ToStringArray([]string{"GET", "HEAD"}),
			Compress:                pulumi.Bool(true),
			CachePolicyId:           pulumi.String(CachingOptimizedPolicyID),
			ResponseHeadersPolicyId: headers.ID(),
		},
		Restrictions: &cloudfront.DistributionRestrictionsArgs{
			GeoRestriction: &cloudfront.DistributionRestrictionsGeoRestrictionArgs{
				RestrictionType: pulumi.String("none"),
			},
		},
		ViewerCertificate: &cloudfront.DistributionViewerCertificateArgs{
			AcmCertificateArn:      args.GlobalCertificateArn,
			SslSupportMethod:       pulumi.String("sni-only"),
			MinimumProtocolVersion: pulumi.String("TLSv1.2_2021"),
		},
		Tags: pulumi.ToStringMap(env.Tags("distribution")),
	}, parent)
	if err != nil {
		return nil, fmt.Errorf("creating distribution: %w", err)
	}

	// CloudFront reads objects through the OAC; nothing else may.
	bucketPolicy := policy.Document(ctx, iam.GetPolicyDocumentStatementArgs{
		Sid:        pulumi.String("AllowCloudFrontRead"),
		Effect:     pulumi.String("Allow"),
		Principals: policy.Service("cloudfront.amazonaws.com"),
		Actions:    pulumi.ToStringArray([]string{"s3:GetObject"}),
		Resources:  pulumi.StringArray{pulumi.Sprintf("%s/*", bucket.Arn)},
		Conditions: policy.SourceArn("StringEquals", "AWS:SourceArn", distribution.Arn),
	})

	_, err = s3.NewBucketPolicy(ctx, bucketName+"-policy", &s3.BucketPolicyArgs{
		Bucket: bucket.ID(),
		Policy: bucketPolicy,
	}, parent, pulumi.DependsOn([]pulumi.Resource{publicAccess}))
	if err != nil {
		return nil, fmt.Errorf("attaching bucket policy: %w", err)
	}

	for _, recordType := range []string{"A", "AAAA"} {
		_, err = route53.NewRecord(ctx, fmt.Sprintf("cdn-%s-%s", recordType, env.Name), &route53.RecordArgs{
			ZoneId: args.PublicZoneID,
			Name:   pulumi.String(env.CloudFrontDomain),
			Type:   pulumi.String(recordType),
			Aliases: route53.RecordAliasArray{
				&route53.RecordAliasArgs{
					Name:                 distribution.DomainName,
					ZoneId:               distribution.HostedZoneId,
					EvaluateTargetHealth: pulumi.Bool(false),
				},
			},
		}, parent)
		if err != nil {
			return nil, fmt.Errorf("creating cdn %s record: %w", recordType, err)
		}
	}

	s.BucketName = bucket.Bucket
	s.BucketArn = bucket.Arn
	s.DistributionID = distribution.ID().ToStringOutput()
	s.DistributionHost = distribution.DomainName
	s.Domain = env.CloudFrontDomain

	if err := ctx.RegisterResourceOutputs(s, pulumi.Map{
		"bucketName":       s.BucketName,
		"distributionHost": s.DistributionHost,
	}); err != nil {
		return nil, err
	}
	return s, nil
}
