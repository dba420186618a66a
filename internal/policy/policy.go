// Package policy builds IAM and resource policy documents with the provider's
// getPolicyDocument data source.
package policy

import (
	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/iam"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// Document renders statements into a policy document.
func Document(ctx *pulumi.Context, statements ...iam.GetPolicyDocumentStatementInput) pulumi.StringOutput {
	return iam.GetPolicyDocumentOutput(ctx, iam.GetPolicyDocumentOutputArgs{
		Statements: iam.GetPolicyDocumentStatementArray(statements),
	}).Json()
}

// Allow is an Allow statement for actions on resources.
func Allow(resources pulumi.StringArrayInput, actions ...string) iam.GetPolicyDocumentStatementArgs {
	return iam.GetPolicyDocumentStatementArgs{
		Effect:    pulumi.String("Allow"),
		Actions:   pulumi.ToStringArray(actions),
		Resources: resources,
	}
}

// Service is the principal list for an AWS service.
func Service(name string) iam.GetPolicyDocumentStatementPrincipalArray {
	return iam.GetPolicyDocumentStatementPrincipalArray{
		iam.GetPolicyDocumentStatementPrincipalArgs{
			Type:        pulumi.String("Service"),
			Identifiers: pulumi.ToStringArray([]string{name}),
		},
	}
}

// SourceArn limits a service principal to requests made on behalf of arn.
func SourceArn(test, variable string, arn pulumi.StringInput) iam.GetPolicyDocumentStatementConditionArray {
	return iam.GetPolicyDocumentStatementConditionArray{
		iam.GetPolicyDocumentStatementConditionArgs{
			Test:     pulumi.String(test),
			Variable: pulumi.String(variable),
			Values:   pulumi.StringArray{arn},
		},
	}
}

// AssumeRole is the trust policy letting an AWS service assume a role.
func AssumeRole(ctx *pulumi.Context, service string) pulumi.StringOutput {
	return Document(ctx, iam.GetPolicyDocumentStatementArgs{
		Effect:     pulumi.String("Allow"),
		Actions:    pulumi.ToStringArray([]string{"sts:AssumeRole"}),
		Principals: Service(service),
	})
}
