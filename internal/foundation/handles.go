package foundation

import (
	"fmt"
	"strings"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// SecurityGroupIDs carries one id per security group.
type SecurityGroupIDs struct {
	Bastion    pulumi.StringOutput
	VpcLink    pulumi.StringOutput
	FrontendLB pulumi.StringOutput
	Frontend   pulumi.StringOutput
	BackendLB  pulumi.StringOutput
	Backend    pulumi.StringOutput
	Database   pulumi.StringOutput
	Cache      pulumi.StringOutput
}

// Handles is the public contract of the foundation stack. The application stack consumes
// nothing else.
type Handles struct {
	VpcID             pulumi.StringOutput
	PublicSubnetIDs   pulumi.StringArrayOutput
	PrivateSubnetIDs  pulumi.StringArrayOutput
	IsolatedSubnetIDs pulumi.StringArrayOutput

	SecurityGroups SecurityGroupIDs

	PublicZoneID         pulumi.StringOutput
	PrivateZoneID        pulumi.StringOutput
	CertificateArn       pulumi.StringOutput
	GlobalCertificateArn pulumi.StringOutput

	VpcLinkID pulumi.StringOutput

	BackendRepositoryURL  pulumi.StringOutput
	FrontendRepositoryURL pulumi.StringOutput
}

// Stack output keys.
const (
	OutputVpcID                 = "vpcId"
	OutputPublicSubnetIDs       = "publicSubnetIds"
	OutputPrivateSubnetIDs      = "privateSubnetIds"
	OutputIsolatedSubnetIDs     = "isolatedSubnetIds"
	OutputPublicZoneID          = "hostedZoneId"
	OutputPrivateZoneID         = "privateHostedZoneId"
	OutputCertificateArn        = "certificateArn"
	OutputGlobalCertificateArn  = "globalCertificateArn"
	OutputVpcLinkID             = "vpcLinkId"
	OutputBackendRepositoryURL  = "backendRepositoryUrl"
	OutputFrontendRepositoryURL = "frontendRepositoryUrl"
)

// securityGroupOutput maps a group key such as "frontend-lb" to "frontendLbSecurityGroupId".
func securityGroupOutput(key string) string {
	parts := strings.Split(key, "-")
	for i := 1; i < len(parts); i++ {
		parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
	}
	return fmt.Sprintf("%sSecurityGroupId", strings.Join(parts, ""))
}

func (h Handles) stringOutputs() map[string]pulumi.StringOutput {
	return map[string]pulumi.StringOutput{
		OutputVpcID:                 h.VpcID,
		OutputPublicZoneID:          h.PublicZoneID,
		OutputPrivateZoneID:         h.PrivateZoneID,
		OutputCertificateArn:        h.CertificateArn,
		OutputGlobalCertificateArn:  h.GlobalCertificateArn,
		OutputVpcLinkID:             h.VpcLinkID,
		OutputBackendRepositoryURL:  h.BackendRepositoryURL,
		OutputFrontendRepositoryURL: h.FrontendRepositoryURL,

		securityGroupOutput(BastionGroup):    h.SecurityGroups.Bastion,
		securityGroupOutput(VpcLinkGroup):    h.SecurityGroups.VpcLink,
		securityGroupOutput(FrontendLBGroup): h.SecurityGroups.FrontendLB,
		securityGroupOutput(FrontendGroup):   h.SecurityGroups.Frontend,
		securityGroupOutput(BackendLBGroup):  h.SecurityGroups.BackendLB,
		securityGroupOutput(BackendGroup):    h.SecurityGroups.Backend,
		securityGroupOutput(DatabaseGroup):   h.SecurityGroups.Database,
		securityGroupOutput(CacheGroup):      h.SecurityGroups.Cache,
	}
}

// Export publishes every handle as a stack output.
func (h Handles) Export(ctx *pulumi.Context) {
	for key, out := range h.stringOutputs() {
		ctx.Export(key, out)
	}
	ctx.Export(OutputPublicSubnetIDs, h.PublicSubnetIDs)
	ctx.Export(OutputPrivateSubnetIDs, h.PrivateSubnetIDs)
	ctx.Export(OutputIsolatedSubnetIDs, h.IsolatedSubnetIDs)
}

// HandlesFromStackReference rebuilds the handles from another stack's outputs.
func HandlesFromStackReference(ref *pulumi.StackReference) Handles {
	str := func(key string) pulumi.StringOutput {
		return ref.GetStringOutput(pulumi.String(key))
	}
	strs := func(key string) pulumi.StringArrayOutput {
		return ref.GetOutput(pulumi.String(key)).ApplyT(func(v interface{}) []string {
			raw, _ := v.([]interface{})
			out := make([]string, 0, len(raw))
			for _, item := range raw {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			return out
		}).(pulumi.StringArrayOutput)
	}

	return Handles{
		VpcID:             str(OutputVpcID),
		PublicSubnetIDs:   strs(OutputPublicSubnetIDs),
		PrivateSubnetIDs:  strs(OutputPrivateSubnetIDs),
		IsolatedSubnetIDs: strs(OutputIsolatedSubnetIDs),
		SecurityGroups: SecurityGroupIDs{
			Bastion:    str(securityGroupOutput(BastionGroup)),
			VpcLink:    str(securityGroupOutput(VpcLinkGroup)),
			FrontendLB: str(securityGroupOutput(FrontendLBGroup)),
			Frontend:   str(securityGroupOutput(FrontendGroup)),
			BackendLB:  str(securityGroupOutput(BackendLBGroup)),
			Backend:    str(securityGroupOutput(BackendGroup)),
			Database:   str(securityGroupOutput(DatabaseGroup)),
			Cache:      str(securityGroupOutput(CacheGroup)),
		},
		PublicZoneID:          str(OutputPublicZoneID),
		PrivateZoneID:         str(OutputPrivateZoneID),
		CertificateArn:        str(OutputCertificateArn),
		GlobalCertificateArn:  str(OutputGlobalCertificateArn),
		VpcLinkID:             str(OutputVpcLinkID),
		BackendRepositoryURL:  str(OutputBackendRepositoryURL),
		FrontendRepositoryURL: str(OutputFrontendRepositoryURL),
	}
}
