package foundation

import (
	"sync"
	"testing"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webapp-infra/internal/pulumitest"
)

func TestHandlesFromStackReference(t *testing.T) {
	mocks := pulumitest.NewMocks().WithStackOutputs("acme/foundation/staging", map[string]interface{}{
		OutputVpcID:                 "vpc-123",
		OutputPrivateSubnetIDs:      []interface{}{"subnet-a", "subnet-b"},
		OutputVpcLinkID:             "link-1",
		"databaseSecurityGroupId":   "sg-db",
		"frontendLbSecurityGroupId": "sg-felb",
		OutputGlobalCertificateArn:  "arn:aws:acm:us-east-1:123456789012:certificate/global",
		OutputBackendRepositoryURL:  "123456789012.dkr.ecr.ap-northeast-2.amazonaws.com/backend-repository-staging",
	})

	var wg sync.WaitGroup
	var got []interface{}
	err := mocks.Run(func(ctx *pulumi.Context) error {
		ref, err := pulumi.NewStackReference(ctx, "acme/foundation/staging", nil)
		if err != nil {
			return err
		}
		h := HandlesFromStackReference(ref)

		wg.Add(1)
		pulumi.All(
			h.VpcID,
			h.PrivateSubnetIDs,
			h.VpcLinkID,
			h.SecurityGroups.Database,
			h.SecurityGroups.FrontendLB,
			h.GlobalCertificateArn,
			h.BackendRepositoryURL,
		).ApplyT(func(all []interface{}) error {
			got = all
			wg.Done()
			return nil
		})
		return nil
	})
	require.NoError(t, err)
	wg.Wait()

	assert.Equal(t, []interface{}{
		"vpc-123",
		[]string{"subnet-a", "subnet-b"},
		"link-1",
		"sg-db",
		"sg-felb",
		"arn:aws:acm:us-east-1:123456789012:certificate/global",
		"123456789012.dkr.ecr.ap-northeast-2.amazonaws.com/backend-repository-staging",
	}, got)
}
