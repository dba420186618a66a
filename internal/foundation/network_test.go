package foundation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubnetCIDRs(t *testing.T) {
	cidrs, err := SubnetCIDRs("10.0.0.0/16", 20, 2)
	require.NoError(t, err)
	assert.Equal(t, map[SubnetTier][]string{
		Public:   {"10.0.0.0/20", "10.0.16.0/20"},
		Private:  {"10.0.32.0/20", "10.0.48.0/20"},
		Isolated: {"10.0.64.0/20", "10.0.80.0/20"},
	}, cidrs)
}

func TestSubnetCIDRsTooSmall(t *testing.T) {
	_, err := SubnetCIDRs("10.0.0.0/22", 24, 3)
	assert.Error(t, err)

	_, err = SubnetCIDRs("not-a-cidr", 20, 3)
	assert.Error(t, err)
}

func TestLifecyclePolicy(t *testing.T) {
	policy, err := LifecyclePolicy()
	require.NoError(t, err)
	assert.JSONEq(t, `{"rules": [
		{"rulePriority": 10, "description": "Keep 100 production images",
		 "selection": {"tagStatus": "tagged", "tagPatternList": ["production-*"], "countType": "imageCountMoreThan", "countNumber": 100},
		 "action": {"type": "expire"}},
		{"rulePriority": 20, "description": "Keep 10 staging images",
		 "selection": {"tagStatus": "tagged", "tagPatternList": ["staging-*"], "countType": "imageCountMoreThan", "countNumber": 10},
		 "action": {"type": "expire"}},
		{"rulePriority": 30, "description": "Expire after 14 days",
		 "selection": {"tagStatus": "any", "countType": "sinceImagePushed", "countUnit": "days", "countNumber": 14},
		 "action": {"type": "expire"}}
	]}`, policy)
}

func TestSecurityGroupOutputKeys(t *testing.T) {
	assert.Equal(t, "frontendLbSecurityGroupId", securityGroupOutput(FrontendLBGroup))
	assert.Equal(t, "vpcLinkSecurityGroupId", securityGroupOutput(VpcLinkGroup))
	assert.Equal(t, "databaseSecurityGroupId", securityGroupOutput(DatabaseGroup))
}
