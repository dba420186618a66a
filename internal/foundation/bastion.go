package foundation

import (
	"encoding/base64"
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/ec2"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"webapp-infra/internal/environment"
)

const bastionUserData = `#!/bin/bash
set -e

dnf update -y
dnf install -y postgresql16 redis6

echo "bastion setup completed" > /var/log/user-data.log
`

type BastionArgs struct {
	Env             environment.Environment
	SubnetID        pulumi.StringInput
	SecurityGroupID pulumi.StringInput
	KeyName         string
	InstanceType    string
}

// Bastion is an SSH jump host in a public subnet, the only non-service path to the database.
type Bastion struct {
	pulumi.ResourceState

	InstanceID pulumi.StringOutput
	PublicIP   pulumi.StringOutput
	PublicDNS  pulumi.StringOutput
}

func NewBastion(ctx *pulumi.Context, name string, args *BastionArgs, opts ...pulumi.ResourceOption) (*Bastion, error) {
	b := &Bastion{}
	if err := ctx.RegisterComponentResource("webapp:foundation:Bastion", name, b, opts...); err != nil {
		return nil, err
	}

	// Get the latest Amazon Linux 2023 AMI
	ami, err := ec2.LookupAmi(ctx, &ec2.LookupAmiArgs{
		MostRecent: pulumi.BoolRef(true),
		Owners:     []string{"amazon"},
		Filters: []ec2.GetAmiFilter{
			{
				Name:   "name",
				Values: []string{"al2023-ami-2023.*-x86_64"},
			},
			{
				Name:   "virtualization-type",
				Values: []string{"hvm"},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("looking up bastion ami: %w", err)
	}

	instance, err := ec2.NewInstance(ctx, fmt.Sprintf("bastion-%s", args.Env.Name), &ec2.InstanceArgs{
		InstanceType:             pulumi.String(args.InstanceType),
		Ami:                      pulumi.String(ami.Id),
		SubnetId:                 args.SubnetID,
		VpcSecurityGroupIds:      pulumi.StringArray{args.SecurityGroupID},
		KeyName:                  pulumi.String(args.KeyName),
		UserDataBase64:           pulumi.String(base64.StdEncoding.EncodeToString([]byte(bastionUserData))),
		AssociatePublicIpAddress: pulumi.Bool(true),
		RootBlockDevice: &ec2.InstanceRootBlockDeviceArgs{
			VolumeSize:          pulumi.Int(8),
			VolumeType:          pulumi.String("gp3"),
			DeleteOnTermination: pulumi.Bool(true),
			Encrypted:           pulumi.Bool(true),
		},
		MetadataOptions: &ec2.InstanceMetadataOptionsArgs{
			HttpTokens: pulumi.String("required"),
		},
		Tags: pulumi.ToStringMap(args.Env.Tags("bastion")),
	}, pulumi.Parent(b))
	if err != nil {
		return nil, fmt.Errorf("creating bastion: %w", err)
	}

	b.InstanceID = instance.ID().ToStringOutput()
	b.PublicIP = instance.PublicIp
	b.PublicDNS = instance.PublicDns

	if err := ctx.RegisterResourceOutputs(b, pulumi.Map{
		"instanceId": b.InstanceID,
		"publicIp":   b.PublicIP,
		"publicDns":  b.PublicDNS,
	}); err != nil {
		return nil, err
	}
	return b, nil
}
