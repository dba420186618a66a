// Package foundation provisions the long-lived layer of the stack pair: network, security
// groups, DNS and certificate references, the VPC link, the database and cache, and the
// image repositories.
//
// Components are created in dependency order. Each one receives what it needs through its
// args, so a component can never reference something that has not been built yet. Nothing
// in this package knows about the application layer.
package foundation

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// Foundation is the composed foundation layer.
type Foundation struct {
	pulumi.ResourceState

	Handles Handles

	Network    *Network
	Security   *SecurityGroups
	DNS        *DNS
	VpcLink    *VpcLink
	DataStores *DataStores
	Registry   *Registry
	// Bastion is nil when no key pair is configured.
	Bastion *Bastion
}

func New(ctx *pulumi.Context, name string, cfg *Config, opts ...pulumi.ResourceOption) (*Foundation, error) {
	f := &Foundation{}
	if err := ctx.RegisterComponentResource("webapp:foundation:Foundation", name, f, opts...); err != nil {
		return nil, err
	}
	parent := pulumi.Parent(f)
	env := cfg.Env

	dns, err := NewDNS(ctx, "dns", &DNSArgs{
		HostedZoneDomain:        cfg.HostedZoneDomain,
		PrivateHostedZoneDomain: cfg.PrivateHostedZoneDomain,
		CertificateArn:          cfg.CertificateArn,
		GlobalCertificateArn:    cfg.GlobalCertificateArn,
	}, parent)
	if err != nil {
		return nil, err
	}

	network, err := NewNetwork(ctx, "network", &NetworkArgs{
		Env:    env,
		Region: cfg.Region,
	}, parent)
	if err != nil {
		return nil, err
	}

	security, err := NewSecurityGroups(ctx, "security-groups", &SecurityGroupsArgs{
		Env:         env,
		VpcID:       network.VpcID,
		BastionCIDR: cfg.BastionIngressCidr,
	}, parent)
	if err != nil {
		return nil, err
	}
	groups := security.IDs()

	vpcLink, err := NewVpcLink(ctx, "vpc-link", &VpcLinkArgs{
		Env:              env,
		PrivateSubnetIDs: network.PrivateSubnetIDs,
		SecurityGroupID:  groups.VpcLink,
	}, parent)
	if err != nil {
		return nil, err
	}

	data, err := NewDataStores(ctx, "data-stores", &DataStoresArgs{
		Env:               env,
		IsolatedSubnetIDs: network.IsolatedSubnetIDs,
		DatabaseGroupID:   groups.Database,
		CacheGroupID:      groups.Cache,
		DatabasePassword:  cfg.DatabasePassword,
	}, parent)
	if err != nil {
		return nil, err
	}

	registry, err := NewRegistry(ctx, "registry", &RegistryArgs{Env: env}, parent)
	if err != nil {
		return nil, err
	}

	if cfg.BastionKeyName != "" {
		f.Bastion, err = NewBastion(ctx, "bastion", &BastionArgs{
			Env:             env,
			SubnetID:        network.PublicSubnets[0].ID(),
			SecurityGroupID: groups.Bastion,
			KeyName:         cfg.BastionKeyName,
			InstanceType:    cfg.BastionInstanceType,
		}, parent)
		if err != nil {
			return nil, err
		}
	} else {
		ctx.Log.Info("bastionKeyName not set, skipping bastion host", nil)
	}

	f.Network = network
	f.Security = security
	f.DNS = dns
	f.VpcLink = vpcLink
	f.DataStores = data
	f.Registry = registry
	f.Handles = Handles{
		VpcID:                 network.VpcID,
		PublicSubnetIDs:       network.PublicSubnetIDs,
		PrivateSubnetIDs:      network.PrivateSubnetIDs,
		IsolatedSubnetIDs:     network.IsolatedSubnetIDs,
		SecurityGroups:        groups,
		PublicZoneID:          dns.PublicZoneID,
		PrivateZoneID:         dns.PrivateZoneID,
		CertificateArn:        dns.CertificateArn,
		GlobalCertificateArn:  dns.GlobalCertificateArn,
		VpcLinkID:             vpcLink.LinkID,
		BackendRepositoryURL:  registry.BackendRepositoryURL,
		FrontendRepositoryURL: registry.FrontendRepositoryURL,
	}

	if err := ctx.RegisterResourceOutputs(f, pulumi.Map{
		"vpcId":     f.Handles.VpcID,
		"vpcLinkId": f.Handles.VpcLinkID,
	}); err != nil {
		return nil, err
	}
	return f, nil
}

// Export publishes the handles and the data store endpoints.
func (f *Foundation) Export(ctx *pulumi.Context) {
	f.Handles.Export(ctx)
	ctx.Export("databaseArn", f.DataStores.DatabaseArn)
	ctx.Export("databaseHost", f.DataStores.DatabaseHost)
	ctx.Export("databasePort", f.DataStores.DatabasePort)
	ctx.Export("cacheArn", f.DataStores.CacheArn)
	ctx.Export("cacheHost", f.DataStores.CacheHost)
	ctx.Export("cachePort", f.DataStores.CachePort)
	if f.Bastion != nil {
		ctx.Export("bastionPublicIp", f.Bastion.PublicIP)
		ctx.Export("bastionPublicDns", f.Bastion.PublicDNS)
	}
}
