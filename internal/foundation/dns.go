package foundation

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v7/go/aws/route53"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

type DNSArgs struct {
	HostedZoneDomain        string
	PrivateHostedZoneDomain string
	CertificateArn          string
	GlobalCertificateArn    string
}

// DNS holds the existing hosted zones and certificates. Nothing here is created; zones are
// looked up by domain and certificates are referenced by ARN.
type DNS struct {
	pulumi.ResourceState

	PublicZoneID         pulumi.StringOutput
	PrivateZoneID        pulumi.StringOutput
	CertificateArn       pulumi.StringOutput
	GlobalCertificateArn pulumi.StringOutput
}

func NewDNS(ctx *pulumi.Context, name string, args *DNSArgs, opts ...pulumi.ResourceOption) (*DNS, error) {
	d := &DNS{}
	if err := ctx.RegisterComponentResource("webapp:foundation:DNS", name, d, opts...); err != nil {
		return nil, err
	}

	public, err := route53.LookupZone(ctx, &route53.LookupZoneArgs{
		Name:        pulumi.StringRef(args.HostedZoneDomain),
		PrivateZone: pulumi.BoolRef(false),
	})
	if err != nil {
		return nil, fmt.Errorf("looking up hosted zone %s: %w", args.HostedZoneDomain, err)
	}

	private, err := route53.LookupZone(ctx, &route53.LookupZoneArgs{
		Name:        pulumi.StringRef(args.PrivateHostedZoneDomain),
		PrivateZone: pulumi.BoolRef(true),
	})
	if err != nil {
		return nil, fmt.Errorf("looking up private hosted zone %s: %w", args.PrivateHostedZoneDomain, err)
	}

	d.PublicZoneID = pulumi.String(public.ZoneId).ToStringOutput()
	d.PrivateZoneID = pulumi.String(private.ZoneId).ToStringOutput()
	d.CertificateArn = pulumi.String(args.CertificateArn).ToStringOutput()
	d.GlobalCertificateArn = pulumi.String(args.GlobalCertificateArn).ToStringOutput()

	if err := ctx.RegisterResourceOutputs(d, pulumi.Map{
		"publicZoneId":         d.PublicZoneID,
		"privateZoneId":        d.PrivateZoneID,
		"certificateArn":       d.CertificateArn,
		"globalCertificateArn": d.GlobalCertificateArn,
	}); err != nil {
		return nil, err
	}
	return d, nil
}
