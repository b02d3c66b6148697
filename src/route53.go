package zonesync

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	route53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/pkg/errors"
)

// Route53Client drives an AWS Route 53 hosted zone. A whole batch maps to
// one ChangeResourceRecordSets call, which Route 53 commits atomically.
type Route53Client struct {
	client *route53.Client
}

// NewRoute53Client builds the client from a provider entry. AK/SK are
// optional; without them the SDK's standard credential chain applies.
func NewRoute53Client(ctx context.Context, info map[string]string) (*Route53Client, error) {
	optFns := []func(*awsconfig.LoadOptions) error{}
	if region, ok := info["Region"]; ok && region != "" {
		optFns = append(optFns, awsconfig.WithRegion(region))
	}
	if ak, sk := info["AK"], info["SK"]; ak != "" && sk != "" {
		optFns = append(optFns,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(ak, sk, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	return &Route53Client{client: route53.NewFromConfig(cfg)}, nil
}

func (s *Route53Client) zoneID(ctx context.Context, zone string) (string, error) {
	resp, err := s.client.ListHostedZonesByName(ctx, &route53.ListHostedZonesByNameInput{
		DNSName: aws.String(defqdn(zone)),
	})
	if err != nil {
		return "", errors.Wrap(err, "list hosted zones")
	}
	for _, hostedZone := range resp.HostedZones {
		if *hostedZone.Name == fqdn(zone) && !hostedZone.Config.PrivateZone {
			return strings.TrimPrefix(*hostedZone.Id, "/hostedzone/"), nil
		}
	}
	return "", errors.Errorf("zone %s not found in Route 53", zone)
}

func (s *Route53Client) List(ctx context.Context, zone string) (*ZoneSnapshot, error) {
	id, err := s.zoneID(ctx, zone)
	if err != nil {
		return nil, err
	}
	in := &route53.ListResourceRecordSetsInput{HostedZoneId: aws.String(id)}
	records := make([]Record, 0)
	for {
		out, err := s.client.ListResourceRecordSets(ctx, in)
		if err != nil {
			return nil, errors.Wrap(err, "list record sets")
		}
		for _, rrset := range out.ResourceRecordSets {
			if rrset.AliasTarget != nil {
				// alias records have no resource data to mirror
				continue
			}
			values := make([]string, 0, len(rrset.ResourceRecords))
			for _, rr := range rrset.ResourceRecords {
				values = append(values, *rr.Value)
			}
			records = append(records, Record{
				Name:   *rrset.Name,
				Type:   string(rrset.Type),
				TTL:    int(aws.ToInt64(rrset.TTL)),
				Values: values,
			})
		}
		if !out.IsTruncated {
			break
		}
		in.StartRecordName = out.NextRecordName
		in.StartRecordType = out.NextRecordType
		in.StartRecordIdentifier = out.NextRecordIdentifier
	}
	return NewZoneSnapshot(zone, records)
}

func route53RecordSet(r Record) *route53types.ResourceRecordSet {
	resourceRecords := make([]route53types.ResourceRecord, 0, len(r.Values))
	for _, v := range r.Values {
		resourceRecords = append(resourceRecords, route53types.ResourceRecord{Value: aws.String(v)})
	}
	return &route53types.ResourceRecordSet{
		Name:            aws.String(fqdn(r.Name)),
		Type:            route53types.RRType(r.Type),
		TTL:             aws.Int64(int64(r.TTL)),
		ResourceRecords: resourceRecords,
	}
}

func (s *Route53Client) Apply(ctx context.Context, zone string, batch Batch) error {
	id, err := s.zoneID(ctx, zone)
	if err != nil {
		return err
	}
	changes := make([]route53types.Change, 0, len(batch.Ops))
	for _, op := range batch.Ops {
		var action route53types.ChangeAction
		record := op.Record
		switch op.Action {
		case ActionCreate:
			action = route53types.ChangeActionCreate
		case ActionDelete:
			action = route53types.ChangeActionDelete
		case ActionUpsert:
			action = route53types.ChangeActionUpsert
		}
		changes = append(changes, route53types.Change{
			Action:            action,
			ResourceRecordSet: route53RecordSet(record),
		})
	}
	resp, err := s.client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(id),
		ChangeBatch: &route53types.ChangeBatch{
			Comment: aws.String("Managed by zonesync"),
			Changes: changes,
		},
	})
	if err != nil {
		return errors.Wrap(err, "change record sets")
	}

	// block until the change is INSYNC so the next batch never races it
	changeID := resp.ChangeInfo.Id
	for resp.ChangeInfo.Status != route53types.ChangeStatusInsync {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
		out, err := s.client.GetChange(ctx, &route53.GetChangeInput{Id: changeID})
		if err != nil {
			return errors.Wrap(err, "query change status")
		}
		resp.ChangeInfo = out.ChangeInfo
	}
	return nil
}
