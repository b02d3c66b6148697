package zonesync

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2/google"
	dns "google.golang.org/api/dns/v1"
)

// GoogleClient drives a Google Cloud DNS managed zone. A batch maps to one
// dns.Change; Cloud DNS has no native upsert, so an upsert becomes the old
// record in Deletions plus the new one in Additions of the same change.
type GoogleClient struct {
	project string
	client  *dns.Service
}

func NewGoogleClient(info map[string]string) (*GoogleClient, error) {
	project, ok := info["Project"]
	if !ok || project == "" {
		return nil, &ConfigError{Reason: "GoogleCloud: project name missing"}
	}
	saFile, ok := info["SaFile"]
	if !ok || saFile == "" {
		return nil, &ConfigError{Reason: "GoogleCloud: service account file missing"}
	}
	data, err := os.ReadFile(saFile)
	if err != nil {
		return nil, errors.Wrap(err, "read service account file")
	}
	conf, err := google.JWTConfigFromJSON(data, dns.NdevClouddnsReadwriteScope)
	if err != nil {
		return nil, errors.Wrap(err, "acquire jwt config")
	}
	svc, err := dns.New(conf.Client(context.Background()))
	if err != nil {
		return nil, errors.Wrap(err, "create cloud dns service")
	}
	return &GoogleClient{project: project, client: svc}, nil
}

func (s *GoogleClient) zoneName(ctx context.Context, zone string) (string, error) {
	zones, err := s.client.ManagedZones.List(s.project).Context(ctx).Do()
	if err != nil {
		return "", errors.Wrap(err, "list managed zones")
	}
	for _, managedZone := range zones.ManagedZones {
		if managedZone.DnsName == fqdn(zone) {
			return managedZone.Name, nil
		}
	}
	return "", errors.Errorf("zone %s not found in Cloud DNS", zone)
}

func (s *GoogleClient) List(ctx context.Context, zone string) (*ZoneSnapshot, error) {
	zoneName, err := s.zoneName(ctx, zone)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0)
	err = s.client.ResourceRecordSets.List(s.project, zoneName).
		Pages(ctx, func(page *dns.ResourceRecordSetsListResponse) error {
			for _, rrset := range page.Rrsets {
				records = append(records, Record{
					Name:   rrset.Name,
					Type:   rrset.Type,
					TTL:    int(rrset.Ttl),
					Values: rrset.Rrdatas,
				})
			}
			return nil
		})
	if err != nil {
		return nil, errors.Wrap(err, "list record sets")
	}
	return NewZoneSnapshot(zone, records)
}

func googleRecordSet(r Record) *dns.ResourceRecordSet {
	return &dns.ResourceRecordSet{
		Name:    fqdn(r.Name),
		Type:    r.Type,
		Ttl:     int64(r.TTL),
		Rrdatas: r.Values,
	}
}

func (s *GoogleClient) Apply(ctx context.Context, zone string, batch Batch) error {
	zoneName, err := s.zoneName(ctx, zone)
	if err != nil {
		return err
	}
	change := &dns.Change{}
	for _, op := range batch.Ops {
		switch op.Action {
		case ActionCreate:
			change.Additions = append(change.Additions, googleRecordSet(op.Record))
		case ActionDelete:
			change.Deletions = append(change.Deletions, googleRecordSet(op.Record))
		case ActionUpsert:
			change.Deletions = append(change.Deletions, googleRecordSet(*op.Prev))
			change.Additions = append(change.Additions, googleRecordSet(op.Record))
		}
	}
	chg, err := s.client.Changes.Create(s.project, zoneName, change).Context(ctx).Do()
	if err != nil {
		return errors.Wrap(err, "create change")
	}
	for chg.Status == "pending" {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
		chg, err = s.client.Changes.Get(s.project, zoneName, chg.Id).Context(ctx).Do()
		if err != nil {
			return errors.Wrap(err, "poll change")
		}
	}
	return nil
}
