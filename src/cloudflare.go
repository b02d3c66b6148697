package zonesync

import (
	"context"

	"github.com/cloudflare/cloudflare-go"
	"github.com/pkg/errors"
)

// CloudflareClient drives a Cloudflare zone. Cloudflare stores one record
// per value and has no batch call, so a Record fans out into one API record
// per value and a batch is applied op by op.
type CloudflareClient struct {
	client *cloudflare.API
}

func NewCloudflareClient(info map[string]string) (*CloudflareClient, error) {
	email, ok := info["Email"]
	if !ok {
		return nil, &ConfigError{Reason: "Cloudflare: email not set"}
	}
	key, ok := info["Key"]
	if !ok {
		return nil, &ConfigError{Reason: "Cloudflare: key not set"}
	}
	client, err := cloudflare.New(key, email)
	if err != nil {
		return nil, errors.Wrap(err, "create cloudflare client")
	}
	return &CloudflareClient{client: client}, nil
}

func (s *CloudflareClient) List(ctx context.Context, zone string) (*ZoneSnapshot, error) {
	id, err := s.client.ZoneIDByName(defqdn(zone))
	if err != nil {
		return nil, errors.Wrap(err, "resolve zone id")
	}
	raw, err := s.client.DNSRecords(id, cloudflare.DNSRecord{})
	if err != nil {
		return nil, errors.Wrap(err, "list records")
	}
	// fold per-value API records back into multi-value record sets
	index := make(map[RecordKey]int)
	records := make([]Record, 0, len(raw))
	for _, v := range raw {
		r := Record{Name: fqdn(v.Name), Type: v.Type, TTL: v.TTL, Values: []string{v.Content}}
		if i, ok := index[r.Key()]; ok {
			records[i].Values = append(records[i].Values, v.Content)
			continue
		}
		index[r.Key()] = len(records)
		records = append(records, r)
	}
	return NewZoneSnapshot(zone, records)
}

func (s *CloudflareClient) create(zoneID string, r Record) error {
	for _, value := range r.Values {
		_, err := s.client.CreateDNSRecord(zoneID, cloudflare.DNSRecord{
			ZoneID:  zoneID,
			Name:    defqdn(r.Name),
			Type:    r.Type,
			Content: value,
			TTL:     r.TTL,
		})
		if err != nil {
			return errors.Wrapf(err, "create %s %s", r.Name, r.Type)
		}
	}
	return nil
}

func (s *CloudflareClient) delete(zoneID string, r Record) error {
	existing, err := s.client.DNSRecords(zoneID, cloudflare.DNSRecord{
		Name: defqdn(r.Name),
		Type: r.Type,
	})
	if err != nil {
		return errors.Wrapf(err, "find %s %s", r.Name, r.Type)
	}
	for _, v := range existing {
		if err := s.client.DeleteDNSRecord(zoneID, v.ID); err != nil {
			return errors.Wrapf(err, "delete %s %s", r.Name, r.Type)
		}
	}
	return nil
}

func (s *CloudflareClient) Apply(ctx context.Context, zone string, batch Batch) error {
	id, err := s.client.ZoneIDByName(defqdn(zone))
	if err != nil {
		return errors.Wrap(err, "resolve zone id")
	}
	for _, op := range batch.Ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch op.Action {
		case ActionCreate:
			err = s.create(id, op.Record)
		case ActionDelete:
			err = s.delete(id, op.Record)
		case ActionUpsert:
			if err = s.delete(id, *op.Prev); err == nil {
				err = s.create(id, op.Record)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}
