package zonesync

import (
	"context"

	"github.com/huaweicloud/huaweicloud-sdk-go-v3/core/auth/basic"
	dns "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/dns/v2"
	"github.com/huaweicloud/huaweicloud-sdk-go-v3/services/dns/v2/model"
	region "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/dns/v2/region"
	"github.com/pkg/errors"
)

// HuaweiClient drives a Huawei Cloud DNS public zone. The service works in
// whole record sets, so creates and deletes map one to one and an upsert is
// a delete of the old set followed by a create of the new one.
type HuaweiClient struct {
	client *dns.DnsClient
}

func NewHuaweiClient(info map[string]string) (*HuaweiClient, error) {
	regionName, ok := info["Region"]
	if !ok || regionName == "" {
		regionName = "cn-north-4"
	}
	ak, ok := info["AK"]
	if !ok {
		return nil, &ConfigError{Reason: "Huawei: missing AK"}
	}
	sk, ok := info["SK"]
	if !ok {
		return nil, &ConfigError{Reason: "Huawei: missing SK"}
	}
	auth := basic.NewCredentialsBuilder().WithAk(ak).WithSk(sk).Build()
	client := dns.NewDnsClient(
		dns.DnsClientBuilder().
			WithRegion(region.ValueOf(regionName)).
			WithCredential(auth).Build())
	return &HuaweiClient{client: client}, nil
}

func (s *HuaweiClient) zoneID(zone string) (string, error) {
	zones, err := s.client.ListPublicZones(&model.ListPublicZonesRequest{Name: &zone})
	if err != nil {
		return "", errors.Wrap(err, "list zones")
	}
	if zones.Zones == nil || len(*zones.Zones) == 0 {
		return "", errors.Errorf("zone %s not found in Huawei DNS", zone)
	}
	return *(*zones.Zones)[0].Id, nil
}

func (s *HuaweiClient) List(ctx context.Context, zone string) (*ZoneSnapshot, error) {
	id, err := s.zoneID(zone)
	if err != nil {
		return nil, err
	}
	recordsets, err := s.client.ListRecordSetsByZone(&model.ListRecordSetsByZoneRequest{ZoneId: id})
	if err != nil {
		return nil, errors.Wrap(err, "list record sets")
	}
	records := make([]Record, 0)
	for _, v := range *recordsets.Recordsets {
		records = append(records, Record{
			Name:   *v.Name,
			Type:   *v.Type,
			TTL:    int(*v.Ttl),
			Values: *v.Records,
		})
	}
	return NewZoneSnapshot(zone, records)
}

func (s *HuaweiClient) create(zoneID string, r Record) error {
	ttl := int32(r.TTL)
	_, err := s.client.CreateRecordSet(&model.CreateRecordSetRequest{
		ZoneId: zoneID,
		Body: &model.CreateRecordSetReq{
			Name:    fqdn(r.Name),
			Type:    r.Type,
			Ttl:     &ttl,
			Records: r.Values,
		}})
	return errors.Wrapf(err, "create %s %s", r.Name, r.Type)
}

func (s *HuaweiClient) delete(zoneID string, r Record) error {
	name := fqdn(r.Name)
	recordsets, err := s.client.ListRecordSetsByZone(&model.ListRecordSetsByZoneRequest{
		ZoneId: zoneID,
		Name:   &name,
	})
	if err != nil {
		return errors.Wrapf(err, "find %s %s", r.Name, r.Type)
	}
	for _, v := range *recordsets.Recordsets {
		if (Record{Name: *v.Name, Type: *v.Type}).Same(r) {
			_, err := s.client.DeleteRecordSet(&model.DeleteRecordSetRequest{
				ZoneId:      *v.ZoneId,
				RecordsetId: *v.Id,
			})
			if err != nil {
				return errors.Wrapf(err, "delete %s %s", r.Name, r.Type)
			}
		}
	}
	return nil
}

func (s *HuaweiClient) Apply(ctx context.Context, zone string, batch Batch) error {
	id, err := s.zoneID(zone)
	if err != nil {
		return err
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
