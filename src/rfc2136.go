package zonesync

import (
	"context"
	"fmt"
	"time"

	"github.com/miekg/dns"
	"github.com/pkg/errors"
)

var tsigAlg = map[string]string{
	"hmac-sha1":   "hmac-sha1.",
	"hmac-sha224": "hmac-sha224.",
	"hmac-sha256": "hmac-sha256.",
	"hmac-sha384": "hmac-sha384.",
	"hmac-sha512": "hmac-sha512.",
}

// Rfc2136Client drives any server speaking RFC 2136 dynamic updates with
// TSIG. List is a zone transfer; a batch maps to one update message, which
// the server applies as a unit.
type Rfc2136Client struct {
	host     string
	tsigName string
	tsigAlg  string
	tsig     string
}

func NewRfc2136Client(info map[string]string) (*Rfc2136Client, error) {
	s := &Rfc2136Client{tsigAlg: "hmac-sha1."}
	var ok bool
	if s.host, ok = info["Host"]; !ok {
		return nil, &ConfigError{Reason: "RFC2136: host not set"}
	}
	if s.tsig, ok = info["Tsig"]; !ok {
		return nil, &ConfigError{Reason: "RFC2136: tsig secret not set"}
	}
	if s.tsigName, ok = info["TsigName"]; !ok {
		return nil, &ConfigError{Reason: "RFC2136: tsig name not set"}
	}
	s.tsigName = dns.Fqdn(s.tsigName)
	if alg, ok := info["TsigAlg"]; ok {
		if s.tsigAlg, ok = tsigAlg[alg]; !ok {
			return nil, &ConfigError{Reason: "RFC2136: unknown tsig algorithm " + alg}
		}
	}
	return s, nil
}

func rrToRecord(rr dns.RR) (Record, bool) {
	header := rr.Header()
	if header.Rrtype == dns.TypeTSIG {
		return Record{}, false
	}
	record := Record{
		Name: header.Name,
		Type: dns.TypeToString[header.Rrtype],
		TTL:  int(header.Ttl),
	}
	switch v := rr.(type) {
	case *dns.A:
		record.Values = []string{v.A.String()}
	case *dns.AAAA:
		record.Values = []string{v.AAAA.String()}
	case *dns.CNAME:
		record.Values = []string{v.Target}
	case *dns.TXT:
		record.Values = v.Txt
	case *dns.NS:
		record.Values = []string{v.Ns}
	case *dns.PTR:
		record.Values = []string{v.Ptr}
	case *dns.MX:
		record.Values = []string{fmt.Sprintf("%d %s", v.Preference, v.Mx)}
	case *dns.SRV:
		record.Values = []string{fmt.Sprintf("%d %d %d %s", v.Priority, v.Weight, v.Port, v.Target)}
	case *dns.SOA:
		record.Values = []string{fmt.Sprintf("%s %s %d %d %d %d %d",
			v.Ns, v.Mbox, v.Serial, v.Refresh, v.Retry, v.Expire, v.Minttl)}
	default:
		return Record{}, false
	}
	return record, true
}

func recordToRRs(r Record) ([]dns.RR, error) {
	rrs := make([]dns.RR, 0, len(r.Values))
	for _, value := range r.Values {
		rr, err := dns.NewRR(fmt.Sprintf("%s %d IN %s %s", fqdn(r.Name), r.TTL, r.Type, value))
		if err != nil {
			return nil, errors.Wrapf(err, "build rr %s %s", r.Name, r.Type)
		}
		rrs = append(rrs, rr)
	}
	return rrs, nil
}

func (s *Rfc2136Client) List(ctx context.Context, zone string) (*ZoneSnapshot, error) {
	tr := dns.Transfer{
		TsigSecret: map[string]string{s.tsigName: s.tsig},
	}
	m := &dns.Msg{}
	m.SetAxfr(fqdn(zone))
	m.SetTsig(s.tsigName, s.tsigAlg, 300, time.Now().Unix())
	channel, err := tr.In(m, s.host)
	if err != nil {
		return nil, errors.Wrap(err, "axfr")
	}
	// an RR per value comes off the wire; fold them into record sets
	index := make(map[RecordKey]int)
	records := make([]Record, 0)
	for envelope := range channel {
		if envelope.Error != nil {
			return nil, errors.Wrap(envelope.Error, "axfr")
		}
		for _, rr := range envelope.RR {
			record, ok := rrToRecord(rr)
			if !ok {
				continue
			}
			if i, ok := index[record.Key()]; ok {
				records[i].Values = append(records[i].Values, record.Values...)
				continue
			}
			index[record.Key()] = len(records)
			records = append(records, record)
		}
	}
	return NewZoneSnapshot(zone, records)
}

func (s *Rfc2136Client) Apply(ctx context.Context, zone string, batch Batch) error {
	m := &dns.Msg{}
	m.Id = dns.Id()
	m.SetUpdate(fqdn(zone))
	for _, op := range batch.Ops {
		switch op.Action {
		case ActionCreate:
			rrs, err := recordToRRs(op.Record)
			if err != nil {
				return err
			}
			m.Insert(rrs)
		case ActionDelete:
			rrs, err := recordToRRs(op.Record)
			if err != nil {
				return err
			}
			m.RemoveRRset(rrs)
		case ActionUpsert:
			old, err := recordToRRs(*op.Prev)
			if err != nil {
				return err
			}
			m.RemoveRRset(old)
			rrs, err := recordToRRs(op.Record)
			if err != nil {
				return err
			}
			m.Insert(rrs)
		}
	}
	m.SetTsig(s.tsigName, s.tsigAlg, 300, time.Now().Unix())
	c := dns.Client{
		Net:        "tcp",
		TsigSecret: map[string]string{s.tsigName: s.tsig},
	}
	in, _, err := c.ExchangeContext(ctx, m, s.host)
	if err != nil {
		return errors.Wrap(err, "dynamic update")
	}
	if in.Rcode != dns.RcodeSuccess {
		return errors.Errorf("dynamic update refused, rcode %d", in.Rcode)
	}
	return nil
}
