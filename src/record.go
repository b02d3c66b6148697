package zonesync

import (
	"fmt"
	"sort"
	"strings"

	"github.com/miekg/dns"
)

// Record is one DNS resource record set: every value published under a
// single (name, type) pair.
type Record struct {
	Name   string
	Type   string
	TTL    int
	Values []string
}

// RecordKey identifies a record inside a zone. Name is lower-cased and
// fully qualified, Type upper-cased.
type RecordKey struct {
	Name string
	Type string
}

func fqdn(input string) string {
	return dns.Fqdn(input)
}

func defqdn(input string) string {
	if len(input) > 0 && input[len(input)-1] == '.' {
		return input[:len(input)-1]
	}
	return input
}

func (r Record) Key() RecordKey {
	return RecordKey{
		Name: fqdn(strings.ToLower(r.Name)),
		Type: strings.ToUpper(r.Type),
	}
}

func normalizeValues(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// Same reports whether two records share identity, ignoring TTL and values.
func (r Record) Same(other Record) bool {
	return r.Key() == other.Key()
}

// Identical reports whether two records would publish the same data: same
// identity, same TTL and the same value set. Value order is irrelevant and
// duplicates are ignored.
func (r Record) Identical(other Record) bool {
	if !r.Same(other) || r.TTL != other.TTL {
		return false
	}
	lv := normalizeValues(r.Values)
	rv := normalizeValues(other.Values)
	if len(lv) != len(rv) {
		return false
	}
	for i := range lv {
		if lv[i] != rv[i] {
			return false
		}
	}
	return true
}

func compareKey(l, r RecordKey) bool {
	reverseStringSlice := func(s []string) []string {
		for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
			s[i], s[j] = s[j], s[i]
		}
		return s
	}
	reverseDomain := func(s string) string {
		t := strings.Split(s, ".")
		reverseStringSlice(t)
		return strings.Join(t, ".")
	}
	if l.Name != r.Name {
		return strings.Compare(reverseDomain(l.Name), reverseDomain(r.Name)) < 0
	}
	return l.Type < r.Type
}

func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		return compareKey(records[i].Key(), records[j].Key())
	})
}

// ZoneSnapshot is the record set of one zone at one point in time, either
// desired (file) or actual (service). Immutable once built.
type ZoneSnapshot struct {
	zone    string
	records map[RecordKey]Record
}

// NewZoneSnapshot builds a snapshot from a flat record list. Two records
// mapping to the same (name, type) after normalization are rejected with a
// ValidationError: readers must be defended against malformed input before
// the records reach the reconciler.
func NewZoneSnapshot(zone string, records []Record) (*ZoneSnapshot, error) {
	s := &ZoneSnapshot{
		zone:    fqdn(strings.ToLower(zone)),
		records: make(map[RecordKey]Record, len(records)),
	}
	for _, r := range records {
		key := r.Key()
		if _, ok := s.records[key]; ok {
			return nil, &ValidationError{
				Reason: fmt.Sprintf("duplicate record %s %s", key.Name, key.Type),
			}
		}
		s.records[key] = r
	}
	return s, nil
}

func (s *ZoneSnapshot) Zone() string {
	return s.zone
}

func (s *ZoneSnapshot) Len() int {
	return len(s.records)
}

func (s *ZoneSnapshot) Get(key RecordKey) (Record, bool) {
	r, ok := s.records[key]
	return r, ok
}

// Records returns the snapshot's records in deterministic zone order:
// reversed-label domain name, then type.
func (s *ZoneSnapshot) Records() []Record {
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sortRecords(out)
	return out
}

// isApex reports whether the record defines the zone itself. Apex NS and
// SOA records are never touched by reconciliation.
func (s *ZoneSnapshot) isApex(r Record) bool {
	key := r.Key()
	return key.Name == s.zone && (key.Type == "NS" || key.Type == "SOA")
}
