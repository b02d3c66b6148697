package zonesync

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	yaml "go.yaml.in/yaml/v3"
)

// ZoneCodec converts between a serialized zone file and a snapshot. The two
// variants (yaml, json) carry the identical document shape, so files are
// interchangeable:
//
//	- Name: www.example.com.
//	  Type: A
//	  TTL: 300
//	  ResourceRecords:
//	  - Value: 192.0.2.1
type ZoneCodec interface {
	Decode(data []byte, zone string) (*ZoneSnapshot, error)
	Encode(snapshot *ZoneSnapshot) ([]byte, error)
}

type resourceRecord struct {
	Value string `yaml:"Value" json:"Value"`
}

type fileRecord struct {
	Name            string           `yaml:"Name" json:"Name"`
	Type            string           `yaml:"Type" json:"Type"`
	TTL             int              `yaml:"TTL,omitempty" json:"TTL,omitempty"`
	ResourceRecords []resourceRecord `yaml:"ResourceRecords,omitempty" json:"ResourceRecords,omitempty"`
}

func toSnapshot(fileRecords []fileRecord, zone string) (*ZoneSnapshot, error) {
	records := make([]Record, 0, len(fileRecords))
	for _, fr := range fileRecords {
		values := make([]string, 0, len(fr.ResourceRecords))
		for _, rr := range fr.ResourceRecords {
			values = append(values, rr.Value)
		}
		records = append(records, Record{
			Name:   fr.Name,
			Type:   fr.Type,
			TTL:    fr.TTL,
			Values: values,
		})
	}
	return NewZoneSnapshot(zone, records)
}

func toFileRecords(snapshot *ZoneSnapshot) []fileRecord {
	records := snapshot.Records()
	out := make([]fileRecord, 0, len(records))
	for _, r := range records {
		fr := fileRecord{Name: r.Name, Type: r.Type, TTL: r.TTL}
		for _, v := range r.Values {
			fr.ResourceRecords = append(fr.ResourceRecords, resourceRecord{Value: v})
		}
		out = append(out, fr)
	}
	return out
}

type yamlCodec struct{}

func (yamlCodec) Decode(data []byte, zone string) (*ZoneSnapshot, error) {
	var fileRecords []fileRecord
	if err := yaml.Unmarshal(data, &fileRecords); err != nil {
		return nil, &FormatError{Format: "yaml", Err: err}
	}
	return toSnapshot(fileRecords, zone)
}

func (yamlCodec) Encode(snapshot *ZoneSnapshot) ([]byte, error) {
	return yaml.Marshal(toFileRecords(snapshot))
}

type jsonCodec struct{}

func (jsonCodec) Decode(data []byte, zone string) (*ZoneSnapshot, error) {
	var fileRecords []fileRecord
	if err := json.Unmarshal(data, &fileRecords); err != nil {
		return nil, &FormatError{Format: "json", Err: err}
	}
	return toSnapshot(fileRecords, zone)
}

func (jsonCodec) Encode(snapshot *ZoneSnapshot) ([]byte, error) {
	return json.MarshalIndent(toFileRecords(snapshot), "", "  ")
}

// CodecFor picks a codec by format name, or by the file's extension when
// format is empty. Yaml is the default, as in the file format's origin.
func CodecFor(format, path string) (ZoneCodec, error) {
	if format == "" {
		if strings.HasSuffix(path, ".json") {
			format = "json"
		} else {
			format = "yaml"
		}
	}
	switch format {
	case "yaml", "yml":
		return yamlCodec{}, nil
	case "json":
		return jsonCodec{}, nil
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown format %q", format)}
	}
}

// ReadZoneFile loads the desired snapshot for zone from path, "-" meaning
// stdin.
func ReadZoneFile(codec ZoneCodec, path, zone string) (*ZoneSnapshot, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read zone file")
	}
	return codec.Decode(data, zone)
}

// WriteZoneFile exports a snapshot to path, "-" meaning stdout.
func WriteZoneFile(codec ZoneCodec, snapshot *ZoneSnapshot, path string) error {
	data, err := codec.Encode(snapshot)
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write zone file")
}
