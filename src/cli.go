package zonesync

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

// Options is the flag surface of the command line, parsed in main and
// handed down whole.
type Options struct {
	ConfigPath    string
	Format        string
	DryRun        bool
	Upsert        bool
	MaxBatchOps   int
	MaxBatchBytes int
}

type Cli struct {
	config  *Config
	options Options
}

func NewCli(options Options) (*Cli, error) {
	config, err := LoadConfig(options.ConfigPath)
	if err != nil {
		return nil, err
	}
	return &Cli{config: config, options: options}, nil
}

func (s *Cli) clientFor(zone string) (ZoneClient, error) {
	providerName, ok := s.config.Domains[defqdn(zone)]
	if !ok {
		providerName, ok = s.config.Domains[fqdn(zone)]
	}
	if !ok {
		return nil, &ConfigError{Reason: fmt.Sprintf("zone %s not configured", zone)}
	}
	return NewZoneClient(context.Background(), s.config.Providers[providerName])
}

func (s *Cli) strategy() Strategy {
	if s.options.Upsert {
		return StrategyUpsert
	}
	return StrategyReplace
}

// Load reconciles the zone file into the live zone.
func (s *Cli) Load(ctx context.Context, zone, path string) error {
	client, err := s.clientFor(zone)
	if err != nil {
		return err
	}
	codec, err := CodecFor(s.options.Format, path)
	if err != nil {
		return err
	}
	desired, err := ReadZoneFile(codec, path, zone)
	if err != nil {
		return err
	}
	actual, err := client.List(ctx, zone)
	if err != nil {
		return err
	}
	if s.options.DryRun {
		fmt.Println("Dry-run requested. No changes are going to be applied.")
	} else {
		fmt.Println("Applying changes...")
	}
	driver := NewDriver(client, DriverConfig{
		Strategy:      s.strategy(),
		DryRun:        s.options.DryRun,
		MaxBatchOps:   s.options.MaxBatchOps,
		MaxBatchBytes: s.options.MaxBatchBytes,
	}, os.Stdout)
	summary, err := driver.Run(ctx, desired, actual)
	if err != nil {
		return err
	}
	fmt.Printf("%d to create, %d to delete, %d to upsert, %d batches submitted.\nDone.\n",
		summary.Created, summary.Deleted, summary.Upserted, summary.BatchesSubmitted)
	return nil
}

// Dump exports the live zone to a file. Pure export: the reconciler is not
// involved.
func (s *Cli) Dump(ctx context.Context, zone, path string) error {
	client, err := s.clientFor(zone)
	if err != nil {
		return err
	}
	codec, err := CodecFor(s.options.Format, path)
	if err != nil {
		return err
	}
	actual, err := client.List(ctx, zone)
	if err != nil {
		return err
	}
	return WriteZoneFile(codec, actual, path)
}

// Zones prints the configured zones and the provider serving each.
func (s *Cli) Zones() {
	zones := make([]string, 0, len(s.config.Domains))
	for zone := range s.config.Domains {
		zones = append(zones, zone)
	}
	sort.Strings(zones)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Zone", "Provider", "Type"})
	table.SetAutoWrapText(false)
	for _, zone := range zones {
		providerName := s.config.Domains[zone]
		table.Append([]string{zone, providerName, s.config.Providers[providerName]["Type"]})
	}
	table.Render()
}

// Do dispatches one command. Usage:
//
//	zonesync [flags] load <zone> <file>
//	zonesync [flags] dump <zone> <file>
//	zonesync [flags] zones
func Do(options Options, args []string) error {
	cli, err := NewCli(options)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return errors.New("no command, expected load, dump or zones")
	}
	ctx := context.Background()
	switch args[0] {
	case "load", "l":
		if len(args) < 3 {
			return errors.New("usage: load <zone> <file>")
		}
		return cli.Load(ctx, args[1], args[2])
	case "dump", "d":
		if len(args) < 3 {
			return errors.New("usage: dump <zone> <file>")
		}
		return cli.Dump(ctx, args[1], args[2])
	case "zones", "z":
		cli.Zones()
		return nil
	default:
		return errors.Errorf("unknown command %q, expected load, dump or zones", args[0])
	}
}
