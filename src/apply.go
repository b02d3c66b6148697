package zonesync

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// DriverConfig carries everything the apply driver needs decided up front.
// There is no process-wide state: strategy, dry-run and batch limits travel
// in this struct.
type DriverConfig struct {
	Strategy      Strategy
	DryRun        bool
	MaxBatchOps   int
	MaxBatchBytes int
}

// Summary tallies one reconciliation run.
type Summary struct {
	Created          int
	Deleted          int
	Upserted         int
	BatchesSubmitted int
}

// Driver orchestrates reconcile → batch → submit for one zone.
type Driver struct {
	client ZoneClient
	config DriverConfig
	out    io.Writer
}

func NewDriver(client ZoneClient, config DriverConfig, out io.Writer) *Driver {
	if config.MaxBatchOps == 0 {
		config.MaxBatchOps = DefaultMaxBatchOps
	}
	if config.MaxBatchBytes == 0 {
		config.MaxBatchBytes = DefaultMaxBatchBytes
	}
	return &Driver{client: client, config: config, out: out}
}

// Run converges the zone toward desired. Batches are submitted strictly one
// after another; the service's answer for a batch is awaited before the next
// goes out, so a failure leaves a well-defined state: every batch before the
// failing one fully applied, none after it submitted. In dry-run mode the
// plan is printed and the client is never called.
func (d *Driver) Run(ctx context.Context, desired, actual *ZoneSnapshot) (*Summary, error) {
	ops, err := Reconcile(desired, actual, d.config.Strategy)
	if err != nil {
		return nil, err
	}
	batches, err := SplitBatches(ops, d.config.MaxBatchOps, d.config.MaxBatchBytes)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, op := range ops {
		switch op.Action {
		case ActionCreate:
			summary.Created++
		case ActionDelete:
			summary.Deleted++
		case ActionUpsert:
			summary.Upserted++
		}
	}

	if len(batches) == 0 {
		fmt.Fprintln(d.out, "No changes.")
		return summary, nil
	}

	for n, batch := range batches {
		fmt.Fprintf(d.out, "Batch %d (%d changes)\n", n+1, len(batch.Ops))
		if d.config.DryRun {
			printBatch(d.out, batch)
			continue
		}
		if err := d.client.Apply(ctx, desired.Zone(), batch); err != nil {
			return summary, &ApplyError{Batch: batch, Applied: summary.BatchesSubmitted, Err: err}
		}
		summary.BatchesSubmitted++
	}
	return summary, nil
}

func opRow(action string, r Record) []string {
	value := strings.Join(r.Values, " ")
	if len(value) > 48 {
		value = value[:48] + "..."
	}
	return []string{action, r.Name, value, r.Type, strconv.Itoa(r.TTL)}
}

func printBatch(out io.Writer, batch Batch) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Operate", "Name", "Value", "Type", "TTL"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})
	table.SetAutoWrapText(false)
	for _, op := range batch.Ops {
		switch op.Action {
		case ActionCreate:
			table.Append(opRow("ADD", op.Record))
		case ActionDelete:
			table.Append(opRow("DEL", op.Record))
		case ActionUpsert:
			table.Append(opRow("UPS", op.Record))
		}
	}
	table.Render()
}
