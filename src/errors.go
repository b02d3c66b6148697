package zonesync

import "fmt"

// ValidationError reports malformed or duplicate input records. It is raised
// locally, before any network call, and is never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid records: %s", e.Reason)
}

// ConfigError reports batching parameters no plan could satisfy.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("bad configuration: %s", e.Reason)
}

// OversizeRecordError names a single record whose estimated payload exceeds
// the per-batch byte limit, so no batch could ever carry it.
type OversizeRecordError struct {
	Record Record
	Size   int
	Limit  int
}

func (e *OversizeRecordError) Error() string {
	return fmt.Sprintf("record %s %s estimated at %d bytes exceeds batch limit of %d",
		e.Record.Name, e.Record.Type, e.Size, e.Limit)
}

// FormatError reports an unreadable zone file.
type FormatError struct {
	Format string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("cannot parse %s zone file: %v", e.Format, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ApplyError reports a batch the service rejected or failed. Applied counts
// the batches fully committed before the failure; the remaining batches were
// not submitted.
type ApplyError struct {
	Batch   Batch
	Applied int
	Err     error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("batch of %d changes failed after %d applied batches: %v",
		len(e.Batch.Ops), e.Applied, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}
