package zonesync

import "fmt"

// Route 53 caps a ChangeResourceRecordSets call at 1000 changes and 32000
// characters of record data, counting UPSERT values twice. These are the
// defaults; other services get their own values via configuration.
const (
	DefaultMaxBatchOps   = 1000
	DefaultMaxBatchBytes = 32000
)

// Batch is an ordered slice of ops small enough for one service call.
type Batch struct {
	Ops []ChangeOp
}

func recordSize(r Record) int {
	size := len(r.Name)
	for _, v := range r.Values {
		size += len(v)
	}
	return size
}

// opSize estimates an op's payload contribution. Upserts count the record
// twice, matching how Route 53 accounts UPSERT values against its limit.
func opSize(op ChangeOp) int {
	if op.Action == ActionUpsert {
		return 2 * recordSize(op.Record)
	}
	return recordSize(op.Record)
}

func batchSize(ops []ChangeOp) int {
	size := 0
	for _, op := range ops {
		size += opSize(op)
	}
	return size
}

// SplitBatches greedily packs ops, in plan order, into batches that respect
// maxOps and maxBytes. A replace Delete+Create pair is packed as one unit
// and never split: if the pair does not fit the open batch, the batch is
// closed and the pair opens the next one.
//
// Concatenating the returned batches always reproduces ops exactly.
func SplitBatches(ops []ChangeOp, maxOps, maxBytes int) ([]Batch, error) {
	if maxOps < 2 {
		return nil, &ConfigError{Reason: fmt.Sprintf("max %d ops per batch cannot fit a delete/create pair", maxOps)}
	}
	if maxBytes < 1 {
		return nil, &ConfigError{Reason: fmt.Sprintf("max %d bytes per batch", maxBytes)}
	}
	for _, op := range ops {
		if size := opSize(op); size > maxBytes {
			return nil, &OversizeRecordError{Record: op.Record, Size: size, Limit: maxBytes}
		}
	}

	var batches []Batch
	var current []ChangeOp

	flush := func() {
		if len(current) > 0 {
			batches = append(batches, Batch{Ops: current})
			current = nil
		}
	}

	for i := 0; i < len(ops); {
		unit := ops[i : i+1]
		if isReplacePair(ops, i) {
			unit = ops[i : i+2]
		}
		if len(current)+len(unit) > maxOps || batchSize(current)+batchSize(unit) > maxBytes {
			flush()
		}
		current = append(current, unit...)
		i += len(unit)
	}
	flush()
	return batches, nil
}
