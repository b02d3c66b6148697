package zonesync

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createOp(name string, values ...string) ChangeOp {
	return ChangeOp{Action: ActionCreate, Record: Record{Name: name, Type: "A", TTL: 60, Values: values}}
}

func deleteOp(name string, values ...string) ChangeOp {
	return ChangeOp{Action: ActionDelete, Record: Record{Name: name, Type: "A", TTL: 60, Values: values}}
}

func flatten(batches []Batch) []ChangeOp {
	var ops []ChangeOp
	for _, b := range batches {
		ops = append(ops, b.Ops...)
	}
	return ops
}

func TestSplitBatchesByOpCount(t *testing.T) {
	ops := []ChangeOp{
		createOp("a.test.", "1.1.1.1"),
		createOp("b.test.", "1.1.1.1"),
		createOp("c.test.", "1.1.1.1"),
		createOp("d.test.", "1.1.1.1"),
		createOp("e.test.", "1.1.1.1"),
	}
	batches, err := SplitBatches(ops, 2, DefaultMaxBatchBytes)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0].Ops, 2)
	assert.Len(t, batches[1].Ops, 2)
	assert.Len(t, batches[2].Ops, 1)
	assert.Equal(t, ops, flatten(batches))
}

func TestSplitBatchesByPayload(t *testing.T) {
	// each op is 7 (name) + 7 (value) = 14 estimated bytes
	ops := []ChangeOp{
		createOp("a.test.", "1.1.1.1"),
		createOp("b.test.", "1.1.1.1"),
		createOp("c.test.", "1.1.1.1"),
	}
	batches, err := SplitBatches(ops, DefaultMaxBatchOps, 28)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0].Ops, 2)
	assert.Len(t, batches[1].Ops, 1)
	assert.Equal(t, ops, flatten(batches))
}

func TestSplitBatchesKeepsReplacePairTogether(t *testing.T) {
	ops := []ChangeOp{
		createOp("a.test.", "1.1.1.1"),
		deleteOp("b.test.", "9.9.9.9"),
		createOp("b.test.", "1.1.1.1"),
		createOp("c.test.", "1.1.1.1"),
	}
	require.True(t, isReplacePair(ops, 1))

	// room for 2 ops per batch: the pair would straddle batches 1 and 2 if
	// packing were naive, so batch 1 must close early
	batches, err := SplitBatches(ops, 2, DefaultMaxBatchBytes)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0].Ops, 1)
	assert.Len(t, batches[1].Ops, 2)
	assert.Equal(t, ActionDelete, batches[1].Ops[0].Action)
	assert.Equal(t, ActionCreate, batches[1].Ops[1].Action)
	assert.Equal(t, ops, flatten(batches))
}

func TestSplitBatchesPairClosesBatchOnPayload(t *testing.T) {
	ops := []ChangeOp{
		createOp("a.test.", "1.1.1.1"),
		deleteOp("b.test.", "9.9.9.9"),
		createOp("b.test.", "1.1.1.1"),
	}
	// 14 bytes per op: the 28-byte limit fits the first op plus one more,
	// but not the pair as a unit
	batches, err := SplitBatches(ops, DefaultMaxBatchOps, 28)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0].Ops, 1)
	assert.Len(t, batches[1].Ops, 2)
	assert.Equal(t, ops, flatten(batches))
}

func TestSplitBatchesConfigErrors(t *testing.T) {
	var configErr *ConfigError
	_, err := SplitBatches(nil, 1, DefaultMaxBatchBytes)
	assert.ErrorAs(t, err, &configErr)

	_, err = SplitBatches(nil, DefaultMaxBatchOps, 0)
	assert.ErrorAs(t, err, &configErr)
}

func TestSplitBatchesOversizeRecord(t *testing.T) {
	huge := createOp("big.test.", strings.Repeat("x", 100))
	_, err := SplitBatches([]ChangeOp{huge}, DefaultMaxBatchOps, 50)
	var oversizeErr *OversizeRecordError
	require.ErrorAs(t, err, &oversizeErr)
	assert.Equal(t, "big.test.", oversizeErr.Record.Name)
	assert.Equal(t, 109, oversizeErr.Size)
	assert.Equal(t, 50, oversizeErr.Limit)
}

func TestOpSizeCountsUpsertTwice(t *testing.T) {
	record := Record{Name: "a.test.", Type: "A", TTL: 60, Values: []string{"1.1.1.1"}}
	prev := Record{Name: "a.test.", Type: "A", TTL: 30, Values: []string{"9.9.9.9"}}
	assert.Equal(t, 14, opSize(ChangeOp{Action: ActionCreate, Record: record}))
	assert.Equal(t, 28, opSize(ChangeOp{Action: ActionUpsert, Record: record, Prev: &prev}))
}

func TestSplitBatchesEmptyPlan(t *testing.T) {
	batches, err := SplitBatches(nil, DefaultMaxBatchOps, DefaultMaxBatchBytes)
	require.NoError(t, err)
	assert.Empty(t, batches)
}
