package zonesync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSnapshot(t *testing.T, zone string, records ...Record) *ZoneSnapshot {
	t.Helper()
	snapshot, err := NewZoneSnapshot(zone, records)
	require.NoError(t, err)
	return snapshot
}

func TestReconcileIdempotence(t *testing.T) {
	snapshot := mustSnapshot(t, "test.",
		Record{Name: "a.test.", Type: "A", TTL: 300, Values: []string{"1.1.1.1"}},
		Record{Name: "b.test.", Type: "TXT", TTL: 60, Values: []string{"x", "y"}},
	)
	for _, strategy := range []Strategy{StrategyReplace, StrategyUpsert} {
		ops, err := Reconcile(snapshot, snapshot, strategy)
		require.NoError(t, err)
		assert.Empty(t, ops)
	}
}

func TestReconcileDeleteOnly(t *testing.T) {
	desired := mustSnapshot(t, "test.",
		Record{Name: "a.test.", Type: "A", TTL: 300, Values: []string{"1.1.1.1"}},
	)
	actual := mustSnapshot(t, "test.",
		Record{Name: "a.test.", Type: "A", TTL: 300, Values: []string{"1.1.1.1"}},
		Record{Name: "b.test.", Type: "A", TTL: 60, Values: []string{"2.2.2.2"}},
	)
	for _, strategy := range []Strategy{StrategyReplace, StrategyUpsert} {
		ops, err := Reconcile(desired, actual, strategy)
		require.NoError(t, err)
		require.Len(t, ops, 1)
		assert.Equal(t, ActionDelete, ops[0].Action)
		assert.Equal(t, "b.test.", ops[0].Record.Name)
	}
}

func TestReconcileReplaceStrategy(t *testing.T) {
	desired := mustSnapshot(t, "test.",
		Record{Name: "a.test.", Type: "A", TTL: 300, Values: []string{"1.1.1.1"}},
	)
	actual := mustSnapshot(t, "test.",
		Record{Name: "a.test.", Type: "A", TTL: 60, Values: []string{"9.9.9.9"}},
	)
	ops, err := Reconcile(desired, actual, StrategyReplace)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	assert.Equal(t, ActionDelete, ops[0].Action)
	assert.Equal(t, 60, ops[0].Record.TTL)
	assert.Equal(t, []string{"9.9.9.9"}, ops[0].Record.Values)

	assert.Equal(t, ActionCreate, ops[1].Action)
	assert.Equal(t, 300, ops[1].Record.TTL)
	assert.Equal(t, []string{"1.1.1.1"}, ops[1].Record.Values)

	assert.True(t, isReplacePair(ops, 0))
}

func TestReconcileUpsertStrategy(t *testing.T) {
	desired := mustSnapshot(t, "test.",
		Record{Name: "a.test.", Type: "A", TTL: 300, Values: []string{"1.1.1.1"}},
	)
	actual := mustSnapshot(t, "test.",
		Record{Name: "a.test.", Type: "A", TTL: 60, Values: []string{"9.9.9.9"}},
	)
	ops, err := Reconcile(desired, actual, StrategyUpsert)
	require.NoError(t, err)
	require.Len(t, ops, 1)

	assert.Equal(t, ActionUpsert, ops[0].Action)
	assert.Equal(t, 300, ops[0].Record.TTL)
	require.NotNil(t, ops[0].Prev)
	assert.Equal(t, 60, ops[0].Prev.TTL)
	assert.Equal(t, []string{"9.9.9.9"}, ops[0].Prev.Values)
}

func TestReconcileCoverage(t *testing.T) {
	desired := mustSnapshot(t, "test.",
		Record{Name: "only-desired.test.", Type: "A", TTL: 60, Values: []string{"1.1.1.1"}},
		Record{Name: "changed.test.", Type: "A", TTL: 60, Values: []string{"1.1.1.1"}},
		Record{Name: "kept.test.", Type: "A", TTL: 60, Values: []string{"1.1.1.1"}},
	)
	actual := mustSnapshot(t, "test.",
		Record{Name: "only-actual.test.", Type: "A", TTL: 60, Values: []string{"2.2.2.2"}},
		Record{Name: "changed.test.", Type: "A", TTL: 60, Values: []string{"3.3.3.3"}},
		Record{Name: "kept.test.", Type: "A", TTL: 60, Values: []string{"1.1.1.1"}},
	)

	ops, err := Reconcile(desired, actual, StrategyUpsert)
	require.NoError(t, err)
	counts := map[Action]int{}
	for _, op := range ops {
		counts[op.Action]++
	}
	assert.Equal(t, map[Action]int{ActionCreate: 1, ActionDelete: 1, ActionUpsert: 1}, counts)

	ops, err = Reconcile(desired, actual, StrategyReplace)
	require.NoError(t, err)
	counts = map[Action]int{}
	for _, op := range ops {
		counts[op.Action]++
	}
	assert.Equal(t, map[Action]int{ActionCreate: 2, ActionDelete: 2}, counts)

	// the changed key's delete and create are adjacent
	for i, op := range ops {
		if op.Action == ActionDelete && op.Record.Name == "changed.test." {
			require.Less(t, i+1, len(ops))
			assert.Equal(t, ActionCreate, ops[i+1].Action)
			assert.Equal(t, "changed.test.", ops[i+1].Record.Name)
		}
	}
}

func TestReconcileDeterminism(t *testing.T) {
	desired := mustSnapshot(t, "test.",
		Record{Name: "c.test.", Type: "A", TTL: 60, Values: []string{"1.1.1.1"}},
		Record{Name: "a.test.", Type: "A", TTL: 60, Values: []string{"1.1.1.1"}},
		Record{Name: "b.test.", Type: "A", TTL: 60, Values: []string{"1.1.1.1"}},
	)
	actual := mustSnapshot(t, "test.",
		Record{Name: "d.test.", Type: "A", TTL: 60, Values: []string{"2.2.2.2"}},
		Record{Name: "b.test.", Type: "A", TTL: 30, Values: []string{"3.3.3.3"}},
	)
	first, err := Reconcile(desired, actual, StrategyReplace)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Reconcile(desired, actual, StrategyReplace)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestReconcileProtectsApexRecords(t *testing.T) {
	desired := mustSnapshot(t, "test.")
	actual := mustSnapshot(t, "test.",
		Record{Name: "test.", Type: "NS", TTL: 172800, Values: []string{"ns1.dns.test."}},
		Record{Name: "test.", Type: "SOA", TTL: 900, Values: []string{"ns1.dns.test. hostmaster.test. 1 7200 900 1209600 86400"}},
		Record{Name: "test.", Type: "A", TTL: 60, Values: []string{"1.1.1.1"}},
		Record{Name: "sub.test.", Type: "NS", TTL: 3600, Values: []string{"ns1.elsewhere.test."}},
	)
	ops, err := Reconcile(desired, actual, StrategyReplace)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	for _, op := range ops {
		assert.Equal(t, ActionDelete, op.Action)
	}
	// apex A record and delegation NS are fair game, apex NS/SOA are not
	assert.Equal(t, "A", ops[0].Record.Type)
	assert.Equal(t, "sub.test.", ops[1].Record.Name)
}

func TestReconcileApexNeverCreatedEither(t *testing.T) {
	desired := mustSnapshot(t, "test.",
		Record{Name: "test.", Type: "SOA", TTL: 900, Values: []string{"ns1.dns.test. hostmaster.test. 1 7200 900 1209600 86400"}},
		Record{Name: "test.", Type: "NS", TTL: 172800, Values: []string{"ns1.dns.test."}},
	)
	actual := mustSnapshot(t, "test.")
	ops, err := Reconcile(desired, actual, StrategyReplace)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestReconcileUnknownStrategy(t *testing.T) {
	snapshot := mustSnapshot(t, "test.")
	_, err := Reconcile(snapshot, snapshot, Strategy("merge"))
	var configErr *ConfigError
	assert.ErrorAs(t, err, &configErr)
}
