package zonesync

import "sort"

// Action is the kind of mutation a ChangeOp performs.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionDelete Action = "DELETE"
	ActionUpsert Action = "UPSERT"
)

// ChangeOp is one intended mutation against the live zone. Prev carries the
// record being replaced and is set for UPSERT only. Ops are never mutated
// after the reconciler emits them.
type ChangeOp struct {
	Action Action
	Record Record
	Prev   *Record
}

// Strategy selects how a changed record is converged.
type Strategy string

const (
	// StrategyReplace emits a Delete of the live record followed by a
	// Create of the desired one, as two adjacent ops.
	StrategyReplace Strategy = "replace"
	// StrategyUpsert emits a single in-place Upsert.
	StrategyUpsert Strategy = "upsert"
)

// Reconcile computes the ordered change plan converging actual to desired.
//
// Keys only in desired become Creates, keys only in actual become Deletes,
// keys in both with differing records become either a Delete+Create pair
// (StrategyReplace) or one Upsert (StrategyUpsert). Identical records emit
// nothing. Apex NS/SOA records are excluded on both sides and are never
// deleted nor created.
//
// The plan is deterministic: keys are visited in zone order (reversed-label
// name, then type) and a replace Delete always directly precedes its paired
// Create, so repeated runs over unchanged inputs produce identical plans and
// no backend ever sees a create racing its own delete.
func Reconcile(desired, actual *ZoneSnapshot, strategy Strategy) ([]ChangeOp, error) {
	if strategy != StrategyReplace && strategy != StrategyUpsert {
		return nil, &ConfigError{Reason: "unknown strategy " + string(strategy)}
	}

	keys := make(map[RecordKey]bool, desired.Len()+actual.Len())
	for _, r := range desired.Records() {
		if desired.isApex(r) {
			continue
		}
		keys[r.Key()] = true
	}
	for _, r := range actual.Records() {
		if actual.isApex(r) {
			continue
		}
		keys[r.Key()] = true
	}

	ordered := make([]RecordKey, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return compareKey(ordered[i], ordered[j])
	})

	ops := make([]ChangeOp, 0, len(ordered))
	for _, key := range ordered {
		want, inDesired := desired.Get(key)
		have, inActual := actual.Get(key)
		switch {
		case inDesired && !inActual:
			ops = append(ops, ChangeOp{Action: ActionCreate, Record: want})
		case !inDesired && inActual:
			ops = append(ops, ChangeOp{Action: ActionDelete, Record: have})
		case want.Identical(have):
			// converged, nothing to do
		case strategy == StrategyUpsert:
			prev := have
			ops = append(ops, ChangeOp{Action: ActionUpsert, Record: want, Prev: &prev})
		default:
			ops = append(ops,
				ChangeOp{Action: ActionDelete, Record: have},
				ChangeOp{Action: ActionCreate, Record: want})
		}
	}
	return ops, nil
}

// isReplacePair reports whether the op at i opens a Delete+Create pair for
// the same key. Such pairs come only from StrategyReplace and must travel in
// one batch.
func isReplacePair(ops []ChangeOp, i int) bool {
	if i+1 >= len(ops) {
		return false
	}
	return ops[i].Action == ActionDelete &&
		ops[i+1].Action == ActionCreate &&
		ops[i].Record.Same(ops[i+1].Record)
}
