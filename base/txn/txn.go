// Package txn provides the all-or-nothing settlement discipline: internal
// bookkeeping applies immediately with a recorded undo, external value
// transfers are staged and only run as the terminal step of the
// operation. If any staged transfer fails, every executed transfer is
// compensated and every applied mutation is undone in reverse order, so
// a failed call changes no state.
package txn

type external struct {
	transfer   func() error
	compensate func()
}

type Txn struct {
	undos     []func()
	externals []external
	done      bool
}

func New() *Txn {
	return &Txn{}
}

// Do applies an internal mutation immediately and records its undo. The
// undo is recorded only when the mutation succeeds; a failed mutation
// leaves the caller to abandon the txn with Rollback.
func (t *Txn) Do(apply func() error, undo func()) error {
	if err := apply(); err != nil {
		return err
	}
	t.undos = append(t.undos, undo)
	return nil
}

// External stages a transfer to an external party. Staged transfers run
// only at Commit, after all internal bookkeeping is finalized. The
// compensation reverses the transfer when a later one fails; it may be
// nil for transfers whose preconditions were fully validated up front.
func (t *Txn) External(transfer func() error, compensate func()) {
	t.externals = append(t.externals, external{transfer, compensate})
}

// Commit runs the staged external transfers in order. On the first
// failure it compensates the transfers already executed, rolls back all
// applied internal mutations, and returns the transfer error. Commit is
// terminal; the Txn must not be reused.
func (t *Txn) Commit() error {
	if t.done {
		panic("txn: commit on finished txn")
	}
	t.done = true
	for i, ext := range t.externals {
		if err := ext.transfer(); err != nil {
			for j := i - 1; j >= 0; j-- {
				if t.externals[j].compensate != nil {
					t.externals[j].compensate()
				}
			}
			t.rollback()
			return err
		}
	}
	return nil
}

// Rollback undoes all applied internal mutations without running any
// staged transfer. It is a no-op after Commit and is intended for
// abandoning a partially built operation.
func (t *Txn) Rollback() {
	if t.done {
		return
	}
	t.done = true
	t.rollback()
}

func (t *Txn) rollback() {
	for i := len(t.undos) - 1; i >= 0; i-- {
		t.undos[i]()
	}
	t.undos = nil
}
