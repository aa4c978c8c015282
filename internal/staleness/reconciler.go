package staleness

import (
	"context"

	"github.com/turtacn/Perennis/internal/snapshot"
)

// ItemSource yields the content ids the server currently loads.
type ItemSource func() ([]string, error)

// Reconciler binds an Oracle to the server's item list and snapshot file. It
// is what the lifecycle controller and the mods command talk to.
type Reconciler struct {
	items        ItemSource
	oracle       *Oracle
	snapshotPath string
}

func NewReconciler(items ItemSource, oracle *Oracle, snapshotPath string) *Reconciler {
	return &Reconciler{items: items, oracle: oracle, snapshotPath: snapshotPath}
}

// SnapshotExists reports whether a baseline has been recorded.
func (r *Reconciler) SnapshotExists() bool {
	return snapshot.Exists(r.snapshotPath)
}

// Check compares the live markers against the recorded baseline.
func (r *Reconciler) Check(ctx context.Context) Verdict {
	ids, err := r.items()
	if err != nil {
		return Undetermined(err)
	}
	v, err := r.oracle.Query(ctx, Request{IDs: ids, Mode: ModeCheck})
	if err != nil && v.Kind != Indeterminate {
		return Undetermined(err)
	}
	return v
}

// Write records the live markers as the new baseline.
func (r *Reconciler) Write(ctx context.Context) error {
	ids, err := r.items()
	if err != nil {
		return err
	}
	_, err = r.oracle.Query(ctx, Request{IDs: ids, Mode: ModeWrite})
	return err
}

// Personal.AI order the ending
