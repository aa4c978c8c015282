// Package staleness decides whether the server's workshop content has changed
// since the last recorded snapshot.
package staleness

import (
	"context"
	"fmt"

	"github.com/turtacn/Perennis/internal/snapshot"
	"github.com/turtacn/Perennis/pkg/consts"
	"github.com/turtacn/Perennis/pkg/logger"
)

// Mode selects what a Request does with the observation.
type Mode int

const (
	// ModeCheck compares the observation with the snapshot on disk.
	ModeCheck Mode = iota
	// ModeWrite overwrites the snapshot with the observation.
	ModeWrite
)

func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "check"
}

// Request asks the oracle about an ordered list of content ids.
type Request struct {
	IDs  []string
	Mode Mode
}

// Fetcher looks up the current change marker of one content item.
type Fetcher interface {
	LastUpdated(ctx context.Context, id string) (string, error)
}

// Oracle observes content markers and checks or records them against a snapshot file.
type Oracle struct {
	fetcher      Fetcher
	snapshotPath string
}

func NewOracle(fetcher Fetcher, snapshotPath string) *Oracle {
	return &Oracle{fetcher: fetcher, snapshotPath: snapshotPath}
}

// Query runs one request. In write mode the returned Verdict is meaningless and
// only the error matters. Fetch failures for single items degrade to the unknown
// marker and never abort the batch.
func (o *Oracle) Query(ctx context.Context, req Request) (Verdict, error) {
	current := o.observe(ctx, req.IDs)
	if err := ctx.Err(); err != nil {
		return Undetermined(err), err
	}

	if req.Mode == ModeWrite {
		if err := snapshot.Write(o.snapshotPath, current); err != nil {
			return Verdict{}, err
		}
		logger.Log.Info("Oracle: Snapshot written", "items", len(current), "path", o.snapshotPath)
		return Verdict{}, nil
	}

	recorded, err := snapshot.Read(o.snapshotPath)
	if err != nil {
		return Undetermined(err), err
	}

	diff := snapshot.Compare(recorded, current)
	switch {
	case len(diff.Changed) > 0:
		return Stale(diff.Changed), nil
	case len(diff.Unresolved) > 0:
		return Undetermined(fmt.Errorf("%d item(s) could not be observed: %v", len(diff.Unresolved), diff.Unresolved)), nil
	}
	return Synced(), nil
}

func (o *Oracle) observe(ctx context.Context, ids []string) snapshot.Snapshot {
	snap := make(snapshot.Snapshot, 0, len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		marker, err := o.fetcher.LastUpdated(ctx, id)
		if err != nil {
			logger.Log.Warn("Oracle: Cannot observe item", "id", id, "err", err)
			marker = consts.UnknownMarker
		}
		snap = append(snap, snapshot.Entry{ContentID: id, Marker: marker})
	}
	return snap
}

// Personal.AI order the ending
