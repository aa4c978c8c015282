// Package snapshot persists the last observed change marker of every content item
// as a two-column CSV file and compares recorded and current observations.
package snapshot

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/turtacn/Perennis/pkg/consts"
	"github.com/turtacn/Perennis/pkg/errors"
)

// Column headers of the snapshot file.
const (
	HeaderContentID = "content_id"
	HeaderMarker    = "last_changed_marker"
)

// Entry is one content item and its last observed change marker.
type Entry struct {
	ContentID string
	Marker    string
}

// Known reports whether the marker was actually observed.
func (e Entry) Known() bool { return e.Marker != consts.UnknownMarker }

// Snapshot is an ordered list of entries.
type Snapshot []Entry

// NormalizeMarker maps every spelling of "no marker" onto the single sentinel, so
// that files written by older tools (NaN, empty cells) compare cleanly.
func NormalizeMarker(m string) string {
	m = strings.TrimSpace(m)
	switch strings.ToLower(m) {
	case "", "nan", "none", "null", consts.UnknownMarker:
		return consts.UnknownMarker
	}
	return m
}

// Exists reports whether a snapshot file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Read loads the snapshot at path.
func Read(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeSnapshotRead, "ReadSnapshot", "cannot open "+path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return Snapshot{}, nil
	}
	if err != nil {
		return nil, errors.New(errors.ErrCodeSnapshotRead, "ReadSnapshot", "malformed header", err)
	}
	if len(header) < 2 {
		return nil, errors.New(errors.ErrCodeSnapshotRead, "ReadSnapshot", "expected two columns", nil)
	}

	var snap Snapshot
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New(errors.ErrCodeSnapshotRead, "ReadSnapshot", "malformed row", err)
		}
		id := strings.TrimSpace(rec[0])
		if id == "" {
			continue
		}
		marker := ""
		if len(rec) > 1 {
			marker = rec[1]
		}
		snap = append(snap, Entry{ContentID: id, Marker: NormalizeMarker(marker)})
	}
	return snap, nil
}

// Write replaces the snapshot at path. The file is written to a temporary sibling
// and renamed into place so a crash never leaves a half-written snapshot.
func Write(path string, snap Snapshot) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.csv")
	if err != nil {
		return errors.New(errors.ErrCodeSnapshotWrite, "WriteSnapshot", "cannot create temp file in "+dir, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	rows := make([][]string, 0, len(snap)+1)
	rows = append(rows, []string{HeaderContentID, HeaderMarker})
	for _, e := range snap {
		rows = append(rows, []string{e.ContentID, NormalizeMarker(e.Marker)})
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return errors.New(errors.ErrCodeSnapshotWrite, "WriteSnapshot", "cannot write rows", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.New(errors.ErrCodeSnapshotWrite, "WriteSnapshot", "cannot flush", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.New(errors.ErrCodeSnapshotWrite, "WriteSnapshot", "cannot replace "+path, err)
	}
	return nil
}

// Diff is the outcome of comparing a recorded snapshot with a fresh observation.
type Diff struct {
	// Changed lists items whose marker moved, plus items added or removed.
	Changed []string
	// Unresolved lists items known on disk that could not be observed this time.
	Unresolved []string
}

// InSync reports whether nothing changed and nothing was left unresolved.
func (d Diff) InSync() bool { return len(d.Changed) == 0 && len(d.Unresolved) == 0 }

// Compare matches entries by content id. An item whose current marker is
// unknown while the recorded one is known is reported as unresolved rather than
// changed, so a failed page fetch does not look like an update.
func Compare(recorded, current Snapshot) Diff {
	var d Diff

	prev := make(map[string]string, len(recorded))
	for _, e := range recorded {
		prev[e.ContentID] = NormalizeMarker(e.Marker)
	}

	seen := make(map[string]struct{}, len(current))
	for _, e := range current {
		seen[e.ContentID] = struct{}{}
		cur := NormalizeMarker(e.Marker)
		old, ok := prev[e.ContentID]
		switch {
		case !ok:
			d.Changed = append(d.Changed, e.ContentID)
		case old == cur:
		case cur == consts.UnknownMarker:
			d.Unresolved = append(d.Unresolved, e.ContentID)
		default:
			d.Changed = append(d.Changed, e.ContentID)
		}
	}

	for _, e := range recorded {
		if _, ok := seen[e.ContentID]; !ok {
			d.Changed = append(d.Changed, e.ContentID)
		}
	}
	return d
}

// Personal.AI order the ending
