package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/Perennis/pkg/consts"
	"github.com/turtacn/Perennis/pkg/errors"
)

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mods.csv")
	snap := Snapshot{
		{ContentID: "2392709985", Marker: "9 Sep, 2024 7:12pm"},
		{ContentID: "2169435993", Marker: ""},
	}

	require.False(t, Exists(path))
	require.NoError(t, Write(path, snap))
	require.True(t, Exists(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content_id,last_changed_marker\n2392709985,\"9 Sep, 2024 7:12pm\"\n2169435993,unknown\n", string(raw))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, Snapshot{
		{ContentID: "2392709985", Marker: "9 Sep, 2024 7:12pm"},
		{ContentID: "2169435993", Marker: consts.UnknownMarker},
	}, got)
}

func TestRead_LegacySentinels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.csv")
	legacy := "workshop_id,updated_timestamp\n111,NaN\n222,\n333,1 Jan 10:00am\n"
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	got, err := Read(path)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.False(t, got[0].Known())
	assert.False(t, got[1].Known())
	assert.True(t, got[2].Known())
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "none.csv"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSnapshotRead, errors.CodeOf(err))
}

func TestWrite_UnwritableDir(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "missing", "mods.csv"), Snapshot{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSnapshotWrite, errors.CodeOf(err))
}

func TestCompare(t *testing.T) {
	recorded := Snapshot{
		{ContentID: "a", Marker: "1 Jan"},
		{ContentID: "b", Marker: consts.UnknownMarker},
		{ContentID: "c", Marker: "3 Jan"},
	}

	t.Run("identical including sentinel", func(t *testing.T) {
		current := Snapshot{
			{ContentID: "a", Marker: "1 Jan"},
			{ContentID: "b", Marker: "NaN"},
			{ContentID: "c", Marker: "3 Jan"},
		}
		assert.True(t, Compare(recorded, current).InSync())
	})

	t.Run("changed marker", func(t *testing.T) {
		current := Snapshot{
			{ContentID: "a", Marker: "2 Jan"},
			{ContentID: "b", Marker: consts.UnknownMarker},
			{ContentID: "c", Marker: "3 Jan"},
		}
		d := Compare(recorded, current)
		assert.Equal(t, []string{"a"}, d.Changed)
		assert.Empty(t, d.Unresolved)
	})

	t.Run("fetch failure is unresolved, not changed", func(t *testing.T) {
		current := Snapshot{
			{ContentID: "a", Marker: consts.UnknownMarker},
			{ContentID: "b", Marker: consts.UnknownMarker},
			{ContentID: "c", Marker: "3 Jan"},
		}
		d := Compare(recorded, current)
		assert.Empty(t, d.Changed)
		assert.Equal(t, []string{"a"}, d.Unresolved)
		assert.False(t, d.InSync())
	})

	t.Run("added and removed items", func(t *testing.T) {
		current := Snapshot{
			{ContentID: "a", Marker: "1 Jan"},
			{ContentID: "b", Marker: consts.UnknownMarker},
			{ContentID: "d", Marker: "4 Jan"},
		}
		d := Compare(recorded, current)
		assert.ElementsMatch(t, []string{"c", "d"}, d.Changed)
	})
}
