package workshop

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/Perennis/pkg/errors"
)

func detailsPage(stats ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="rightDetailsBlock"><div class="detailsStatsContainerRight">`)
	for _, s := range stats {
		fmt.Fprintf(&b, "\n\t<div class=\"detailsStatRight\">%s</div>", s)
	}
	b.WriteString("\n</div></div></body></html>")
	return b.String()
}

func TestReadItems(t *testing.T) {
	dir := t.TempDir()

	t.Run("uncommented line wins", func(t *testing.T) {
		path := filepath.Join(dir, "servertest.ini")
		ini := "PVP=true\n# WorkshopItems=999\nWorkshopItems=2392709985;2169435993;;2392709985\nMods=a;b\n"
		require.NoError(t, os.WriteFile(path, []byte(ini), 0o644))

		ids, err := ReadItems(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"2392709985", "2169435993"}, ids)
	})

	t.Run("no workshop line", func(t *testing.T) {
		path := filepath.Join(dir, "vanilla.ini")
		require.NoError(t, os.WriteFile(path, []byte("PVP=false\n"), 0o644))

		ids, err := ReadItems(path)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadItems(filepath.Join(dir, "absent.ini"))
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeModListRead, errors.CodeOf(err))
	})
}

func TestParseUpdated(t *testing.T) {
	got, err := ParseUpdated(strings.NewReader(detailsPage("12.5 MB", "1 Jan, 2023 @ 1:00pm", "9 Sep, 2024  @ 7:12pm")))
	require.NoError(t, err)
	assert.Equal(t, "9 Sep, 2024 7:12pm", got)

	_, err = ParseUpdated(strings.NewReader(detailsPage("12.5 MB", "1 Jan, 2023 @ 1:00pm")))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeOracleParse, errors.CodeOf(err))

	_, err = ParseUpdated(strings.NewReader("<html><body>removed item</body></html>"))
	require.Error(t, err)
}

func TestClient_LastUpdated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id") {
		case "42":
			fmt.Fprint(w, detailsPage("1 MB", "1 Jan @ 9:00am", "2 Feb @ 10:00am"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/sharedfiles/filedetails/", 0, time.Second)

	got, err := c.LastUpdated(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "2 Feb 10:00am", got)

	_, err = c.LastUpdated(context.Background(), "7")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeOracleFetch, errors.CodeOf(err))
}

func TestClient_RateLimited(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, detailsPage("1 MB", "a", "b"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 20, time.Second)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.LastUpdated(context.Background(), "1")
		require.NoError(t, err)
	}
	// burst of one, then 50ms per token
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestClient_CancelledContext(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 0, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.LastUpdated(ctx, "1")
	require.Error(t, err)
}
