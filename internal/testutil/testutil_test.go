package testutil

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/banshee-data/myrmidon/internal/store"
)

func TestOpenStore(t *testing.T) {
	t.Parallel()

	db := OpenStore(t)
	version, dirty, err := db.MigrateVersion(store.MigrationsFS())
	if err != nil || dirty || version == 0 {
		t.Fatalf("MigrateVersion = %d, %v, %v", version, dirty, err)
	}
	stats, err := db.TableStats()
	if err != nil {
		t.Fatalf("TableStats: %v", err)
	}
	if stats["runs"] != 0 {
		t.Errorf("runs = %d, want 0", stats["runs"])
	}
}

func TestServeAndDecode(t *testing.T) {
	t.Parallel()

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, `{"method":%q,"path":%q}`, r.Method, r.URL.Path)
	})
	rec := Serve(h, http.MethodPost, "/api/runs", nil)
	AssertStatusCode(t, rec.Code, http.StatusAccepted)

	got := DecodeJSON[map[string]string](t, rec)
	if got["method"] != http.MethodPost || got["path"] != "/api/runs" {
		t.Errorf("got %v", got)
	}
}
