package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
)

func releasesServer(t *testing.T, body string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/repos/"+Repo+"/releases") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	old := releasesURL
	releasesURL = srv.URL + "/repos/%s/releases"
	t.Cleanup(func() {
		releasesURL = old
		srv.Close()
	})
}

func releasesJSON() string {
	return fmt.Sprintf(`[
  {"tag_name": "v2.0.0", "draft": true, "assets": []},
  {"tag_name": "v1.5.0-rc1", "prerelease": true, "assets": []},
  {"tag_name": "darkroom-v1.4.0", "assets": [
    {"name": "darkroom_other_arch.tar.gz", "browser_download_url": "https://example.invalid/other"},
    {"name": "darkroom_%s_%s.tar.gz", "browser_download_url": "https://example.invalid/native"}
  ]},
  {"tag_name": "v1.3.9", "assets": []},
  {"tag_name": "nightly", "name": "latest build", "assets": []}
]`, runtime.GOOS, runtime.GOARCH)
}

func TestDetectLatestFallback(t *testing.T) {
	releasesServer(t, releasesJSON())
	rel, found, err := detectLatestFallback(context.Background(), Repo)
	if err != nil {
		t.Fatalf("detectLatestFallback: %v", err)
	}
	if !found {
		t.Fatalf("expected a release")
	}
	if rel.Version.String() != "1.4.0" {
		t.Fatalf("version = %s, want 1.4.0", rel.Version)
	}
	if rel.AssetURL != "https://example.invalid/native" {
		t.Fatalf("asset = %s", rel.AssetURL)
	}
}

func TestDetectLatestFallbackNoneAndErrors(t *testing.T) {
	releasesServer(t, `[{"tag_name": "nightly"}]`)
	if _, found, err := detectLatestFallback(context.Background(), Repo); err != nil || found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if _, _, err := detectLatestFallback(context.Background(), "someone/else"); err == nil {
		t.Fatalf("expected status error for unknown repo")
	}
}

func TestPickAsset(t *testing.T) {
	var r githubRelease
	if pickAsset(r) != "" {
		t.Fatalf("no assets should give no url")
	}
	r.Assets = append(r.Assets,
		struct {
			Name               string `json:"name"`
			BrowserDownloadURL string `json:"browser_download_url"`
		}{"checksums.txt", "sums"},
		struct {
			Name               string `json:"name"`
			BrowserDownloadURL string `json:"browser_download_url"`
		}{"darkroom_" + runtime.GOOS + ".zip", "os"},
	)
	if got := pickAsset(r); got != "os" {
		t.Fatalf("got %q", got)
	}
}

func TestCheckForUpdatesAlreadyLatest(t *testing.T) {
	releasesServer(t, releasesJSON())
	old := Version
	Version = "v1.4.0"
	t.Cleanup(func() { Version = old })

	var out bytes.Buffer
	if err := CheckForUpdates(context.Background(), NewPrompter(strings.NewReader(""), &out), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "already running the latest version") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestCheckForUpdatesDeclined(t *testing.T) {
	releasesServer(t, releasesJSON())
	old := Version
	Version = "1.0.0"
	t.Cleanup(func() { Version = old })

	var out bytes.Buffer
	if err := CheckForUpdates(context.Background(), NewPrompter(strings.NewReader("n\n"), &out), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Update cancelled.") {
		t.Fatalf("output = %q", out.String())
	}
}
