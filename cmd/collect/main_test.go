package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LJTian/NewsHarvest/internal/config"
	"github.com/LJTian/NewsHarvest/internal/processor"
)

const page = `<html><body>
<div class="story"><h2><a href="/a">Cricket team wins</a></h2><p>The cricket team won the final match.</p></div>
</body></html>`

func writeSources(t *testing.T, baseURL string) string {
	t.Helper()
	body := fmt.Sprintf(`sources:
  - name: Local
    url: %s/news
    profiles:
      - {articles: ".story", title: "h2", content: "p"}
  - name: Other
    url: %s/missing
`, baseURL, baseURL)
	path := filepath.Join(t.TempDir(), "sources.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write sources: %v", err)
	}
	return path
}

func testConfig() *config.Config {
	return &config.Config{LogLevel: "error", FetchTimeout: 5 * time.Second}
}

func TestCollectPrintsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/news" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	cmd := newRootCmd(testConfig())
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--sources-file", writeSources(t, srv.URL), "--source", "Local", "--rate", "0"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v (%s)", err, errOut.String())
	}

	var articles []processor.Article
	if err := json.Unmarshal(out.Bytes(), &articles); err != nil {
		t.Fatalf("decode output: %v (%s)", err, out.String())
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].Topic != "sports" || articles[0].URL != srv.URL+"/a" {
		t.Fatalf("unexpected article: %+v", articles[0])
	}
}

func TestSourcesSubcommand(t *testing.T) {
	cmd := newRootCmd(testConfig())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"sources"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), "Times of India") {
		t.Fatalf("built-in sources not listed: %s", out.String())
	}
}

func TestUnknownSourceFails(t *testing.T) {
	cmd := newRootCmd(testConfig())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--source", "Nope"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}

func TestArchiveNeedsDSN(t *testing.T) {
	cmd := newRootCmd(testConfig())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--archive", "--source", "News18"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error without POSTGRES_DSN")
	}
}
