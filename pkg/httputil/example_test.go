package httputil_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/wonny/fairaudit/pkg/config"
	"github.com/wonny/fairaudit/pkg/httputil"
	"github.com/wonny/fairaudit/pkg/logger"
)

// Example_download demonstrates fetching the COMPAS CSV
func Example_download() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "id,race,decile_score,two_year_recid\n")
	}))
	defer server.Close()

	cfg := &config.Config{Env: "development"}
	client := httputil.New(cfg, logger.Nop()).WithRateLimit(1, 1)

	dir, _ := os.MkdirTemp("", "fairaudit")
	defer os.RemoveAll(dir)

	n, err := client.Download(context.Background(), server.URL, filepath.Join(dir, "compas.csv"))
	if err != nil {
		fmt.Printf("Download failed: %v\n", err)
		return
	}
	fmt.Printf("Downloaded %d bytes\n", n)
	// Output:
	// Downloaded 36 bytes
}
