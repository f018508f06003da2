// Package main is a minimal HTTP health check binary for use in distroless
// containers. It exits 0 when the /health endpoint returns HTTP 200, and 1
// otherwise. Compile with CGO_ENABLED=0 for a fully static binary.
//
// The target defaults to http://localhost:8080/health and can be changed with
// TRIPPLANNER_HEALTHCHECK_URL.
package main

import (
	"net/http"
	"os"
	"time"

	"tripplanner/internal/version"
)

const defaultURL = "http://localhost:8080/health"

func main() {
	url := os.Getenv("TRIPPLANNER_HEALTHCHECK_URL")
	if url == "" {
		url = defaultURL
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		os.Exit(1)
	}
	req.Header.Set("User-Agent", version.GetInfo().UserAgent()+" healthcheck")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		os.Exit(1)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
