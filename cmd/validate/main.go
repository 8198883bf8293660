// Package main provides a smoke-test CLI that checks a running dashboard server.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"scamdash/internal/handlers/dashboard"
)

type endpoint struct {
	path        string
	method      string
	status      int
	contentType string
	contains    []string
	prefix      []byte
}

var pngSignature = []byte("\x89PNG")

// endpoints lists every route the dashboard serves with the default selection
func endpoints() []endpoint {
	eps := []endpoint{
		{path: "/dashboard", contentType: "text/html", contains: []string{"Australia Scam Cases Dashboard", "Total Cases", "Total Loss ($)"}},
		{path: "/dashboard/kpis", contentType: "text/html", contains: []string{"Population (2025)"}},
	}
	for _, id := range dashboard.ChartIDs {
		eps = append(eps,
			endpoint{path: "/dashboard/charts/data/" + id, contentType: "application/json", contains: []string{`"layout"`}},
			endpoint{path: "/dashboard/export/" + id, contentType: "text/csv"},
		)
	}
	eps = append(eps,
		endpoint{path: "/dashboard/charts/png/" + dashboard.ChartScamTypes, contentType: "image/png", prefix: pngSignature},
		endpoint{path: "/dashboard/charts/data/unknown", status: http.StatusBadRequest, contentType: "text/plain"},
		endpoint{path: "/dashboard/drilldown", method: http.MethodPost, status: http.StatusSeeOther},
		endpoint{path: "/api/health", contentType: "application/json", contains: []string{`"status":"ok"`}},
		endpoint{path: "/metrics", contentType: "text/plain", contains: []string{"scamdash_records_loaded"}},
	)

	for i := range eps {
		if eps[i].method == "" {
			eps[i].method = http.MethodGet
		}
		if eps[i].status == 0 {
			eps[i].status = http.StatusOK
		}
	}
	return eps
}

type result struct {
	endpoint endpoint
	status   int
	size     int
	duration time.Duration
	err      error
}

func main() {
	url := flag.String("url", "http://localhost:8080", "Base URL of the server to validate")
	verbose := flag.Bool("v", false, "Verbose output")
	timeout := flag.Duration("timeout", 10*time.Second, "Request timeout")
	flag.Parse()

	client := &http.Client{
		Timeout: *timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	if failed := run(os.Stdout, client, strings.TrimRight(*url, "/"), *verbose); failed > 0 {
		os.Exit(1)
	}
}

// run checks every endpoint and returns the number of failures
func run(out io.Writer, client *http.Client, baseURL string, verbose bool) int {
	eps := endpoints()
	fmt.Fprintf(out, "Validating server at %s\n", baseURL)
	fmt.Fprintf(out, "Testing %d endpoints...\n\n", len(eps))

	var passed, failed int
	for _, ep := range eps {
		r := validateEndpoint(client, baseURL, ep)
		if r.err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s %s\n", ep.method, ep.path)
			fmt.Fprintf(out, "     Error: %v\n", r.err)
			continue
		}
		passed++
		if verbose {
			fmt.Fprintf(out, "PASS %s %s (%d, %s, %v)\n",
				ep.method, ep.path, r.status, humanize.Bytes(uint64(r.size)), r.duration.Round(time.Millisecond))
		}
	}

	fmt.Fprintf(out, "\n========================================\n")
	fmt.Fprintf(out, "Results: %d passed, %d failed\n", passed, failed)
	return failed
}

func validateEndpoint(client *http.Client, baseURL string, ep endpoint) result {
	start := time.Now()

	req, err := http.NewRequest(ep.method, baseURL+ep.path, nil)
	if err != nil {
		return result{endpoint: ep, err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := client.Do(req)
	if err != nil {
		return result{endpoint: ep, err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result{endpoint: ep, err: fmt.Errorf("failed to read body: %w", err)}
	}

	r := result{
		endpoint: ep,
		status:   resp.StatusCode,
		size:     len(body),
		duration: time.Since(start),
	}

	if r.status != ep.status {
		r.err = fmt.Errorf("status %d (expected %d)", r.status, ep.status)
		return r
	}

	if ep.contentType != "" {
		if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, ep.contentType) {
			r.err = fmt.Errorf("wrong content type: got %q, expected %q", ct, ep.contentType)
			return r
		}
	}

	if ep.contentType == "application/json" && !json.Valid(body) {
		r.err = fmt.Errorf("invalid JSON body")
		return r
	}

	if ep.prefix != nil && !bytes.HasPrefix(body, ep.prefix) {
		r.err = fmt.Errorf("body does not start with %q", ep.prefix)
		return r
	}

	for _, needle := range ep.contains {
		if !bytes.Contains(body, []byte(needle)) {
			r.err = fmt.Errorf("missing expected content: %q", needle)
			return r
		}
	}

	return r
}
