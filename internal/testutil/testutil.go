// Package testutil provides testing utilities for the scam dashboard.
package testutil

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// SampleDataset is the fixture dataset under testdata/
const SampleDataset = "scams.csv"

// TestServer wraps httptest.Server with convenience methods.
// Its client keeps cookies and does not follow redirects.
type TestServer struct {
	Server  *httptest.Server
	BaseURL string
	Client  *http.Client
	t       *testing.T
}

// ProjectRoot returns the root directory of the project.
// It works by finding the go.mod file.
func ProjectRoot() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		panic("could not get caller info")
	}

	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			panic("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// TestDataDir returns the path to the testdata directory
func TestDataDir() string {
	return filepath.Join(ProjectRoot(), "testdata")
}

// TestDatasetPath returns the path of the fixture dataset
func TestDatasetPath() string {
	return filepath.Join(TestDataDir(), SampleDataset)
}

// TestEnv returns environment variables pointing the app at test fixtures
func TestEnv() map[string]string {
	root := ProjectRoot()
	return map[string]string{
		"SCAMDASH_DATASET":       TestDatasetPath(),
		"SCAMDASH_TEMPLATES_DIR": filepath.Join(root, "web", "templates"),
		"SCAMDASH_STATIC_DIR":    filepath.Join(root, "web", "static"),
		"SCAMDASH_DEBUG":         "true",
		"SCAMDASH_LISTEN_ADDR":   ":0",
	}
}

// SetTestEnv sets the test environment for the duration of t
func SetTestEnv(t *testing.T) {
	t.Helper()
	for k, v := range TestEnv() {
		t.Setenv(k, v)
	}
}

// NewTestServer starts an httptest server around the application's router
func NewTestServer(t *testing.T, router http.Handler) *TestServer {
	t.Helper()

	server := httptest.NewServer(router)
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}

	return &TestServer{
		Server:  server,
		BaseURL: server.URL,
		Client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		t: t,
	}
}

// GET performs a GET request to the given path
func (ts *TestServer) GET(path string) *http.Response {
	ts.t.Helper()

	resp, err := ts.Client.Get(ts.BaseURL + path)
	if err != nil {
		ts.t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

// GETWithQuery performs a GET request with encoded query parameters
func (ts *TestServer) GETWithQuery(path string, query url.Values) *http.Response {
	ts.t.Helper()

	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return ts.GET(path)
}

// POST performs a POST request to the given path
func (ts *TestServer) POST(path string, contentType string, body io.Reader) *http.Response {
	ts.t.Helper()

	resp, err := ts.Client.Post(ts.BaseURL+path, contentType, body)
	if err != nil {
		ts.t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// ReadBody reads and returns the response body as a string
func ReadBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	return string(body)
}
