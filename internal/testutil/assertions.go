package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"testing"
)

// ResponseAssertion provides fluent assertions for HTTP responses
type ResponseAssertion struct {
	t        *testing.T
	resp     *http.Response
	body     []byte
	bodyRead bool
}

// AssertResponse creates a new ResponseAssertion for the given response
func AssertResponse(t *testing.T, resp *http.Response) *ResponseAssertion {
	t.Helper()
	return &ResponseAssertion{t: t, resp: resp}
}

// readBody lazily reads the response body
func (ra *ResponseAssertion) readBody() []byte {
	if !ra.bodyRead {
		defer ra.resp.Body.Close()
		body, err := io.ReadAll(ra.resp.Body)
		if err != nil {
			ra.t.Fatalf("Failed to read response body: %v", err)
		}
		ra.body = body
		ra.bodyRead = true
	}
	return ra.body
}

// Status asserts the response has the expected status code
func (ra *ResponseAssertion) Status(code int) *ResponseAssertion {
	ra.t.Helper()
	if ra.resp.StatusCode != code {
		ra.t.Errorf("Expected status %d, got %d", code, ra.resp.StatusCode)
	}
	return ra
}

// StatusOK asserts the response has status 200
func (ra *ResponseAssertion) StatusOK() *ResponseAssertion {
	return ra.Status(http.StatusOK)
}

// RedirectsTo asserts a redirect with the given status whose Location starts with prefix
func (ra *ResponseAssertion) RedirectsTo(code int, prefix string) *ResponseAssertion {
	ra.t.Helper()
	ra.Status(code)
	if loc := ra.resp.Header.Get("Location"); !strings.HasPrefix(loc, prefix) {
		ra.t.Errorf("Expected Location starting with %q, got %q", prefix, loc)
	}
	return ra
}

// Header asserts a response header contains expected
func (ra *ResponseAssertion) Header(key, expected string) *ResponseAssertion {
	ra.t.Helper()
	if v := ra.resp.Header.Get(key); !strings.Contains(v, expected) {
		ra.t.Errorf("Expected %s containing %q, got %q", key, expected, v)
	}
	return ra
}

// ContentType asserts the response has the expected content type
func (ra *ResponseAssertion) ContentType(expected string) *ResponseAssertion {
	ra.t.Helper()
	return ra.Header("Content-Type", expected)
}

// ContentTypeHTML asserts the response is HTML
func (ra *ResponseAssertion) ContentTypeHTML() *ResponseAssertion {
	return ra.ContentType("text/html")
}

// ContentTypeJSON asserts the response is JSON
func (ra *ResponseAssertion) ContentTypeJSON() *ResponseAssertion {
	return ra.ContentType("application/json")
}

// SetsCookie asserts the response sets a cookie with the given name
func (ra *ResponseAssertion) SetsCookie(name string) *ResponseAssertion {
	ra.t.Helper()
	for _, c := range ra.resp.Cookies() {
		if c.Name == name && c.Value != "" {
			return ra
		}
	}
	ra.t.Errorf("Expected response to set cookie %q", name)
	return ra
}

// Contains asserts the response body contains the given string
func (ra *ResponseAssertion) Contains(substr string) *ResponseAssertion {
	ra.t.Helper()
	return ra.ContainsAll(substr)
}

// ContainsAll asserts the response body contains all the given strings
func (ra *ResponseAssertion) ContainsAll(substrs ...string) *ResponseAssertion {
	ra.t.Helper()
	body := string(ra.readBody())
	for _, substr := range substrs {
		if !strings.Contains(body, substr) {
			ra.t.Errorf("Expected body to contain %q, but it didn't.\nBody (first 500 chars): %s",
				substr, truncate(body, 500))
		}
	}
	return ra
}

// NotContains asserts the response body does not contain the given string
func (ra *ResponseAssertion) NotContains(substr string) *ResponseAssertion {
	ra.t.Helper()
	if strings.Contains(string(ra.readBody()), substr) {
		ra.t.Errorf("Expected body NOT to contain %q, but it did", substr)
	}
	return ra
}

// HasPrefix asserts the raw body starts with prefix, e.g. a file signature
func (ra *ResponseAssertion) HasPrefix(prefix []byte) *ResponseAssertion {
	ra.t.Helper()
	if !bytes.HasPrefix(ra.readBody(), prefix) {
		ra.t.Errorf("Expected body to start with %q", prefix)
	}
	return ra
}

// HasElement asserts the response body contains an HTML element with the given ID
func (ra *ResponseAssertion) HasElement(id string) *ResponseAssertion {
	ra.t.Helper()
	pattern := `id=["']` + regexp.QuoteMeta(id) + `["']`
	if matched, _ := regexp.Match(pattern, ra.readBody()); !matched {
		ra.t.Errorf("Expected body to contain element with id=%q, but it didn't", id)
	}
	return ra
}

// JSON decodes the body into v
func (ra *ResponseAssertion) JSON(v interface{}) *ResponseAssertion {
	ra.t.Helper()
	if err := json.Unmarshal(ra.readBody(), v); err != nil {
		ra.t.Fatalf("Invalid JSON response: %v\nBody (first 500 chars): %s", err, truncate(string(ra.body), 500))
	}
	return ra
}

// Body returns the response body as a string
func (ra *ResponseAssertion) Body() string {
	return string(ra.readBody())
}

// truncate truncates a string to the given length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
