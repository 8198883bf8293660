package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortCommit(t *testing.T) {
	assert.Equal(t, "0123abcd", Info{Commit: "0123abcdef456789"}.ShortCommit())
	assert.Equal(t, "abc", Info{Commit: "abc"}.ShortCommit())
	assert.Empty(t, Info{}.ShortCommit())
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"bare", Info{Version: "dev", BuildTime: "unknown"}, "dev"},
		{"commit", Info{Version: "1.2.0", BuildTime: "unknown", Commit: "0123abcdef", GoVersion: "go1.24.0"}, "1.2.0 0123abcd go1.24.0"},
		{"dirty", Info{Version: "1.2.0", BuildTime: "2026-01-02", Commit: "0123abcdef", Dirty: true}, "1.2.0 0123abcd-dirty built 2026-01-02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.String())
		})
	}
}

func TestCheck(t *testing.T) {
	assert.NotEmpty(t, Info{Version: "1.0.0", Commit: "abc", Dirty: true}.Check())
	assert.NotEmpty(t, Info{Version: "dev"}.Check())
	assert.Empty(t, Info{Version: "1.0.0", Commit: "abc"}.Check())
	assert.Empty(t, Info{Version: "1.0.0"}.Check())
}

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}
