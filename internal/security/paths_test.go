package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	reports := filepath.Join(tmp, "reports")
	private := filepath.Join(tmp, "private")
	require.NoError(t, os.MkdirAll(filepath.Join(reports, "run-1"), 0o755))
	require.NoError(t, os.MkdirAll(private, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(private, "myrmidon.db"), []byte("x"), 0o644))
	require.NoError(t, os.Symlink(private, filepath.Join(reports, "link")))

	for _, tc := range []struct {
		name string
		path string
		ok   bool
	}{
		{"existing file", filepath.Join(reports, "run-1"), true},
		{"missing nested file", filepath.Join(reports, "run-2", "summary.json"), true},
		{"directory itself", reports, true},
		{"dot dot", filepath.Join(reports, "..", "private", "myrmidon.db"), false},
		{"sibling prefix", reports + "-old", false},
		{"through symlink", filepath.Join(reports, "link", "myrmidon.db"), false},
		{"missing file through symlink", filepath.Join(reports, "link", "new.txt"), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePathWithinDirectory(tc.path, reports)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrPathEscape)
			}
		})
	}
}

func TestResolveWithin(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	p, err := ResolveWithin(dir, "run-1/collisions.html")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run-1", "collisions.html"), p)

	_, err = ResolveWithin(dir, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrPathEscape)
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"":                     "unknown",
		"...":                  "unknown",
		"colony 42/day 1":      "colony_42_day_1",
		"run:2024-03-01T10:00": "run_2024-03-01T10_00",
		"../../etc/passwd":     "etc_passwd",
		"fourmis-été.frames":   "fourmis-_t_.frames",
	} {
		assert.Equal(t, want, SanitizeFilename(in), "input %q", in)
	}
	assert.Len(t, SanitizeFilename(strings.Repeat("a", 500)), 128)
}
