package dropfilter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptableURLsFiltersDirectoriesAndNonLocalSchemes(t *testing.T) {
	dir := t.TempDir()
	textFile := filepath.Join(dir, "report.log")
	require.NoError(t, os.WriteFile(textFile, []byte("hello"), 0o644))
	jsonFile := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(jsonFile, []byte("{}"), 0o644))

	raw := []string{
		"file://" + textFile,
		"file://" + jsonFile, // application/json, not text/*, must be rejected
		"file://" + dir, // a directory, must be rejected
		"https://example.com/not-local",
		"file:///no/such/path",
	}

	got := AcceptableURLs(raw)
	assert.ElementsMatch(t, []string{textFile}, got)
}

func TestAcceptableURLsRejectsBinaryLikeExtension(t *testing.T) {
	dir := t.TempDir()
	// .png is in Go's builtin mime type table regardless of host
	// /etc/mime.types, so this assertion doesn't depend on OS config.
	bin := filepath.Join(dir, "payload.png")
	require.NoError(t, os.WriteFile(bin, []byte{0x89, 'P', 'N', 'G'}, 0o644))

	got := AcceptableURLs([]string{"file://" + bin})
	assert.Empty(t, got, "expected .png to be rejected as non-text")
}
