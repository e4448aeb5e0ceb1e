// Package dropfilter implements the drag-and-drop acceptance contract
// (spec.md §6): given a list of file:// URLs offered to the application, it
// returns only the ones worth offering to the user as a new local story —
// plain text-ish files, not binaries, directories, or non-local URLs. No
// GUI/drag-drop library appears in the retrieval pack, correctly so (out of
// scope per spec.md §1), so this stays a pure filter function with no
// framework dependency of its own.
package dropfilter

import (
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// AcceptableURLs filters raw (as offered by a drop event, one file:// URL
// string per entry) down to those naming a regular, text-ish local file.
func AcceptableURLs(raw []string) []string {
	var accepted []string
	for _, s := range raw {
		if path, ok := acceptableLocalTextFile(s); ok {
			accepted = append(accepted, path)
		}
	}
	return accepted
}

func acceptableLocalTextFile(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	path := u.Path
	if path == "" {
		return "", false
	}
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return "", false
	}
	if !isTextLike(path) {
		return "", false
	}
	return path, true
}

// isTextLike reports whether path's extension maps to a text/* MIME type,
// or is unrecognized (treated as plausibly-text rather than rejected, since
// many log/report file extensions aren't registered anywhere).
func isTextLike(path string) bool {
	ext := filepath.Ext(path)
	if ext == "" {
		return true
	}
	typ := mime.TypeByExtension(ext)
	if typ == "" {
		return true
	}
	return strings.HasPrefix(typ, "text/")
}
