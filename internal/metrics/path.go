// Package metrics resolves dotted metric paths against scenarios and
// computes the derived metrics the engine reads.
package metrics

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/AbdouB/dialogue/internal/models"
)

// ErrInvalidPath is returned by ParsePath for syntactically invalid paths
var ErrInvalidPath = errors.New("invalid metric path")

// Path is a parsed metric path. A trailing 4-digit segment is the year.
type Path struct {
	raw     string
	key     []string
	year    int
	hasYear bool
}

// ParsePath splits a dotted path into segments.
// Segments may contain letters and digits only.
func ParsePath(raw string) (Path, error) {
	if raw == "" {
		return Path{}, fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	segments := strings.Split(raw, ".")
	for _, seg := range segments {
		if seg == "" {
			return Path{}, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, raw)
		}
		for _, r := range seg {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return Path{}, fmt.Errorf("%w: %q contains %q", ErrInvalidPath, raw, r)
			}
		}
	}

	p := Path{raw: raw, key: segments}
	if year, ok := models.ParseYear(segments[len(segments)-1]); ok {
		p.year, p.hasYear = year, true
		p.key = segments[:len(segments)-1]
	}
	return p, nil
}

// String returns the path as written
func (p Path) String() string {
	return p.raw
}

// Key returns the path without its year segment
func (p Path) Key() string {
	return strings.Join(p.key, ".")
}

// Year returns the year segment, if any
func (p Path) Year() (int, bool) {
	return p.year, p.hasYear
}

// Segments returns the non-year segments
func (p Path) Segments() []string {
	return append([]string(nil), p.key...)
}
