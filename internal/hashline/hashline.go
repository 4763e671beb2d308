// Package hashline tags source lines with short content hashes.
//
// An edit plan is computed from one snapshot of a file and applied later.
// Each edit carries the hashes of the lines it touches; if the file changed
// in between, the hashes no longer match and the plan is rejected before
// anything is written.
package hashline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashLen is the number of hex characters per line hash.
const HashLen = 4

// LineHash computes a short content hash for a single line.
func LineHash(line string) string {
	h := sha256.Sum256([]byte(line))
	return hex.EncodeToString(h[:HashLen/2])
}

// HashMismatchError is returned when an anchor's hash doesn't match the
// actual file content.
type HashMismatchError struct {
	Line     int
	Expected string
	Got      string
	Content  string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("line %d changed since the plan was made: expected %s, got %s (now %q)", e.Line, e.Expected, e.Got, e.Content)
}

// Anchor identifies a line by number and hash. Num is 1-indexed.
type Anchor struct {
	Num  int    `json:"line"`
	Hash string `json:"hash"`
}

// At anchors the zero-based line i of lines. Lines past the end are anchored
// with an empty hash, which only validates against a file that is still too
// short to have them.
func At(lines []string, i int) Anchor {
	if i < 0 || i >= len(lines) {
		return Anchor{Num: i + 1}
	}
	return Anchor{Num: i + 1, Hash: LineHash(lines[i])}
}

func (a Anchor) String() string { return fmt.Sprintf("%d:%s", a.Num, a.Hash) }

// Validate checks that the anchor matches the actual file lines.
// lines is 0-indexed; anchor.Num is 1-indexed.
func (a Anchor) Validate(lines []string) error {
	idx := a.Num - 1
	if a.Hash == "" {
		if idx >= len(lines) {
			return nil
		}
		return fmt.Errorf("line %d appeared since the plan was made", a.Num)
	}
	if idx < 0 || idx >= len(lines) {
		return fmt.Errorf("line %d out of range (file has %d lines)", a.Num, len(lines))
	}
	actual := LineHash(lines[idx])
	if actual != a.Hash {
		return &HashMismatchError{
			Line:     a.Num,
			Expected: a.Hash,
			Got:      actual,
			Content:  lines[idx],
		}
	}
	return nil
}

// Span anchors the first and last line an edit touches.
type Span struct {
	Start Anchor `json:"start"`
	End   Anchor `json:"end"`
}

// SpanAt anchors zero-based lines first through last.
func SpanAt(lines []string, first, last int) Span {
	return Span{Start: At(lines, first), End: At(lines, last)}
}

// Validate checks both anchors and their order.
func (s Span) Validate(lines []string) error {
	if err := s.Start.Validate(lines); err != nil {
		return fmt.Errorf("start anchor: %w", err)
	}
	if s.End.Num == s.Start.Num {
		return nil
	}
	if err := s.End.Validate(lines); err != nil {
		return fmt.Errorf("end anchor: %w", err)
	}
	if s.Start.Num > s.End.Num {
		return fmt.Errorf("start line %d is after end line %d", s.Start.Num, s.End.Num)
	}
	return nil
}
