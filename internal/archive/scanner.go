package archive

import (
	"bufio"
	"io"

	"github.com/rotisserie/eris"
)

// Scanner yields the header and data lines of an archive, skipping ignorable
// lines. Scanning stops at the first fatal decode error.
type Scanner struct {
	sc   *bufio.Scanner
	n    int
	line Line
	err  error
}

// NewScanner reads lines from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{sc: bufio.NewScanner(r)}
}

// Scan advances to the next header or data line.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for s.sc.Scan() {
		s.n++
		l, err := ParseLine(s.n, s.sc.Bytes())
		if err != nil {
			s.err = err
			return false
		}
		if l.Kind == KindIgnored {
			continue
		}
		s.line = l
		return true
	}
	if err := s.sc.Err(); err != nil {
		s.err = eris.Wrap(err, "archive: read")
	}
	return false
}

// Line returns the most recent line produced by Scan.
func (s *Scanner) Line() Line { return s.line }

// Err returns the first error encountered, if any.
func (s *Scanner) Err() error { return s.err }
