package lang

import (
	"bytes"

	"langforge.dev/toolkit/pkg/container"
)

// ----------------------------------------------------------------------------
// General information

// This section implements the location service: a growable offset-to-line
// index, extended lazily as the lexer's cursor advances
// past newlines it has not yet indexed, backing both OffsetToLocation and
// LineToString.

// Location is a 1-based (line, character) pair derived from a byte offset.
type Location struct {
	Line      int
	Character int
}

// LocationIndex incrementally maps byte offsets into (line, character) pairs.
// lineStarts[i] holds the byte offset at which line i+1 (1-based) begins;
// lineStarts[0] is always 0.
type LocationIndex struct {
	source     []byte
	lineStarts container.Vector[int]
	indexedTo  int // offset up to which lineStarts has already been populated
}

// NewLocationIndex wraps 'source' for lazy line indexing.
func NewLocationIndex(source []byte) *LocationIndex {
	li := &LocationIndex{source: source}
	li.lineStarts.Push(0)
	return li
}

// extendTo grows the index so every newline before 'offset' is recorded.
func (li *LocationIndex) extendTo(offset int) {
	if offset <= li.indexedTo {
		return
	}
	if offset > len(li.source) {
		offset = len(li.source)
	}
	for i := li.indexedTo; i < offset; i++ {
		if li.source[i] == '\n' {
			li.lineStarts.Push(i + 1)
		}
	}
	li.indexedTo = offset
}

// OffsetToLocation returns the 1-based (line, character) pair for 'offset',
// extending the lazy index as needed.
func (li *LocationIndex) OffsetToLocation(offset int) Location {
	li.extendTo(offset)

	starts := li.lineStarts.Slice()
	line := 0
	for i, start := range starts {
		if start > offset {
			break
		}
		line = i
	}
	return Location{Line: line + 1, Character: offset - starts[line] + 1}
}

// LineToString returns a copy of the 1-based line 'n' (without its trailing
// newline).
func (li *LocationIndex) LineToString(n int) string {
	if n < 1 {
		return ""
	}
	// Ensure we've indexed far enough to know where line n+1 begins (or EOF).
	li.extendTo(len(li.source))

	starts := li.lineStarts.Slice()
	if n-1 >= len(starts) {
		return ""
	}
	start := starts[n-1]
	end := len(li.source)
	if n < len(starts) {
		end = starts[n] - 1 // exclude the newline itself
	}
	if idx := bytes.IndexByte(li.source[start:end], '\n'); idx >= 0 {
		end = start + idx
	}
	return string(li.source[start:end])
}
