package regex

import (
	"fmt"

	"github.com/pkg/errors"
)

// ----------------------------------------------------------------------------
// Error taxonomy

// ErrBadRegex is the sentinel for every lexical or structural failure raised
// while compiling a pattern (unmatched parens, trailing escape, postfix operator
// applied to nothing). The regex engine never runs embedded in diagnostic-mode
// tooling, so there is no rewind point to unwind to here, only a returned error.
var ErrBadRegex = errors.New("bad regex")

// CompileError wraps ErrBadRegex with the offending pattern and the byte offset
// at which the failure was detected.
type CompileError struct {
	Pattern string
	Offset  int
	Reason  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("bad regex %q at offset %d: %s", e.Pattern, e.Offset, e.Reason)
}

func (e *CompileError) Unwrap() error { return ErrBadRegex }

func badRegex(pattern []byte, offset int, reason string) error {
	return &CompileError{Pattern: string(pattern), Offset: offset, Reason: reason}
}
