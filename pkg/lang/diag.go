package lang

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ----------------------------------------------------------------------------
// General information

// This section implements the error taxonomy and the diagnostics mechanism.
//
// Instead of a process-wide mode switch plus a longjmp-style rewind point,
// the state lives in a Context value carrying a Mode and a Diagnostics
// slice: Report either formats-and-exits (ExitMode) or appends to Diagnostics
// and returns ErrRewound (DiagnosticMode), which every recursive-descent rule in
// parser.go checks for and propagates upward instead of continuing — the Go
// analogue of "parser is a function returning either an AST or diagnostics",
// short-circuited through ordinary error returns rather than a non-local jump.

// Sentinel errors, one per failure class the pipeline can raise.
var (
	ErrLex     = errors.New("lex-error")
	ErrParse   = errors.New("parse-error")
	ErrName    = errors.New("name-error")
	ErrType    = errors.New("type-error")
	ErrCodegen = errors.New("codegen-error")
	ErrIO      = errors.New("io-error")
)

// ErrRewound is returned by a parse rule after Report has recorded a
// diagnostic in DiagnosticMode, signalling "unwind to the caller-installed
// rewind point" without actually using runtime.Goexit or panic/recover.
var ErrRewound = errors.New("parse rewound after diagnostic")

// Mode selects how Report reacts to a failure.
type Mode uint8

const (
	// ExitMode formats the message with a caret line to stderr and exits the
	// process. The regex package does not use Context or ExitMode: a bad
	// pattern comes back from regex.Compile as a *CompileError and the process
	// keeps running.
	ExitMode Mode = iota
	// DiagnosticMode appends to Context.Diagnostics and returns ErrRewound so
	// the parser can unwind to its caller-installed rewind point and resume.
	DiagnosticMode
)

// Diagnostic carries a message and the source range it applies to.
type Diagnostic struct {
	Range   Range
	Message string
	Err     error
}

// Range is a half-open byte range into the source buffer, the same shape a
// Token carries; AST nodes and diagnostics both use it.
type Range struct{ Begin, End int }

// Context threads the compilation-wide state through the pipeline (the lexer
// cursor lives in *Lexer; this covers the rest): failure mode,
// accumulated diagnostics, the address pool and string table owners reach via
// their own packages, and the location index used to render caret diagnostics.
type Context struct {
	Mode        Mode
	Source      []byte
	Locations   *LocationIndex
	Diagnostics []Diagnostic
	Logger      zerolog.Logger
}

// NewContext builds a Context over 'source' in the given Mode.
func NewContext(source []byte, mode Mode) *Context {
	return &Context{
		Mode:      mode,
		Source:    source,
		Locations: NewLocationIndex(source),
		Logger:    log.Logger,
	}
}

// Report records a failure at 'rng' with sentinel 'cause' and formatted
// 'message'. In ExitMode it prints a location-prefixed message plus a caret
// line and exits the process with a non-zero status; in
// DiagnosticMode it appends to Diagnostics and returns ErrRewound so the caller
// short-circuits back to its rewind point instead of continuing the parse.
func (c *Context) Report(cause error, rng Range, format string, args ...any) error {
	message := fmt.Sprintf(format, args...)

	if c.Mode == ExitMode {
		loc := c.Locations.OffsetToLocation(rng.Begin)
		line := c.Locations.LineToString(loc.Line)
		fmt.Fprintf(os.Stderr, "%d:%d: error: %s\n", loc.Line, loc.Character, message)
		fmt.Fprintln(os.Stderr, line)
		fmt.Fprintln(os.Stderr, strings.Repeat(" ", loc.Character-1)+"^")
		os.Exit(1)
		panic("unreachable") // os.Exit never returns; satisfies the return type for vet/lint
	}

	c.Diagnostics = append(c.Diagnostics, Diagnostic{Range: rng, Message: message, Err: cause})
	return ErrRewound
}
