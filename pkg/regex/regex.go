// Package regex compiles a small regular-expression grammar ('*', '+', '?',
// '|', grouping, '.', '\d'/'\w'/literal escapes, literal bytes) into a minimal
// deterministic finite automaton and matches byte strings against it.
//
// The pipeline is Preprocess -> Build (Thompson NFA) -> BuildDFA (subset
// construction) -> Minimize (Myhill-Nerode table filling); Compile wires all
// four stages together for callers that just want a DFA from a pattern.
package regex

// Compile turns a pattern into a minimal DFA, or returns ErrBadRegex (wrapped in
// a *CompileError) if the pattern is structurally invalid.
func Compile(pattern []byte) (*DFA, error) {
	atoms, err := Preprocess(pattern)
	if err != nil {
		return nil, err
	}
	nfa, err := Build(atoms)
	if err != nil {
		return nil, err
	}
	return Minimize(BuildDFA(nfa)), nil
}
