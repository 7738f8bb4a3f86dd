package regex

// ----------------------------------------------------------------------------
// General information

// This section implements the two matcher entry points: whole-string
// acceptance and longest-prefix matching. Both walk the dense
// transition table starting from state 1 (the initial state); state 0 (dead) is
// an absorbing sink so either walk can bail out the moment it is entered.

// Accepts reports whether 'input' is accepted in full by 'dfa'.
func Accepts(dfa *DFA, input []byte) bool {
	state := 1
	for _, b := range input {
		state = dfa.Trans[state][b]
		if state == 0 {
			return false
		}
	}
	return dfa.Flags[state]&FlagAccept != 0
}

// LongestMatch walks 'input' up to 'maxLen' bytes and returns the length of the
// longest accepted prefix (0 if none, including when the empty string is not
// itself accepted).
func LongestMatch(dfa *DFA, input []byte, maxLen int) int {
	if maxLen > len(input) {
		maxLen = len(input)
	}

	state := 1
	best := 0
	accepted := dfa.Flags[state]&FlagAccept != 0

	for i := 0; i < maxLen; i++ {
		state = dfa.Trans[state][input[i]]
		if state == 0 {
			break
		}
		if dfa.Flags[state]&FlagAccept != 0 {
			best = i + 1
			accepted = true
		}
	}

	if !accepted {
		return 0
	}
	return best
}
