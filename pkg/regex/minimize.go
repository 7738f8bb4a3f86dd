package regex

// ----------------------------------------------------------------------------
// General information

// This section implements Myhill-Nerode table filling: refining the "distinguish
// these two states" relation to a fixed point, then merging every pair of states
// that never became distinguishable. The merged DFA accepts exactly the same
// language as the input, because two states end
// up in the same class only when no byte, and no finite suffix of bytes, can
// ever tell them apart.

// Minimize reduces 'dfa' to its minimal equivalent by table filling.
func Minimize(dfa *DFA) *DFA {
	n := dfa.N
	distinguishable := make([][]bool, n)
	for i := range distinguishable {
		distinguishable[i] = make([]bool, n)
	}

	isAccept := func(s int) bool { return dfa.Flags[s]&FlagAccept != 0 }

	// Base case: states differing in accept-ness are distinguishable immediately.
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if isAccept(i) != isAccept(j) {
				distinguishable[i][j] = true
				distinguishable[j][i] = true
			}
		}
	}

	// Iterate until a fixed point: (i, j) becomes distinguishable as soon as some
	// byte b sends them to an already-distinguishable pair.
	for changed := true; changed; {
		changed = false
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if distinguishable[i][j] {
					continue
				}
				for b := 0; b < 256; b++ {
					ti, tj := dfa.Trans[i][b], dfa.Trans[j][b]
					if ti != tj && distinguishable[ti][tj] {
						distinguishable[i][j] = true
						distinguishable[j][i] = true
						changed = true
						break
					}
				}
			}
		}
	}

	// Each state remaps to the lowest-indexed state in its equivalence class.
	remap := make([]int, n)
	for i := 0; i < n; i++ {
		remap[i] = i
		for j := 0; j < i; j++ {
			if !distinguishable[i][j] {
				remap[i] = remap[j]
				break
			}
		}
	}

	// Compact: keep only states that are the representative of their class,
	// rewriting the transition table through 'remap' and OR-ing flag bits within
	// a class (accept-ness is already identical across a class by construction;
	// the OR just keeps the rule general and cheap).
	var compactedFrom []int // compactedFrom[newID] = an old state id representing that class
	newIndex := make([]int, n)
	for old := 0; old < n; old++ {
		if remap[old] == old {
			newIndex[old] = len(compactedFrom)
			compactedFrom = append(compactedFrom, old)
		}
	}
	for old := 0; old < n; old++ {
		newIndex[old] = newIndex[remap[old]]
	}

	out := &DFA{N: len(compactedFrom)}
	out.Trans = make([][256]int, out.N)
	out.Flags = make([]StateFlag, out.N)

	for newID, old := range compactedFrom {
		out.Flags[newID] = dfa.Flags[old]
		for b := 0; b < 256; b++ {
			out.Trans[newID][b] = newIndex[dfa.Trans[old][b]]
		}
	}
	// OR in any flag bits from other members of the same class (covers the rare
	// case where the initial state's class representative is not state 1).
	for old := 0; old < n; old++ {
		out.Flags[newIndex[old]] |= dfa.Flags[old]
	}

	return out
}
