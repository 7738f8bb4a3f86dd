package regex

// ----------------------------------------------------------------------------
// General information

// This section implements Thompson construction: walking the Atom sequence
// produced by Preprocess and assembling a nondeterministic finite automaton.
//
// Nodes are identity-based (a Node is always held and compared by pointer; two
// distinct Node values are never equal even with identical transition lists) so
// that the DFA builder's subset-equality check in dfa.go can rely on pointer
// comparison rather than deep structural equality.

// Transition is one outgoing edge of a Node: either a labelled byte transition
// or, when IsEpsilon is set, a free (epsilon) move that consumes no input.
type Transition struct {
	IsEpsilon bool
	Label     byte
	To        *Node
}

// Node is a single NFA state: an unordered collection of outgoing transitions.
type Node struct {
	id    int
	trans []Transition
}

func (n *Node) addEpsilon(to *Node)           { n.trans = append(n.trans, Transition{IsEpsilon: true, To: to}) }
func (n *Node) addByte(label byte, to *Node)  { n.trans = append(n.trans, Transition{Label: label, To: to}) }

// NFA is the owned node arena plus the two distinguished states.
type NFA struct {
	Nodes []*Node
	Start *Node
	Accept *Node
}

// fragment is a sub-NFA under construction: it shares the Nodes arena of the
// enclosing builder but only tracks its own entry/exit pair.
type fragment struct {
	start, accept *Node
}

// builder accumulates every Node allocated during a single Build call so the
// final NFA owns them all, matching the "NFA is an ordered sequence of owned
// nodes" data-model invariant.
type builder struct {
	atoms []Atom
	nodes []*Node
}

func (b *builder) newNode() *Node {
	n := &Node{id: len(b.nodes)}
	b.nodes = append(b.nodes, n)
	return n
}

// Build runs Thompson construction over 'atoms' (with paren matches already
// resolved by Preprocess) and returns the resulting NFA.
func Build(atoms []Atom) (*NFA, error) {
	b := &builder{atoms: atoms}
	frag, err := b.buildRange(0, len(atoms))
	if err != nil {
		return nil, err
	}
	return &NFA{Nodes: b.nodes, Start: frag.start, Accept: frag.accept}, nil
}

// buildRange constructs the fragment for atoms[lo:hi), recursing into matched
// parenthesis pairs. It maintains a concat list (fragments to be chained
// left-to-right) and a union list (already-sealed alternatives).
func (b *builder) buildRange(lo, hi int) (fragment, error) {
	var concat []fragment
	var union []fragment

	sealConcat := func() fragment {
		if len(concat) == 0 {
			// Empty alternative (e.g. leading '|' or "a|"): a direct epsilon bypass.
			start, accept := b.newNode(), b.newNode()
			start.addEpsilon(accept)
			return fragment{start: start, accept: accept}
		}
		chained := concat[0]
		for _, next := range concat[1:] {
			chained.accept.addEpsilon(next.start)
			chained.accept = next.accept
		}
		return chained
	}

	for i := lo; i < hi; i++ {
		atom := b.atoms[i]

		switch atom.Kind {
		case AtomCharClass:
			start, accept := b.newNode(), b.newNode()
			for _, byt := range atom.Class.Bytes() {
				start.addByte(byt, accept)
			}
			concat = append(concat, fragment{start: start, accept: accept})

		case AtomLParen:
			sub, err := b.buildRange(i+1, atom.Match)
			if err != nil {
				return fragment{}, err
			}
			concat = append(concat, sub)
			i = atom.Match // skip past the matching ')'; loop increment lands after it

		case AtomRParen:
			// Reached only if buildRange is mis-invoked with mismatched bounds;
			// Preprocess guarantees every '(' consumes through its ')' above.
			return fragment{}, badRegex(nil, i, "unexpected ')'")

		case AtomOperator:
			switch atom.Op {
			case OpStar:
				if len(concat) == 0 {
					return fragment{}, badRegex(nil, i, "'*' applied to empty expression")
				}
				sub := concat[len(concat)-1]
				concat = concat[:len(concat)-1]
				entry, exit := b.newNode(), b.newNode()
				entry.addEpsilon(sub.start)
				entry.addEpsilon(exit)
				sub.accept.addEpsilon(sub.start)
				sub.accept.addEpsilon(exit)
				concat = append(concat, fragment{start: entry, accept: exit})

			case OpPlus:
				if len(concat) == 0 {
					return fragment{}, badRegex(nil, i, "'+' applied to empty expression")
				}
				sub := concat[len(concat)-1]
				concat = concat[:len(concat)-1]
				entry, exit := b.newNode(), b.newNode()
				entry.addEpsilon(sub.start)
				sub.accept.addEpsilon(sub.start)
				sub.accept.addEpsilon(exit)
				concat = append(concat, fragment{start: entry, accept: exit})

			case OpQuest:
				if len(concat) == 0 {
					return fragment{}, badRegex(nil, i, "'?' applied to empty expression")
				}
				sub := concat[len(concat)-1]
				concat = concat[:len(concat)-1]
				exit := b.newNode()
				sub.start.addEpsilon(exit)
				sub.accept.addEpsilon(exit)
				concat = append(concat, fragment{start: sub.start, accept: exit})

			case OpUnion:
				union = append(union, sealConcat())
				concat = nil
			}
		}
	}

	union = append(union, sealConcat())
	if len(union) == 1 {
		return union[0], nil
	}

	entry, exit := b.newNode(), b.newNode()
	for _, alt := range union {
		entry.addEpsilon(alt.start)
		alt.accept.addEpsilon(exit)
	}
	return fragment{start: entry, accept: exit}, nil
}
