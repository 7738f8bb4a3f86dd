package regex_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"langforge.dev/toolkit/pkg/regex"
)

func TestCompileAndAccepts(t *testing.T) {
	cases := []struct {
		pattern string
		accept  []string
		reject  []string
	}{
		{
			pattern: `a(b|c)*`,
			accept:  []string{"a", "abbccbb"},
			reject:  []string{"bbccbb", "aa"},
		},
		{
			pattern: `a*bbc*`,
			accept:  []string{"bb", "aabb", "bbc", "aaaabbc"},
			reject:  []string{"aaaaabcccc", "aaabbca"},
		},
		{
			pattern: `(ab)+c*(ba)+`,
			accept:  []string{"abcba", "ababcccbaba"},
			reject:  []string{"ab", "cababccbaba"},
		},
		{
			pattern: `(((ab)*a?)|((ba)*b?))cc*`,
			accept:  []string{"c", "bac", "abababcccccccc"},
			reject:  []string{"a", "bbabac", "abababa"},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.pattern, func(t *testing.T) {
			dfa, err := regex.Compile([]byte(tc.pattern))
			require.NoError(t, err)

			for _, in := range tc.accept {
				require.Truef(t, regex.Accepts(dfa, []byte(in)), "expected %q to accept %q", tc.pattern, in)
			}
			for _, in := range tc.reject {
				require.Falsef(t, regex.Accepts(dfa, []byte(in)), "expected %q to reject %q", tc.pattern, in)
			}
		})
	}
}

func TestCompileBadRegex(t *testing.T) {
	for _, pattern := range []string{"(a", "a)", "*a", "a\\"} {
		_, err := regex.Compile([]byte(pattern))
		require.ErrorIs(t, err, regex.ErrBadRegex, "pattern %q", pattern)
	}
}

func TestLongestMatchMonotonic(t *testing.T) {
	dfa, err := regex.Compile([]byte(`a*bbc*`))
	require.NoError(t, err)

	input := []byte("aaaabbccc")
	prev := 0
	for n := 1; n <= len(input); n++ {
		got := regex.LongestMatch(dfa, input[:n], n)
		require.GreaterOrEqual(t, got, prev, "longest match must not decrease as input grows")
		prev = got
	}
	require.Equal(t, len(input), regex.LongestMatch(dfa, input, len(input)))
}

func TestMinimizePreservesLanguage(t *testing.T) {
	pattern := []byte(`(ab)+c*(ba)+`)
	atoms, err := regex.Preprocess(pattern)
	require.NoError(t, err)
	nfa, err := regex.Build(atoms)
	require.NoError(t, err)

	raw := regex.BuildDFA(nfa)
	min := regex.Minimize(raw)

	samples := []string{"abcba", "ababcccbaba", "ab", "cababccbaba", "", "ba", "abba"}
	for _, s := range samples {
		require.Equalf(t, regex.Accepts(raw, []byte(s)), regex.Accepts(min, []byte(s)),
			"minimisation changed acceptance for %q", s)
	}
	require.Less(t, min.N, raw.N+1) // never grows
}
