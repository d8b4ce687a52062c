package words

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleProportionalToWeight(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	table := map[string]int{"A": 1, "B": 3, "C": 0}

	counts := map[string]int{}
	const n = 40000
	for i := 0; i < n; i++ {
		k, err := Sample(rnd, table)
		require.NoError(t, err)
		counts[k]++
	}

	assert.Zero(t, counts["C"], "zero-weight key must never be drawn")
	assert.InDelta(t, 0.25, float64(counts["A"])/n, 0.02)
	assert.InDelta(t, 0.75, float64(counts["B"])/n, 0.02)
}

func TestSampleIndexRejectsBrokenTables(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))

	_, err := SampleIndex(rnd, []int{1, -1, 3})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = SampleIndex(rnd, []int{0, 0})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = Sample(rnd, map[string]int{})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestDefaultTablesLoad(t *testing.T) {
	tables, err := DefaultTables()
	require.NoError(t, err)

	assert.NotEmpty(t, tables.Lengths)
	assert.Zero(t, tables.Lengths[0])
	assert.Zero(t, tables.Lengths[1])
	assert.NotEmpty(t, tables.Starts)
	assert.NotEmpty(t, tables.Trigrams)
}

func TestLoadTablesNormalizesCase(t *testing.T) {
	fsys := fstest.MapFS{
		LengthsFile:  {Data: []byte(`[0, 0, 1, 1]`)},
		StartsFile:   {Data: []byte(`{"fr": 2}`)},
		TrigramsFile: {Data: []byte(`{"fr": {"e": 1}}`)},
	}
	tables, err := LoadTables(fsys)
	require.NoError(t, err)
	assert.Equal(t, 2, tables.Starts["FR"])
	assert.Equal(t, 1, tables.Trigrams["FR"]["E"])
}

func TestLoadTablesRejectsNegativeWeight(t *testing.T) {
	fsys := fstest.MapFS{
		LengthsFile:  {Data: []byte(`[0, 0, 1]`)},
		StartsFile:   {Data: []byte(`{"FR": 2}`)},
		TrigramsFile: {Data: []byte(`{"FR": {"E": -1, "A": 3}}`)},
	}
	_, err := LoadTables(fsys)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadTablesRejectsBadKey(t *testing.T) {
	fsys := fstest.MapFS{
		LengthsFile:  {Data: []byte(`[0, 0, 1]`)},
		StartsFile:   {Data: []byte(`{"FRE": 2}`)},
		TrigramsFile: {Data: []byte(`{"FR": {"E": 1}}`)},
	}
	_, err := LoadTables(fsys)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadTablesMissingFile(t *testing.T) {
	_, err := LoadTables(fstest.MapFS{})
	assert.Error(t, err)
}

func TestSynthesizeNeverExceedsLength(t *testing.T) {
	tables, err := DefaultTables()
	require.NoError(t, err)

	for seed := int64(0); seed < 200; seed++ {
		s := NewSynthesizer(tables, rand.New(rand.NewSource(seed)))
		for length := 2; length <= 9; length++ {
			w, err := s.Synthesize('f', length, 0)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(w), length)
			assert.True(t, strings.HasPrefix(w, "F"), "word %q", w)

			w, err = s.Synthesize('d', length, 'p')
			require.NoError(t, err)
			assert.LessOrEqual(t, len(w), length)
			assert.True(t, strings.HasPrefix(w, "D"), "word %q", w)
		}
	}
}

func TestSynthesizeUnknownStartLetter(t *testing.T) {
	tables := &Tables{
		Lengths:  []int{0, 0, 1},
		Starts:   map[string]int{"DA": 1},
		Trigrams: map[string]map[string]int{"DA": {"P": 1}},
	}
	s := NewSynthesizer(tables, rand.New(rand.NewSource(1)))

	_, err := s.Synthesize('q', 4, 0)
	assert.ErrorIs(t, err, ErrNoStartPair)
}

func TestSynthesizeRejectsShortLength(t *testing.T) {
	tables, err := DefaultTables()
	require.NoError(t, err)
	s := NewSynthesizer(tables, rand.New(rand.NewSource(1)))

	_, err = s.Synthesize('f', 1, 0)
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestSynthesizeStopsShortWithoutContinuation(t *testing.T) {
	tables := &Tables{
		Lengths:  []int{0, 0, 1},
		Starts:   map[string]int{"FR": 1},
		Trigrams: map[string]map[string]int{"FR": {"O": 1}},
	}
	s := NewSynthesizer(tables, rand.New(rand.NewSource(1)))

	w, err := s.Synthesize('f', 8, 0)
	require.NoError(t, err)
	assert.Equal(t, "FRO", w)
}

// backtrackTables forces a backtrack whenever X is drawn after DA: AX has
// no continuation, AR continues to P.
func backtrackTables() *Tables {
	return &Tables{
		Lengths: []int{0, 0, 1},
		Starts:  map[string]int{"DA": 1},
		Trigrams: map[string]map[string]int{
			"DA": {"X": 50, "R": 1},
			"AR": {"P": 1},
		},
	}
}

func TestSynthesizeBacktracksToEndLetter(t *testing.T) {
	for seed := int64(0); seed < 100; seed++ {
		s := NewSynthesizer(backtrackTables(), rand.New(rand.NewSource(seed)))
		w, err := s.Synthesize('d', 4, 'p')
		require.NoError(t, err)
		assert.Equal(t, "DARP", w, "seed %d", seed)
	}
}

func TestSynthesizeUnreachableEndTerminates(t *testing.T) {
	tables := &Tables{
		Lengths: []int{0, 0, 1},
		Starts:  map[string]int{"DA": 1},
		Trigrams: map[string]map[string]int{
			"DA": {"X": 1, "R": 1},
			"AX": {"E": 1},
			"AR": {"E": 1},
			"XE": {"S": 1},
			"RE": {"S": 1},
		},
	}
	s := NewSynthesizer(tables, rand.New(rand.NewSource(7)))

	w, err := s.Synthesize('d', 6, 'p')
	require.NoError(t, err)
	assert.LessOrEqual(t, len(w), 6)
	assert.False(t, strings.HasSuffix(w, "P"))
}

func TestSynthesizeLengthTwoKeepsPair(t *testing.T) {
	s := NewSynthesizer(backtrackTables(), rand.New(rand.NewSource(1)))
	w, err := s.Synthesize('d', 2, 'p')
	require.NoError(t, err)
	assert.Equal(t, "DA", w)
}

var phraseRe = regexp.MustCompile(`^F[a-z]* d[a-z]*\.$`)

func TestGeneratorPhraseShape(t *testing.T) {
	tables, err := DefaultTables()
	require.NoError(t, err)
	g := NewGeneratorWithSource(tables, rand.NewSource(42))

	for i := 0; i < 100; i++ {
		p, err := g.Phrase()
		require.NoError(t, err)
		assert.Regexp(t, phraseRe, p)
	}
}

func TestGeneratorSameSeedSamePhrases(t *testing.T) {
	tables, err := DefaultTables()
	require.NoError(t, err)
	a := NewGeneratorWithSource(tables, rand.NewSource(3))
	b := NewGeneratorWithSource(tables, rand.NewSource(3))

	for i := 0; i < 10; i++ {
		pa, err := a.Phrase()
		require.NoError(t, err)
		pb, err := b.Phrase()
		require.NoError(t, err)
		assert.Equal(t, pa, pb)
	}
}

func TestGeneratorPropagatesTableErrors(t *testing.T) {
	tables := &Tables{
		Lengths:  []int{0, 0, 0},
		Starts:   map[string]int{"FR": 1},
		Trigrams: map[string]map[string]int{"FR": {"E": 1}},
	}
	g := NewGeneratorWithSource(tables, rand.NewSource(1))
	_, err := g.Phrase()
	assert.ErrorIs(t, err, ErrConfiguration)
}
