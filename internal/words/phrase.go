package words

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Letters used for the announcement.
const (
	FreshStart = 'F'
	DripStart  = 'D'
	DripEnd    = 'P'
)

// shortLengths limits length draws to the first entries of the length
// table, which keeps the words short enough to pronounce.
const shortLengths = 7

// Generator composes announcement phrases. It is safe for concurrent use.
type Generator struct {
	mu     sync.Mutex
	tables *Tables
	rnd    *rand.Rand
	synth  *Synthesizer
}

// NewGenerator returns a Generator seeded with the current time.
func NewGenerator(tables *Tables) *Generator {
	return NewGeneratorWithSource(tables, rand.NewSource(time.Now().UnixNano()))
}

// NewGeneratorWithSource returns a Generator drawing from src.
func NewGeneratorWithSource(tables *Tables, src rand.Source) *Generator {
	rnd := rand.New(src)
	return &Generator{
		tables: tables,
		rnd:    rnd,
		synth:  NewSynthesizer(tables, rnd),
	}
}

// Phrase returns "{Fresh-word} {drip-word}." where the first word starts
// with F and the second starts with D and, when reachable, ends with P.
func (g *Generator) Phrase() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	fresh, err := g.word(FreshStart, 0)
	if err != nil {
		return "", fmt.Errorf("fresh word: %w", err)
	}
	drip, err := g.word(DripStart, DripEnd)
	if err != nil {
		return "", fmt.Errorf("drip word: %w", err)
	}
	return title(fresh) + " " + strings.ToLower(drip) + ".", nil
}

func (g *Generator) word(start rune, end rune) (string, error) {
	lengths := g.tables.Lengths
	if len(lengths) > shortLengths {
		lengths = lengths[:shortLengths]
	}
	length, err := SampleIndex(g.rnd, lengths)
	if err != nil {
		return "", fmt.Errorf("length: %w", err)
	}
	return g.synth.Synthesize(start, length, end)
}

func title(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToLower(s)
	return strings.ToUpper(s[:1]) + s[1:]
}
