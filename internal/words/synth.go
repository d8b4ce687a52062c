package words

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"unicode"
)

var (
	// ErrNoStartPair is returned when no start pair begins with the
	// requested letter.
	ErrNoStartPair = errors.New("words: no start pair for letter")

	// ErrInvalidLength is returned for target lengths below two letters.
	ErrInvalidLength = errors.New("words: target length must be at least 2")
)

// Synthesizer builds single words from Tables. It is not safe for
// concurrent use; Generator wraps one behind a mutex.
type Synthesizer struct {
	tables *Tables
	rnd    *rand.Rand
}

// NewSynthesizer returns a Synthesizer drawing from rnd.
func NewSynthesizer(tables *Tables, rnd *rand.Rand) *Synthesizer {
	return &Synthesizer{tables: tables, rnd: rnd}
}

// Synthesize builds an upper-case word of at most length letters that
// begins with start. If end is non-zero the word should finish with it;
// when no branch reachable within the backtrack budget allows that, the
// word built so far is returned without it.
func (s *Synthesizer) Synthesize(start rune, length int, end rune) (string, error) {
	if length < 2 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidLength, length)
	}

	word, err := s.startPair(start)
	if err != nil {
		return "", err
	}

	if end == 0 {
		return string(s.fill(word, length)), nil
	}
	return string(s.fillToEnd(word, length, unicode.ToUpper(end))), nil
}

func (s *Synthesizer) startPair(letter rune) ([]rune, error) {
	letter = unicode.ToUpper(letter)
	filtered := make(map[string]int)
	for pair, w := range s.tables.Starts {
		if []rune(pair)[0] == letter {
			filtered[pair] = w
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("%w %q", ErrNoStartPair, letter)
	}
	pair, err := Sample(s.rnd, filtered)
	if err != nil {
		return nil, fmt.Errorf("start pair %q: %w", letter, err)
	}
	return []rune(pair), nil
}

// fill appends weighted continuations until the word is length letters
// long or its tail has no continuation.
func (s *Synthesizer) fill(word []rune, length int) []rune {
	for len(word) < length {
		r, ok := s.pick(word, nil)
		if !ok {
			break
		}
		word = append(word, r)
	}
	return word
}

// fillToEnd is a depth-first search over partial words. tried[i] holds the
// letters already rejected at position i under the current prefix. The
// start pair is never dropped and at most length backtracks are made.
func (s *Synthesizer) fillToEnd(word []rune, length int, end rune) []rune {
	tried := make([]map[rune]bool, length)
	budget := length

	for {
		if len(word) < length-1 {
			if r, ok := s.pick(word, tried[len(word)]); ok {
				word = append(word, r)
				continue
			}
		}
		if len(word) < length && s.reaches(word, end) {
			return append(word, end)
		}
		if len(word) == length && word[len(word)-1] == end {
			return word
		}

		if budget == 0 || len(word) <= 2 {
			return word
		}
		budget--

		pos := len(word) - 1
		if tried[pos] == nil {
			tried[pos] = make(map[rune]bool)
		}
		tried[pos][word[pos]] = true
		if pos+1 < len(tried) {
			tried[pos+1] = nil
		}
		word = word[:pos]
	}
}

// pick draws a continuation for the tail of word, skipping letters in skip.
func (s *Synthesizer) pick(word []rune, skip map[rune]bool) (rune, bool) {
	next := s.tables.next(word)
	if len(next) == 0 {
		return 0, false
	}
	candidates := next
	if len(skip) > 0 {
		candidates = make(map[string]int, len(next))
		for k, w := range next {
			if !skip[[]rune(k)[0]] {
				candidates[k] = w
			}
		}
	}
	k, err := Sample(s.rnd, candidates)
	if err != nil {
		// every remaining candidate has zero weight
		return 0, false
	}
	return []rune(k)[0], true
}

func (s *Synthesizer) reaches(word []rune, end rune) bool {
	w, ok := s.tables.next(word)[strings.ToUpper(string(end))]
	return ok && w > 0
}
