// Package words invents English-sounding nonsense words from letter
// adjacency statistics. The length, start-pair and trigram tables are
// derived from the Wordle approach by Paul Crovella.
package words

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

// ErrConfiguration reports a weight table that cannot be sampled: a
// negative weight or a total weight of zero.
var ErrConfiguration = errors.New("words: invalid weight table")

// Sample draws a key from table with probability proportional to its weight.
// Keys are visited in sorted order so a seeded source gives repeatable draws.
func Sample(rnd *rand.Rand, table map[string]int) (string, error) {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	weights := make([]int, len(keys))
	for i, k := range keys {
		weights[i] = table[k]
	}
	i, err := SampleIndex(rnd, weights)
	if err != nil {
		return "", err
	}
	return keys[i], nil
}

// SampleIndex draws an index of weights with probability proportional to the
// weight at that index.
func SampleIndex(rnd *rand.Rand, weights []int) (int, error) {
	total := 0
	for i, w := range weights {
		if w < 0 {
			return 0, fmt.Errorf("%w: negative weight %d at %d", ErrConfiguration, w, i)
		}
		total += w
	}
	if total == 0 {
		return 0, fmt.Errorf("%w: total weight is zero", ErrConfiguration)
	}

	n := rnd.Intn(total) + 1
	for i, w := range weights {
		n -= w
		if n <= 0 {
			return i, nil
		}
	}
	// unreachable: n starts at most total
	return len(weights) - 1, nil
}
