package words

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

//go:embed data/*.json
var embedded embed.FS

// Table file names, relative to the table directory.
const (
	LengthsFile  = "lengths.json"
	StartsFile   = "starts.json"
	TrigramsFile = "trigrams.json"
)

// Tables holds the letter statistics. It is read-only once loaded.
type Tables struct {
	// Lengths is indexed by word length.
	Lengths []int
	// Starts maps an upper-case letter pair to how often words begin with it.
	Starts map[string]int
	// Trigrams maps an upper-case trailing pair to the weights of the
	// letters that follow it.
	Trigrams map[string]map[string]int
}

// DefaultTables loads the tables compiled into the binary.
func DefaultTables() (*Tables, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	return LoadTables(sub)
}

// LoadTablesDir loads the three table files from dir.
func LoadTablesDir(dir string) (*Tables, error) {
	return LoadTables(os.DirFS(dir))
}

// LoadTables reads and validates the tables from fsys.
func LoadTables(fsys fs.FS) (*Tables, error) {
	t := &Tables{}
	if err := readJSON(fsys, LengthsFile, &t.Lengths); err != nil {
		return nil, err
	}
	if err := readJSON(fsys, StartsFile, &t.Starts); err != nil {
		return nil, err
	}
	if err := readJSON(fsys, TrigramsFile, &t.Trigrams); err != nil {
		return nil, err
	}
	t.normalize()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func readJSON(fsys fs.FS, name string, v any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// normalize upper-cases every key so lookups are case-insensitive.
func (t *Tables) normalize() {
	starts := make(map[string]int, len(t.Starts))
	for k, w := range t.Starts {
		starts[strings.ToUpper(k)] += w
	}
	t.Starts = starts

	trigrams := make(map[string]map[string]int, len(t.Trigrams))
	for tail, next := range t.Trigrams {
		tail = strings.ToUpper(tail)
		m := trigrams[tail]
		if m == nil {
			m = make(map[string]int, len(next))
			trigrams[tail] = m
		}
		for k, w := range next {
			m[strings.ToUpper(k)] += w
		}
	}
	t.Trigrams = trigrams
}

// Validate checks every table for negative weights, empty totals and keys
// of the wrong shape.
func (t *Tables) Validate() error {
	if err := checkWeights("lengths", t.Lengths); err != nil {
		return err
	}
	if err := checkTable("starts", t.Starts, 2); err != nil {
		return err
	}
	if len(t.Trigrams) == 0 {
		return fmt.Errorf("%w: trigrams: empty", ErrConfiguration)
	}
	for tail, next := range t.Trigrams {
		if len([]rune(tail)) != 2 {
			return fmt.Errorf("%w: trigrams: tail %q is not a letter pair", ErrConfiguration, tail)
		}
		if err := checkTable("trigrams "+tail, next, 1); err != nil {
			return err
		}
	}
	return nil
}

func checkTable(name string, table map[string]int, keyLen int) error {
	weights := make([]int, 0, len(table))
	for k, w := range table {
		if len([]rune(k)) != keyLen {
			return fmt.Errorf("%w: %s: key %q has length %d, want %d", ErrConfiguration, name, k, len([]rune(k)), keyLen)
		}
		weights = append(weights, w)
	}
	return checkWeights(name, weights)
}

func checkWeights(name string, weights []int) error {
	total := 0
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("%w: %s: negative weight %d", ErrConfiguration, name, w)
		}
		total += w
	}
	if total == 0 {
		return fmt.Errorf("%w: %s: total weight is zero", ErrConfiguration, name)
	}
	return nil
}

// next returns the continuation weights for the last two letters of word.
func (t *Tables) next(word []rune) map[string]int {
	if len(word) < 2 {
		return nil
	}
	return t.Trigrams[string(word[len(word)-2:])]
}
