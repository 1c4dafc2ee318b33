// Package name samples display names from static pools of name records.
package name

import (
	"math/rand"
	"sync"
	"time"
)

// DefaultCount is the number of names a generator page shows per generation.
const DefaultCount = 10

// NoDescription is returned when a display name cannot be resolved to a record.
const NoDescription = "No description available"

// Variant selects the first-name list of a composite pool.
type Variant string

// Variant constants
const (
	VariantMale   Variant = "male"
	VariantFemale Variant = "female"
)

// Variants lists every variant a composite pool understands, in display order.
var Variants = []Variant{VariantMale, VariantFemale}

// Record is a single name and its flavor text.
type Record struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Pool is either a *SinglePool or a *CompositePool. A nil Pool is a pool that
// has not loaded (or failed to) and behaves as empty.
type Pool interface {
	// Size returns the most names a single generation can produce for the variant.
	Size(v Variant) int
	pool()
}

// SinglePool is a flat list of records; a display name is the record name.
type SinglePool struct {
	Names []Record `json:"names"`
}

// CompositePool builds display names from a first name and a last name.
type CompositePool struct {
	Male      []Record `json:"male"`
	Female    []Record `json:"female"`
	LastNames []Record `json:"lastNames"`
}

func (*SinglePool) pool()    {}
func (*CompositePool) pool() {}

// Size implements Pool.
func (p *SinglePool) Size(Variant) int {
	if p == nil {
		return 0
	}
	return len(p.Names)
}

// Size implements Pool.
func (p *CompositePool) Size(v Variant) int {
	if p == nil {
		return 0
	}
	return min(len(p.First(v)), len(p.LastNames))
}

// First returns the first-name list for the variant. An empty variant means
// VariantMale; an unknown one yields nil.
func (p *CompositePool) First(v Variant) []Record {
	if p == nil {
		return nil
	}

	switch v {
	case VariantMale, "":
		return p.Male
	case VariantFemale:
		return p.Female
	}
	return nil
}

// ParseVariant maps user input onto a Variant. Anything unrecognised maps to "".
func ParseVariant(s string) Variant {
	for _, v := range Variants {
		if string(v) == s {
			return v
		}
	}
	return ""
}

// no need for crypto/rand, so we'll seed with a timestamp so we can easily test
var (
	rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	mu  sync.Mutex
)

// Seed resets the shared random source. Only meant for tests and reproducible CLI runs.
func Seed(seed int64) {
	mu.Lock()
	defer mu.Unlock()
	rnd = rand.New(rand.NewSource(seed))
}

// perm returns a uniformly shuffled permutation of [0, n).
func perm(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	mu.Lock()
	// rand.Shuffle is a Fisher-Yates shuffle
	rnd.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	mu.Unlock()

	return idx
}

// Duplicates returns every name that occurs more than once in records, in the
// order they are first repeated.
func Duplicates(records []Record) []string {
	seen := make(map[string]int, len(records))
	var dups []string
	for _, r := range records {
		seen[r.Name]++
		if seen[r.Name] == 2 {
			dups = append(dups, r.Name)
		}
	}
	return dups
}
