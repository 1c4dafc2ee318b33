package name

import "strings"

// List identifies which list of a pool a record came from.
type List string

// List constants
const (
	ListNames     List = "names"
	ListMale      List = "male"
	ListFemale    List = "female"
	ListLastNames List = "lastNames"
)

// Ref points at one record of a pool.
type Ref struct {
	List  List `json:"list"`
	Index int  `json:"index"`
}

// Entry is a generated display name and the records it was built from.
type Entry struct {
	Name string `json:"name"`
	Refs []Ref  `json:"refs"`
}

// Sample returns up to count names drawn without replacement from records, in
// random order. records is never modified.
func Sample(records []Record, count int) []string {
	return names(sample(records, ListNames, count))
}

// Compose pairs independently shuffled first and last names. The result holds
// min(count, len(first), len(last)) names.
func Compose(first, last []Record, count int) []string {
	return names(compose(first, ListMale, last, count))
}

// Generate draws count display names from the pool. A nil pool yields no names.
func Generate(p Pool, v Variant, count int) []string {
	return names(GenerateEntries(p, v, count))
}

// GenerateEntries is Generate, keeping the refs of every generated name so it
// can be described later with DescribeEntry.
func GenerateEntries(p Pool, v Variant, count int) []Entry {
	switch p := p.(type) {
	case *SinglePool:
		if p == nil {
			return []Entry{}
		}
		return sample(p.Names, ListNames, count)
	case *CompositePool:
		if p == nil {
			return []Entry{}
		}
		return compose(p.First(v), firstList(v), p.LastNames, count)
	}
	return []Entry{}
}

func sample(records []Record, list List, count int) []Entry {
	n := min(max(count, 0), len(records))
	entries := make([]Entry, 0, n)
	for _, i := range perm(len(records))[:n] {
		entries = append(entries, Entry{
			Name: records[i].Name,
			Refs: []Ref{{list, i}},
		})
	}
	return entries
}

func compose(first []Record, list List, last []Record, count int) []Entry {
	n := min(max(count, 0), len(first), len(last))
	fi, li := perm(len(first)), perm(len(last))

	entries := make([]Entry, 0, n)
	for k := 0; k < n; k++ {
		f, l := first[fi[k]], last[li[k]]
		entries = append(entries, Entry{
			Name: f.Name + " " + l.Name,
			Refs: []Ref{{list, fi[k]}, {ListLastNames, li[k]}},
		})
	}
	return entries
}

func firstList(v Variant) List {
	if v == VariantFemale {
		return ListFemale
	}
	return ListMale
}

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

// joinDescriptions merges descriptions with ". ", skipping empty ones.
func joinDescriptions(descs ...string) string {
	parts := make([]string, 0, len(descs))
	for _, d := range descs {
		if d != "" {
			parts = append(parts, d)
		}
	}
	return strings.Join(parts, ". ")
}
