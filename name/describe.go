package name

import "strings"

// Describe resolves a display name back to its description. Lookups match the
// first record with that name in pool order, so pools with duplicate names may
// describe a different record than the one sampled; DescribeEntry does not have
// that problem. Misses return NoDescription.
func Describe(p Pool, displayName string, v Variant) string {
	switch p := p.(type) {
	case *SinglePool:
		if p == nil {
			return NoDescription
		}
		if r, ok := find(p.Names, displayName); ok {
			return r.Description
		}
	case *CompositePool:
		if p == nil {
			return NoDescription
		}

		firstToken, lastToken, _ := strings.Cut(displayName, " ")
		first, firstFound := find(p.First(v), firstToken)
		last, lastFound := find(p.LastNames, lastToken)
		if !firstFound && !lastFound {
			return NoDescription
		}
		return joinDescriptions(first.Description, last.Description)
	}

	return NoDescription
}

// DescribeEntry resolves the description of an entry from its refs. Refs that
// do not point into the pool are ignored.
func DescribeEntry(p Pool, e Entry) string {
	var descs []string
	for _, ref := range e.Refs {
		if r, ok := lookup(p, ref); ok {
			descs = append(descs, r.Description)
		}
	}

	if descs == nil {
		return NoDescription
	}
	return joinDescriptions(descs...)
}

// lookup returns the record a ref points at.
func lookup(p Pool, ref Ref) (Record, bool) {
	var list []Record
	switch p := p.(type) {
	case *SinglePool:
		if p != nil && ref.List == ListNames {
			list = p.Names
		}
	case *CompositePool:
		if p == nil {
			break
		}
		switch ref.List {
		case ListMale:
			list = p.Male
		case ListFemale:
			list = p.Female
		case ListLastNames:
			list = p.LastNames
		}
	}

	if ref.Index < 0 || ref.Index >= len(list) {
		return Record{}, false
	}
	return list[ref.Index], true
}

func find(records []Record, n string) (Record, bool) {
	if n == "" {
		return Record{}, false
	}

	for _, r := range records {
		if r.Name == n {
			return r, true
		}
	}
	return Record{}, false
}
