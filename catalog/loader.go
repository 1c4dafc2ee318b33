package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/synacor/namesmith/name"
)

// ErrMalformedPool is returned when a data file does not match its generator's shape.
var ErrMalformedPool = errors.New("catalog: malformed pool")

// Source is where the manifest and data files are read from. *rice.Box satisfies it.
type Source interface {
	Bytes(name string) ([]byte, error)
}

// Loader resolves generators into pools.
type Loader struct {
	source Source
}

// NewLoader returns a Loader reading data files from source.
func NewLoader(source Source) *Loader {
	return &Loader{source: source}
}

// Load reads and validates the pool of a generator.
func (l *Loader) Load(ctx context.Context, g *Generator) (name.Pool, error) {
	if g == nil {
		return nil, ErrGeneratorNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := l.source.Bytes(g.DataFile())
	if err != nil {
		return nil, fmt.Errorf("catalog: could not read %s: %w", g.DataFile(), err)
	}

	p, err := Decode(g.Shape, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.Key(), err)
	}

	warnDuplicates(g, p)
	return p, nil
}

// Decode parses a data file into a pool of the given shape.
func Decode(shape Shape, b []byte) (name.Pool, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPool, err)
	}

	switch shape {
	case ShapeSingle:
		p := &name.SinglePool{}
		if err := decodeList(raw, "names", &p.Names); err != nil {
			return nil, err
		}
		return p, nil
	case ShapeComposite:
		p := &name.CompositePool{}
		for _, l := range []struct {
			key string
			dst *[]name.Record
		}{
			{"male", &p.Male},
			{"female", &p.Female},
			{"lastNames", &p.LastNames},
		} {
			if err := decodeList(raw, l.key, l.dst); err != nil {
				return nil, err
			}
		}
		return p, nil
	}

	return nil, fmt.Errorf("%w: unknown shape %q", ErrMalformedPool, shape)
}

func decodeList(raw map[string]json.RawMessage, key string, dst *[]name.Record) error {
	msg, found := raw[key]
	if !found {
		return fmt.Errorf("%w: missing %q", ErrMalformedPool, key)
	}

	var records []name.Record
	if err := json.Unmarshal(msg, &records); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrMalformedPool, key, err)
	}

	for i, r := range records {
		if r.Name == "" {
			return fmt.Errorf("%w: %q record #%d has no name", ErrMalformedPool, key, i+1)
		}
	}

	*dst = records
	return nil
}

func warnDuplicates(g *Generator, p name.Pool) {
	lists := map[string][]name.Record{}
	switch p := p.(type) {
	case *name.SinglePool:
		lists["names"] = p.Names
	case *name.CompositePool:
		lists["male"], lists["female"], lists["lastNames"] = p.Male, p.Female, p.LastNames
	}

	for list, records := range lists {
		if dups := name.Duplicates(records); len(dups) > 0 {
			log.WithFields(log.Fields{"generator": g.Key(), "list": list}).Warnf("pool has duplicate names: %v", dups)
		}
	}
}
