package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synacor/namesmith/name"
)

var (
	cityGenerator  = &Generator{Category: "places", ID: "city", Title: "City", Shape: ShapeSingle}
	dwarfGenerator = &Generator{Category: "fantasy", ID: "dwarf", Title: "Dwarf", Shape: ShapeComposite}
)

func TestLoadSingle(t *testing.T) {
	l := NewLoader(mapSource{
		"places/city.json": `{"names": [{"name": "Avalon", "description": "An isle"}, {"name": "Brigadoon"}]}`,
	})

	p, err := l.Load(context.Background(), cityGenerator)
	require.NoError(t, err)
	assert.Equal(t, &name.SinglePool{Names: []name.Record{
		{Name: "Avalon", Description: "An isle"},
		{Name: "Brigadoon"},
	}}, p)
}

func TestLoadComposite(t *testing.T) {
	l := NewLoader(mapSource{
		"fantasy/dwarf.json": `{
			"male": [{"name": "Milo", "description": "A"}],
			"female": [{"name": "Ada", "description": "C"}],
			"lastNames": [{"name": "Stonefist", "description": "B"}, {"name": "Stonefist", "description": "D"}]
		}`,
	})

	p, err := l.Load(context.Background(), dwarfGenerator)
	require.NoError(t, err)

	cp, ok := p.(*name.CompositePool)
	require.True(t, ok)
	assert.Equal(t, []name.Record{{Name: "Milo", Description: "A"}}, cp.Male)
	assert.Equal(t, []name.Record{{Name: "Ada", Description: "C"}}, cp.Female)
	assert.Len(t, cp.LastNames, 2)
	assert.Equal(t, "A. B", name.Describe(p, "Milo Stonefist", name.VariantMale))
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		desc string
		g    *Generator
		data string
	}{
		{"not json", cityGenerator, `{"names": [`},
		{"top level array", cityGenerator, `[{"name": "Avalon"}]`},
		{"missing names", cityGenerator, `{"male": []}`},
		{"names not a list", cityGenerator, `{"names": "Avalon"}`},
		{"empty name", cityGenerator, `{"names": [{"name": ""}]}`},
		{"missing lastNames", dwarfGenerator, `{"male": [], "female": []}`},
		{"single shape for composite", dwarfGenerator, `{"names": [{"name": "Avalon"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			l := NewLoader(mapSource{tt.g.DataFile(): tt.data})
			p, err := l.Load(context.Background(), tt.g)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, ErrMalformedPool), "got %v", err)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	l := NewLoader(mapSource{})

	_, err := l.Load(context.Background(), nil)
	assert.Equal(t, ErrGeneratorNotFound, err)

	_, err = l.Load(context.Background(), cityGenerator)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedPool))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Load(ctx, cityGenerator)
	assert.Equal(t, context.Canceled, err)
}

func TestDecodeNamesFirstMissingKey(t *testing.T) {
	for i := 0; i < 20; i++ {
		_, err := Decode(ShapeComposite, []byte(`{"lastNames": []}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `missing "male"`)
	}
}

func TestDecodeUnknownShape(t *testing.T) {
	_, err := Decode(Shape("markov"), []byte(`{}`))
	assert.True(t, errors.Is(err, ErrMalformedPool))
}
