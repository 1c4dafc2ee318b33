// Package catalog provides the registry of generator pages and loads their pools.
package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the name of the catalog manifest within a Source.
const ManifestFile = "catalog.yaml"

// Shape is the layout of a generator's data file.
type Shape string

// Shape constants
const (
	ShapeSingle    Shape = "single"
	ShapeComposite Shape = "composite"
)

// ErrGeneratorNotFound is returned when a category/id pair is not in the catalog.
var ErrGeneratorNotFound = errors.New("catalog: generator not found")

// ErrInvalidManifest is returned when the catalog manifest cannot be used.
var ErrInvalidManifest = errors.New("catalog: invalid manifest")

var validSlugRx = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\z`)

// Generator describes a single generator page.
type Generator struct {
	Category string `yaml:"category" json:"category"`
	ID       string `yaml:"id" json:"id"`
	Title    string `yaml:"title" json:"title"`
	Heading  string `yaml:"heading" json:"heading"`
	Shape    Shape  `yaml:"shape" json:"shape"`
}

// Key returns the unique "category/id" key of the generator.
func (g *Generator) Key() string {
	return g.Category + "/" + g.ID
}

// Path returns the URL path of the generator page.
func (g *Generator) Path() string {
	return "/g/" + g.Key()
}

// DataFile returns the name of the generator's pool file within a Source.
func (g *Generator) DataFile() string {
	return g.Key() + ".json"
}

// Composite reports whether names are built from a first and a last name.
func (g *Generator) Composite() bool {
	return g.Shape == ShapeComposite
}

// Category groups the generators sharing a category slug.
type Category struct {
	Slug       string
	Title      string
	Generators []*Generator
}

// Catalog contains every known generator.
type Catalog struct {
	generators []*Generator
	byKey      map[string]*Generator
}

type manifest struct {
	Generators []*Generator `yaml:"generators"`
}

// Open reads the manifest from source.
func Open(source Source) (*Catalog, error) {
	b, err := source.Bytes(ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("catalog: could not read %s: %w", ManifestFile, err)
	}

	return Parse(b)
}

// Parse builds a catalog from a YAML manifest.
func Parse(b []byte) (*Catalog, error) {
	var m manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	return New(m.Generators...)
}

// New builds a catalog from generator definitions.
func New(generators ...*Generator) (*Catalog, error) {
	c := &Catalog{
		generators: make([]*Generator, 0, len(generators)),
		byKey:      make(map[string]*Generator, len(generators)),
	}

	for i, g := range generators {
		if err := validate(g); err != nil {
			return nil, fmt.Errorf("%w: generator #%d: %v", ErrInvalidManifest, i+1, err)
		}
		if _, found := c.byKey[g.Key()]; found {
			return nil, fmt.Errorf("%w: duplicate generator %s", ErrInvalidManifest, g.Key())
		}

		c.byKey[g.Key()] = g
		c.generators = append(c.generators, g)
	}

	sort.SliceStable(c.generators, func(i, j int) bool {
		a, b := c.generators[i], c.generators[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Title < b.Title
	})

	return c, nil
}

func validate(g *Generator) error {
	switch {
	case g == nil:
		return errors.New("empty definition")
	case !validSlugRx.MatchString(g.Category):
		return fmt.Errorf("invalid category %q", g.Category)
	case !validSlugRx.MatchString(g.ID):
		return fmt.Errorf("invalid id %q", g.ID)
	case strings.TrimSpace(g.Title) == "":
		return fmt.Errorf("%s has no title", g.Key())
	case g.Shape != ShapeSingle && g.Shape != ShapeComposite:
		return fmt.Errorf("%s has unknown shape %q", g.Key(), g.Shape)
	}
	return nil
}

// Find returns the generator for the category and id.
func (c *Catalog) Find(category, id string) (*Generator, error) {
	if g, found := c.byKey[category+"/"+id]; found {
		return g, nil
	}

	return nil, ErrGeneratorNotFound
}

// Generators returns every generator sorted by category, then title.
func (c *Catalog) Generators() []*Generator {
	return c.generators
}

// Len returns the number of generators.
func (c *Catalog) Len() int {
	return len(c.generators)
}

// Categories returns generators grouped by category, sorted by slug.
func (c *Catalog) Categories() []*Category {
	var cats []*Category
	for _, g := range c.generators {
		if len(cats) == 0 || cats[len(cats)-1].Slug != g.Category {
			cats = append(cats, &Category{
				Slug:  g.Category,
				Title: CategoryTitle(g.Category),
			})
		}

		cat := cats[len(cats)-1]
		cat.Generators = append(cat.Generators, g)
	}

	return cats
}

// CategoryTitle turns a category slug like "sci-fi" into "Sci Fi".
func CategoryTitle(slug string) string {
	// a Caser is stateful, so every call gets its own
	return cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
}
