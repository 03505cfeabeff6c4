package catalog

import (
	"github.com/pkg/errors"
	"github.com/chad-russell/flea/pkg/data"
)

var ErrNotFound = errors.New("catalog entry not found")

// Catalog answers what a dependency name means: what kind of thing
// it is and which os families it exists on. It carries no versions,
// provisioning is the host's problem.
type Catalog struct {
	entries map[string]data.CatalogEntry
	order   []string
}

func New() *Catalog {
	return &Catalog{
		entries: make(map[string]data.CatalogEntry),
	}
}

// Builtin returns the catalog flea ships with: the toolchains,
// libraries and darwin frameworks the Flea GUI needs to build.
func Builtin() *Catalog {
	c := New()

	tools := []data.CatalogEntry{
		{Name: "clang", Kind: data.KindTool, Description: "C/C++ compiler", Aliases: []string{"cc"}},
		{Name: "lld", Kind: data.KindTool, Description: "LLVM linker", Aliases: []string{"ld.lld", "ld"}},
		{Name: "binutils", Kind: data.KindTool, Description: "binary utilities", Aliases: []string{"ar"}},
		{Name: "rustc", Kind: data.KindTool, Description: "Rust compiler"},
		{Name: "cargo", Kind: data.KindTool, Description: "Rust package and build driver"},
		{Name: "pkg-config", Kind: data.KindTool, Description: "build configuration helper"},
	}

	libs := []data.CatalogEntry{
		{Name: "openssl", Kind: data.KindLibrary, Description: "cryptographic library", Pkgconfig: []string{"openssl", "libssl"}},
		{Name: "libiconv", Kind: data.KindLibrary, Description: "string encoding conversion", Pkgconfig: []string{"iconv"}},
	}

	frameworks := []string{
		"Security",
		"Carbon",
		"SystemConfiguration",
		"AppKit",
		"CoreServices",
		"QuartzCore",
		"ApplicationServices",
	}

	for _, e := range tools {
		c.Add(e)
	}

	for _, e := range libs {
		c.Add(e)
	}

	for _, name := range frameworks {
		c.Add(data.CatalogEntry{
			Name:   name,
			Kind:   data.KindFramework,
			OnlyOS: "darwin",
		})
	}

	return c
}

func (c *Catalog) Add(e data.CatalogEntry) {
	if _, ok := c.entries[e.Name]; !ok {
		c.order = append(c.order, e.Name)
	}

	c.entries[e.Name] = e
}

func (c *Catalog) Lookup(name string) (data.CatalogEntry, error) {
	e, ok := c.entries[name]
	if !ok {
		return data.CatalogEntry{}, errors.Wrapf(ErrNotFound, "name: %s", name)
	}

	return e, nil
}

// Names returns entry names in the order they were added, builtin
// ordering first, then any merged catalogs.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Catalog) Len() int {
	return len(c.order)
}

// Merge lays another catalog over this one. Entries with the same
// name are replaced, order of first appearance is kept.
func (c *Catalog) Merge(other *Catalog) {
	for _, name := range other.order {
		c.Add(other.entries[name])
	}
}
