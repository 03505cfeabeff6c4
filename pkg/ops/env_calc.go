package ops

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/chad-russell/flea/pkg/catalog"
	"github.com/chad-russell/flea/pkg/data"
	"github.com/chad-russell/flea/pkg/platform"
)

// EnvCalc turns an evaluated descriptor into the concrete dependency
// set for its platform. Common dependencies are included
// unconditionally; framework entries are included only when the os
// family is darwin. Nothing here looks at the architecture.
type EnvCalc struct {
	common

	Catalog *catalog.Catalog
}

// DepSet is the resolved selection for one platform.
type DepSet struct {
	Platform platform.Platform

	Entries []data.CatalogEntry
}

func (d *DepSet) Names() []string {
	var out []string

	for _, e := range d.Entries {
		out = append(out, e.Name)
	}

	return out
}

func (d *DepSet) Contains(name string) bool {
	for _, e := range d.Entries {
		if e.Name == name {
			return true
		}
	}

	return false
}

// SortedNames is the canonical ordering used for signatures and
// manifests.
func (d *DepSet) SortedNames() []string {
	out := d.Names()
	sort.Strings(out)
	return out
}

func (e *EnvCalc) catalogOrBuiltin() *catalog.Catalog {
	if e.Catalog != nil {
		return e.Catalog
	}

	return catalog.Builtin()
}

// Calculate selects the dependency set for the shell's platform.
func (e *EnvCalc) Calculate(shell *ShellEnv) (*DepSet, error) {
	cat := e.catalogOrBuiltin()
	plat := shell.Platform()

	set := &DepSet{
		Platform: plat,
	}

	seen := map[string]struct{}{}

	add := func(name string) error {
		if _, ok := seen[name]; ok {
			return nil
		}

		ent, err := cat.Lookup(name)
		if err != nil {
			return errors.Wrapf(err, "shell '%s'", shell.Name())
		}

		if ent.OnlyOS != "" && ent.OnlyOS != plat.Family() {
			e.L().Debug("skipping os-gated entry", "name", name, "only-os", ent.OnlyOS, "platform", plat.String())
			return nil
		}

		seen[name] = struct{}{}
		set.Entries = append(set.Entries, ent)

		return nil
	}

	for _, name := range shell.Dependencies() {
		if err := add(name); err != nil {
			return nil, err
		}
	}

	// Frameworks only exist on darwin. The catalog gate above would
	// drop them anyway, but the selection must not even consult the
	// framework list elsewhere.
	if plat.IsDarwin() {
		for _, name := range shell.Frameworks() {
			if err := add(name); err != nil {
				return nil, err
			}
		}
	}

	if len(set.Entries) == 0 {
		return nil, errors.Errorf("shell '%s' selected no dependencies for %s", shell.Name(), plat)
	}

	return set, nil
}
