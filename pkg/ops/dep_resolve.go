package ops

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/chad-russell/flea/pkg/config"
	"github.com/chad-russell/flea/pkg/data"
	"github.com/chad-russell/flea/pkg/pkgconfig"
)

// DepResolve checks a computed DepSet against what the host can
// actually provide. A dependency that can't be located is recorded
// in Missing, never an error here: provisioning belongs to the
// external package system, flea only reports.
type DepResolve struct {
	common

	// Store roots are consulted before the host.
	Store *config.Store

	// Overrides the framework search root, tests point this at a
	// fixture dir.
	FrameworkRoots []string

	// Extra pkgconfig dirs searched after the store roots.
	PkgconfigDirs []string
}

var defaultFrameworkRoots = []string{
	"/System/Library/Frameworks",
	"/Library/Frameworks",
}

var defaultPkgconfigDirs = []string{
	"/usr/lib/pkgconfig",
	"/usr/share/pkgconfig",
	"/usr/local/lib/pkgconfig",
	"/opt/homebrew/lib/pkgconfig",
}

// Resolution is a resolved dependency set, split into what the host
// provides and what it doesn't.
type Resolution struct {
	Set *DepSet

	Resolved []*data.ShellDependency
	Missing  []string

	// Pkgconfig data for resolved libraries, keyed by entry name.
	Configs map[string]*pkgconfig.Config
}

func (r *Resolution) Complete() bool {
	return len(r.Missing) == 0
}

func (d *DepResolve) Resolve(set *DepSet) (*Resolution, error) {
	res := &Resolution{
		Set:     set,
		Configs: make(map[string]*pkgconfig.Config),
	}

	for _, ent := range set.Entries {
		dep, err := d.resolveEntry(ent, res)
		if err != nil {
			return nil, err
		}

		if dep == nil {
			d.L().Debug("dependency unavailable", "name", ent.Name, "kind", ent.Kind)
			res.Missing = append(res.Missing, ent.Name)
			continue
		}

		res.Resolved = append(res.Resolved, dep)
	}

	return res, nil
}

func (d *DepResolve) resolveEntry(ent data.CatalogEntry, res *Resolution) (*data.ShellDependency, error) {
	if d.Store != nil {
		if path, err := d.Store.Locate(ent.Name); err == nil {
			return &data.ShellDependency{
				Name: ent.Name,
				Kind: ent.Kind,
				Path: path,
			}, nil
		} else if !errors.Is(err, config.ErrNoEntry) {
			return nil, err
		}
	}

	switch ent.Kind {
	case data.KindTool:
		return d.resolveTool(ent), nil
	case data.KindLibrary:
		return d.resolveLibrary(ent, res)
	case data.KindFramework:
		return d.resolveFramework(ent), nil
	default:
		return nil, errors.Errorf("unknown dependency kind: %s", ent.Kind)
	}
}

func (d *DepResolve) resolveTool(ent data.CatalogEntry) *data.ShellDependency {
	names := append([]string{ent.Name}, ent.Aliases...)

	for _, name := range names {
		path, err := exec.LookPath(name)
		if err == nil {
			return &data.ShellDependency{
				Name: ent.Name,
				Kind: ent.Kind,
				Path: path,
			}
		}
	}

	return nil
}

func (d *DepResolve) resolveLibrary(ent data.CatalogEntry, res *Resolution) (*data.ShellDependency, error) {
	pcNames := ent.Pkgconfig
	if len(pcNames) == 0 {
		pcNames = []string{ent.Name}
	}

	var dirs []string

	if d.Store != nil {
		for _, root := range d.Store.Paths {
			dirs = append(dirs,
				filepath.Join(root, "lib/pkgconfig"),
				filepath.Join(root, "share/pkgconfig"),
			)
		}
	}

	dirs = append(dirs, d.PkgconfigDirs...)
	dirs = append(dirs, defaultPkgconfigDirs...)

	for _, dir := range dirs {
		for _, pc := range pcNames {
			path := filepath.Join(dir, pc+".pc")

			if _, err := os.Stat(path); err != nil {
				continue
			}

			cfg, err := pkgconfig.Load(path)
			if err != nil {
				return nil, errors.Wrapf(err, "loading %s", path)
			}

			res.Configs[ent.Name] = cfg

			return &data.ShellDependency{
				Name: ent.Name,
				Kind: ent.Kind,
				Path: path,
			}, nil
		}
	}

	return nil, nil
}

func (d *DepResolve) resolveFramework(ent data.CatalogEntry) *data.ShellDependency {
	roots := d.FrameworkRoots
	if roots == nil {
		roots = defaultFrameworkRoots
	}

	for _, root := range roots {
		path := filepath.Join(root, ent.Name+".framework")

		fi, err := os.Stat(path)
		if err == nil && fi.IsDir() {
			return &data.ShellDependency{
				Name: ent.Name,
				Kind: ent.Kind,
				Path: path,
			}
		}
	}

	return nil
}
