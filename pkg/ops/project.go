package ops

import (
	"os"

	"github.com/chad-russell/flea/pkg/catalog"
	"github.com/chad-russell/flea/pkg/config"
	"github.com/chad-russell/flea/pkg/fetch"
	"github.com/chad-russell/flea/pkg/platform"
)

// ProjectLoad finds and evaluates the descriptor for the current
// project: shell.flea in the working directory when present, the
// built-in flea descriptor otherwise.
type ProjectLoad struct {
	common

	cfg *config.Config
}

type Project struct {
	common

	Shell       *ShellEnv
	Constraints map[string]string

	catalog *catalog.Catalog
	store   *config.Store
}

func (c *ProjectLoad) load(cfg *config.Config, name string, source []byte, plat platform.Platform) (*Project, error) {
	c.cfg = cfg

	constraints := config.SystemConstraints()

	var sl ShellLoad
	sl.common = c.common

	shell, err := sl.Load(name, source,
		WithPlatform(plat),
		WithConstraints(constraints),
	)
	if err != nil {
		return nil, err
	}

	proj := &Project{
		Shell:       shell,
		Constraints: constraints,
		store:       cfg.Store(),
	}

	proj.common = c.common

	proj.catalog, err = loadCatalogs(cfg)
	if err != nil {
		return nil, err
	}

	return proj, nil
}

// Load evaluates the project descriptor for the given platform.
func (c *ProjectLoad) Load(cfg *config.Config, plat platform.Platform) (*Project, error) {
	if _, err := os.Stat(DefaultDescriptor); err == nil {
		var lookup ShellLookup
		lookup.common = c.common

		name, source, err := lookup.Find("shell")
		if err != nil {
			return nil, err
		}

		return c.load(cfg, name, source, plat)
	}

	return c.load(cfg, "flea", []byte(FleaShell), plat)
}

// Single evaluates a named descriptor from the config search path.
func (c *ProjectLoad) Single(cfg *config.Config, name string, plat platform.Platform) (*Project, error) {
	var lookup ShellLookup
	lookup.common = c.common
	lookup.Path = cfg.LoadPath()

	resolved, source, err := lookup.Find(name)
	if err != nil {
		return nil, err
	}

	return c.load(cfg, resolved, source, plat)
}

// loadCatalogs merges any directory catalogs from the config path
// over the builtin universe. Remote refs map to their cache location;
// entries that aren't on disk yet (not synced) are skipped.
func loadCatalogs(cfg *config.Config) (*catalog.Catalog, error) {
	cat := catalog.Builtin()

	f := fetch.Fetcher{Dir: cfg.CachePath()}

	for _, part := range cfg.NamedPath() {
		src, err := fetch.CalcSource(part.Name, part.Path)
		if err != nil {
			continue
		}

		path, err := f.CachePath(src)
		if err != nil {
			continue
		}

		fi, err := os.Stat(path)
		if err != nil || !fi.IsDir() {
			continue
		}

		dir, err := catalog.NewDirectory(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return nil, err
		}

		cat.Merge(dir.Catalog())
	}

	return cat, nil
}

// CalculateSet selects the dependency set for the project's
// platform.
func (p *Project) CalculateSet() (*DepSet, error) {
	var ec EnvCalc
	ec.common = p.common
	ec.Catalog = p.catalog

	return ec.Calculate(p.Shell)
}

// Resolve selects and then resolves the dependency set against the
// host.
func (p *Project) Resolve() (*Resolution, error) {
	set, err := p.CalculateSet()
	if err != nil {
		return nil, err
	}

	var dr DepResolve
	dr.common = p.common
	dr.Store = p.store

	return dr.Resolve(set)
}
