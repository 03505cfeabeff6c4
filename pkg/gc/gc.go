package gc

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chad-russell/flea/pkg/config"
	"github.com/chad-russell/flea/pkg/fetch"
	"github.com/chad-russell/flea/pkg/progress"
)

// Collector finds and removes state that nothing references anymore:
// shell manifests no profile links to and cached catalogs that fell
// off the config path.
type Collector struct {
	stateDir    string
	cacheDir    string
	profilesDir string
}

func NewCollector(cfg *config.Config) (*Collector, error) {
	return &Collector{
		stateDir:    filepath.Clean(cfg.StatePath()),
		cacheDir:    filepath.Clean(cfg.CachePath()),
		profilesDir: filepath.Clean(cfg.ProfilesPath),
	}, nil
}

// Mark returns the shell ids some profile still references, gathered
// from the .refs entries of every profile dir.
func (c *Collector) Mark() ([]string, error) {
	seen, err := c.markInUse()
	if err != nil {
		return nil, err
	}

	var total []string

	for k := range seen {
		total = append(total, k)
	}

	sort.Strings(total)

	return total, nil
}

func (c *Collector) markInUse() (map[string]struct{}, error) {
	seen := map[string]struct{}{}

	f, err := os.Open(c.profilesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return seen, nil
		}

		return nil, err
	}
	defer f.Close()

	for {
		names, err := f.Readdirnames(100)
		if err != nil {
			if err == io.EOF {
				break
			}

			return nil, err
		}

		for _, name := range names {
			path := filepath.Join(c.profilesDir, name)

			fi, err := os.Stat(path)
			if err != nil {
				return nil, err
			}

			if fi.IsDir() {
				rt, err := os.Readlink(path)
				if err == nil {
					path = rt
				}

				err = c.markProfile(path, seen)
				if err != nil {
					return nil, err
				}
			}
		}
	}

	return seen, nil
}

func (c *Collector) markProfile(dir string, seen map[string]struct{}) error {
	refs, err := os.Open(filepath.Join(dir, ".refs"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}

	defer refs.Close()

	names, err := refs.Readdirnames(-1)
	if err != nil {
		return err
	}

	for _, name := range names {
		seen[name] = struct{}{}
	}

	return nil
}

// SweepUnmarked returns the shell manifests in the state dir that no
// marked id covers.
func (c *Collector) SweepUnmarked(ctx context.Context, marked []string) ([]string, error) {
	inUse := map[string]struct{}{}

	for _, m := range marked {
		inUse[m] = struct{}{}
	}

	var notInUse []string

	f, err := os.Open(c.stateDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	defer f.Close()

	for {
		names, err := f.Readdirnames(100)
		if err != nil {
			if err == io.EOF {
				break
			}

			return nil, err
		}

		for _, name := range names {
			if !strings.HasSuffix(name, ".json") {
				continue
			}

			id := strings.TrimSuffix(name, ".json")

			if _, ok := inUse[id]; !ok {
				notInUse = append(notInUse, id)
			}
		}
	}

	sort.Strings(notInUse)

	return notInUse, nil
}

func (c *Collector) Sweep(ctx context.Context) ([]string, error) {
	marked, err := c.Mark()
	if err != nil {
		return nil, err
	}

	return c.SweepUnmarked(ctx, marked)
}

// MarkCatalogs maps every ref on the config path to its cache
// location. Anything else under the catalog cache is fair game.
func (c *Collector) MarkCatalogs(cfg *config.Config) ([]string, error) {
	f := fetch.Fetcher{Dir: c.cacheDir}

	var marked []string

	for _, part := range cfg.NamedPath() {
		src, err := fetch.CalcSource(part.Name, part.Path)
		if err != nil {
			continue
		}

		path, err := f.CachePath(src)
		if err != nil {
			continue
		}

		marked = append(marked, filepath.Clean(path))
	}

	sort.Strings(marked)

	return marked, nil
}

// SweepCatalogs walks the catalog cache and returns the checkouts no
// config path entry maps to. A checkout is any directory holding an
// index.json.
func (c *Collector) SweepCatalogs(ctx context.Context, marked []string) ([]string, error) {
	inUse := map[string]struct{}{}

	for _, m := range marked {
		inUse[m] = struct{}{}
	}

	root := filepath.Join(c.cacheDir, "catalog")

	var notInUse []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}

			return err
		}

		if !info.IsDir() {
			return nil
		}

		if _, err := os.Stat(filepath.Join(path, "index.json")); err != nil {
			return nil
		}

		if _, ok := inUse[filepath.Clean(path)]; !ok {
			notInUse = append(notInUse, path)
		}

		return filepath.SkipDir
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	sort.Strings(notInUse)

	return notInUse, nil
}

type SweepResult struct {
	Removed        []string
	BytesRecovered int64
	EntriesRemoved int64
}

// DiskUsage totals the size of the given paths.
func (c *Collector) DiskUsage(paths []string) (int64, error) {
	var total int64

	for _, p := range paths {
		err := filepath.Walk(p, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}

			if info.Mode().IsRegular() {
				total += info.Size()
			}

			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return total, err
		}
	}

	return total, nil
}

func (c *Collector) removeManifest(id string, sr *SweepResult) error {
	path := filepath.Join(c.stateDir, id+".json")

	fi, err := os.Stat(path)
	if err == nil {
		sr.EntriesRemoved++
		sr.BytesRecovered += fi.Size()
	}

	return os.Remove(path)
}

func (c *Collector) removeTree(root string, sr *SweepResult) error {
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.Mode().Perm()&0200 == 0 {
			err = os.Chmod(path, info.Mode().Perm()|0200)
			if err != nil {
				return err
			}
		}

		sr.EntriesRemoved++

		if info.Mode().IsRegular() {
			sr.BytesRecovered += info.Size()
		}

		return nil
	})

	return os.RemoveAll(root)
}

// SweepAndRemove drops unreferenced manifests and catalog checkouts.
func (c *Collector) SweepAndRemove(ctx context.Context, cfg *config.Config) (*SweepResult, error) {
	manifests, err := c.Sweep(ctx)
	if err != nil {
		return nil, err
	}

	markedCats, err := c.MarkCatalogs(cfg)
	if err != nil {
		return nil, err
	}

	catalogs, err := c.SweepCatalogs(ctx, markedCats)
	if err != nil {
		return nil, err
	}

	var sr SweepResult
	sr.Removed = append(sr.Removed, manifests...)
	sr.Removed = append(sr.Removed, catalogs...)

	pb := progress.Count(ctx, int64(len(manifests)+len(catalogs)), "Removing unreferenced state")
	defer pb.Close()

	for _, id := range manifests {
		err = c.removeManifest(id, &sr)
		if err != nil {
			return nil, err
		}

		pb.Tick()
	}

	for _, dir := range catalogs {
		err = c.removeTree(dir, &sr)
		if err != nil {
			return nil, err
		}

		pb.Tick()
	}

	return &sr, nil
}
