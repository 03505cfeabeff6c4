package ops

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/chad-russell/flea/pkg/catalog"
	"github.com/chad-russell/flea/pkg/config"
	"github.com/chad-russell/flea/pkg/data"
	"github.com/chad-russell/flea/pkg/fetch"
	"github.com/chad-russell/flea/pkg/sumfile"
)

// CatalogSync fetches every catalog on the config path into the local
// cache and refreshes the compressed index copies.
type CatalogSync struct {
	common
}

type SyncResult struct {
	Ref     string
	Path    string
	Id      string
	Entries int

	// the index differs from what the last sync recorded
	Changed bool

	// set when this ref failed; the rest of the path still syncs
	Err error
}

func (c *CatalogSync) Sync(ctx context.Context, cfg *config.Config) ([]*SyncResult, error) {
	f := fetch.Fetcher{Dir: cfg.CachePath()}
	f.SetLogger(c.L())

	ic := fetch.IndexCache{Dir: cfg.CachePath()}

	sumPath := filepath.Join(cfg.CachePath(), "catalog.sum")

	sums, err := sumfile.LoadFile(sumPath)
	if err != nil {
		return nil, err
	}

	lock := data.LockFile{CreatedAt: time.Now().UTC()}

	var results []*SyncResult

	for _, part := range cfg.NamedPath() {
		res := &SyncResult{Ref: part.Path}
		results = append(results, res)

		src, err := fetch.CalcSource(part.Name, part.Path)
		if err != nil {
			res.Err = err
			continue
		}

		path, err := f.Map(ctx, src)
		if err != nil {
			res.Err = err
			continue
		}

		lock.Sources = append(lock.Sources, &data.LockFileEntry{
			Name:             part.Name,
			Ref:              part.Path,
			RequestedVersion: src.Version,
			ResolvedVersion:  src.ResolvedVersion,
		})

		res.Path = path

		dir, err := catalog.NewDirectory(path)
		if err != nil {
			res.Err = err
			continue
		}

		res.Id = dir.Id()
		res.Entries = dir.Catalog().Len()

		raw, err := ioutil.ReadFile(filepath.Join(path, "index.json"))
		if err != nil {
			res.Err = err
			continue
		}

		sum := blake2b.Sum256(raw)

		res.Changed = sums.Changed(dir.Id(), "b2", sum[:])
		sums.Add(dir.Id(), "b2", sum[:])

		err = ic.Store(dir.Id(), dir.Index())
		if err != nil {
			res.Err = err
			continue
		}

		c.L().Debug("synced catalog", "ref", part.Path, "id", dir.Id(), "entries", res.Entries, "changed", res.Changed)
	}

	err = sums.SaveFile(sumPath)
	if err != nil {
		return nil, err
	}

	raw, err := json.MarshalIndent(&lock, "", "  ")
	if err != nil {
		return nil, err
	}

	err = ioutil.WriteFile(filepath.Join(cfg.CachePath(), "catalog.lock.json"), raw, 0644)
	if err != nil {
		return nil, err
	}

	return results, nil
}
