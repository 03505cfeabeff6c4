package ops

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chad-russell/flea/pkg/config"
	"github.com/chad-russell/flea/pkg/data"
	"github.com/chad-russell/flea/pkg/fetch"
)

func writeIndex(t *testing.T, dir string, entries []data.CatalogEntry) {
	idx := data.CatalogIndex{Entries: entries}

	raw, err := json.Marshal(&idx)
	require.NoError(t, err)

	err = ioutil.WriteFile(filepath.Join(dir, "index.json"), raw, 0644)
	require.NoError(t, err)
}

func TestCatalogSync(t *testing.T) {
	setup := func(t *testing.T) (*config.Config, string) {
		dir, err := ioutil.TempDir("", "flea")
		require.NoError(t, err)

		t.Cleanup(func() { os.RemoveAll(dir) })

		catDir := filepath.Join(dir, "extras")
		require.NoError(t, os.MkdirAll(catDir, 0755))

		writeIndex(t, catDir, []data.CatalogEntry{
			{Name: "zlib", Kind: data.KindLibrary, Pkgconfig: []string{"zlib"}},
		})

		cfg := &config.Config{
			DataDir: dir,
			Path:    catDir,
		}

		require.NoError(t, os.MkdirAll(cfg.CachePath(), 0755))

		return cfg, catDir
	}

	t.Run("syncs a local catalog and caches its index", func(t *testing.T) {
		cfg, catDir := setup(t)

		var cs CatalogSync

		results, err := cs.Sync(context.TODO(), cfg)
		require.NoError(t, err)
		require.Len(t, results, 1)

		res := results[0]
		require.NoError(t, res.Err)

		assert.Equal(t, catDir, res.Path)
		assert.Equal(t, "extras", res.Id)
		assert.Equal(t, 1, res.Entries)
		assert.False(t, res.Changed)

		ic := fetch.IndexCache{Dir: cfg.CachePath()}

		idx, ok, err := ic.Retrieve("extras")
		require.NoError(t, err)
		require.True(t, ok)

		assert.Equal(t, "zlib", idx.Entries[0].Name)

		raw, err := ioutil.ReadFile(filepath.Join(cfg.CachePath(), "catalog.lock.json"))
		require.NoError(t, err)

		var lock data.LockFile

		require.NoError(t, json.Unmarshal(raw, &lock))
		require.Len(t, lock.Sources, 1)

		assert.Equal(t, catDir, lock.Sources[0].Ref)
	})

	t.Run("notices when a catalog's index changes", func(t *testing.T) {
		cfg, catDir := setup(t)

		var cs CatalogSync

		_, err := cs.Sync(context.TODO(), cfg)
		require.NoError(t, err)

		results, err := cs.Sync(context.TODO(), cfg)
		require.NoError(t, err)
		assert.False(t, results[0].Changed)

		writeIndex(t, catDir, []data.CatalogEntry{
			{Name: "zlib", Kind: data.KindLibrary, Pkgconfig: []string{"zlib"}},
			{Name: "sdl2", Kind: data.KindLibrary, Pkgconfig: []string{"sdl2"}},
		})

		results, err = cs.Sync(context.TODO(), cfg)
		require.NoError(t, err)

		require.NoError(t, results[0].Err)
		assert.True(t, results[0].Changed)
		assert.Equal(t, 2, results[0].Entries)
	})

	t.Run("keeps syncing past a broken ref", func(t *testing.T) {
		cfg, catDir := setup(t)

		cfg.Path = filepath.Join(catDir, "missing") + ":" + catDir

		var cs CatalogSync

		results, err := cs.Sync(context.TODO(), cfg)
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Error(t, results[0].Err)
		require.NoError(t, results[1].Err)
		assert.Equal(t, "extras", results[1].Id)
	})
}
