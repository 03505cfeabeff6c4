package fetch

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/mod/module"

	"github.com/chad-russell/flea/pkg/data"
)

// IndexCache keeps compressed copies of catalog indexes so repeated
// evaluations don't reread remote catalogs.
type IndexCache struct {
	Dir string
}

func (c *IndexCache) path(id string) (string, error) {
	esc, err := module.EscapePath(id)
	if err != nil {
		return "", err
	}

	return filepath.Join(c.Dir, "index", esc+".json.zst"), nil
}

func (c *IndexCache) Store(id string, idx *data.CatalogIndex) error {
	path, err := c.path(id)
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}

	o, err := os.Create(path)
	if err != nil {
		return err
	}

	defer o.Close()

	zo, err := zstd.NewWriter(o)
	if err != nil {
		return err
	}

	err = json.NewEncoder(zo).Encode(idx)
	if err != nil {
		zo.Close()
		return err
	}

	return zo.Close()
}

func (c *IndexCache) Retrieve(id string) (*data.CatalogIndex, bool, error) {
	path, err := c.path(id)
	if err != nil {
		return nil, false, err
	}

	i, err := os.Open(path)
	if err != nil {
		return nil, false, nil
	}

	defer i.Close()

	zi, err := zstd.NewReader(i)
	if err != nil {
		return nil, false, nil
	}

	defer zi.Close()

	var idx data.CatalogIndex

	err = json.NewDecoder(zi).Decode(&idx)
	if err != nil {
		return nil, false, nil
	}

	return &idx, true, nil
}
