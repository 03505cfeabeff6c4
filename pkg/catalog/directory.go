package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chad-russell/flea/pkg/data"
)

// Directory is a catalog loaded off disk: an index.json with entries,
// plus optional identity in .catalog-info.json or the git remote.
type Directory struct {
	catalogId string
	rootPath  string

	index   data.CatalogIndex
	catalog *Catalog
}

func NewDirectory(path string) (*Directory, error) {
	path = filepath.Clean(path)

	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !fi.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path)
	}

	d := &Directory{
		rootPath: path,
	}

	err = d.loadIndex()
	if err != nil {
		return nil, err
	}

	err = d.detectCatalogId()
	if err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Directory) loadIndex() error {
	f, err := os.Open(filepath.Join(d.rootPath, "index.json"))
	if err != nil {
		return err
	}

	defer f.Close()

	var idx data.CatalogIndex

	err = json.NewDecoder(f).Decode(&idx)
	if err != nil {
		return err
	}

	c := New()

	for _, e := range idx.Entries {
		c.Add(e)
	}

	d.index = idx
	d.catalog = c

	return nil
}

func (d *Directory) Catalog() *Catalog {
	return d.catalog
}

func (d *Directory) Index() *data.CatalogIndex {
	return &d.index
}

func (d *Directory) Id() string {
	return d.catalogId
}
