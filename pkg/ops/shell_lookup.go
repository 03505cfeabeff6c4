package ops

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

var ErrNoDescriptor = errors.New("no descriptor found")

// ShellLookup finds descriptor source on disk. The search order is
// the literal path, then name.flea under each path entry.
type ShellLookup struct {
	common

	Path []string
}

func (s *ShellLookup) Find(name string) (string, []byte, error) {
	if filepath.Ext(name) == Extension {
		data, err := ioutil.ReadFile(name)
		if err != nil {
			return "", nil, err
		}

		base := filepath.Base(name)

		return base[:len(base)-len(Extension)], data, nil
	}

	possibles := []string{
		filepath.Join(".", name+Extension),
	}

	for _, dir := range s.Path {
		possibles = append(possibles,
			filepath.Join(dir, name+Extension),
			filepath.Join(dir, name, name+Extension),
		)
	}

	for _, path := range possibles {
		if _, err := os.Stat(path); err == nil {
			s.L().Debug("found descriptor", "name", name, "path", path)

			data, err := ioutil.ReadFile(path)
			if err != nil {
				return "", nil, err
			}

			return name, data, nil
		}
	}

	return "", nil, errors.Wrapf(ErrNoDescriptor, "name: %s", name)
}
