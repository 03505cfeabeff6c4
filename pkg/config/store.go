package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Store is the set of roots that locally provisioned dependencies
// live under. Resolution consults it before probing the host.
type Store struct {
	Paths []string

	Default string
}

var ErrNoEntry = errors.New("no store entry for dependency")

func (s *Store) Locate(name string) (string, error) {
	for _, p := range s.Paths {
		path := filepath.Join(p, name)

		_, err := os.Stat(path)
		if err == nil {
			return path, nil
		}
	}

	return "", errors.Wrapf(ErrNoEntry, "name: %s, paths: %#v", name, s.Paths)
}

func (s *Store) PrependPath(path string) {
	set := make(map[string]struct{})

	paths := []string{path}

	set[path] = struct{}{}

	for _, p := range s.Paths {
		if _, ok := set[p]; !ok {
			paths = append(paths, p)
		}
	}

	s.Paths = paths
}

func (s *Store) ExpectedPath(name string) string {
	return filepath.Join(s.Default, name)
}

func (s *Store) Pivot(path string) {
	s.Paths = []string{path}
	s.Default = path
}
