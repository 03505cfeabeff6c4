package config

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Run("splits the catalog path into named parts", func(t *testing.T) {
		cfg := &Config{
			Path: "main=github.com/chad-russell/flea-catalog:/opt/catalogs/extra",
		}

		parts := cfg.NamedPath()
		require.Len(t, parts, 2)

		assert.Equal(t, "main", parts[0].Name)
		assert.Equal(t, "github.com/chad-russell/flea-catalog", parts[0].Path)

		assert.Equal(t, "", parts[1].Name)
		assert.Equal(t, "/opt/catalogs/extra", parts[1].Path)

		load := cfg.LoadPath()
		assert.Equal(t, []string{"github.com/chad-russell/flea-catalog", "/opt/catalogs/extra"}, load)
	})

	t.Run("loads config from the env override", func(t *testing.T) {
		dir, err := ioutil.TempDir("", "flea")
		require.NoError(t, err)

		defer os.RemoveAll(dir)

		path := filepath.Join(dir, "config.json")

		err = ioutil.WriteFile(path, []byte(`{
			"data-dir": "`+dir+`",
			"catalog-path": "/opt/catalogs/main",
			"profiles-path": "`+filepath.Join(dir, "profiles")+`",
			"profile": "work"
		}`), 0644)
		require.NoError(t, err)

		defer os.Unsetenv("FLEA_CONFIG")
		os.Setenv("FLEA_CONFIG", path)

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, dir, cfg.DataDir)
		assert.Equal(t, "/opt/catalogs/main", cfg.Path)
		assert.Equal(t, "work", cfg.Profile)

		assert.DirExists(t, cfg.CachePath())
		assert.DirExists(t, cfg.StatePath())
		assert.DirExists(t, filepath.Join(cfg.ProfilesPath, "work"))
	})

	t.Run("generates and reloads a signer key", func(t *testing.T) {
		dir, err := ioutil.TempDir("", "flea")
		require.NoError(t, err)

		defer os.RemoveAll(dir)

		cfg := &Config{configDir: dir}

		id, err := cfg.SignerId()
		require.NoError(t, err)
		assert.Contains(t, id, "1:")

		again := &Config{configDir: dir}

		id2, err := again.SignerId()
		require.NoError(t, err)

		assert.Equal(t, id, id2)
		assert.Equal(t, cfg.Public(), again.Public())
	})
}

func TestStore(t *testing.T) {
	t.Run("locates entries across its roots", func(t *testing.T) {
		dir, err := ioutil.TempDir("", "flea")
		require.NoError(t, err)

		defer os.RemoveAll(dir)

		a := filepath.Join(dir, "a")
		b := filepath.Join(dir, "b")

		require.NoError(t, os.MkdirAll(filepath.Join(b, "openssl"), 0755))

		s := &Store{Paths: []string{a, b}, Default: a}

		path, err := s.Locate("openssl")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(b, "openssl"), path)

		_, err = s.Locate("missing")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNoEntry))
	})

	t.Run("prepend dedupes", func(t *testing.T) {
		s := &Store{Paths: []string{"/x", "/y"}}

		s.PrependPath("/y")

		assert.Equal(t, []string{"/y", "/x"}, s.Paths)
	})

	t.Run("pivot replaces the roots", func(t *testing.T) {
		s := &Store{Paths: []string{"/x"}, Default: "/x"}

		s.Pivot("/z")

		assert.Equal(t, []string{"/z"}, s.Paths)
		assert.Equal(t, "/z", s.ExpectedPath("tool"))
	})
}
