package profile

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile(t *testing.T) {
	top, err := ioutil.TempDir("", "profile")
	require.NoError(t, err)

	defer os.RemoveAll(top)

	t.Run("links resolved tools into bin", func(t *testing.T) {
		dir := filepath.Join(top, "p1")

		tool := filepath.Join(top, "clang")
		require.NoError(t, ioutil.WriteFile(tool, []byte("#!/bin/sh\n"), 0755))

		p := &Profile{path: dir}

		require.NoError(t, p.LinkBin("clang", tool))

		lt, err := os.Readlink(filepath.Join(dir, "bin", "clang"))
		require.NoError(t, err)
		assert.Equal(t, tool, lt)

		// relinking the same target is a no-op
		require.NoError(t, p.LinkBin("clang", tool))
	})

	t.Run("merges store roots and records refs", func(t *testing.T) {
		dir := filepath.Join(top, "p2")

		root := filepath.Join(top, "root")
		require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0755))
		require.NoError(t, ioutil.WriteFile(filepath.Join(root, "bin", "rustc"), []byte("x"), 0755))

		p := &Profile{path: dir}
		require.NoError(t, os.MkdirAll(dir, 0755))

		require.NoError(t, p.Link("abc-rustc", root))

		refs, err := p.Refs()
		require.NoError(t, err)
		assert.Equal(t, []string{"abc-rustc"}, refs)

		_, err = os.Stat(filepath.Join(dir, "bin", "rustc"))
		require.NoError(t, err)
	})

	t.Run("prepends bin to PATH in env updates", func(t *testing.T) {
		dir := filepath.Join(top, "p3")
		p := &Profile{path: dir}

		updates := p.UpdateEnv([]string{"PATH=/usr/bin", "HOME=/home/x"})

		require.Equal(t, 1, len(updates))
		assert.Equal(t, "PATH="+filepath.Join(dir, "bin")+":/usr/bin", updates[0])
	})

	t.Run("extra env flows into updates and the env map", func(t *testing.T) {
		dir := filepath.Join(top, "p4")
		p := &Profile{
			path:  dir,
			Extra: map[string]string{"LDFLAGS": "-framework AppKit"},
		}

		updates := p.UpdateEnv([]string{"PATH=/usr/bin"})
		assert.Contains(t, updates, "LDFLAGS=-framework AppKit")

		m := p.EnvMap([]string{"PATH=/usr/bin", "HOME=/home/x"})
		assert.Equal(t, "-framework AppKit", m["LDFLAGS"])
		assert.Equal(t, "/home/x", m["HOME"])
		assert.Equal(t, filepath.Join(dir, "bin")+string(filepath.ListSeparator)+"/usr/bin", m["PATH"])
	})
}
