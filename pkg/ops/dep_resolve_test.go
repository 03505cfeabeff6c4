package ops

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/chad-russell/flea/pkg/config"
	"github.com/chad-russell/flea/pkg/data"
	"github.com/chad-russell/flea/pkg/platform"
)

func TestDepResolve(t *testing.T) {
	top, err := ioutil.TempDir("", "flea")
	require.NoError(t, err)

	defer os.RemoveAll(top)

	linux := platform.Platform{OS: "linux", Arch: "amd64"}
	darwin := platform.Platform{OS: "darwin", Arch: "arm64"}

	t.Run("prefers store entries over the host", func(t *testing.T) {
		store := filepath.Join(top, "store")
		require.NoError(t, os.MkdirAll(filepath.Join(store, "clang"), 0755))

		var dr DepResolve
		dr.Store = &config.Store{Paths: []string{store}, Default: store}

		set := &DepSet{
			Platform: linux,
			Entries: []data.CatalogEntry{
				{Name: "clang", Kind: data.KindTool},
			},
		}

		res, err := dr.Resolve(set)
		require.NoError(t, err)

		require.Equal(t, 1, len(res.Resolved))
		assert.Equal(t, filepath.Join(store, "clang"), res.Resolved[0].Path)
		assert.True(t, res.Complete())
	})

	t.Run("resolves tools from the host path", func(t *testing.T) {
		var dr DepResolve

		set := &DepSet{
			Platform: linux,
			Entries: []data.CatalogEntry{
				// sh is present on any host these tests run on
				{Name: "sh", Kind: data.KindTool},
			},
		}

		res, err := dr.Resolve(set)
		require.NoError(t, err)

		require.Equal(t, 1, len(res.Resolved))
		assert.NotEmpty(t, res.Resolved[0].Path)
	})

	t.Run("probes tool aliases", func(t *testing.T) {
		var dr DepResolve

		set := &DepSet{
			Platform: linux,
			Entries: []data.CatalogEntry{
				{Name: "no-such-binary-name", Kind: data.KindTool, Aliases: []string{"sh"}},
			},
		}

		res, err := dr.Resolve(set)
		require.NoError(t, err)

		require.Equal(t, 1, len(res.Resolved))
		assert.Equal(t, "no-such-binary-name", res.Resolved[0].Name)
	})

	t.Run("reports unavailable dependencies without failing", func(t *testing.T) {
		var dr DepResolve

		set := &DepSet{
			Platform: linux,
			Entries: []data.CatalogEntry{
				{Name: "definitely-not-installed", Kind: data.KindTool},
			},
		}

		res, err := dr.Resolve(set)
		require.NoError(t, err)

		assert.False(t, res.Complete())
		assert.Equal(t, []string{"definitely-not-installed"}, res.Missing)
	})

	t.Run("resolves libraries via pkgconfig files", func(t *testing.T) {
		pcDir := filepath.Join(top, "pc")
		require.NoError(t, os.MkdirAll(pcDir, 0755))

		pc := `prefix=/usr
Name: openssl
Description: Secure Sockets Layer and cryptography libraries and tools
Version: 1.1.1
Libs: -lssl -lcrypto
Cflags: -I${prefix}/include
`
		require.NoError(t, ioutil.WriteFile(filepath.Join(pcDir, "openssl.pc"), []byte(pc), 0644))

		var dr DepResolve
		dr.PkgconfigDirs = []string{pcDir}

		set := &DepSet{
			Platform: linux,
			Entries: []data.CatalogEntry{
				{Name: "openssl", Kind: data.KindLibrary, Pkgconfig: []string{"openssl", "libssl"}},
			},
		}

		res, err := dr.Resolve(set)
		require.NoError(t, err)

		require.Equal(t, 1, len(res.Resolved))
		assert.Equal(t, filepath.Join(pcDir, "openssl.pc"), res.Resolved[0].Path)

		cfg, ok := res.Configs["openssl"]
		require.True(t, ok)
		assert.Equal(t, "-lssl -lcrypto", cfg.Libs)
	})

	t.Run("resolves frameworks from the framework roots", func(t *testing.T) {
		fwRoot := filepath.Join(top, "Frameworks")
		require.NoError(t, os.MkdirAll(filepath.Join(fwRoot, "Security.framework"), 0755))

		var dr DepResolve
		dr.FrameworkRoots = []string{fwRoot}

		set := &DepSet{
			Platform: darwin,
			Entries: []data.CatalogEntry{
				{Name: "Security", Kind: data.KindFramework, OnlyOS: "darwin"},
				{Name: "AppKit", Kind: data.KindFramework, OnlyOS: "darwin"},
			},
		}

		res, err := dr.Resolve(set)
		require.NoError(t, err)

		require.Equal(t, 1, len(res.Resolved))
		assert.Equal(t, "Security", res.Resolved[0].Name)
		assert.Equal(t, []string{"AppKit"}, res.Missing)
	})
}

func TestBuildEnv(t *testing.T) {
	top, err := ioutil.TempDir("", "flea")
	require.NoError(t, err)

	defer os.RemoveAll(top)

	pcDir := filepath.Join(top, "pc")
	require.NoError(t, os.MkdirAll(pcDir, 0755))

	pc := `Name: iconv
Description: iconv
Version: 1.16
Libs: -liconv
Cflags: -I/usr/include
`
	require.NoError(t, ioutil.WriteFile(filepath.Join(pcDir, "iconv.pc"), []byte(pc), 0644))

	var dr DepResolve
	dr.PkgconfigDirs = []string{pcDir}

	fwRoot := filepath.Join(top, "Frameworks")
	require.NoError(t, os.MkdirAll(filepath.Join(fwRoot, "Security.framework"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(fwRoot, "AppKit.framework"), 0755))
	dr.FrameworkRoots = []string{fwRoot}

	set := &DepSet{
		Platform: platform.Platform{OS: "darwin", Arch: "arm64"},
		Entries: []data.CatalogEntry{
			{Name: "libiconv", Kind: data.KindLibrary, Pkgconfig: []string{"iconv"}},
			{Name: "Security", Kind: data.KindFramework, OnlyOS: "darwin"},
			{Name: "AppKit", Kind: data.KindFramework, OnlyOS: "darwin"},
		},
	}

	res, err := dr.Resolve(set)
	require.NoError(t, err)

	env := res.BuildEnv()

	assert.Equal(t, pcDir, env["PKG_CONFIG_PATH"])
	assert.Equal(t, "-I/usr/include", env["CFLAGS"])
	assert.Equal(t, "-liconv -framework AppKit -framework Security", env["LDFLAGS"])
}
