package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/chad-russell/flea/pkg/platform"
)

func TestShellLoad(t *testing.T) {
	t.Run("evaluates the builtin descriptor on every platform", func(t *testing.T) {
		for _, plat := range platform.Supported() {
			var sl ShellLoad

			shell, err := sl.LoadDefault(WithPlatform(plat))
			require.NoError(t, err, "platform %s", plat)

			assert.Equal(t, "flea", shell.Name())
			assert.NotEmpty(t, shell.Dependencies(), "platform %s", plat)
		}
	})

	t.Run("exposes the platform to the descriptor", func(t *testing.T) {
		descriptor := `
shell {
    name = "probe"
    dependencies = [platform.os, platform.arch]
}
`
		var sl ShellLoad

		plat := platform.Platform{OS: "linux", Arch: "arm64"}

		shell, err := sl.Load("probe", []byte(descriptor), WithPlatform(plat))
		require.NoError(t, err)

		assert.Equal(t, []string{"linux", "arm64"}, shell.Dependencies())
	})

	t.Run("descriptor framework list follows the os family", func(t *testing.T) {
		var sl ShellLoad

		darwin, err := sl.LoadDefault(WithPlatform(platform.Platform{OS: "darwin", Arch: "arm64"}))
		require.NoError(t, err)

		assert.NotEmpty(t, darwin.Frameworks())

		var sl2 ShellLoad

		linux, err := sl2.LoadDefault(WithPlatform(platform.Platform{OS: "linux", Arch: "arm64"}))
		require.NoError(t, err)

		assert.Empty(t, linux.Frameworks())
	})

	t.Run("re-evaluation produces the same signature", func(t *testing.T) {
		plat := platform.Platform{OS: "darwin", Arch: "amd64"}

		var a, b ShellLoad

		first, err := a.LoadDefault(WithPlatform(plat))
		require.NoError(t, err)

		second, err := b.LoadDefault(WithPlatform(plat))
		require.NoError(t, err)

		assert.Equal(t, first.Signature(), second.Signature())
		assert.Equal(t, first.ID(), second.ID())
	})

	t.Run("signature ignores the architecture", func(t *testing.T) {
		var a, b ShellLoad

		amd, err := a.LoadDefault(WithPlatform(platform.Platform{OS: "linux", Arch: "amd64"}))
		require.NoError(t, err)

		arm, err := b.LoadDefault(WithPlatform(platform.Platform{OS: "linux", Arch: "arm64"}))
		require.NoError(t, err)

		assert.Equal(t, amd.Signature(), arm.Signature())
	})

	t.Run("rejects unsupported platforms", func(t *testing.T) {
		var sl ShellLoad

		_, err := sl.LoadDefault(WithPlatform(platform.Platform{OS: "plan9", Arch: "amd64"}))
		require.Error(t, err)
	})

	t.Run("rejects a descriptor without a name", func(t *testing.T) {
		var sl ShellLoad

		_, err := sl.Load("bad", []byte(`
shell {
    dependencies = ["clang"]
}
`), WithPlatform(platform.Platform{OS: "linux", Arch: "amd64"}))
		require.Error(t, err)
	})

	t.Run("rejects a descriptor without dependencies", func(t *testing.T) {
		var sl ShellLoad

		_, err := sl.Load("bad", []byte(`
shell {
    name = "empty"
}
`), WithPlatform(platform.Platform{OS: "linux", Arch: "amd64"}))
		require.Error(t, err)
	})

	t.Run("surfaces parse errors as descriptor errors", func(t *testing.T) {
		var sl ShellLoad

		_, err := sl.Load("broken", []byte(`shell {`),
			WithPlatform(platform.Platform{OS: "linux", Arch: "amd64"}))
		require.Error(t, err)
	})
}
