package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatform(t *testing.T) {
	t.Run("declares two architectures for each os family", func(t *testing.T) {
		sup := Supported()

		require.Equal(t, 4, len(sup))

		byOS := map[string][]string{}

		for _, p := range sup {
			byOS[p.OS] = append(byOS[p.OS], p.Arch)
		}

		assert.Equal(t, []string{"amd64", "arm64"}, byOS["linux"])
		assert.Equal(t, []string{"amd64", "arm64"}, byOS["darwin"])
	})

	t.Run("parses os/arch pairs", func(t *testing.T) {
		p, err := Parse("linux/amd64")
		require.NoError(t, err)

		assert.Equal(t, "linux", p.OS)
		assert.Equal(t, "amd64", p.Arch)
	})

	t.Run("normalizes alternate os and arch spellings", func(t *testing.T) {
		p, err := Parse("macos/x86_64")
		require.NoError(t, err)

		assert.Equal(t, Platform{OS: "darwin", Arch: "amd64"}, p)

		p, err = Parse("osx/aarch64")
		require.NoError(t, err)

		assert.Equal(t, Platform{OS: "darwin", Arch: "arm64"}, p)
	})

	t.Run("rejects identifiers without an architecture", func(t *testing.T) {
		_, err := Parse("linux")
		require.Error(t, err)
	})

	t.Run("rejects unsupported pairs", func(t *testing.T) {
		_, err := Parse("windows/amd64")
		require.Error(t, err)

		_, err = Parse("linux/riscv64")
		require.Error(t, err)
	})

	t.Run("family ignores the architecture", func(t *testing.T) {
		a, err := Parse("darwin/amd64")
		require.NoError(t, err)

		b, err := Parse("darwin/arm64")
		require.NoError(t, err)

		assert.Equal(t, a.Family(), b.Family())
		assert.True(t, a.IsDarwin())
		assert.True(t, b.IsDarwin())
	})
}
