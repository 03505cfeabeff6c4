package sumfile

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumfile(t *testing.T) {
	t.Run("adds and looks up entries", func(t *testing.T) {
		var sf Sumfile

		sf.Add("ab", "b2", []byte{1, 2, 3})
		sf.Add("b", "b2", []byte{4, 5, 6})

		algo, data, ok := sf.Lookup("ab")
		require.True(t, ok)

		assert.Equal(t, "b2", algo)
		assert.Equal(t, []byte{1, 2, 3}, data)

		_, _, ok = sf.Lookup("c")
		require.False(t, ok)

		_, _, ok = sf.Lookup("a")
		require.False(t, ok)
	})

	t.Run("detects changed sums", func(t *testing.T) {
		var sf Sumfile

		sf.Add("a", "b2", []byte{1, 2, 3})

		assert.False(t, sf.Changed("a", "b2", []byte{1, 2, 3}))
		assert.True(t, sf.Changed("a", "b2", []byte{9, 9, 9}))
		assert.True(t, sf.Changed("a", "other", []byte{1, 2, 3}))

		assert.False(t, sf.Changed("unknown", "b2", []byte{1}))
	})

	t.Run("loads entries", func(t *testing.T) {
		var buf bytes.Buffer

		fmt.Fprintf(&buf, "b2:%s a\n", base58.Encode([]byte{1, 2, 3}))
		fmt.Fprintf(&buf, "b2:%s b\n", base58.Encode([]byte{4, 5, 6}))

		var sf Sumfile

		err := sf.Load(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)

		algo, data, ok := sf.Lookup("a")
		require.True(t, ok)

		assert.Equal(t, "b2", algo)
		assert.Equal(t, []byte{1, 2, 3}, data)

		_, data, ok = sf.Lookup("b")
		require.True(t, ok)

		assert.Equal(t, []byte{4, 5, 6}, data)
	})

	t.Run("saves entries sorted by ref", func(t *testing.T) {
		var sf Sumfile

		sf.Add("b", "b2", []byte{4, 5, 6})
		sf.Add("a", "b2", []byte{1, 2, 3})

		var buf bytes.Buffer

		err := sf.Save(&buf)
		require.NoError(t, err)

		expected := fmt.Sprintf("b2:%s a\nb2:%s b\n",
			base58.Encode([]byte{1, 2, 3}),
			base58.Encode([]byte{4, 5, 6}),
		)

		assert.Equal(t, expected, buf.String())
	})

	t.Run("round trips through a file", func(t *testing.T) {
		dir, err := ioutil.TempDir("", "flea")
		require.NoError(t, err)

		defer os.RemoveAll(dir)

		path := filepath.Join(dir, "catalog.sum")

		sf, err := LoadFile(path)
		require.NoError(t, err)

		sf.Add("github.com/chad-russell/flea-catalog", "b2", []byte{7, 8, 9})

		require.NoError(t, sf.SaveFile(path))

		again, err := LoadFile(path)
		require.NoError(t, err)

		_, data, ok := again.Lookup("github.com/chad-russell/flea-catalog")
		require.True(t, ok)

		assert.Equal(t, []byte{7, 8, 9}, data)
	})
}
