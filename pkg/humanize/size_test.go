package humanize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSize(t *testing.T) {
	v, unit := Size(512)
	assert.Equal(t, 512.0, v)
	assert.Equal(t, "B", unit)

	v, unit = Size(2048)
	assert.Equal(t, 2.0, v)
	assert.Equal(t, "KB", unit)

	v, unit = Size(3 * 1024 * 1024)
	assert.Equal(t, 3.0, v)
	assert.Equal(t, "MB", unit)

	v, unit = Size(5 * 1024 * 1024 * 1024)
	assert.Equal(t, 5.0, v)
	assert.Equal(t, "GB", unit)
}
