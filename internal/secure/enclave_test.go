package secure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferRoundTrip(t *testing.T) {
	buf := NewBuffer([]byte("s3cr3t-value"))

	data, err := buf.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cr3t-value"), data)

	// A second read works; the enclave is not consumed by opening.
	data, err = buf.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cr3t-value"), data)
}

func TestBufferDestroyIdempotent(t *testing.T) {
	buf := NewBuffer([]byte("gone"))
	buf.Destroy()
	buf.Destroy()

	data, err := buf.Bytes()
	require.NoError(t, err)
	assert.Empty(t, data)
}
