package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUint32ToBytes(t *testing.T) {
	t.Parallel()

	require.Equal(t, []byte{0, 0, 1, 2}, Uint32ToBytes(258))
	require.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, Uint32ToBytes(^uint32(0)))
	require.Equal(t, []byte{0, 0, 0, 0}, Uint32ToBytes(0))
}
