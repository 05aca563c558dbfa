package rent

import (
	"bytes"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRent_MinimumBalance(t *testing.T) {
	r := Default()
	// (128 + 0) * 3480 * 2
	assert.Equal(t, uint64(890880), r.MinimumBalance(0))
	// (128 + 36) * 3480 * 2
	assert.Equal(t, uint64(1141440), r.MinimumBalance(36))
	assert.True(t, r.IsExempt(1141440, 36))
	assert.False(t, r.IsExempt(1141439, 36))
}

type freeRent struct{}

func (freeRent) MinimumBalance(uint64) uint64 { return 0 }

func TestExemptBalance_NeverZero(t *testing.T) {
	assert.Equal(t, uint64(1), ExemptBalance(freeRent{}, 1024))
	assert.Equal(t, Default().MinimumBalance(1), ExemptBalance(Default(), 1))
}

func TestRent_SysvarLayout(t *testing.T) {
	r := Default()
	buf := new(bytes.Buffer)
	require.NoError(t, r.MarshalWithEncoder(bin.NewBinEncoder(buf)))
	assert.Len(t, buf.Bytes(), SysvarRentStructLen)

	var decoded Rent
	require.NoError(t, decoded.UnmarshalWithDecoder(bin.NewBinDecoder(buf.Bytes())))
	assert.Equal(t, r, decoded)

	err := decoded.UnmarshalWithDecoder(bin.NewBinDecoder(buf.Bytes()[:8]))
	assert.Error(t, err)
}
