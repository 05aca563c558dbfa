package sealevel

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPubkey(t *testing.T) solana.PublicKey {
	privKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return privKey.PublicKey()
}

func TestEncodeProgram_Layout(t *testing.T) {
	programDataAddr := newTestPubkey(t)

	data := EncodeProgram(programDataAddr)
	require.Len(t, data, ProgramRecordSize)
	assert.Equal(t, uint32(UpgradeableLoaderStateTypeProgram), binary.LittleEndian.Uint32(data[:4]))
	assert.Equal(t, programDataAddr[:], data[4:])

	program, err := DecodeProgram(data)
	require.NoError(t, err)
	assert.Equal(t, programDataAddr, program.ProgramDataAddress)
}

func TestDecodeProgram_Malformed(t *testing.T) {
	data := EncodeProgram(newTestPubkey(t))

	_, err := DecodeProgram(data[:35])
	assert.ErrorIs(t, err, ErrMalformedLayout)

	_, err = DecodeProgram(append(data, 0))
	assert.ErrorIs(t, err, ErrMalformedLayout)

	binary.LittleEndian.PutUint32(data, UpgradeableLoaderStateTypeBuffer)
	_, err = DecodeProgram(data)
	assert.ErrorIs(t, err, ErrMalformedLayout)

	binary.LittleEndian.PutUint32(data, 7)
	_, err = DecodeProgram(data)
	assert.ErrorIs(t, err, ErrMalformedLayout)
}

func TestEncodeProgramData_NoAuthority(t *testing.T) {
	data := EncodeProgramData(5, nil, []byte{0xaa, 0xbb})
	require.Len(t, data, ProgramDataHeaderSize+2)

	assert.Equal(t, uint32(UpgradeableLoaderStateTypeProgramData), binary.LittleEndian.Uint32(data[:4]))
	assert.Equal(t, uint64(5), binary.LittleEndian.Uint64(data[4:12]))
	assert.Equal(t, byte(0), data[12])
	assert.Equal(t, make([]byte, 32), data[13:45])
	assert.Equal(t, []byte{0xaa, 0xbb}, data[45:])

	header, image, err := DecodeProgramData(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), header.Slot)
	assert.Nil(t, header.UpgradeAuthorityAddress)
	assert.Equal(t, []byte{0xaa, 0xbb}, image)
}

func TestEncodeProgramData_WithAuthority(t *testing.T) {
	authority := newTestPubkey(t)

	data := EncodeProgramData(0, &authority, nil)
	require.Len(t, data, ProgramDataHeaderSize)
	assert.Equal(t, byte(1), data[12])
	assert.Equal(t, authority[:], data[13:45])

	header, image, err := DecodeProgramData(data)
	require.NoError(t, err)
	require.NotNil(t, header.UpgradeAuthorityAddress)
	assert.Equal(t, authority, *header.UpgradeAuthorityAddress)
	assert.Empty(t, image)
}

func TestDecodeProgramData_Malformed(t *testing.T) {
	data := EncodeProgramData(1, nil, []byte{1})

	_, _, err := DecodeProgramData(data[:44])
	assert.ErrorIs(t, err, ErrMalformedLayout)

	bad := append([]byte{}, data...)
	bad[12] = 2
	_, _, err = DecodeProgramData(bad)
	assert.ErrorIs(t, err, ErrMalformedLayout)

	bad = append([]byte{}, data...)
	binary.LittleEndian.PutUint32(bad, UpgradeableLoaderStateTypeProgram)
	_, _, err = DecodeProgramData(bad)
	assert.ErrorIs(t, err, ErrMalformedLayout)
}

func TestDecodeProgramData_ImageAliasesInput(t *testing.T) {
	data := EncodeProgramData(1, nil, []byte{1, 2, 3})
	_, image, err := DecodeProgramData(data)
	require.NoError(t, err)

	data[ProgramDataHeaderSize] = 9
	assert.Equal(t, byte(9), image[0])
}

func TestDecodeUpgradeableLoaderState_Buffer(t *testing.T) {
	authority := newTestPubkey(t)
	state := &UpgradeableLoaderState{
		Type:   UpgradeableLoaderStateTypeBuffer,
		Buffer: UpgradeableLoaderStateBuffer{AuthorityAddress: &authority},
	}
	data := marshalUpgradeableLoaderState(state)
	assert.Len(t, data, BufferHeaderSize)

	decoded, err := DecodeUpgradeableLoaderState(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(UpgradeableLoaderStateTypeBuffer), decoded.Type)
	require.NotNil(t, decoded.Buffer.AuthorityAddress)
	assert.Equal(t, authority, *decoded.Buffer.AuthorityAddress)
}

func TestDecodeUpgradeableLoaderState_Empty(t *testing.T) {
	_, err := DecodeUpgradeableLoaderState(nil)
	assert.ErrorIs(t, err, ErrMalformedLayout)
}
