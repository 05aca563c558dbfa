package sealevel

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	UpgradeableLoaderStateTypeUninitialized = iota
	UpgradeableLoaderStateTypeBuffer
	UpgradeableLoaderStateTypeProgram
	UpgradeableLoaderStateTypeProgramData
)

// ProgramRecordSize is the exact size of a Program account payload:
// state tag (4) + programdata address (32).
const ProgramRecordSize = 36

// ProgramDataHeaderSize is the metadata prefix of a ProgramData payload:
// state tag (4) + slot (8) + option tag (1) + authority (32). The authority
// bytes are zero when no authority is set.
const ProgramDataHeaderSize = 45

// BufferHeaderSize is the metadata prefix of a Buffer payload.
const BufferHeaderSize = 37

type UpgradeableLoaderStateBuffer struct {
	AuthorityAddress *solana.PublicKey
}

type UpgradeableLoaderStateProgram struct {
	ProgramDataAddress solana.PublicKey
}

type UpgradeableLoaderStateProgramData struct {
	Slot                    uint64
	UpgradeAuthorityAddress *solana.PublicKey
}

type UpgradeableLoaderState struct {
	Type        uint32
	Buffer      UpgradeableLoaderStateBuffer
	Program     UpgradeableLoaderStateProgram
	ProgramData UpgradeableLoaderStateProgramData
}

func readOptionTag(decoder *bin.Decoder) (bool, error) {
	b, err := decoder.ReadByte()
	if err != nil {
		return false, err
	}

	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("%w: invalid option tag %d", ErrMalformedLayout, b)
}

func readOptionalPubkey(decoder *bin.Decoder) (*solana.PublicKey, error) {
	hasPubkey, err := readOptionTag(decoder)
	if err != nil || !hasPubkey {
		return nil, err
	}

	pkBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return nil, err
	}
	pk := solana.PublicKeyFromBytes(pkBytes)
	return pk.ToPointer(), nil
}

func writeOptionalPubkey(encoder *bin.Encoder, pk *solana.PublicKey) error {
	if pk == nil {
		return encoder.WriteBool(false)
	}

	err := encoder.WriteBool(true)
	if err != nil {
		return err
	}
	return encoder.WriteBytes((*pk)[:], false)
}

func (buffer *UpgradeableLoaderStateBuffer) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	buffer.AuthorityAddress, err = readOptionalPubkey(decoder)
	return
}

func (buffer *UpgradeableLoaderStateBuffer) MarshalWithEncoder(encoder *bin.Encoder) error {
	return writeOptionalPubkey(encoder, buffer.AuthorityAddress)
}

func (program *UpgradeableLoaderStateProgram) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	pkBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(program.ProgramDataAddress[:], pkBytes)

	return nil
}

func (program *UpgradeableLoaderStateProgram) MarshalWithEncoder(encoder *bin.Encoder) error {
	return encoder.WriteBytes(program.ProgramDataAddress[:], false)
}

func (programData *UpgradeableLoaderStateProgramData) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	programData.Slot, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	programData.UpgradeAuthorityAddress, err = readOptionalPubkey(decoder)
	return
}

func (programData *UpgradeableLoaderStateProgramData) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint64(programData.Slot, bin.LE)
	if err != nil {
		return err
	}

	return writeOptionalPubkey(encoder, programData.UpgradeAuthorityAddress)
}

func (state *UpgradeableLoaderState) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	state.Type, err = decoder.ReadUint32(bin.LE)
	if err != nil {
		return err
	}

	switch state.Type {
	case UpgradeableLoaderStateTypeUninitialized:
		{
			// nothing to deserialize
		}

	case UpgradeableLoaderStateTypeBuffer:
		{
			err = state.Buffer.UnmarshalWithDecoder(decoder)
		}

	case UpgradeableLoaderStateTypeProgram:
		{
			err = state.Program.UnmarshalWithDecoder(decoder)
		}

	case UpgradeableLoaderStateTypeProgramData:
		{
			err = state.ProgramData.UnmarshalWithDecoder(decoder)
		}

	default:
		{
			err = fmt.Errorf("%w: invalid upgradeable loader state tag %d", ErrMalformedLayout, state.Type)
		}
	}

	return err
}

func (state *UpgradeableLoaderState) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint32(state.Type, bin.LE)
	if err != nil {
		return err
	}

	switch state.Type {
	case UpgradeableLoaderStateTypeUninitialized:
		{
			// nothing to serialize
		}

	case UpgradeableLoaderStateTypeBuffer:
		{
			err = state.Buffer.MarshalWithEncoder(encoder)
		}

	case UpgradeableLoaderStateTypeProgram:
		{
			err = state.Program.MarshalWithEncoder(encoder)
		}

	case UpgradeableLoaderStateTypeProgramData:
		{
			err = state.ProgramData.MarshalWithEncoder(encoder)
		}

	default:
		{
			panic("attempting to serialize up invalid upgradeable loader state - programming error")
		}
	}
	return err
}

func unmarshalUpgradeableLoaderState(data []byte) (*UpgradeableLoaderState, error) {
	state := new(UpgradeableLoaderState)
	decoder := bin.NewBinDecoder(data)

	err := state.UnmarshalWithDecoder(decoder)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedLayout, err)
	}
	return state, nil
}

func marshalUpgradeableLoaderState(state *UpgradeableLoaderState) []byte {
	buffer := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buffer)

	err := state.MarshalWithEncoder(encoder)
	if err != nil {
		panic(fmt.Sprintf("failed to serialize upgradeable loader state: %s", err))
	}
	return buffer.Bytes()
}

// EncodeProgram produces the payload of a Program account pointing at
// programDataAddress.
func EncodeProgram(programDataAddress solana.PublicKey) []byte {
	state := &UpgradeableLoaderState{
		Type:    UpgradeableLoaderStateTypeProgram,
		Program: UpgradeableLoaderStateProgram{ProgramDataAddress: programDataAddress},
	}
	return marshalUpgradeableLoaderState(state)
}

func DecodeProgram(data []byte) (*UpgradeableLoaderStateProgram, error) {
	if len(data) != ProgramRecordSize {
		return nil, fmt.Errorf("%w: program record is %d bytes, expected %d", ErrMalformedLayout, len(data), ProgramRecordSize)
	}

	state, err := unmarshalUpgradeableLoaderState(data)
	if err != nil {
		return nil, err
	}
	if state.Type != UpgradeableLoaderStateTypeProgram {
		return nil, fmt.Errorf("%w: expected program state, got state tag %d", ErrMalformedLayout, state.Type)
	}
	return &state.Program, nil
}

// EncodeProgramData produces a ProgramData payload: the metadata header padded
// to ProgramDataHeaderSize, followed by programBytes unmodified.
func EncodeProgramData(slot uint64, upgradeAuthority *solana.PublicKey, programBytes []byte) []byte {
	state := &UpgradeableLoaderState{
		Type:        UpgradeableLoaderStateTypeProgramData,
		ProgramData: UpgradeableLoaderStateProgramData{Slot: slot, UpgradeAuthorityAddress: upgradeAuthority},
	}

	data := make([]byte, ProgramDataHeaderSize+len(programBytes))
	copy(data, marshalUpgradeableLoaderState(state))
	copy(data[ProgramDataHeaderSize:], programBytes)
	return data
}

// DecodeProgramData splits a ProgramData payload into its header and the
// program bytes. The returned slice aliases data.
func DecodeProgramData(data []byte) (*UpgradeableLoaderStateProgramData, []byte, error) {
	if len(data) < ProgramDataHeaderSize {
		return nil, nil, fmt.Errorf("%w: program data is %d bytes, shorter than its %d byte header", ErrMalformedLayout, len(data), ProgramDataHeaderSize)
	}

	state, err := unmarshalUpgradeableLoaderState(data[:ProgramDataHeaderSize])
	if err != nil {
		return nil, nil, err
	}
	if state.Type != UpgradeableLoaderStateTypeProgramData {
		return nil, nil, fmt.Errorf("%w: expected program data state, got state tag %d", ErrMalformedLayout, state.Type)
	}
	return &state.ProgramData, data[ProgramDataHeaderSize:], nil
}

// DecodeUpgradeableLoaderState decodes the state prefix of any account owned
// by the upgradeable loader.
func DecodeUpgradeableLoaderState(data []byte) (*UpgradeableLoaderState, error) {
	return unmarshalUpgradeableLoaderState(data)
}
