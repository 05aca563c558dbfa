package accounts

import (
	"errors"
	"io"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var ErrAccountNotFound = errors.New("ErrAccountNotFound")

// Accounts is the account set a bank reads from and writes to. Implementations
// hand out copies, so mutating a returned account never alters stored state.
type Accounts interface {
	GetAccount(pubkey solana.PublicKey) (*Account, error)
	SetAccount(pubkey solana.PublicKey, acct *Account) error
}

type Account struct {
	Key        solana.PublicKey
	Lamports   uint64
	Data       []byte
	Owner      solana.PublicKey
	Executable bool
	RentEpoch  uint64
}

func NewAccount(key solana.PublicKey, lamports uint64, data []byte, owner solana.PublicKey, executable bool, rentEpoch uint64) *Account {
	return &Account{
		Key:        key,
		Lamports:   lamports,
		Data:       data,
		Owner:      owner,
		Executable: executable,
		RentEpoch:  rentEpoch,
	}
}

func (a *Account) Clone() *Account {
	c := *a
	if a.Data != nil {
		c.Data = make([]byte, len(a.Data))
		copy(c.Data, a.Data)
	}
	return &c
}

func (a *Account) IsExecutable() bool {
	return a.Executable
}

// UnmarshalWithDecoder decodes the stored account record. The key is not part
// of the record; stores fill it in from the lookup key.
func (a *Account) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	a.Lamports, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	var dataLen uint64
	dataLen, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	if dataLen > uint64(decoder.Remaining()) {
		return io.ErrUnexpectedEOF
	}
	// ReadNBytes aliases the decoder's buffer, which may be store-owned memory
	data, err := decoder.ReadNBytes(int(dataLen))
	if err != nil {
		return err
	}
	a.Data = make([]byte, len(data))
	copy(a.Data, data)
	if err = decoder.Decode(&a.Owner); err != nil {
		return err
	}
	a.Executable, err = decoder.ReadBool()
	if err != nil {
		return err
	}
	a.RentEpoch, err = decoder.ReadUint64(bin.LE)
	return
}

func (a *Account) MarshalWithEncoder(encoder *bin.Encoder) error {
	_ = encoder.WriteUint64(a.Lamports, bin.LE)
	_ = encoder.WriteUint64(uint64(len(a.Data)), bin.LE)
	_ = encoder.WriteBytes(a.Data, false)
	_ = encoder.WriteBytes(a.Owner[:], false)
	_ = encoder.WriteBool(a.Executable)
	return encoder.WriteUint64(a.RentEpoch, bin.LE)
}
