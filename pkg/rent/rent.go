// Package rent prices account storage. The bank only needs the rent-exempt
// minimum for a payload size, so the pricing rule is injected as a Policy.
package rent

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// AccountStorageOverhead is the number of bytes charged for every account on
// top of its payload.
const AccountStorageOverhead = 128

const SysvarRentStructLen = 17

const (
	DefaultLamportsPerByteYear = 3480
	DefaultExemptionThreshold  = 2.0
	DefaultBurnPercent         = 50
)

type Policy interface {
	MinimumBalance(dataLen uint64) uint64
}

type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  float64
	BurnPercent         byte
}

func Default() Rent {
	return Rent{
		LamportsPerByteYear: DefaultLamportsPerByteYear,
		ExemptionThreshold:  DefaultExemptionThreshold,
		BurnPercent:         DefaultBurnPercent,
	}
}

func (r Rent) MinimumBalance(dataLen uint64) uint64 {
	bytes := AccountStorageOverhead + dataLen
	return uint64(float64(bytes*r.LamportsPerByteYear) * r.ExemptionThreshold)
}

func (r Rent) IsExempt(lamports uint64, dataLen uint64) bool {
	return lamports >= r.MinimumBalance(dataLen)
}

// ExemptBalance is the balance test harnesses fund accounts with: the rent
// exempt minimum, but never zero, so the account is not treated as deleted.
func ExemptBalance(p Policy, dataLen uint64) uint64 {
	return max(p.MinimumBalance(dataLen), 1)
}

func (r *Rent) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	r.LamportsPerByteYear, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read LamportsPerByteYear when decoding Rent: %w", err)
	}

	r.ExemptionThreshold, err = decoder.ReadFloat64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read ExemptionThreshold when decoding Rent: %w", err)
	}

	r.BurnPercent, err = decoder.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to read BurnPercent when decoding Rent: %w", err)
	}

	return
}

func (r *Rent) MarshalWithEncoder(encoder *bin.Encoder) error {
	_ = encoder.WriteUint64(r.LamportsPerByteYear, bin.LE)
	_ = encoder.WriteFloat64(r.ExemptionThreshold, bin.LE)
	return encoder.WriteByte(r.BurnPercent)
}
