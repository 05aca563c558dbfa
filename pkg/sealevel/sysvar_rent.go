package sealevel

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/loadersim/pkg/accounts"
	"go.firedancer.io/loadersim/pkg/base58"
	"go.firedancer.io/loadersim/pkg/rent"
)

const SysvarRentAddrStr = "SysvarRent111111111111111111111111111111111"

var SysvarRentAddr = solana.PublicKey(base58.MustDecodeFromString(SysvarRentAddrStr))

func ReadRentSysvar(accts accounts.Accounts) (rent.Rent, error) {
	rentAcct, err := accts.GetAccount(SysvarRentAddr)
	if err != nil {
		return rent.Rent{}, fmt.Errorf("failed to read rent sysvar account: %w", err)
	}

	var r rent.Rent
	err = r.UnmarshalWithDecoder(bin.NewBinDecoder(rentAcct.Data))
	return r, err
}

func WriteRentSysvar(accts accounts.Accounts, r rent.Rent) error {
	data := new(bytes.Buffer)
	err := r.MarshalWithEncoder(bin.NewBinEncoder(data))
	if err != nil {
		return err
	}

	acct := accounts.NewAccount(SysvarRentAddr, r.MinimumBalance(rent.SysvarRentStructLen), data.Bytes(), SysvarOwnerAddr, false, 0)
	return accts.SetAccount(SysvarRentAddr, acct)
}
