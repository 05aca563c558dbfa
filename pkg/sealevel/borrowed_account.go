package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/loadersim/pkg/accounts"
)

// BorrowedAccount is a read-only view of an instruction account. Programs in
// this runtime never write back account state.
type BorrowedAccount struct {
	Account *accounts.Account
}

func (acct *BorrowedAccount) Key() solana.PublicKey {
	return acct.Account.Key
}

func (acct *BorrowedAccount) Data() []byte {
	return acct.Account.Data
}
