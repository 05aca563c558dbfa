package accounts

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
	"github.com/tidwall/btree"
)

// MemAccounts is an in-memory account set ordered by key.
type MemAccounts struct {
	tree *btree.BTreeG[*Account]
}

func byKey(a, b *Account) bool {
	return bytes.Compare(a.Key[:], b.Key[:]) < 0
}

func NewMemAccounts() *MemAccounts {
	return &MemAccounts{
		tree: btree.NewBTreeG[*Account](byKey),
	}
}

func (m *MemAccounts) GetAccount(pubkey solana.PublicKey) (*Account, error) {
	acct, ok := m.tree.Get(&Account{Key: pubkey})
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acct.Clone(), nil
}

func (m *MemAccounts) SetAccount(pubkey solana.PublicKey, acct *Account) error {
	c := acct.Clone()
	c.Key = pubkey
	m.tree.Set(c)
	return nil
}

// Range calls fn for every account in key order until fn returns false.
func (m *MemAccounts) Range(fn func(acct *Account) bool) {
	m.tree.Scan(func(acct *Account) bool {
		return fn(acct.Clone())
	})
}

func (m *MemAccounts) Len() int {
	return m.tree.Len()
}
