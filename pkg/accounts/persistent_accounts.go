package accounts

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/loadersim/pkg/base58"
)

// PersistentAccountsDb keeps the account set in a pebble database, keyed by
// the raw 32-byte address.
type PersistentAccountsDb struct {
	db *pebble.DB
}

func OpenPersistentAccountsDb(dir string) (*PersistentAccountsDb, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open accounts db at %s: %w", dir, err)
	}

	return &PersistentAccountsDb{db: db}, nil
}

func (m *PersistentAccountsDb) GetAccount(pubkey solana.PublicKey) (*Account, error) {
	acctBytes, closer, err := m.db.Get(pubkey[:])
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error whilst retrieving account %s: %w", base58.Encode(pubkey[:]), err)
	}
	defer closer.Close()

	decoder := bin.NewBinDecoder(acctBytes)
	acct := new(Account)

	err = acct.UnmarshalWithDecoder(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize account %s from accounts db: %w", base58.Encode(pubkey[:]), err)
	}
	acct.Key = pubkey

	return acct, nil
}

func (m *PersistentAccountsDb) SetAccount(pubkey solana.PublicKey, acct *Account) error {
	writer := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(writer)

	err := acct.MarshalWithEncoder(encoder)
	if err != nil {
		return fmt.Errorf("failed to serialize account for storage in accounts db: %w", err)
	}

	err = m.db.Set(pubkey[:], writer.Bytes(), pebble.Sync)
	if err != nil {
		return fmt.Errorf("error setting account for %s: %w", base58.Encode(pubkey[:]), err)
	}

	return nil
}

func (m *PersistentAccountsDb) Close() error {
	return m.db.Close()
}
