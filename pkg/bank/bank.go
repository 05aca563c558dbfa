// Package bank is a single-node ledger simulator: an account store, an
// explicit slot, and transaction simulation through the program cache.
package bank

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/minio/sha256-simd"
	"go.firedancer.io/loadersim/pkg/accounts"
	"go.firedancer.io/loadersim/pkg/cu"
	"go.firedancer.io/loadersim/pkg/features"
	"go.firedancer.io/loadersim/pkg/helloworld"
	"go.firedancer.io/loadersim/pkg/metrics"
	"go.firedancer.io/loadersim/pkg/rent"
	"go.firedancer.io/loadersim/pkg/sealevel"
	"k8s.io/klog/v2"
)

var (
	ErrSlotNotAdvancing = errors.New("ErrSlotNotAdvancing")
	ErrNotRentExempt    = errors.New("ErrNotRentExempt")
)

const (
	DefaultInitialSlot = 1

	// DefaultSlotsPerEpoch matches mainnet.
	DefaultSlotsPerEpoch = 432_000

	// slot durations in the clock sysvar
	defaultMsPerSlot = 400

	genesisPayerLamports = 1_000_000_000_000

	maxRecentBlockhashes = 300
)

type Config struct {
	Rent     rent.Policy
	Features *features.Features

	// InitialSlot is the slot the bank starts at; zero means
	// DefaultInitialSlot. A program deployed at slot 0 is therefore
	// executable from genesis.
	InitialSlot      uint64
	SlotsPerEpoch    uint64
	ComputeUnitLimit uint64

	// GenesisUnixTimestamp seeds the clock sysvar.
	GenesisUnixTimestamp int64

	// Executor runs loaded program images. Defaults to the hello world
	// program.
	Executor sealevel.Executor

	Metrics *metrics.Metrics
}

func (cfg *Config) setDefaults() {
	if cfg.Rent == nil {
		cfg.Rent = rent.Default()
	}
	if cfg.Features == nil {
		cfg.Features = features.NewFeaturesDefault()
	}
	if cfg.InitialSlot == 0 {
		cfg.InitialSlot = DefaultInitialSlot
	}
	if cfg.SlotsPerEpoch == 0 {
		cfg.SlotsPerEpoch = DefaultSlotsPerEpoch
	}
	if cfg.ComputeUnitLimit == 0 {
		cfg.ComputeUnitLimit = cu.DefaultComputeUnitLimit
	}
	if cfg.Executor == nil {
		cfg.Executor = helloworld.ProcessInstruction
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewMetrics(nil)
	}
}

type Bank struct {
	mu sync.Mutex

	cfg   Config
	accts accounts.Accounts
	cache *sealevel.ProgramCache

	// keys written through this bank, for AccountsHash
	keys map[solana.PublicKey]struct{}

	slot              uint64
	payer             solana.PrivateKey
	recentBlockhashes []solana.Hash
}

// New creates a bank over store at cfg.InitialSlot with a funded payer and
// the rent and clock sysvars. A nil store gets an in-memory one.
func New(cfg Config, store accounts.Accounts) (*Bank, error) {
	cfg.setDefaults()
	if store == nil {
		store = accounts.NewMemAccounts()
	}

	payer, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generating payer: %w", err)
	}

	b := &Bank{
		cfg:   cfg,
		accts: store,
		cache: sealevel.NewProgramCache(cfg.Features),
		keys:  make(map[solana.PublicKey]struct{}),
		slot:  cfg.InitialSlot,
		payer: payer,
	}
	b.cache.Observer = func(_ solana.PublicKey, lookup sealevel.CacheLookup) {
		cfg.Metrics.CacheLookup(string(lookup))
	}

	err = b.genesis()
	if err != nil {
		return nil, err
	}

	for _, s := range cfg.Features.AllEnabled() {
		klog.V(2).Infof("%s", s)
	}
	klog.V(2).Infof("bank created at slot %d, payer %s", b.slot, payer.PublicKey())
	return b, nil
}

func (b *Bank) genesis() error {
	payerPubkey := b.payer.PublicKey()
	payerAcct := accounts.NewAccount(payerPubkey, genesisPayerLamports, nil, sealevel.SystemProgramAddr, false, 0)
	err := b.setAccount(payerPubkey, payerAcct)
	if err != nil {
		return err
	}

	if r, ok := b.cfg.Rent.(rent.Rent); ok {
		err = sealevel.WriteRentSysvar(b.accts, r)
		if err != nil {
			return err
		}
		b.keys[sealevel.SysvarRentAddr] = struct{}{}
	}

	err = b.writeClock()
	if err != nil {
		return err
	}

	hasher := sha256.New()
	hasher.Write([]byte("genesis"))
	hasher.Write(payerPubkey[:])
	b.pushBlockhash(solana.HashFromBytes(hasher.Sum(nil)))
	return nil
}

// slotSeconds is the wall time from genesis to slot. Whole thousands of slots
// are scaled first so the product cannot overflow.
func slotSeconds(slot uint64) int64 {
	return int64(slot/1000*defaultMsPerSlot + slot%1000*defaultMsPerSlot/1000)
}

func (b *Bank) writeClock() error {
	clock := &sealevel.SysvarClock{
		Slot:                b.slot,
		EpochStartTimestamp: b.cfg.GenesisUnixTimestamp,
		Epoch:               b.slot / b.cfg.SlotsPerEpoch,
		LeaderScheduleEpoch: b.slot/b.cfg.SlotsPerEpoch + 1,
		UnixTimestamp:       b.cfg.GenesisUnixTimestamp + slotSeconds(b.slot),
	}
	err := sealevel.WriteClockSysvar(b.accts, b.cfg.Rent, clock)
	if err != nil {
		return err
	}
	b.keys[sealevel.SysvarClockAddr] = struct{}{}
	return nil
}

func (b *Bank) pushBlockhash(hash solana.Hash) {
	b.recentBlockhashes = append(b.recentBlockhashes, hash)
	if len(b.recentBlockhashes) > maxRecentBlockhashes {
		b.recentBlockhashes = b.recentBlockhashes[1:]
	}
}

// SetAccount upserts the full state of key. The account is stored as given,
// except that its Key is set to key.
func (b *Bank) SetAccount(key solana.PublicKey, acct *accounts.Account) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.setAccount(key, acct)
}

func (b *Bank) setAccount(key solana.PublicKey, acct *accounts.Account) error {
	minBalance := b.cfg.Rent.MinimumBalance(uint64(len(acct.Data)))
	if acct.Lamports < minBalance {
		return fmt.Errorf("%w: account %s holds %d lamports, needs %d for %d bytes", ErrNotRentExempt, key, acct.Lamports, minBalance, len(acct.Data))
	}

	acct = acct.Clone()
	acct.Key = key

	err := b.accts.SetAccount(key, acct)
	if err != nil {
		return err
	}
	b.keys[key] = struct{}{}

	klog.V(2).Infof("set account %s (owner %s, executable %t, %d bytes) at slot %d", key, acct.Owner, acct.Executable, len(acct.Data), b.slot)
	return nil
}

func (b *Bank) GetAccount(key solana.PublicKey) (*accounts.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.accts.GetAccount(key)
}

func (b *Bank) Slot() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.slot
}

func (b *Bank) Payer() solana.PrivateKey {
	return b.payer
}

func (b *Bank) Rent() rent.Policy {
	return b.cfg.Rent
}

func (b *Bank) LastBlockhash() solana.Hash {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.recentBlockhashes[len(b.recentBlockhashes)-1]
}

func (b *Bank) isRecentBlockhash(hash solana.Hash) bool {
	for _, h := range b.recentBlockhashes {
		if h == hash {
			return true
		}
	}
	return false
}

// ProgramCache exposes the bank's cache for inspection.
func (b *Bank) ProgramCache() *sealevel.ProgramCache {
	return b.cache
}

// WarpToSlot moves the bank to slot, which must be strictly greater than the
// current slot. On error the bank is unchanged.
func (b *Bank) WarpToSlot(slot uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if slot <= b.slot {
		return fmt.Errorf("%w: current slot %d, requested %d", ErrSlotNotAdvancing, b.slot, slot)
	}

	prevSlot := b.slot
	b.slot = slot
	err := b.writeClock()
	if err != nil {
		b.slot = prevSlot
		return err
	}

	var slotBytes [8]byte
	binary.LittleEndian.PutUint64(slotBytes[:], slot)
	hasher := sha256.New()
	prev := b.recentBlockhashes[len(b.recentBlockhashes)-1]
	hasher.Write(prev[:])
	hasher.Write(slotBytes[:])
	b.pushBlockhash(solana.HashFromBytes(hasher.Sum(nil)))

	b.cfg.Metrics.SlotWarped(slot)
	klog.V(2).Infof("warped from slot %d to slot %d", prevSlot, slot)
	return nil
}
