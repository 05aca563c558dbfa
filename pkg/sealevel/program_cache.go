package sealevel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/loadersim/pkg/accounts"
	"go.firedancer.io/loadersim/pkg/features"
	"k8s.io/klog/v2"
)

// LoadedProgram is an executable image as the runtime loaded it.
type LoadedProgram struct {
	ProgramId solana.PublicKey
	Loader    solana.PublicKey

	// ProgramDataAddress and DeploymentSlot are zero for non-upgradeable
	// programs.
	ProgramDataAddress solana.PublicKey
	DeploymentSlot     uint64

	// EffectiveSlot is the first slot this version may execute in.
	EffectiveSlot uint64

	Image       []byte
	Fingerprint uint64
}

func (p *LoadedProgram) ImageCopy() []byte {
	image := make([]byte, len(p.Image))
	copy(image, p.Image)
	return image
}

type CacheLookup string

const (
	// CacheHit: the account state matches the loaded version.
	CacheHit CacheLookup = "hit"
	// CacheMiss: first load of the program.
	CacheMiss CacheLookup = "miss"
	// CacheReload: a newer visible version replaced the loaded one.
	CacheReload CacheLookup = "reload"
	// CacheStale: a newer version exists but is not visible yet, the loaded
	// one keeps executing.
	CacheStale CacheLookup = "stale"
)

// ProgramCache holds the version of each program that currently executes.
// The ProgramData of an upgradeable program is looked up by address on every
// load, so re-pointing or re-slotting it between loads is always noticed.
type ProgramCache struct {
	mu       sync.Mutex
	entries  map[solana.PublicKey]*LoadedProgram
	features *features.Features

	// Observer, if set, is told the outcome of every successful lookup.
	Observer func(programId solana.PublicKey, lookup CacheLookup)
}

func NewProgramCache(f *features.Features) *ProgramCache {
	return &ProgramCache{
		entries:  make(map[solana.PublicKey]*LoadedProgram),
		features: f,
	}
}

func (pc *ProgramCache) observe(programId solana.PublicKey, lookup CacheLookup) {
	if pc.Observer != nil {
		pc.Observer(programId, lookup)
	}
}

// Get returns the currently loaded version of programId, if any.
func (pc *ProgramCache) Get(programId solana.PublicKey) (*LoadedProgram, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	program, ok := pc.entries[programId]
	return program, ok
}

func (pc *ProgramCache) Len() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return len(pc.entries)
}

// Load returns the version of programId that executes at slot.
func (pc *ProgramCache) Load(accts accounts.Accounts, programId solana.PublicKey, slot uint64) (*LoadedProgram, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	programAcct, err := accts.GetAccount(programId)
	if errors.Is(err, accounts.ErrAccountNotFound) {
		return nil, ErrProgramAccountNotFound
	} else if err != nil {
		return nil, err
	}

	if !programAcct.IsExecutable() {
		klog.Infof("program %s is not executable", programId)
		return nil, InstrErrAccountNotExecutable
	}

	var program *LoadedProgram
	var lookup CacheLookup

	switch {
	case IsNonUpgradeableLoader(programAcct.Owner):
		program, lookup, err = pc.loadNonUpgradeable(programAcct, slot)
	case programAcct.Owner == BpfLoaderUpgradeableAddr:
		program, lookup, err = pc.loadUpgradeable(accts, programAcct, slot)
	default:
		klog.Infof("program %s is owned by %s, which is not a loader", programId, programAcct.Owner)
		err = InstrErrUnsupportedProgramId
	}
	if err != nil {
		return nil, err
	}

	pc.observe(programId, lookup)
	return program, nil
}

// loadNonUpgradeable loads a program whose image lives in its own account.
// Such programs are immutable: once loaded, later writes to the account are
// not a deployment and are ignored.
func (pc *ProgramCache) loadNonUpgradeable(programAcct *accounts.Account, slot uint64) (*LoadedProgram, CacheLookup, error) {
	programId := programAcct.Key
	fingerprint := xxhash.Sum64(programAcct.Data)

	cached, ok := pc.entries[programId]
	if ok && cached.Loader == programAcct.Owner {
		if cached.Fingerprint != fingerprint {
			klog.V(2).Infof("ignoring in-place modification of non-upgradeable program %s", programId)
		}
		return cached, CacheHit, nil
	}

	if len(programAcct.Data) == 0 {
		return nil, "", InstrErrInvalidAccountData
	}

	program := &LoadedProgram{
		ProgramId:     programId,
		Loader:        programAcct.Owner,
		EffectiveSlot: slot,
		Image:         programAcct.Clone().Data,
		Fingerprint:   fingerprint,
	}

	lookup := CacheMiss
	if ok {
		lookup = CacheReload
	}
	pc.entries[programId] = program
	klog.V(2).Infof("loaded non-upgradeable program %s (%d bytes) at slot %d", programId, len(program.Image), slot)
	return program, lookup, nil
}

func (pc *ProgramCache) loadUpgradeable(accts accounts.Accounts, programAcct *accounts.Account, slot uint64) (*LoadedProgram, CacheLookup, error) {
	programId := programAcct.Key

	programState, err := DecodeProgram(programAcct.Data)
	if err != nil {
		klog.Infof("program %s: %s", programId, err)
		return nil, "", fmt.Errorf("%w: %w", InstrErrInvalidAccountData, err)
	}

	programDataAcct, err := accts.GetAccount(programState.ProgramDataAddress)
	if errors.Is(err, accounts.ErrAccountNotFound) {
		klog.Infof("program %s: program data account %s not found", programId, programState.ProgramDataAddress)
		return nil, "", InstrErrInvalidAccountData
	} else if err != nil {
		return nil, "", err
	}

	if programDataAcct.Owner != BpfLoaderUpgradeableAddr {
		klog.Infof("program %s: program data account %s is owned by %s", programId, programState.ProgramDataAddress, programDataAcct.Owner)
		return nil, "", InstrErrInvalidAccountOwner
	}

	header, image, err := DecodeProgramData(programDataAcct.Data)
	if err != nil {
		klog.Infof("program %s: %s", programId, err)
		return nil, "", fmt.Errorf("%w: %w", InstrErrInvalidAccountData, err)
	}

	fingerprint := xxhash.Sum64(image)

	cached, ok := pc.entries[programId]
	if ok && cached.Loader == BpfLoaderUpgradeableAddr &&
		cached.ProgramDataAddress == programState.ProgramDataAddress &&
		cached.DeploymentSlot == header.Slot &&
		cached.Fingerprint == fingerprint {
		return cached, CacheHit, nil
	}

	effectiveSlot := slot
	if pc.features.IsActive(features.DelayVisibilityOfProgramUpgrade) {
		effectiveSlot = max(header.Slot+1, slot)
		if header.Slot >= slot {
			if ok {
				klog.V(2).Infof("program %s: version deployed at slot %d is not visible until slot %d, executing version deployed at slot %d",
					programId, header.Slot, header.Slot+1, cached.DeploymentSlot)
				return cached, CacheStale, nil
			}
			klog.Infof("program %s: deployed at slot %d, not visible until slot %d", programId, header.Slot, header.Slot+1)
			return nil, "", ErrDelayedVisibility
		}
	}

	imageCopy := make([]byte, len(image))
	copy(imageCopy, image)

	program := &LoadedProgram{
		ProgramId:          programId,
		Loader:             BpfLoaderUpgradeableAddr,
		ProgramDataAddress: programState.ProgramDataAddress,
		DeploymentSlot:     header.Slot,
		EffectiveSlot:      effectiveSlot,
		Image:              imageCopy,
		Fingerprint:        fingerprint,
	}

	lookup := CacheMiss
	if ok {
		lookup = CacheReload
	}
	pc.entries[programId] = program
	klog.V(2).Infof("loaded upgradeable program %s from %s (deployed at slot %d, %d bytes) at slot %d",
		programId, programState.ProgramDataAddress, header.Slot, len(image), slot)
	return program, lookup, nil
}
