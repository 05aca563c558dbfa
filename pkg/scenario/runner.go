package scenario

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
	"go.firedancer.io/loadersim/pkg/accounts"
	"go.firedancer.io/loadersim/pkg/bank"
	"go.firedancer.io/loadersim/pkg/base58"
	"go.firedancer.io/loadersim/pkg/features"
	"go.firedancer.io/loadersim/pkg/helloworld"
	"go.firedancer.io/loadersim/pkg/metrics"
	"go.firedancer.io/loadersim/pkg/rent"
	"go.firedancer.io/loadersim/pkg/sealevel"
	"go.firedancer.io/loadersim/pkg/util"
	"k8s.io/klog/v2"
)

// failureKinds maps the names usable in expect_failure and expect_error to
// the errors they match.
var failureKinds = map[string]error{
	"any":                    nil,
	"AccountIndexOutOfRange": sealevel.ErrAccountIndexOutOfRange,
	"AccountDataTooSmall":    sealevel.InstrErrAccountDataTooSmall,
	"InvalidAccountData":     sealevel.InstrErrInvalidAccountData,
	"InvalidAccountOwner":    sealevel.InstrErrInvalidAccountOwner,
	"DelayedVisibility":      sealevel.ErrDelayedVisibility,
	"UnsupportedProgramId":   sealevel.InstrErrUnsupportedProgramId,
	"AccountNotExecutable":   sealevel.InstrErrAccountNotExecutable,
	"ProgramAccountNotFound": bank.TxErrProgramAccountNotFound,
	"SlotNotAdvancing":       bank.ErrSlotNotAdvancing,
}

func matchesFailure(kind string, err error) bool {
	if err == nil {
		return false
	}
	target := failureKinds[kind]
	return target == nil || errors.Is(err, target)
}

var ownerAliases = map[string]solana.PublicKey{
	"":                   sealevel.SystemProgramAddr,
	"system":             sealevel.SystemProgramAddr,
	"upgradeable_loader": sealevel.BpfLoaderUpgradeableAddr,
	"loader_v2":          sealevel.BpfLoaderAddr,
	"loader_deprecated":  sealevel.BpfLoaderDeprecatedAddr,
}

type StepResult struct {
	Index       int
	Kind        string
	Description string
	Slot        uint64
	Logs        []string
	Passed      bool
	Err         error
}

type Report struct {
	Scenario string
	Steps    []StepResult
}

// Passed reports whether every step ran and met its expectation.
func (r *Report) Passed() bool {
	return len(r.Steps) > 0 && lo.EveryBy(r.Steps, func(s StepResult) bool { return s.Passed })
}

// FirstFailure returns the failing step, if any.
func (r *Report) FirstFailure() (StepResult, bool) {
	return lo.Find(r.Steps, func(s StepResult) bool { return !s.Passed })
}

type Runner struct {
	Rent             rent.Policy
	ComputeUnitLimit uint64
	Metrics          *metrics.Metrics

	// StoreDir, if set, puts each scenario's accounts in a pebble database
	// under StoreDir/<scenario name>.
	StoreDir string
}

type run struct {
	bank      *bank.Bank
	addresses map[string]solana.PublicKey
}

// address resolves a scenario address: a base58 pubkey is used as is, any
// other name is bound to a fresh key on first use.
func (r *run) address(name string) (solana.PublicKey, error) {
	if name == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: empty address", ErrInvalidScenario)
	}
	if pk, ok := r.addresses[name]; ok {
		return pk, nil
	}

	decoded, err := base58.DecodeFromString(name)
	if err == nil {
		pk := solana.PublicKey(decoded)
		r.addresses[name] = pk
		return pk, nil
	}

	privKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return solana.PublicKey{}, err
	}
	pk := privKey.PublicKey()
	r.addresses[name] = pk
	return pk, nil
}

func (r *run) programDataAddress(program string) (solana.PublicKey, error) {
	programId, err := r.address(program)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return sealevel.ProgramDataAddress(programId)
}

func (r *run) owner(name string) (solana.PublicKey, error) {
	if pk, ok := ownerAliases[name]; ok {
		return pk, nil
	}
	decoded, err := base58.DecodeFromString(name)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: unknown owner %q", ErrInvalidScenario, name)
	}
	return solana.PublicKey(decoded), nil
}

func (runner *Runner) newBank(sc *Scenario) (*bank.Bank, func() error, error) {
	f := features.NewFeaturesDefault()
	for name, enabled := range sc.Features {
		gate, _ := features.Lookup(name)
		if enabled {
			f.EnableFeature(gate, 0)
		} else {
			f.DisableFeature(gate)
		}
	}

	cfg := bank.Config{
		Rent:             runner.Rent,
		Features:         f,
		ComputeUnitLimit: runner.ComputeUnitLimit,
		Metrics:          runner.Metrics,
	}

	if runner.StoreDir == "" {
		b, err := bank.New(cfg, nil)
		return b, func() error { return nil }, err
	}

	store, err := accounts.OpenPersistentAccountsDb(filepath.Join(runner.StoreDir, sc.Name))
	if err != nil {
		return nil, nil, err
	}
	b, err := bank.New(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return b, store.Close, nil
}

// Run executes sc against a fresh bank. Steps run strictly in order and the
// run stops at the first step that fails its expectation. The returned error
// is reserved for problems outside the scenario's expectations.
func (runner *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	b, closeStore, err := runner.newBank(sc)
	if err != nil {
		return nil, err
	}
	defer func() {
		util.VerboseHandleError(closeStore())
	}()

	r := &run{bank: b, addresses: make(map[string]solana.PublicKey)}
	report := &Report{Scenario: sc.Name}

	for idx := range sc.Steps {
		step := &sc.Steps[idx]
		res := StepResult{Index: idx, Kind: step.Kind(), Description: step.String()}

		err = r.runStep(ctx, step, &res)
		if err != nil {
			return report, fmt.Errorf("scenario %s step %d (%s): %w", sc.Name, idx, res.Kind, err)
		}
		res.Slot = b.Slot()

		report.Steps = append(report.Steps, res)
		if !res.Passed {
			klog.Infof("scenario %s: step %d (%s) failed: %s", sc.Name, idx, res.Description, res.Err)
			break
		}
		klog.V(2).Infof("scenario %s: step %d (%s) passed", sc.Name, idx, res.Description)
	}

	return report, nil
}

func (r *run) runStep(ctx context.Context, step *Step, res *StepResult) error {
	b := r.bank
	res.Passed = true

	switch {
	case step.SetProgram != nil:
		programId, err := r.address(step.SetProgram.Program)
		if err != nil {
			return err
		}
		var programDataAddr solana.PublicKey
		if step.SetProgram.ProgramData == "" {
			programDataAddr, err = r.programDataAddress(step.SetProgram.Program)
		} else {
			programDataAddr, err = r.address(step.SetProgram.ProgramData)
		}
		if err != nil {
			return err
		}
		return b.SetAccount(programId, sealevel.NewProgramAccount(b.Rent(), programId, programDataAddr))

	case step.SetProgramData != nil:
		spd := step.SetProgramData
		var addr solana.PublicKey
		var err error
		if spd.Address == "" {
			addr, err = r.programDataAddress(spd.Program)
		} else {
			addr, err = r.address(spd.Address)
		}
		if err != nil {
			return err
		}
		var authority *solana.PublicKey
		if spd.Authority != "" {
			pk, err := r.address(spd.Authority)
			if err != nil {
				return err
			}
			authority = &pk
		}
		return b.SetAccount(addr, sealevel.NewProgramDataAccount(b.Rent(), addr, spd.Slot, authority, spd.Bytes))

	case step.SetNonUpgradeable != nil:
		programId, err := r.address(step.SetNonUpgradeable.Program)
		if err != nil {
			return err
		}
		return b.SetAccount(programId, sealevel.NewNonUpgradeableProgramAccount(b.Rent(), programId, step.SetNonUpgradeable.Bytes))

	case step.SetAccount != nil:
		sa := step.SetAccount
		addr, err := r.address(sa.Address)
		if err != nil {
			return err
		}
		owner, err := r.owner(sa.Owner)
		if err != nil {
			return err
		}
		return b.SetAccount(addr, sealevel.NewDataAccount(b.Rent(), addr, owner, sa.Executable, sa.Data))

	case step.Warp != nil:
		err := b.WarpToSlot(step.Warp.Slot)
		if step.Warp.ExpectError != "" {
			res.Passed = matchesFailure(step.Warp.ExpectError, err)
			if !res.Passed {
				res.Err = fmt.Errorf("expected %s, got %v", step.Warp.ExpectError, err)
			}
			return nil
		}
		if err != nil {
			res.Passed = false
			res.Err = err
		}
		return nil

	case step.Simulate != nil:
		return r.simulate(ctx, step.Simulate, res)
	}

	return fmt.Errorf("%w: empty step", ErrInvalidScenario)
}

func (r *run) simulate(ctx context.Context, sim *Simulate, res *StepResult) error {
	programId, err := r.address(sim.Program)
	if err != nil {
		return err
	}

	keys := make([]solana.PublicKey, 0, len(sim.Accounts))
	for _, name := range sim.Accounts {
		key, err := r.address(name)
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}

	tx, err := r.bank.NewTransaction(programId, keys...)
	if err != nil {
		return err
	}

	sr, err := r.bank.Simulate(ctx, tx)
	if err != nil {
		return err
	}
	res.Logs = sr.Logs

	if sim.ExpectFailure != "" {
		if !matchesFailure(sim.ExpectFailure, sr.Err) {
			res.Passed = false
			res.Err = fmt.Errorf("expected failure %s, got %v", sim.ExpectFailure, sr.Err)
		}
		return nil
	}

	if sr.Err != nil {
		res.Passed = false
		res.Err = fmt.Errorf("transaction failed: %w", sr.Err)
		return nil
	}

	if sim.ExpectEntrypoint != nil {
		n, ok := entrypointValue(sr.Logs)
		if !ok || n != *sim.ExpectEntrypoint {
			res.Passed = false
			res.Err = fmt.Errorf("expected entrypoint %d, logs were %q", *sim.ExpectEntrypoint, sr.Logs)
			return nil
		}
	}

	if sim.ExpectLog != "" {
		programLogs := lo.FilterMap(sr.Logs, func(line string, _ int) (string, bool) {
			return strings.CutPrefix(line, sealevel.ProgramLogPrefix)
		})
		if !lo.Contains(programLogs, sim.ExpectLog) {
			res.Passed = false
			res.Err = fmt.Errorf("expected log %q, logs were %q", sim.ExpectLog, sr.Logs)
		}
	}
	return nil
}

// entrypointValue reads the hello world line, which is the second log line
// of a successful invocation.
func entrypointValue(logs []string) (byte, bool) {
	if len(logs) < 2 {
		return 0, false
	}
	return helloworld.ParseEntrypointLog(logs[1])
}
