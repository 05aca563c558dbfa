// Package scenario drives a bank through scripted deploy, upgrade, warp and
// simulate steps and checks what the hello world program logs after each.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.firedancer.io/loadersim/pkg/features"
	"gopkg.in/yaml.v3"
)

var ErrInvalidScenario = errors.New("ErrInvalidScenario")

type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Features overrides gate activation by name.
	Features map[string]bool `yaml:"features"`

	Steps []Step `yaml:"steps"`
}

// Step is one scripted action. Exactly one field is set.
type Step struct {
	SetProgram        *SetProgram        `yaml:"set_program,omitempty"`
	SetProgramData    *SetProgramData    `yaml:"set_program_data,omitempty"`
	SetNonUpgradeable *SetNonUpgradeable `yaml:"set_non_upgradeable,omitempty"`
	SetAccount        *SetAccount        `yaml:"set_account,omitempty"`
	Warp              *Warp              `yaml:"warp,omitempty"`
	Simulate          *Simulate          `yaml:"simulate,omitempty"`
}

// SetProgram writes an upgradeable Program account at Program pointing at
// ProgramData. Without ProgramData it points at the derived address deploy
// tooling would use.
type SetProgram struct {
	Program     string `yaml:"program"`
	ProgramData string `yaml:"program_data,omitempty"`
}

// SetProgramData writes a ProgramData account at Address, or at the derived
// ProgramData address of Program.
type SetProgramData struct {
	Address   string `yaml:"address,omitempty"`
	Program   string `yaml:"program,omitempty"`
	Slot      uint64 `yaml:"slot"`
	Authority string `yaml:"authority,omitempty"`
	Bytes     []byte `yaml:"bytes"`
}

type SetNonUpgradeable struct {
	Program string `yaml:"program"`
	Bytes   []byte `yaml:"bytes"`
}

type SetAccount struct {
	Address    string `yaml:"address"`
	Owner      string `yaml:"owner"`
	Executable bool   `yaml:"executable"`
	Data       []byte `yaml:"data"`
}

type Warp struct {
	Slot        uint64 `yaml:"slot"`
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Simulate runs a single-instruction transaction invoking Program with
// Accounts in order. ExpectEntrypoint checks the hello world log line,
// ExpectLog any program log line, ExpectFailure a failed transaction.
type Simulate struct {
	Program          string   `yaml:"program"`
	Accounts         []string `yaml:"accounts"`
	ExpectEntrypoint *uint8   `yaml:"expect_entrypoint,omitempty"`
	ExpectLog        string   `yaml:"expect_log,omitempty"`
	ExpectFailure    string   `yaml:"expect_failure,omitempty"`
}

func (s *Step) Kind() string {
	switch {
	case s.SetProgram != nil:
		return "set_program"
	case s.SetProgramData != nil:
		return "set_program_data"
	case s.SetNonUpgradeable != nil:
		return "set_non_upgradeable"
	case s.SetAccount != nil:
		return "set_account"
	case s.Warp != nil:
		return "warp"
	case s.Simulate != nil:
		return "simulate"
	}
	return "unknown"
}

func (s *Step) count() int {
	n := 0
	for _, set := range []bool{
		s.SetProgram != nil,
		s.SetProgramData != nil,
		s.SetNonUpgradeable != nil,
		s.SetAccount != nil,
		s.Warp != nil,
		s.Simulate != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

func (s *Step) String() string {
	switch {
	case s.SetProgram != nil:
		programData := s.SetProgram.ProgramData
		if programData == "" {
			programData = "derived"
		}
		return fmt.Sprintf("set_program %s -> %s", s.SetProgram.Program, programData)
	case s.SetProgramData != nil:
		addr := s.SetProgramData.Address
		if addr == "" {
			addr = "derived(" + s.SetProgramData.Program + ")"
		}
		return fmt.Sprintf("set_program_data %s slot=%d bytes=%v", addr, s.SetProgramData.Slot, s.SetProgramData.Bytes)
	case s.SetNonUpgradeable != nil:
		return fmt.Sprintf("set_non_upgradeable %s bytes=%v", s.SetNonUpgradeable.Program, s.SetNonUpgradeable.Bytes)
	case s.SetAccount != nil:
		return fmt.Sprintf("set_account %s owner=%s executable=%t data=%v", s.SetAccount.Address, s.SetAccount.Owner, s.SetAccount.Executable, s.SetAccount.Data)
	case s.Warp != nil:
		return fmt.Sprintf("warp %d", s.Warp.Slot)
	case s.Simulate != nil:
		return fmt.Sprintf("simulate %s [%s]", s.Simulate.Program, strings.Join(s.Simulate.Accounts, ", "))
	}
	return "unknown"
}

func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidScenario)
	}
	for name := range sc.Features {
		if _, ok := features.Lookup(name); !ok {
			return fmt.Errorf("%w: %s: unknown feature %q", ErrInvalidScenario, sc.Name, name)
		}
	}
	if len(sc.Steps) == 0 {
		return fmt.Errorf("%w: %s: no steps", ErrInvalidScenario, sc.Name)
	}
	for idx := range sc.Steps {
		step := &sc.Steps[idx]
		if step.count() != 1 {
			return fmt.Errorf("%w: %s: step %d must set exactly one action", ErrInvalidScenario, sc.Name, idx)
		}
		if spd := step.SetProgramData; spd != nil && (spd.Address == "") == (spd.Program == "") {
			return fmt.Errorf("%w: %s: step %d: set_program_data needs exactly one of address and program", ErrInvalidScenario, sc.Name, idx)
		}
		if step.Simulate != nil {
			sim := step.Simulate
			if sim.Program == "" {
				return fmt.Errorf("%w: %s: step %d: simulate without program", ErrInvalidScenario, sc.Name, idx)
			}
			if sim.ExpectFailure != "" && (sim.ExpectEntrypoint != nil || sim.ExpectLog != "") {
				return fmt.Errorf("%w: %s: step %d: expect_failure excludes log expectations", ErrInvalidScenario, sc.Name, idx)
			}
			if sim.ExpectFailure != "" {
				if _, ok := failureKinds[sim.ExpectFailure]; !ok {
					return fmt.Errorf("%w: %s: step %d: unknown failure %q", ErrInvalidScenario, sc.Name, idx, sim.ExpectFailure)
				}
			}
		}
		if step.Warp != nil && step.Warp.ExpectError != "" {
			if _, ok := failureKinds[step.Warp.ExpectError]; !ok {
				return fmt.Errorf("%w: %s: step %d: unknown error %q", ErrInvalidScenario, sc.Name, idx, step.Warp.ExpectError)
			}
		}
	}
	return nil
}

// Parse decodes a single scenario document.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	sc := new(Scenario)
	err := dec.Decode(sc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	err = sc.Validate()
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}
