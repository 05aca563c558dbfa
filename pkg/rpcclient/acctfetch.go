package rpcclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.firedancer.io/loadersim/pkg/accounts"
	"go.firedancer.io/loadersim/pkg/sealevel"
)

// GetAccount fetches pubkey at confirmed commitment.
func (fetcher *RpcClient) GetAccount(ctx context.Context, pubkey solana.PublicKey) (*accounts.Account, error) {
	result, err := fetcher.client.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, accounts.ErrAccountNotFound
	} else if err != nil {
		return nil, err
	}
	if result.Value == nil {
		return nil, accounts.ErrAccountNotFound
	}

	value := result.Value
	var rentEpoch uint64
	if value.RentEpoch != nil && value.RentEpoch.IsUint64() {
		rentEpoch = value.RentEpoch.Uint64()
	}

	return accounts.NewAccount(pubkey, value.Lamports, value.Data.GetBinary(), value.Owner, value.Executable, rentEpoch), nil
}

// ProgramInfo describes an upgradeable program as deployed on a cluster.
type ProgramInfo struct {
	ProgramId          solana.PublicKey
	ProgramDataAddress solana.PublicKey
	DeploymentSlot     uint64
	UpgradeAuthority   *solana.PublicKey
	ProgramBytes       int
}

// ExecutableFromSlot is the first slot the deployed version executes in.
func (info *ProgramInfo) ExecutableFromSlot() uint64 {
	return info.DeploymentSlot + 1
}

// GetProgramInfo fetches programId and its ProgramData and decodes both.
func (fetcher *RpcClient) GetProgramInfo(ctx context.Context, programId solana.PublicKey) (*ProgramInfo, error) {
	programAcct, err := fetcher.GetAccount(ctx, programId)
	if err != nil {
		return nil, fmt.Errorf("fetching program %s: %w", programId, err)
	}

	kind, _ := sealevel.ClassifyAccount(programAcct)
	if kind != sealevel.AccountKindProgram {
		return nil, fmt.Errorf("%s is not an upgradeable program (%s)", programId, kind)
	}

	program, err := sealevel.DecodeProgram(programAcct.Data)
	if err != nil {
		return nil, err
	}

	programDataAcct, err := fetcher.GetAccount(ctx, program.ProgramDataAddress)
	if err != nil {
		return nil, fmt.Errorf("fetching program data %s: %w", program.ProgramDataAddress, err)
	}

	header, programBytes, err := sealevel.DecodeProgramData(programDataAcct.Data)
	if err != nil {
		return nil, err
	}

	return &ProgramInfo{
		ProgramId:          programId,
		ProgramDataAddress: program.ProgramDataAddress,
		DeploymentSlot:     header.Slot,
		UpgradeAuthority:   header.UpgradeAuthorityAddress,
		ProgramBytes:       len(programBytes),
	}, nil
}
