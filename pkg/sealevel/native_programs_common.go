package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/loadersim/pkg/base58"
)

const BpfLoaderUpgradeableAddrStr = "BPFLoaderUpgradeab1e11111111111111111111111"

var BpfLoaderUpgradeableAddr = solana.PublicKey(base58.MustDecodeFromString(BpfLoaderUpgradeableAddrStr))

const BpfLoaderAddrStr = "BPFLoader2111111111111111111111111111111111"

var BpfLoaderAddr = solana.PublicKey(base58.MustDecodeFromString(BpfLoaderAddrStr))

const BpfLoaderDeprecatedAddrStr = "BPFLoader1111111111111111111111111111111111"

var BpfLoaderDeprecatedAddr = solana.PublicKey(base58.MustDecodeFromString(BpfLoaderDeprecatedAddrStr))

const SystemProgramAddrStr = "11111111111111111111111111111111"

var SystemProgramAddr = solana.PublicKey(base58.MustDecodeFromString(SystemProgramAddrStr))

const SysvarOwnerAddrStr = "Sysvar1111111111111111111111111111111111111"

var SysvarOwnerAddr = solana.PublicKey(base58.MustDecodeFromString(SysvarOwnerAddrStr))

// IsNonUpgradeableLoader reports whether owner is a loader whose programs hold
// their image directly in the program account.
func IsNonUpgradeableLoader(owner solana.PublicKey) bool {
	return owner == BpfLoaderAddr || owner == BpfLoaderDeprecatedAddr
}
