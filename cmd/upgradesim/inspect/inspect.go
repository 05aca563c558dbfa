package inspect

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.firedancer.io/loadersim/pkg/base58"
	"go.firedancer.io/loadersim/pkg/rpcclient"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:   "inspect <program-id>",
	Short: "Show the deployed version of an upgradeable program on a cluster",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

var flagURL string

func init() {
	Cmd.Flags().StringVar(&flagURL, "url", "https://api.mainnet-beta.solana.com", "JSON-RPC endpoint")
}

func run(c *cobra.Command, args []string) error {
	decoded, err := base58.DecodeFromString(args[0])
	if err != nil {
		return fmt.Errorf("invalid program id %q: %w", args[0], err)
	}
	programId := solana.PublicKey(decoded)

	klog.V(2).Infof("fetching %s from %s", programId, flagURL)
	info, err := rpcclient.NewRpcClient(flagURL).GetProgramInfo(c.Context(), programId)
	if err != nil {
		return err
	}

	authority := "none"
	if info.UpgradeAuthority != nil {
		authority = info.UpgradeAuthority.String()
	}

	out := c.OutOrStdout()
	fmt.Fprintf(out, "program:         %s\n", info.ProgramId)
	fmt.Fprintf(out, "program data:    %s\n", info.ProgramDataAddress)
	fmt.Fprintf(out, "deployed slot:   %d\n", info.DeploymentSlot)
	fmt.Fprintf(out, "executable from: %d\n", info.ExecutableFromSlot())
	fmt.Fprintf(out, "authority:       %s\n", authority)
	fmt.Fprintf(out, "bytes:           %d\n", info.ProgramBytes)
	return nil
}
