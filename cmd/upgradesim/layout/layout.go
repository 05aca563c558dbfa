package layout

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.firedancer.io/loadersim/pkg/base58"
	"go.firedancer.io/loadersim/pkg/sealevel"
)

var Cmd = cobra.Command{
	Use:   "layout",
	Short: "Encode and decode upgradeable loader account payloads",
}

var programCmd = cobra.Command{
	Use:   "program",
	Short: "Encode a Program account payload",
	Args:  cobra.NoArgs,
	RunE:  runProgram,
}

var programDataCmd = cobra.Command{
	Use:   "program-data",
	Short: "Encode a ProgramData account payload",
	Args:  cobra.NoArgs,
	RunE:  runProgramData,
}

var decodeCmd = cobra.Command{
	Use:   "decode <hex>",
	Short: "Decode an upgradeable loader account payload",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecode,
}

var (
	flagDataAddress string
	flagSlot        uint64
	flagAuthority   string
	flagFile        string
	flagBytes       string
)

func init() {
	programCmd.Flags().StringVar(&flagDataAddress, "data-address", "", "Address of the ProgramData account (base58)")
	_ = programCmd.MarkFlagRequired("data-address")

	programDataCmd.Flags().Uint64Var(&flagSlot, "slot", 0, "Deployment slot")
	programDataCmd.Flags().StringVar(&flagAuthority, "authority", "", "Upgrade authority (base58), none if empty")
	programDataCmd.Flags().StringVar(&flagFile, "file", "", "Read program bytes from this file")
	programDataCmd.Flags().StringVar(&flagBytes, "bytes", "", "Program bytes as hex")
	programDataCmd.MarkFlagsMutuallyExclusive("file", "bytes")

	Cmd.AddCommand(
		&programCmd,
		&programDataCmd,
		&decodeCmd,
	)
}

func parsePubkey(s string) (solana.PublicKey, error) {
	decoded, err := base58.DecodeFromString(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return solana.PublicKey(decoded), nil
}

func runProgram(c *cobra.Command, _ []string) error {
	programDataAddr, err := parsePubkey(flagDataAddress)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.OutOrStdout(), hex.EncodeToString(sealevel.EncodeProgram(programDataAddr)))
	return nil
}

func runProgramData(c *cobra.Command, _ []string) error {
	var authority *solana.PublicKey
	if flagAuthority != "" {
		pk, err := parsePubkey(flagAuthority)
		if err != nil {
			return err
		}
		authority = &pk
	}

	var programBytes []byte
	var err error
	switch {
	case flagFile != "":
		programBytes, err = os.ReadFile(flagFile)
	case flagBytes != "":
		programBytes, err = hex.DecodeString(flagBytes)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(c.OutOrStdout(), hex.EncodeToString(sealevel.EncodeProgramData(flagSlot, authority, programBytes)))
	return nil
}

func runDecode(c *cobra.Command, args []string) error {
	data, err := hex.DecodeString(args[0])
	if err != nil {
		return err
	}
	out := c.OutOrStdout()

	state, err := sealevel.DecodeUpgradeableLoaderState(data)
	if err != nil {
		return err
	}

	switch state.Type {
	case sealevel.UpgradeableLoaderStateTypeUninitialized:
		fmt.Fprintln(out, "Uninitialized")

	case sealevel.UpgradeableLoaderStateTypeBuffer:
		fmt.Fprintln(out, "Buffer")
		fmt.Fprintf(out, "  authority: %s\n", optionalPubkey(state.Buffer.AuthorityAddress))
		if len(data) >= sealevel.BufferHeaderSize {
			fmt.Fprintf(out, "  bytes:     %d\n", len(data)-sealevel.BufferHeaderSize)
		}

	case sealevel.UpgradeableLoaderStateTypeProgram:
		program, err := sealevel.DecodeProgram(data)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Program")
		fmt.Fprintf(out, "  program data: %s\n", program.ProgramDataAddress)

	case sealevel.UpgradeableLoaderStateTypeProgramData:
		header, programBytes, err := sealevel.DecodeProgramData(data)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "ProgramData")
		fmt.Fprintf(out, "  slot:      %d\n", header.Slot)
		fmt.Fprintf(out, "  authority: %s\n", optionalPubkey(header.UpgradeAuthorityAddress))
		fmt.Fprintf(out, "  bytes:     %s\n", hex.EncodeToString(programBytes))
	}
	return nil
}

func optionalPubkey(pk *solana.PublicKey) string {
	if pk == nil {
		return "none"
	}
	return pk.String()
}
