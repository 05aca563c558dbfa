package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.firedancer.io/loadersim/cmd/upgradesim/inspect"
	"go.firedancer.io/loadersim/cmd/upgradesim/layout"
	"go.firedancer.io/loadersim/cmd/upgradesim/run"
	"k8s.io/klog/v2"
)

var cmd = cobra.Command{
	Use:   "upgradesim",
	Short: "Upgradeable program visibility simulator",
}

func init() {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)

	cmd.AddCommand(
		&inspect.Cmd,
		&layout.Cmd,
		&run.Cmd,
	)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	cobra.CheckErr(cmd.ExecuteContext(ctx))
}
