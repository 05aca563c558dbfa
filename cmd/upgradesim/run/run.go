package run

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/segmentio/textio"
	"github.com/spf13/cobra"
	"go.firedancer.io/loadersim/pkg/cu"
	"go.firedancer.io/loadersim/pkg/metrics"
	"go.firedancer.io/loadersim/pkg/scenario"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:   "run [scenario.yaml...]",
	Short: "Run upgrade visibility scenarios",
	Long:  "Runs the given scenario files, or the built-in scenario set when none are given.",
	RunE:  run,
}

var (
	flagParallel     int
	flagMetrics      bool
	flagStoreDir     string
	flagComputeUnits uint64
	flagSteps        bool
)

func init() {
	flags := Cmd.Flags()
	flags.IntVarP(&flagParallel, "parallel", "j", 1, "Number of scenarios to run concurrently")
	flags.BoolVar(&flagMetrics, "metrics", false, "Print Prometheus metrics after the run")
	flags.StringVar(&flagStoreDir, "store-dir", "", "Keep scenario accounts in pebble databases under this directory")
	flags.Uint64Var(&flagComputeUnits, "compute-units", cu.DefaultComputeUnitLimit, "Compute unit limit per transaction")
	flags.BoolVar(&flagSteps, "steps", false, "Print every step with its transaction logs, not just failing scenarios")
}

func loadScenarios(paths []string) ([]*scenario.Scenario, error) {
	if len(paths) == 0 {
		return scenario.Embedded()
	}

	scenarios := make([]*scenario.Scenario, 0, len(paths))
	for _, path := range paths {
		sc, err := scenario.Load(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

func run(c *cobra.Command, args []string) error {
	scenarios, err := loadScenarios(args)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	runner := &scenario.Runner{
		ComputeUnitLimit: flagComputeUnits,
		Metrics:          metrics.NewMetrics(reg),
		StoreDir:         flagStoreDir,
	}

	klog.V(2).Infof("running %d scenarios, %d at a time", len(scenarios), flagParallel)
	reports, err := scenario.RunAll(c.Context(), runner, scenarios, flagParallel)
	if err != nil {
		return err
	}

	out := c.OutOrStdout()
	pass, fail := "PASS", "FAIL"
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		pass, fail = "\x1b[32mPASS\x1b[0m", "\x1b[31mFAIL\x1b[0m"
	}

	failed := 0
	for _, report := range reports {
		if report.Passed() {
			fmt.Fprintf(out, "%s %s\n", pass, report.Scenario)
		} else {
			fmt.Fprintf(out, "%s %s\n", fail, report.Scenario)
			failed++
		}

		if flagSteps || !report.Passed() {
			err = printSteps(out, report)
			if err != nil {
				return err
			}
		}
	}

	if flagMetrics {
		fmt.Fprintf(out, "\n# compute units per transaction (moving average): %.1f\n", runner.Metrics.UnitsMovingAverage())
		err = writeMetrics(out, reg)
		if err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(reports))
	}
	return nil
}

func printSteps(out io.Writer, report *scenario.Report) error {
	w := textio.NewPrefixWriter(out, "    ")
	for _, step := range report.Steps {
		status := "ok"
		if !step.Passed {
			status = "failed"
		}
		fmt.Fprintf(w, "[%d] slot %d: %s: %s\n", step.Index, step.Slot, step.Description, status)
		if step.Err != nil {
			fmt.Fprintf(w, "    %s\n", step.Err)
		}
		for _, line := range step.Logs {
			fmt.Fprintf(w, "    | %s\n", line)
		}
	}
	return w.Flush()
}

func writeMetrics(out io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, family := range families {
		_, err = expfmt.MetricFamilyToText(out, family)
		if err != nil {
			return err
		}
	}
	return nil
}
