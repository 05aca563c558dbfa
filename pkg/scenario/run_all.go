package scenario

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"golang.org/x/sync/errgroup"
)

//go:embed scenarios/*.yaml
var embedded embed.FS

// Embedded returns the built-in scenario set, ordered by file name.
func Embedded() ([]*Scenario, error) {
	names, err := fs.Glob(embedded, "scenarios/*.yaml")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	for _, name := range names {
		data, err := embedded.ReadFile(name)
		if err != nil {
			return nil, err
		}
		sc, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Base(name), err)
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// RunAll runs independent scenarios with at most parallelism running at
// once. Reports are returned in the order of scenarios.
func RunAll(ctx context.Context, runner *Runner, scenarios []*Scenario, parallelism int) ([]*Report, error) {
	reports := make([]*Report, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}

	for idx, sc := range scenarios {
		g.Go(func() error {
			report, err := runner.Run(ctx, sc)
			if err != nil {
				return err
			}
			reports[idx] = report
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}
	return reports, nil
}
