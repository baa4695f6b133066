/*
Copyright 2024-2025 the Unikorn Authors.
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"sync"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/onsi/gomega"
	"github.com/spf13/pflag"

	"github.com/defect-wtf/music-api-e2e/test/api"
)

var (
	errSweepFailed        = errors.New("some fixtures could not be deleted")
	errUnexpectedResponse = errors.New("unexpected response shape")
)

// assertions collects shape check failures so they are reported as errors
// rather than aborting the process.
type assertions struct {
	lock     sync.Mutex
	failures []string
}

func (a *assertions) fail(message string, _ ...int) {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.failures = append(a.failures, message)
}

func (a *assertions) gomega() gomega.Gomega {
	return gomega.NewGomega(a.fail)
}

func (a *assertions) err() error {
	a.lock.Lock()
	defer a.lock.Unlock()

	if len(a.failures) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %s", errUnexpectedResponse, strings.Join(a.failures, "; "))
}

type options struct {
	config     *api.TestConfig
	skipWakeUp bool
	sweep      []string
}

func (o *options) addFlags(f *pflag.FlagSet) {
	o.config.AddFlags(f)

	f.BoolVar(&o.skipWakeUp, "skip-wake-up", false, "Skip the wake-up and health probe.")
	f.StringSliceVar(&o.sweep, "sweep", nil, "Resource kinds to sweep for leaked fixtures, e.g. artists,users.")
}

// kinds returns the requested sweep kinds in teardown order.
func (o *options) kinds() ([]api.Kind, error) {
	requested := make([]api.Kind, 0, len(o.sweep))

	for _, name := range o.sweep {
		kind, err := api.ParseKind(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}

		requested = append(requested, kind)
	}

	var kinds []api.Kind

	for _, kind := range api.TeardownOrder {
		if slices.Contains(requested, kind) {
			kinds = append(kinds, kind)
		}
	}

	return kinds, nil
}

func probe(ctx context.Context, client *api.APIClient) error {
	report, err := client.WakeUp(ctx)

	t := newTable()
	t.SetTitle("Backend")
	t.AppendHeader(table.Row{"Check", "Result"})
	t.AppendRow(table.Row{"Root status", report.RootStatus})
	t.AppendRow(table.Row{"Root latency", report.RootDuration})
	t.AppendRow(table.Row{"Healthchecks", report.Attempts})

	if report.Health != nil {
		t.AppendRow(table.Row{"Database", report.Health.DatabaseConnection})
	}

	if report.User != nil {
		t.AppendRow(table.Row{"Authenticated as", report.User.Username})
	}

	status := text.FgGreen.Sprint("Ready")
	if err != nil {
		status = text.FgRed.Sprint("Not ready")
	}

	t.AppendFooter(table.Row{"Status", status})
	t.Render()

	return err
}

func sweep(ctx context.Context, client *api.APIClient, kinds []api.Kind, prefix string) error {
	cleaner := api.NewCleaner(client)

	t := newTable()
	t.SetTitle(fmt.Sprintf("Fixtures with prefix %q", prefix))
	t.AppendHeader(table.Row{"Kind", "Deleted", "Failed"})

	var failed bool

	for _, kind := range kinds {
		report, err := cleaner.Sweep(ctx, kind, prefix)
		if err != nil {
			return fmt.Errorf("sweeping %s: %w", kind, err)
		}

		if len(report.Failed) > 0 {
			failed = true
		}

		t.AppendRow(table.Row{kind, len(report.Deleted), len(report.Failed)})
	}

	t.Render()

	if failed {
		return errSweepFailed
	}

	return nil
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)

	return t
}

func run(ctx context.Context, o *options) error {
	if err := o.config.Validate(); err != nil {
		return err
	}

	kinds, err := o.kinds()
	if err != nil {
		return err
	}

	checks := &assertions{}

	client := api.NewAPIClientWithConfig(o.config,
		api.WithLogger(api.NewLogger(os.Stderr, o.config.DebugLogging)),
		api.WithGomega(checks.gomega()),
	)

	if !o.skipWakeUp {
		if err := probe(ctx, client); err != nil {
			return err
		}

		if err := checks.err(); err != nil {
			return err
		}
	}

	if len(kinds) > 0 {
		if err := sweep(ctx, client, kinds, o.config.FixturePrefix); err != nil {
			return err
		}
	}

	return checks.err()
}

func main() {
	o := &options{
		config: api.ConfigFromEnvironment(),
	}

	o.addFlags(pflag.CommandLine)

	pflag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1) //nolint:gocritic
	}
}
