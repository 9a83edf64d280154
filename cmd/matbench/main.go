// Package main provides the CLI entry point for matbench, a benchmark of
// row-column against row-row matrix products across execution backends.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/weiihann/matbench/backend"
	"github.com/weiihann/matbench/cluster"
	"github.com/weiihann/matbench/harness"
	"github.com/weiihann/matbench/kernel"
	"github.com/weiihann/matbench/log"
	"github.com/weiihann/matbench/matrix"
	"github.com/weiihann/matbench/report"
	"github.com/weiihann/matbench/workload"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	return 0
}

type options struct {
	seed     int64
	format   report.Format
	progress bool
	cooldown time.Duration
	stdout   io.Writer
	stderr   io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{stdout: stdout, stderr: stderr}
	var format string

	root := &cobra.Command{
		Use:   "matbench",
		Short: "Row-column versus row-row matrix product benchmark",
		Long: `Matbench multiplies square matrices of a chosen element type with the
row-column product (A x B) and the row-row product (A x transpose of B)
and reports how long each takes on several execution backends.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log.SetLogger(cmd.Flags())

			f, err := report.ParseFormat(format)
			if err != nil {
				return errors.Trace(err)
			}
			opts.format = f

			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.Int64Var(&opts.seed, "seed", 0,
		"Random seed for matrix contents (0 = use current time)")
	flags.StringVar(&format, "format", string(report.FormatText),
		"Output format: text, table, json")
	flags.BoolVar(&opts.progress, "progress", false,
		"Show round progress on stderr")
	log.AddFlags(flags)

	root.AddCommand(
		newCompareCmd(backend.AsyncName, "Compare both products on a single asynchronous task", opts),
		newCompareCmd(backend.PoolName, "Compare both products on a pool of 8 workers", opts),
		newParallelCmd(opts),
		newClusterCmd(opts),
		newWorkerCmd(),
	)

	return root
}

func newCompareCmd(name, short string, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <type> <scale> <round>",
		Short: short,
		Args:  usageArgs(3, "<type> <scale> <round>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, size, rounds, err := parseArgs(args)
			if err != nil {
				return errors.Trace(err)
			}

			text := opts.format == report.FormatText
			if text {
				report.WriteCompareHeader(opts.stdout, &harness.Result{Size: size, TypeName: kind.TypeName()})
			}

			bar := newProgress(opts, rounds)
			cfg := harness.Config{
				Size:   size,
				Rounds: rounds,
				Seed:   opts.seed,
				Range:  workload.ComparisonRange,
				OnRound: func(round int, samples []harness.Sample) {
					if text {
						report.WriteCompareRound(opts.stdout, round, samples)
					}
					bar.step()
				},
				Stderr: opts.stderr,
			}

			result, err := harness.CompareKind(cmd.Context(), kind, name, cfg)
			if err != nil {
				return errors.Trace(err)
			}
			bar.finish()

			switch opts.format {
			case report.FormatTable:
				return errors.Trace(report.WriteTable(opts.stdout, result))
			case report.FormatJSON:
				return errors.Trace(report.WriteJSON(opts.stdout, result))
			default:
				report.WriteCompareSummary(opts.stdout, result)
				return nil
			}
		},
	}
}

func newParallelCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   backend.ParallelName + " <type> <scale> <round> <rc|rr>",
		Short: "Time one product on all but two cores, cooling down between rounds",
		Args:  usageArgs(4, "<type> <scale> <round> <rc|rr>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, size, rounds, err := parseArgs(args[:3])
			if err != nil {
				return errors.Trace(err)
			}

			text := opts.format == report.FormatText
			header := &harness.Result{Kind: kind.String(), Size: size}

			bar := newProgress(opts, rounds)
			cfg := harness.Config{
				Size:     size,
				Rounds:   rounds,
				Seed:     opts.seed,
				Range:    workload.ParallelRange,
				Cooldown: opts.cooldown,
				OnRound: func(_ int, samples []harness.Sample) {
					if text {
						for _, s := range samples {
							report.WriteSingleRound(opts.stdout, header, s)
						}
					}
					bar.step()
				},
				Stderr: opts.stderr,
			}

			result, err := harness.SingleKind(cmd.Context(), kind, backend.ParallelName, cfg, args[3])
			if err != nil {
				return errors.Trace(err)
			}
			bar.finish()

			switch opts.format {
			case report.FormatTable:
				return errors.Trace(report.WriteTable(opts.stdout, result))
			case report.FormatJSON:
				return errors.Trace(report.WriteJSON(opts.stdout, result))
			default:
				report.WriteSingleSummary(opts.stdout, result)
				return nil
			}
		},
	}

	cmd.Flags().DurationVar(&opts.cooldown, "cooldown", 7*time.Second,
		"Pause between rounds")

	return cmd
}

func newClusterCmd(opts *options) *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Run the row-column product across MATBENCH_PROCS processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cluster.LoadEnv()
			if err != nil {
				return errors.Trace(err)
			}

			bin, err := cluster.ResolveBinary()
			if err != nil {
				return errors.Trace(err)
			}

			result, err := cluster.Run[float64](cmd.Context(), cluster.Config{
				Size:     size,
				Procs:    env.Procs,
				Method:   kernel.RowColumn,
				Seed:     opts.seed,
				Launcher: cluster.NewProcessLauncher(cluster.WrapCommand(bin)),
			})
			if err != nil {
				return errors.Trace(err)
			}
			result.A.Free()
			result.B.Free()
			result.Product.Free()

			if opts.format == report.FormatJSON {
				return errors.Trace(report.WriteJSON(opts.stdout, result))
			}
			report.WriteCluster(opts.stdout, result.Seconds)

			return nil
		},
	}

	cmd.Flags().IntVar(&size, "size", cluster.DefaultSize, "Matrix dimension")
	_ = cmd.Flags().MarkHidden("size")

	return cmd
}

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:    cluster.WorkerCommand,
		Short:  "Serve one cluster rank over stdin and stdout",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cluster.LoadEnv()
			if err != nil {
				return errors.Trace(err)
			}
			log.Logger().Debug("serving rank", zap.Int("rank", env.Rank))

			return errors.Annotatef(cluster.Serve(cmd.InOrStdin(), cmd.OutOrStdout()), "rank %d", env.Rank)
		},
	}
}

func usageArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.Errorf("Usage: %s %s", cmd.CommandPath(), usage)
		}
		return nil
	}
}

// parseArgs reads <type> <scale> <round>. The type is checked first so
// an unsupported type fails before anything is allocated.
func parseArgs(args []string) (matrix.Kind, int, int, error) {
	kind, err := matrix.ParseKind(args[0])
	if err != nil {
		return 0, 0, 0, err
	}

	size, err := strconv.Atoi(args[1])
	if err != nil || size <= 0 {
		return 0, 0, 0, errors.NotValidf("scale %q", args[1])
	}

	rounds, err := strconv.Atoi(args[2])
	if err != nil || rounds <= 0 {
		return 0, 0, 0, errors.NotValidf("round %q", args[2])
	}

	return kind, size, rounds, nil
}

type progress struct {
	bar *progressbar.ProgressBar
}

func newProgress(opts *options, rounds int) *progress {
	if !opts.progress {
		return &progress{}
	}

	return &progress{bar: progressbar.NewOptions(rounds,
		progressbar.OptionSetWriter(opts.stderr),
		progressbar.OptionSetDescription("rounds"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)}
}

func (p *progress) step() {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *progress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
