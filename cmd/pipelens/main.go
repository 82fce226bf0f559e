// Command pipelens parses automation-framework logs and presents the
// reconstructed task/node record as terminal tables, JSON, or a read-only API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/crimson-sun/pipelens/internal/config"
	"github.com/crimson-sun/pipelens/internal/logging"
	"github.com/crimson-sun/pipelens/internal/render"
	"github.com/crimson-sun/pipelens/internal/server"
	"github.com/crimson-sun/pipelens/internal/stats"
	"github.com/crimson-sun/pipelens/pkg/pipelens"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	gray  = color.New(color.FgHiBlack).SprintFunc()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pipelens",
		Short:         "Reconstruct task/node execution records from framework logs",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			logging.Init(cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))
		},
	}

	flags := root.PersistentFlags()
	flags.Int("chunk-size", 1000, "lines decoded per progress chunk")
	flags.String("log-level", "info", "diagnostic log level (debug, info, warn, error)")
	flags.String("log-format", "text", "diagnostic log format (text, json)")
	_ = viper.BindPFlag("chunk_size", flags.Lookup("chunk-size"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))

	root.AddCommand(newStatsCmd(), newTasksCmd(), newServeCmd())
	return root
}

func newStatsCmd() *cobra.Command {
	var asJSON bool
	var topN int

	cmd := &cobra.Command{
		Use:   "stats <logfile>",
		Short: "Aggregate per-node timing and success statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseFile(args[0])
			if err != nil {
				return err
			}
			tasks := p.Tasks()
			rows := stats.Aggregate(tasks)
			phases := stats.AggregatePhases(tasks)

			if asJSON {
				return render.NewJSONWriter(os.Stdout, true).WriteReport(render.Report{
					Nodes:  rows,
					Phases: phases,
				})
			}

			fmt.Println(render.TaskSummary(tasks))
			fmt.Println(render.NodeStatsTable("Slowest nodes (avg)", stats.TopSlowest(rows, topN)))
			fmt.Println(render.NodeStatsTable("Most frequent nodes", stats.TopFrequent(rows, topN)))
			if failed := stats.TopFailed(rows, topN); len(failed) > 0 {
				fmt.Println(render.NodeStatsTable("Most failed nodes", failed))
			}
			fmt.Println(render.PhaseStatsTable("Recognition/action phases", phases))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of tables")
	cmd.Flags().IntVar(&topN, "top", 10, "rows per top-N view")
	return cmd
}

func newTasksCmd() *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "tasks <logfile>",
		Short: "Dump the reconstructed task forest as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseFile(args[0])
			if err != nil {
				return err
			}
			return render.NewJSONWriter(os.Stdout, pretty).WriteTasks(p.Tasks())
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", true, "indent the JSON output")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <logfile>",
		Short: "Serve the parsed log over a read-only JSON API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			p, err := parseFile(args[0])
			if err != nil {
				return err
			}
			p.Tasks() // reconstruct up front so the first request is cheap

			srv := server.New(p, cfg.Server, cfg.TopN, nil)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigCh
				fmt.Fprintf(os.Stderr, "\nreceived %v, shutting down...\n", sig)
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = srv.Shutdown(ctx)
			}()

			fmt.Fprintln(os.Stderr, green("pipelens: serving on "+cfg.Server.Addr()))
			return srv.Start()
		},
	}
	cmd.Flags().String("host", "localhost", "address to bind")
	cmd.Flags().Int("port", 8080, "port to bind")
	cmd.Flags().Bool("cors", true, "allow cross-origin requests")
	_ = viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.cors", cmd.Flags().Lookup("cors"))
	return cmd
}

// parseFile reads a log file and runs a full parse, reporting chunk progress
// on stderr when attached to a terminal.
func parseFile(path string) (*pipelens.Parser, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := config.Load()
	p := pipelens.New(pipelens.WithChunkSize(cfg.ChunkSize))

	var onProgress func(pipelens.Progress)
	if term.IsTerminal(int(os.Stderr.Fd())) {
		onProgress = func(pr pipelens.Progress) {
			fmt.Fprintf(os.Stderr, "\r%s", gray(fmt.Sprintf("parsing %d/%d (%.0f%%)", pr.Current, pr.Total, pr.Percentage)))
			if pr.Current == pr.Total {
				fmt.Fprintln(os.Stderr)
			}
		}
	}
	p.Parse(string(content), onProgress)
	return p, nil
}
