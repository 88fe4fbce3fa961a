package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/c360studio/semlink/aas"
	"github.com/c360studio/semlink/config"
	"github.com/c360studio/semlink/graph"
	"github.com/c360studio/semlink/linker"
	"github.com/c360studio/semlink/llm"
	"github.com/c360studio/semlink/query"
	"github.com/c360studio/semlink/scan"
	"github.com/c360studio/semlink/wikidata"
)

// appContext holds flags and resolved configuration shared by subcommands.
type appContext struct {
	configPath string
	envFile    string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func (a *appContext) setup() error {
	a.logger = setupLogging(a.logLevel)

	if err := config.LoadEnv(a.envFile); err != nil {
		return err
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	return nil
}

// loadDocument reads and decodes one AAS JSON file.
func loadDocument(path string) (*aas.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	doc, err := aas.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

// Loop metrics live on the default registerer; sync.Once keeps repeated
// controller builds in one process from re-registering the collectors.
var (
	loopMetricsOnce sync.Once
	loopMetrics     *linker.Metrics
)

func sharedLoopMetrics() *linker.Metrics {
	loopMetricsOnce.Do(func() {
		loopMetrics = linker.NewMetrics(prometheus.DefaultRegisterer)
	})
	return loopMetrics
}

// buildController assembles the linking loop from configuration.
func (a *appContext) buildController(heuristic bool, maxIterations int) *linker.Controller {
	searcher := wikidata.NewClient(
		wikidata.WithBaseURL(a.cfg.Wikidata.BaseURL),
		wikidata.WithLanguage(a.cfg.Wikidata.Language),
		wikidata.WithLimit(a.cfg.Wikidata.Limit),
		wikidata.WithTimeout(a.cfg.Wikidata.Timeout),
		wikidata.WithUserAgent(userAgentOrDefault(a.cfg.Wikidata.UserAgent)),
		wikidata.WithLogger(a.logger),
	)

	var proposer linker.Proposer
	var evaluator linker.Evaluator
	if heuristic || a.cfg.Linker.Heuristic {
		proposer = linker.HeuristicProposer{}
		evaluator = heuristicEvaluator{}
	} else {
		client := llm.NewClient(a.cfg.Registry(),
			llm.WithTimeout(a.cfg.Model.Timeout),
			llm.WithLogger(a.logger),
		)
		proposer = linker.NewLLMProposer(client, a.logger,
			linker.WithProposerTemperature(a.cfg.Model.Temperature),
		)
		evaluator = linker.NewLLMEvaluator(client, a.logger,
			linker.WithEvaluatorTemperature(a.cfg.Model.Temperature),
		)
	}

	if maxIterations <= 0 {
		maxIterations = a.cfg.Linker.MaxIterations
	}

	return linker.NewController(proposer, searcher, evaluator,
		linker.WithMaxIterations(maxIterations),
		linker.WithControllerLogger(a.logger),
		linker.WithMetrics(sharedLoopMetrics()),
	)
}

func userAgentOrDefault(ua string) string {
	if ua == "" {
		return wikidata.DefaultUserAgent
	}
	return ua
}

// heuristicEvaluator selects nothing and refines through seed queries until
// the bound: useful for dry runs without a model endpoint.
type heuristicEvaluator struct{}

func (heuristicEvaluator) Evaluate(_ context.Context, _ *aas.Context, _ string, hits []wikidata.SearchHit, _ int, _ []string) linker.Decision {
	if len(hits) > 0 {
		return linker.Decision{Action: linker.ActionStop, Reason: "hits found; no evaluation model configured"}
	}
	return linker.Decision{Action: linker.ActionStop, Reason: "no hits; no evaluation model configured"}
}

func (a *appContext) linkCmd() *cobra.Command {
	var (
		heuristic     bool
		maxIterations int
		publish       bool
	)

	cmd := &cobra.Command{
		Use:   "link <document.json> <path>",
		Short: "Link one template element to Wikidata",
		Long: `Runs the full search-refine-evaluate loop for the element at the given
path and prints the result as JSON. Paths address into the document, e.g.
"submodels/0/submodelElements/0/value/3/value/0/value/0"; paths not
starting with "submodels" are taken relative to the first submodel.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}

			sem, err := aas.BuildContext(doc, aas.ParsePath(args[1]))
			if err != nil {
				return fmt.Errorf("build context: %w", err)
			}

			controller := a.buildController(heuristic, maxIterations)

			ctx := cmd.Context()
			result, err := controller.Run(ctx, sem)
			if err != nil {
				return err
			}

			if publish && a.cfg.NATS.URL != "" {
				if err := a.publishResult(ctx, args[0], result); err != nil {
					a.logger.Warn("graph publish failed", "error", err)
				}
			}

			return printJSON(cmd, result)
		},
	}

	cmd.Flags().BoolVar(&heuristic, "heuristic", false, "Use seed queries only, no generative model")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "Refine bound (0 = config default)")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish accepted links to the graph stream")
	return cmd
}

func (a *appContext) publishResult(ctx context.Context, document string, result *linker.Result) error {
	nc, err := nats.Connect(a.cfg.NATS.URL, nats.Name(appName))
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	publisher, err := graph.NewPublisher(nc)
	if err != nil {
		return err
	}
	return publisher.PublishLink(ctx, document, result)
}

func (a *appContext) contextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "context <document.json> <path>",
		Short: "Print the semantic context for one element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			sem, err := aas.BuildContext(doc, aas.ParsePath(args[1]))
			if err != nil {
				return fmt.Errorf("build context: %w", err)
			}
			return printJSON(cmd, sem)
		},
	}
}

func (a *appContext) queriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queries <document.json> <path>",
		Short: "Print heuristic seed queries for one element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			sem, err := aas.BuildContext(doc, aas.ParsePath(args[1]))
			if err != nil {
				return fmt.Errorf("build context: %w", err)
			}
			for _, q := range query.SeedQueries(sem) {
				fmt.Fprintln(cmd.OutOrStdout(), q)
			}
			return nil
		},
	}
}

func (a *appContext) scanCmd() *cobra.Command {
	var (
		excludes    []string
		missingJSON string
	)

	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Inventory semantic references across a template repository",
		Long: `Walks a template repository, picks one JSON document per template
directory (highest numeric version, *template*.json preferred), and prints
per-submodel tables of semantic references and concept descriptions.
References without a matching concept description are marked (M); they are
the natural linking targets.

With a .json file as argument, scans just that file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			files, err := a.resolveScanFiles(root, excludes)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No JSON files found.")
				return nil
			}

			var allReports []scan.SubmodelReport
			for _, f := range files {
				reports, err := scan.ScanFile(f)
				if err != nil {
					a.logger.Warn("skipping file", "path", f, "error", err)
					continue
				}
				for i := range reports {
					scan.WriteReport(cmd.OutOrStdout(), &reports[i])
				}
				allReports = append(allReports, reports...)
			}

			if missingJSON != "" {
				targets := scan.MissingTargets(allReports)
				data, err := json.MarshalIndent(targets, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(missingJSON, data, 0644); err != nil {
					return fmt.Errorf("write missing summary: %w", err)
				}
				a.logger.Info("missing summary written", "path", missingJSON, "targets", len(targets))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&excludes, "exclude", nil, "Doublestar globs to skip (repeatable)")
	cmd.Flags().StringVar(&missingJSON, "missing-json", "", "Write missing-reference targets to this JSON file")
	return cmd
}

func (a *appContext) resolveScanFiles(root string, excludes []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	if len(excludes) == 0 {
		excludes = a.cfg.Scan.Excludes
	}
	return scan.FindDocuments(root, excludes)
}

func (a *appContext) watchCmd() *cobra.Command {
	var (
		debounce    time.Duration
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch [root]",
		Short: "Watch a template repository and rescan changed documents",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			if metricsAddr != "" {
				stop := a.serveMetrics(metricsAddr)
				defer stop()
			}

			watcher, err := scan.NewWatcher(root,
				scan.WithDebounce(debounce),
				scan.WithWatcherLogger(a.logger),
			)
			if err != nil {
				return err
			}
			defer watcher.Stop()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := watcher.Start(ctx); err != nil {
				return err
			}

			for {
				select {
				case <-ctx.Done():
					a.logger.Info("watch stopped")
					return nil
				case event, ok := <-watcher.Events():
					if !ok {
						return nil
					}
					reports, err := scan.ScanFile(event.AbsPath)
					if err != nil {
						a.logger.Warn("rescan failed", "path", event.Path, "error", err)
						continue
					}
					for i := range reports {
						scan.WriteReport(cmd.OutOrStdout(), &reports[i])
					}
				}
			}
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Debounce delay before rescanning")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

// serveMetrics exposes the default Prometheus registry over HTTP and
// returns a function that shuts the server down.
func (a *appContext) serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		a.logger.Info("metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics endpoint failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.logger.Warn("metrics endpoint shutdown failed", "error", err)
		}
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
