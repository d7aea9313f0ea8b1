package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	chromem "github.com/philippgille/chromem-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/verdictd/internal/audit"
	"github.com/fyrsmithlabs/verdictd/internal/config"
	"github.com/fyrsmithlabs/verdictd/internal/decision"
	"github.com/fyrsmithlabs/verdictd/internal/evidence"
	"github.com/fyrsmithlabs/verdictd/internal/llm"
	"github.com/fyrsmithlabs/verdictd/internal/logging"
	"github.com/fyrsmithlabs/verdictd/internal/pipeline"
	"github.com/fyrsmithlabs/verdictd/internal/progress"
	"github.com/fyrsmithlabs/verdictd/internal/review"
	"github.com/fyrsmithlabs/verdictd/internal/telemetry"
	"github.com/fyrsmithlabs/verdictd/internal/trace"
)

var (
	transactionFile string
	profileFile     string
	prettyOutput    bool
)

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Run the decision pipeline for one transaction",
	Long: `Run the full decision pipeline for a single transaction and print
the finalized run result, including the trace, as JSON.

Examples:
  # Decide a transaction against its customer profile
  verdictd decide -f tx.json -p profile.json

  # Without a profile every history check degrades conservatively
  verdictd decide -f tx.json`,
	RunE: runDecide,
}

func init() {
	decideCmd.Flags().StringVarP(&transactionFile, "transaction", "f", "", "transaction JSON file (required)")
	decideCmd.Flags().StringVarP(&profileFile, "profile", "p", "", "customer profile JSON file")
	decideCmd.Flags().BoolVar(&prettyOutput, "pretty", false, "indent the JSON output")
	_ = decideCmd.MarkFlagRequired("transaction")
}

func runDecide(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() { _ = tel.Shutdown(context.Background()) }()

	logger, err := logging.New(cfg.Logging, nil)
	if err != nil {
		return err
	}
	defer func() { _ = logging.Sync(logger) }()

	tx, err := readJSONFile[decision.Transaction](transactionFile)
	if err != nil {
		return fmt.Errorf("reading transaction: %w", err)
	}
	var profile decision.CustomerProfile
	if profileFile != "" {
		profile, err = readJSONFile[decision.CustomerProfile](profileFile)
		if err != nil {
			return fmt.Errorf("reading profile: %w", err)
		}
	}

	engine, cleanup, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := engine.Decide(ctx, tx, profile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if prettyOutput {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

// buildEngine wires the configured collaborators. Optional pieces (LLM,
// policy store, reputation service, NATS) degrade to safe substitutes
// instead of failing the command.
func buildEngine(cfg *config.Config, logger *zap.Logger) (*pipeline.Engine, func(), error) {
	cleanup := func() {}

	var generator llm.Generator
	if cfg.LLM.APIKey != "" {
		client, err := llm.NewClient(cfg.LLM)
		if err != nil {
			return nil, cleanup, fmt.Errorf("building llm client: %w", err)
		}
		generator = client
	} else {
		logger.Warn("no llm api key configured, debate and narratives will degrade")
		generator = llm.Disabled{}
	}

	providers := []evidence.Provider{evidence.NewBehaviorProvider()}

	if cfg.Policy.Path != "" {
		if cfg.LLM.APIKey == "" {
			logger.Warn("policy store configured without llm api key, skipping policy search")
		} else {
			embed := chromem.NewEmbeddingFuncOpenAI(cfg.LLM.APIKey, chromem.EmbeddingModelOpenAI3Small)
			policy, err := evidence.NewPolicyProvider(cfg.Policy, embed, logger)
			if err != nil {
				return nil, cleanup, fmt.Errorf("opening policy store: %w", err)
			}
			providers = append(providers, policy)
		}
	}

	if cfg.Reputation.BaseURL != "" {
		reputation, err := evidence.NewReputationProvider(cfg.Reputation)
		if err != nil {
			return nil, cleanup, fmt.Errorf("building reputation client: %w", err)
		}
		providers = append(providers, reputation)
	}

	var store audit.Store = audit.NewMemoryStore()
	if cfg.Audit.Path != "" {
		store = audit.NewFileStore(cfg.Audit.Path)
	}

	var queue review.Queue = review.NewMemoryQueue()
	var reporters pipeline.ReporterFactory
	if cfg.Progress.URL != "" {
		nc, err := progress.Connect(cfg.Progress, logger)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connecting to nats: %w", err)
		}
		cleanup = nc.Close
		prefix := cfg.Progress.SubjectPrefix
		if prefix == "" {
			prefix = "verdictd"
		}
		queue = review.NewNATSQueue(nc, prefix+".review.escalations")
		reporters = func(runID string) trace.Reporter {
			return progress.NewReporter(nc, cfg.Progress, runID, logger)
		}
	}

	engine, err := pipeline.NewEngine(cfg.Pipeline, logger, generator, providers, store, queue, reporters)
	if err != nil {
		return nil, cleanup, err
	}
	return engine, cleanup, nil
}

func readJSONFile[T any](path string) (T, error) {
	var out T
	data, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("parsing %s: %w", path, err)
	}
	return out, nil
}
