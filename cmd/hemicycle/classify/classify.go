// Package classifycmder provides the `hemicycle classify` CLI command.
package classifycmder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openhemicycle/hemicycle/cmd/hemicycle/sqlitepath"
	"github.com/openhemicycle/hemicycle/pkg/classify"
	"github.com/openhemicycle/hemicycle/pkg/config"
	"github.com/openhemicycle/hemicycle/pkg/logger"
	"github.com/openhemicycle/hemicycle/pkg/pipeline"
	"github.com/openhemicycle/hemicycle/pkg/store"
)

const classifyLongDesc string = `Re-run topic classification over stored sittings.

Enumerates distinct debate topics already in the database and classifies
each against the controlled vocabulary, updating both the classification
cache and every speech carrying that topic. Useful after a vocabulary or
model upgrade.

Examples:
  hemicycle classify
  hemicycle classify --date 2024-07-16
  hemicycle classify --limit 20 --dry-run
  hemicycle classify --provider anthropic --concurrency 10`

const classifyShortDesc string = "Re-run topic classification for stored sittings"

type classifyCommander struct {
	date       string
	sqlitePath string
	provider   string
	model      string
	baseURL    string
	rpm        int
	batchSize  int
	limit      int
	dryRun     bool
	jsonOut    bool
}

// NewClassifyCmd creates the classify cobra command.
func NewClassifyCmd() *cobra.Command {
	cmder := &classifyCommander{}

	cmd := &cobra.Command{
		Use:   "classify",
		Short: classifyShortDesc,
		Long:  classifyLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVar(&cmder.date, "date", "", "Restrict to one sitting date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to SQLite database")
	cmd.Flags().StringVar(&cmder.provider, "provider", "", "LLM provider (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&cmder.model, "model", "", "LLM model name")
	cmd.Flags().StringVar(&cmder.baseURL, "base-url", "", "Override the provider API base URL")
	cmd.Flags().IntVar(&cmder.rpm, "rpm", 0, "Requests-per-minute budget for the classifier")
	cmd.Flags().IntVar(&cmder.batchSize, "concurrency", 0, "Concurrent classification requests")
	cmd.Flags().IntVar(&cmder.limit, "limit", 0, "Classify at most N topics (0 = all)")
	cmd.Flags().BoolVar(&cmder.dryRun, "dry-run", false, "Enumerate topics without calling the model")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the run summary as JSON")

	return cmd
}

func (c *classifyCommander) run(ctx context.Context, cmd *cobra.Command) error {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	v, err := config.InitViper(configDir)
	if err != nil {
		return err
	}
	c.applyConfig(cmd, v)

	log := logger.New(
		logger.WithDebug(debug),
		logger.WithWriter(os.Stderr),
		logger.WithPretty(logger.IsTerminal(os.Stderr)),
	)

	dbPath := c.resolveSQLitePath(v)
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	var classifier *classify.Classifier
	if !c.dryRun {
		call, model, callerErr := classify.NewCaller(classify.CallerConfig{
			Provider: c.provider,
			Model:    c.model,
			BaseURL:  c.baseURL,
		})
		if callerErr != nil {
			return callerErr
		}

		classifier = classify.New(call, model,
			classify.WithRPM(c.rpm),
			classify.WithBatchSize(c.batchSize),
			classify.WithLogger(log),
		)
	}

	runner := pipeline.NewRunner(st, nil, classifier, nil, pipeline.WithLogger(log))

	result, err := runner.Reclassify(ctx, c.date, c.limit, c.dryRun)
	if err != nil {
		return err
	}

	if parked := classifier.BoundarySleeps(); parked > 0 {
		log.Info("classifier parked at rate-limit boundary", "count", parked)
	}

	return c.printResult(cmd, result)
}

func (c *classifyCommander) applyConfig(cmd *cobra.Command, v *viper.Viper) {
	if !cmd.Flags().Changed("provider") {
		c.provider = v.GetString("classifier.provider")
	}
	if !cmd.Flags().Changed("model") {
		c.model = v.GetString("classifier.model")
	}
	if !cmd.Flags().Changed("base-url") {
		c.baseURL = v.GetString("classifier.base_url")
	}
	if !cmd.Flags().Changed("rpm") {
		c.rpm = v.GetInt("classifier.rpm")
	}
	if !cmd.Flags().Changed("concurrency") {
		c.batchSize = v.GetInt("classifier.batch_size")
	}
}

func (c *classifyCommander) resolveSQLitePath(v *viper.Viper) string {
	if strings.TrimSpace(c.sqlitePath) != "" {
		return c.sqlitePath
	}

	path, err := sqlitepath.ResolveSQLitePath("")
	if err == nil {
		return path
	}

	return v.GetString("storage.sqlite_path")
}

func (c *classifyCommander) printResult(cmd *cobra.Command, result *pipeline.ReclassifyResult) error {
	out := cmd.OutOrStdout()

	if c.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if result.DryRun {
		fmt.Fprintf(out, "Dry run: %d distinct topics would be classified\n", result.Topics)
		return nil
	}

	fmt.Fprintf(out, "Classified %d of %d topics (%d failed)\n",
		result.Classified, result.Topics, result.Failed)
	fmt.Fprintf(out, "  cost: $%.6f\n", result.Cost)
	return nil
}
