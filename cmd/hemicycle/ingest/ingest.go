// Package ingestcmder provides the `hemicycle ingest` CLI command.
package ingestcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openhemicycle/hemicycle/cmd/hemicycle/sqlitepath"
	"github.com/openhemicycle/hemicycle/pkg/classify"
	"github.com/openhemicycle/hemicycle/pkg/cliui"
	"github.com/openhemicycle/hemicycle/pkg/config"
	"github.com/openhemicycle/hemicycle/pkg/eventstream"
	"github.com/openhemicycle/hemicycle/pkg/eventstream/kafka"
	"github.com/openhemicycle/hemicycle/pkg/fetch"
	"github.com/openhemicycle/hemicycle/pkg/logger"
	"github.com/openhemicycle/hemicycle/pkg/meplink"
	"github.com/openhemicycle/hemicycle/pkg/pipeline"
	"github.com/openhemicycle/hemicycle/pkg/plenary"
	"github.com/openhemicycle/hemicycle/pkg/store"
)

const ingestLongDesc string = `Fetch, parse, classify and store a plenary sitting.

Without --date, discovers the next sitting that is not yet in the database
by scanning the debates index. With --date, fetches that specific sitting
and re-ingests it if already present.

Exits with status 1 and "no new sittings" when discovery finds nothing new.

Examples:
  hemicycle ingest
  hemicycle ingest --date 2024-07-16
  hemicycle ingest --sqlite ./plenary.db --json
  hemicycle ingest --provider ollama --model llama3.2`

const ingestShortDesc string = "Fetch, parse, classify and store a sitting"

type ingestCommander struct {
	date       string
	sqlitePath string
	provider   string
	model      string
	baseURL    string
	rpm        int
	batchSize  int
	keepRaw    bool
	jsonOut    bool
}

// NewIngestCmd creates the ingest cobra command.
func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVar(&cmder.date, "date", "", "Sitting date (YYYY-MM-DD); discover next when omitted")
	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to SQLite database")
	cmd.Flags().StringVar(&cmder.provider, "provider", "", "LLM provider (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&cmder.model, "model", "", "LLM model name")
	cmd.Flags().StringVar(&cmder.baseURL, "base-url", "", "Override the provider API base URL")
	cmd.Flags().IntVar(&cmder.rpm, "rpm", 0, "Requests-per-minute budget for the classifier")
	cmd.Flags().IntVar(&cmder.batchSize, "concurrency", 0, "Concurrent classification requests")
	cmd.Flags().BoolVar(&cmder.keepRaw, "keep-raw", false, "Keep the raw HTML document in the database")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the run summary as JSON")

	return cmd
}

func (c *ingestCommander) run(ctx context.Context, cmd *cobra.Command) error {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	v, err := config.InitViper(configDir)
	if err != nil {
		return err
	}
	c.applyConfig(cmd, v)

	// Logs go to stderr so the spinner and summary own stdout.
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

	fetcher := fetch.NewClient(
		fetch.WithDocumentURL(v.GetString("fetch.document_url")),
		fetch.WithIndexURL(v.GetString("fetch.index_url")),
		fetch.WithLogger(log),
	)

	call, model, err := classify.NewCaller(classify.CallerConfig{
		Provider: c.provider,
		Model:    c.model,
		BaseURL:  c.baseURL,
	})
	if err != nil {
		return err
	}

	classifier := classify.New(call, model,
		classify.WithRPM(c.rpm),
		classify.WithBatchSize(c.batchSize),
		classify.WithLogger(log),
	)

	linker := meplink.New(st,
		meplink.WithSurnameFallback(v.GetBool("linker.surname_fallback")),
		meplink.WithLogger(log),
	)

	opts := []pipeline.Option{
		pipeline.WithLogger(log),
		pipeline.WithKeepRawDocument(c.keepRaw),
	}

	if v.GetBool("events.enabled") {
		pub, pubErr := c.newPublisher(v)
		if pubErr != nil {
			return pubErr
		}
		defer func() { _ = pub.Close() }()
		opts = append(opts, pipeline.WithPublisher(pub))
	}

	runner := pipeline.NewRunner(st, fetcher, classifier, linker, opts...)

	var date *time.Time
	if c.date != "" {
		parsed, parseErr := time.Parse(plenary.DateLayout, c.date)
		if parseErr != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", c.date)
		}
		date = &parsed
	}

	var result *pipeline.Result
	ingest := func() error {
		var runErr error
		result, runErr = runner.Run(ctx, date)
		return runErr
	}

	// Spinner only when a human is watching and the logs are quiet.
	if !c.jsonOut && !debug && logger.IsTerminal(os.Stdout) {
		err = cliui.Step(cmd.OutOrStdout(), "Ingesting sitting", ingest)
	} else {
		err = ingest()
	}
	if err != nil {
		return err
	}

	if parked := classifier.BoundarySleeps(); parked > 0 {
		log.Info("classifier parked at rate-limit boundary", "count", parked)
	}

	return c.printResult(cmd, result)
}

// applyConfig fills unset flags from viper so CLI flags keep precedence
// over environment variables and the config file.
func (c *ingestCommander) applyConfig(cmd *cobra.Command, v *viper.Viper) {
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
	if !cmd.Flags().Changed("keep-raw") {
		c.keepRaw = v.GetBool("ingest.keep_raw")
	}
}

func (c *ingestCommander) resolveSQLitePath(v *viper.Viper) string {
	if strings.TrimSpace(c.sqlitePath) != "" {
		return c.sqlitePath
	}

	path, err := sqlitepath.ResolveSQLitePath("")
	if err == nil {
		return path
	}

	return v.GetString("storage.sqlite_path")
}

func (c *ingestCommander) newPublisher(v *viper.Viper) (eventstream.Publisher, error) {
	brokers := strings.Split(v.GetString("events.brokers"), ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}
	if len(brokers) == 0 || brokers[0] == "" {
		return nil, fmt.Errorf("events.enabled is set but events.brokers is empty")
	}

	return kafka.NewPublisher(brokers, v.GetString("events.topic")), nil
}

func (c *ingestCommander) printResult(cmd *cobra.Command, result *pipeline.Result) error {
	out := cmd.OutOrStdout()

	if c.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "Ingested %s\n", result.SittingID)
	fmt.Fprintf(out, "  speeches:   %d\n", result.Speeches)
	fmt.Fprintf(out, "  topics:     %d (%d classified, %d failed)\n",
		result.Topics, result.Classified, result.Failed)
	fmt.Fprintf(out, "  linked:     %d\n", result.Linked)
	fmt.Fprintf(out, "  cost:       $%.6f\n", result.Cost)
	return nil
}
