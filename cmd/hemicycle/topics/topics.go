// Package topicscmder provides the `hemicycle topics` CLI command.
package topicscmder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openhemicycle/hemicycle/cmd/hemicycle/sqlitepath"
	"github.com/openhemicycle/hemicycle/pkg/cliui"
	"github.com/openhemicycle/hemicycle/pkg/store"
	"github.com/openhemicycle/hemicycle/pkg/utils"
)

const topicsLongDesc string = `Show distinct debate topics stored in the database.

Lists each distinct topic with its speech count and, when present, the
cached controlled-vocabulary label assigned by the classifier.

Examples:
  hemicycle topics
  hemicycle topics --date 2024-07-16
  hemicycle topics --limit 10`

const topicsShortDesc string = "Show distinct debate topics"

type topicsCommander struct {
	date       string
	sqlitePath string
	limit      int
}

// NewTopicsCmd creates the topics cobra command.
func NewTopicsCmd() *cobra.Command {
	cmder := &topicsCommander{}

	cmd := &cobra.Command{
		Use:   "topics",
		Short: topicsShortDesc,
		Long:  topicsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVar(&cmder.date, "date", "", "Restrict to one sitting date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to SQLite database")
	cmd.Flags().IntVar(&cmder.limit, "limit", 0, "Show at most N topics (0 = all)")

	return cmd
}

func (c *topicsCommander) run(ctx context.Context, cmd *cobra.Command) error {
	dbPath := c.sqlitePath
	if strings.TrimSpace(dbPath) == "" {
		resolved, err := sqlitepath.ResolveSQLitePath("")
		if err != nil {
			return err
		}
		dbPath = resolved
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	counts, err := st.DistinctTopics(ctx, c.date, c.limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(counts) == 0 {
		fmt.Fprintln(out, "No topics found.")
		return nil
	}

	for _, tc := range counts {
		label := "<unclassified>"
		classification, getErr := st.GetTopicClassification(ctx, tc.Topic)
		if getErr != nil && !errors.Is(getErr, store.ErrNotFound) {
			return getErr
		}
		if classification != nil {
			label = classification.MainTopic
		}

		fmt.Fprintf(out, "  %4d  %s\n        %s\n",
			tc.Count,
			utils.Truncate(tc.Topic, 96),
			cliui.DimStyle.Render(label),
		)
	}

	return nil
}
