// Package hemicyclecmder
package hemicyclecmder

import (
	"github.com/spf13/cobra"

	classifycmder "github.com/openhemicycle/hemicycle/cmd/hemicycle/classify"
	configcmder "github.com/openhemicycle/hemicycle/cmd/hemicycle/config"
	ingestcmder "github.com/openhemicycle/hemicycle/cmd/hemicycle/ingest"
	initcmder "github.com/openhemicycle/hemicycle/cmd/hemicycle/init"
	topicscmder "github.com/openhemicycle/hemicycle/cmd/hemicycle/topics"
	versioncmder "github.com/openhemicycle/hemicycle/cmd/version"
)

const hemicycleLongDesc string = `Hemicycle ingests European Parliament plenary sittings.

It fetches verbatim reports, parses them into speeches, classifies debate
topics with an LLM, links speakers to MEPs, and stores everything in SQLite.

Common commands:
  hemicycle ingest       Fetch, parse, classify and store a sitting
  hemicycle classify     Re-run topic classification for a stored sitting
  hemicycle topics       Show distinct debate topics for a stored sitting`

const hemicycleShortDesc string = "Hemicycle - Plenary sitting ingestion"

func NewHemicycleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hemicycle",
		Short:         hemicycleShortDesc,
		Long:          hemicycleLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .hemicycle/ directory location")

	// Add subcommands
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(classifycmder.NewClassifyCmd())
	cmd.AddCommand(topicscmder.NewTopicsCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
