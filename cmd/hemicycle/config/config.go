// Package configcmder provides the config command for managing persistent
// hemicycle configuration stored in the .hemicycle/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent hemicycle configuration.

Configuration is stored as config.toml in the .hemicycle/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.sqlite_path,
  fetch.document_url, fetch.index_url,
  classifier.provider, classifier.model, classifier.base_url,
  classifier.rpm, classifier.batch_size,
  linker.surname_fallback, ingest.keep_raw,
  events.enabled, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  hemicycle config set <key> <value>    Set a configuration value
  hemicycle config get <key>            Get a configuration value
  hemicycle config list                 List all configuration values

Examples:
  hemicycle config set classifier.provider anthropic
  hemicycle config set classifier.rpm 1000
  hemicycle config get storage.sqlite_path
  hemicycle config list`

const configShortDesc string = "Manage persistent hemicycle configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
