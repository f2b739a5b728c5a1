// Package cli implements the metastore command line: the server itself and
// a client for the catalog operations.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gear6io/metastore/pkg/sdk"
	"github.com/spf13/cobra"
)

var version = "dev"

type rootOptions struct {
	server  string
	output  string
	timeout time.Duration
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]interface{}{"error": err.Error()}
			var se *sdk.ServerError
			if asServerError(err, &se) {
				errObj["type"] = se.Kind
				errObj["code"] = se.Code
				errObj["http_status"] = se.Status
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "metastore",
		Short: "Catalog server for databases, tables and partitions",
		Long: `metastore serves a Hive style catalog: databases, tables and
partitions recorded in a transactional metadata store, with their data
directories kept in a warehouse on the local disk or an S3 bucket.

Examples:
  metastore serve --config metastore.yml
  metastore db create sales
  metastore table list sales
  metastore partition add sales orders 2024-01-01`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("server") {
				if v := os.Getenv("METASTORE_SERVER"); v != "" {
					opts.server = v
				}
			}
			return validateOutputFormat(opts.output)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.server, "server", "127.0.0.1:9083", "catalog server address (env METASTORE_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "output format: table or json")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "timeout of each catalog call")

	rootCmd.AddCommand(
		newServeCmd(),
		newDatabaseCmd(opts),
		newTableCmd(opts),
		newPartitionCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(opts),
	)
	return rootCmd
}

// client builds an SDK client from the global flags.
func (o *rootOptions) client() *sdk.Client {
	return sdk.NewClient(&sdk.Options{Addr: o.server, Timeout: o.timeout})
}
