package cli

import (
	"github.com/spf13/cobra"
)

func newDatabaseCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "db",
		Aliases: []string{"database"},
		Short:   "Manage databases",
	}

	var location string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().CreateDatabase(cmd.Context(), args[0], location); err != nil {
				return err
			}
			return newPrinter(cmd).done("database %s created", args[0])
		},
	}
	create.Flags().StringVar(&location, "location", "", "database directory (default: under the warehouse root)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := opts.client().GetDatabases(cmd.Context())
			if err != nil {
				return err
			}
			return newPrinter(cmd).list(names)
		},
	}

	get := &cobra.Command{
		Use:   "get <name>",
		Short: "Show a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.client().GetDatabase(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return newPrinter(cmd).table(db,
				[]string{"NAME", "LOCATION", "DESCRIPTION"},
				[][]string{{db.Name, db.LocationURI, db.Description}})
		},
	}

	drop := &cobra.Command{
		Use:   "drop <name>",
		Short: "Drop a database with its tables and data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().DropDatabase(cmd.Context(), args[0]); err != nil {
				return err
			}
			return newPrinter(cmd).done("database %s dropped", args[0])
		},
	}

	cmd.AddCommand(create, list, get, drop)
	return cmd
}
