package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/gear6io/metastore/server/types"
	"github.com/spf13/cobra"
)

func readTable(path string) (*types.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tbl types.Table
	if err := json.Unmarshal(data, &tbl); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &tbl, nil
}

func fieldRows(fields []types.FieldSchema) [][]string {
	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, []string{f.Name, f.Type, f.Comment})
	}
	return rows
}

func newTableCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Manage tables",
		Long: `Manage tables of a database.

Table definitions are JSON documents with the fields db_name, table_name,
table_type, sd (cols, location, serde_info) and partition_keys.

Examples:
  metastore table create --from orders.json
  metastore table list sales --pattern 'ord*'
  metastore table describe sales orders
  metastore table rename sales orders orders_v2`,
	}

	var from string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a table from a JSON definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tbl, err := readTable(from)
			if err != nil {
				return err
			}
			if err := opts.client().CreateTable(cmd.Context(), tbl); err != nil {
				return err
			}
			return newPrinter(cmd).done("table %s.%s created", tbl.DBName, tbl.TableName)
		},
	}
	create.Flags().StringVar(&from, "from", "", "JSON table definition")
	_ = create.MarkFlagRequired("from")

	var pattern string
	list := &cobra.Command{
		Use:   "list <db>",
		Short: "List the tables of a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := opts.client().GetTables(cmd.Context(), args[0], pattern)
			if err != nil {
				return err
			}
			return newPrinter(cmd).list(names)
		},
	}
	list.Flags().StringVar(&pattern, "pattern", "*", "name pattern; '*' matches any run, '|' separates alternatives")

	describe := &cobra.Command{
		Use:   "describe <db> <table>",
		Short: "Show the location, columns and partition keys of a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			tbl, err := c.GetTable(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fields, err := c.GetSchema(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			p := newPrinter(cmd)
			if p.json {
				return p.printJSON(tbl)
			}
			fmt.Fprintf(p.w, "Table:    %s.%s\nType:     %s\nLocation: %s\nCreated:  %s\n\n",
				tbl.DBName, tbl.TableName, tbl.TableType, tbl.Location(), strconv.FormatInt(tbl.CreateTime, 10))
			return p.table(fields, []string{"COLUMN", "TYPE", "COMMENT"}, fieldRows(fields))
		},
	}

	rename := &cobra.Command{
		Use:   "rename <db> <table> <new-name>",
		Short: "Rename a table, moving the data of managed tables",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			tbl, err := c.GetTable(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			tbl.TableName = args[2]
			if tbl.Sd != nil {
				tbl.Sd.Location = ""
			}
			if err := c.AlterTable(cmd.Context(), args[0], args[1], tbl); err != nil {
				return err
			}
			return newPrinter(cmd).done("table %s.%s renamed to %s", args[0], args[1], args[2])
		},
	}

	var keepData bool
	drop := &cobra.Command{
		Use:   "drop <db> <table>",
		Short: "Drop a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().DropTable(cmd.Context(), args[0], args[1], !keepData); err != nil {
				return err
			}
			return newPrinter(cmd).done("table %s.%s dropped", args[0], args[1])
		},
	}
	drop.Flags().BoolVar(&keepData, "keep-data", false, "leave the table directory in place")

	cmd.AddCommand(create, list, describe, rename, drop)
	return cmd
}
