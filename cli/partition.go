package cli

import (
	"strings"

	"github.com/gear6io/metastore/server/types"
	"github.com/spf13/cobra"
)

func partitionRows(parts []*types.Partition) [][]string {
	rows := make([][]string, 0, len(parts))
	for _, p := range parts {
		rows = append(rows, []string{strings.Join(p.Values, ","), p.Location()})
	}
	return rows
}

func newPartitionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "partition",
		Short: "Manage the partitions of a table",
		Long: `Manage the partitions of a table.

Values are given in partition key order.

Examples:
  metastore partition add sales orders 2024-01-01
  metastore partition list sales orders --max 10
  metastore partition get sales orders ds=2024-01-01
  metastore partition drop sales orders 2024-01-01`,
	}

	var location string
	add := &cobra.Command{
		Use:   "add <db> <table> <value>...",
		Short: "Add a partition",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			var part *types.Partition
			var err error
			if location == "" {
				part, err = c.AppendPartition(cmd.Context(), args[0], args[1], args[2:])
			} else {
				part, err = c.AddPartition(cmd.Context(), &types.Partition{
					DBName:    args[0],
					TableName: args[1],
					Values:    args[2:],
					Sd:        &types.StorageDescriptor{Location: location},
				})
			}
			if err != nil {
				return err
			}
			return newPrinter(cmd).done("partition %s added at %s", strings.Join(part.Values, ","), part.Location())
		},
	}
	add.Flags().StringVar(&location, "location", "", "partition directory (default: under the table)")

	var max int
	var namesOnly bool
	list := &cobra.Command{
		Use:   "list <db> <table>",
		Short: "List partitions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			p := newPrinter(cmd)
			if namesOnly {
				names, err := c.GetPartitionNames(cmd.Context(), args[0], args[1], max)
				if err != nil {
					return err
				}
				return p.list(names)
			}
			parts, err := c.GetPartitions(cmd.Context(), args[0], args[1], max)
			if err != nil {
				return err
			}
			return p.table(parts, []string{"VALUES", "LOCATION"}, partitionRows(parts))
		},
	}
	list.Flags().IntVar(&max, "max", -1, "maximum number of partitions, -1 for all")
	list.Flags().BoolVar(&namesOnly, "names", false, "print partition names only")

	get := &cobra.Command{
		Use:   "get <db> <table> <name>",
		Short: "Show a partition by name (k1=v1/k2=v2)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			part, err := opts.client().GetPartitionByName(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return newPrinter(cmd).table(part, []string{"VALUES", "LOCATION"}, partitionRows([]*types.Partition{part}))
		},
	}

	var keepData bool
	drop := &cobra.Command{
		Use:   "drop <db> <table> <value>...",
		Short: "Drop a partition",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := opts.client().DropPartition(cmd.Context(), args[0], args[1], args[2:], !keepData); err != nil {
				return err
			}
			return newPrinter(cmd).done("partition %s dropped", strings.Join(args[2:], ","))
		},
	}
	drop.Flags().BoolVar(&keepData, "keep-data", false, "leave the partition directory in place")

	cmd.AddCommand(add, list, get, drop)
	return cmd
}
