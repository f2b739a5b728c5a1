package cli

import (
	"github.com/gear6io/metastore/server/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read server configuration or write a default config file",
	}

	var def string
	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Read a hive.*, hdfs.* or mapred.* value from the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := opts.client().GetConfigValue(cmd.Context(), args[0], def)
			if err != nil {
				return err
			}
			return newPrinter(cmd).table(map[string]string{args[0]: v}, []string{"KEY", "VALUE"}, [][]string{{args[0], v}})
		},
	}
	get.Flags().StringVar(&def, "default", "", "value returned when the key is unset")

	initCmd := &cobra.Command{
		Use:   "init <file>",
		Short: "Write the default server configuration as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SaveConfig(config.LoadDefaultConfig(), args[0]); err != nil {
				return err
			}
			return newPrinter(cmd).done("wrote %s", args[0])
		},
	}

	cmd.AddCommand(get, initCmd)
	return cmd
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the client and server versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server, err := opts.client().GetVersion(cmd.Context())
			if err != nil {
				server = "unreachable"
			}
			info := map[string]string{"client": version, "server": server}
			return newPrinter(cmd).table(info, []string{"CLIENT", "SERVER"}, [][]string{{version, server}})
		},
	}
}
