package main

import (
	"github.com/spf13/cobra"

	"github.com/AnishMulay/tinyfs/servers/simple"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a store and listen for clients",
	Long: `Start an empty store and serve it over gRPC until interrupted.

Settings come from defaults, the --config file, TINYFS_* environment
variables and the flags below, in increasing order of precedence.

Examples:
  tinyfs serve --listen :9000
  TINYFS_STORE_BLOCK_SIZE=4096 tinyfs serve`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		server, err := simple.Build(simple.OptionsFrom(cfg))
		if err != nil {
			return err
		}
		return server.Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f := serveCmd.Flags()
	f.String("listen", "", "listen address")
	f.String("node-id", "", "node id used to name the log file")
	f.String("data-dir", "", "directory for logs")
	f.String("log-level", "", "minimum log level (DEBUG, INFO, WARN, ERROR)")
	f.Int("max-inodes", 0, "inode table size")
	f.Int("max-blocks", 0, "block pool size")
	f.Int("max-open-files", 0, "open file table size")
	f.Int("block-size", 0, "bytes per block, also the largest file size")

	bind := map[string]string{
		"server.listen_addr":         "listen",
		"server.node_id":             "node-id",
		"server.data_dir":            "data-dir",
		"log.level":                  "log-level",
		"store.max_inode_count":      "max-inodes",
		"store.max_block_count":      "max-blocks",
		"store.max_open_files_count": "max-open-files",
		"store.block_size":           "block-size",
	}
	for key, flag := range bind {
		cobra.CheckErr(v.BindPFlag(key, f.Lookup(flag)))
	}
}
