package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	tinylib "github.com/AnishMulay/tinyfs/clients/library"
	grpccomm "github.com/AnishMulay/tinyfs/internal/communication/grpc"
	"github.com/AnishMulay/tinyfs/internal/config"
	"github.com/AnishMulay/tinyfs/internal/log_service/zaplog"
)

var (
	cfgFile      string
	serverAddr   string
	outputFormat string
	v            = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "tinyfs",
	Short: "Tiny single-volume in-memory file store",
	Long: `tinyfs serves one in-memory volume with a flat root directory,
hard links and symbolic links over gRPC, and talks to such a server.

Commands:
  serve       Run a store and listen for clients
  put         Copy a local file into the store
  cat         Print a stored file
  cp          Copy a file inside the store
  ln          Create a hard or symbolic link
  rm          Remove a name
  ls          List the root directory
  stat        Show the attributes of a name
  df          Show store usage`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "localhost:8080", "address of a tinyfs server")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml)")
}

func loadConfig() (*config.Config, error) {
	return config.LoadViper(v, cfgFile)
}

// newClient connects to --server. The returned func releases the connection.
func newClient() (*tinylib.TinyFSClient, func(), error) {
	ls, err := zaplog.NewZapLogService("tinyfs-cli", "WARN")
	if err != nil {
		return nil, nil, err
	}
	comm := grpccomm.NewGRPCCommunicator("", ls)
	closeFn := func() {
		_ = comm.Stop()
		_ = ls.Sync()
	}
	return tinylib.NewTinyFSClient(serverAddr, comm), closeFn, nil
}

// printStructured writes value as JSON or YAML and reports whether it did.
func printStructured(w io.Writer, value any) (bool, error) {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(value)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return true, enc.Encode(value)
	case "table", "":
		return false, nil
	default:
		return false, fmt.Errorf("unknown output format %q", outputFormat)
	}
}
