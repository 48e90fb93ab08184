package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	fs "github.com/AnishMulay/tinyfs/internal/file_service"
)

var noFollow bool

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the root directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, done, err := newClient()
		if err != nil {
			return err
		}
		defer done()

		entries, err := c.ReadDir(cmd.Context())
		if err != nil {
			return err
		}
		if ok, err := printStructured(cmd.OutOrStdout(), entries); ok || err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "INODE\tTYPE\tNAME")
		for _, e := range entries {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", e.InodeID, e.Type, e.Name)
		}
		return tw.Flush()
	},
}

var statCmd = &cobra.Command{
	Use:   "stat <path>",
	Short: "Show the attributes of a name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, done, err := newClient()
		if err != nil {
			return err
		}
		defer done()

		var attrs *fs.Attributes
		if noFollow {
			attrs, err = c.Lstat(cmd.Context(), args[0])
		} else {
			attrs, err = c.Stat(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}
		if ok, err := printStructured(cmd.OutOrStdout(), attrs); ok || err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "Inode:\t%d\n", attrs.InodeID)
		fmt.Fprintf(tw, "Type:\t%s\n", attrs.Type)
		fmt.Fprintf(tw, "Size:\t%d\n", attrs.Size)
		fmt.Fprintf(tw, "Links:\t%d\n", attrs.LinkCount)
		if attrs.Target != "" {
			fmt.Fprintf(tw, "Target:\t%s\n", attrs.Target)
		}
		return tw.Flush()
	},
}

var dfCmd = &cobra.Command{
	Use:   "df",
	Short: "Show store usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, done, err := newClient()
		if err != nil {
			return err
		}
		defer done()

		stats, err := c.GetFsStat(cmd.Context())
		if err != nil {
			return err
		}
		info, err := c.GetFsInfo(cmd.Context())
		if err != nil {
			return err
		}
		report := struct {
			Info  *fs.FileSystemInfo  `json:"info" yaml:"info"`
			Stats *fs.FileSystemStats `json:"stats" yaml:"stats"`
		}{info, stats}
		if ok, err := printStructured(cmd.OutOrStdout(), report); ok || err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "Volume:\t%s\n", info.FsID)
		fmt.Fprintf(tw, "Block size:\t%d\n", info.BlockSize)
		fmt.Fprintln(tw, "RESOURCE\tUSED\tTOTAL")
		fmt.Fprintf(tw, "inodes\t%d\t%d\n", stats.UsedInodes, stats.TotalInodes)
		fmt.Fprintf(tw, "blocks\t%d\t%d\n", stats.UsedBlocks, stats.TotalBlocks)
		fmt.Fprintf(tw, "handles\t%d\t%d\n", stats.UsedHandles, stats.TotalHandles)
		fmt.Fprintf(tw, "entries\t%d\t%d\n", stats.DirEntries, stats.DirCapacity)
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(lsCmd, statCmd, dfCmd)
	statCmd.Flags().BoolVarP(&noFollow, "no-dereference", "L", false, "describe a symbolic link itself")
}
