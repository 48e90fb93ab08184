package main

import (
	"github.com/spf13/cobra"
)

var symbolic bool

var lnCmd = &cobra.Command{
	Use:   "ln <target> <name>",
	Short: "Create a hard or symbolic link",
	Long: `Create <name> as a new hard link to the file at <target>, or with -s as a
symbolic link storing <target>. The target of a symbolic link need not exist.

Examples:
  tinyfs ln notes notes.bak
  tinyfs ln -s notes latest`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, done, err := newClient()
		if err != nil {
			return err
		}
		defer done()

		if symbolic {
			return c.Symlink(cmd.Context(), args[0], args[1])
		}
		return c.Link(cmd.Context(), args[0], args[1])
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <name>...",
	Short: "Remove names",
	Long: `Remove names from the root directory. A file is freed once its last
name is gone and no client holds it open.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, done, err := newClient()
		if err != nil {
			return err
		}
		defer done()

		for _, name := range args {
			if err := c.Unlink(cmd.Context(), name); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lnCmd, rmCmd)
	lnCmd.Flags().BoolVarP(&symbolic, "symbolic", "s", false, "make a symbolic link")
}
