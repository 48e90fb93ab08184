package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	tinylib "github.com/AnishMulay/tinyfs/clients/library"
	"github.com/AnishMulay/tinyfs/internal/external_copy"
	fs "github.com/AnishMulay/tinyfs/internal/file_service"
)

const readChunk = 4096

var appendPut bool

var putCmd = &cobra.Command{
	Use:   "put <local-file> <name>",
	Short: "Copy a local file into the store",
	Long: `Copy a local file into the store, replacing the content of <name>.
Bytes that do not fit in one block are dropped.

Examples:
  tinyfs put ./notes.txt notes
  echo more | tinyfs put - notes --append`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, done, err := newClient()
		if err != nil {
			return err
		}
		defer done()
		ctx := cmd.Context()

		var written int64
		switch {
		case appendPut:
			written, err = appendFrom(ctx, c, cmd.InOrStdin(), args[0], args[1])
		case args[0] == "-":
			written, err = external_copy.CopyFrom(ctx, c, cmd.InOrStdin(), args[1])
		default:
			written, err = external_copy.CopyFromExternal(ctx, c, args[0], args[1])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d bytes written to %s\n", written, args[1])
		return nil
	},
}

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print a stored file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, done, err := newClient()
		if err != nil {
			return err
		}
		defer done()

		_, err = readAll(cmd.Context(), c, args[0], cmd.OutOrStdout())
		return err
	},
}

var cpCmd = &cobra.Command{
	Use:   "cp <src> <dest>",
	Short: "Copy a file inside the store",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, done, err := newClient()
		if err != nil {
			return err
		}
		defer done()
		ctx := cmd.Context()

		pr, pw := io.Pipe()
		go func() {
			_, err := readAll(ctx, c, args[0], pw)
			pw.CloseWithError(err)
		}()
		written, err := external_copy.CopyFrom(ctx, c, pr, args[1])
		// unblock the reader if the copy stopped early
		pr.Close()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d bytes copied to %s\n", written, args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(putCmd, catCmd, cpCmd)
	putCmd.Flags().BoolVarP(&appendPut, "append", "a", false, "append instead of replacing")
}

// readAll streams the file at path into w until a read returns nothing.
func readAll(ctx context.Context, c *tinylib.TinyFSClient, path string, w io.Writer) (int64, error) {
	fd, err := c.Open(ctx, path, 0)
	if err != nil {
		return 0, err
	}
	defer func() { _ = c.Close(ctx, fd) }()

	var total int64
	buf := make([]byte, readChunk)
	for {
		n, err := c.Read(ctx, fd, buf)
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, nil
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return total, err
		}
		total += int64(n)
	}
}

func appendFrom(ctx context.Context, c *tinylib.TinyFSClient, stdin io.Reader, src, dest string) (int64, error) {
	r := stdin
	if src != "-" {
		f, err := os.Open(src)
		if err != nil {
			return 0, fmt.Errorf("failed to open source %q: %w", src, err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	fd, err := c.Open(ctx, dest, fs.OpenCreate|fs.OpenAppend)
	if err != nil {
		return 0, err
	}
	n, err := c.Write(ctx, fd, data)
	if cerr := c.Close(ctx, fd); err == nil {
		err = cerr
	}
	return int64(n), err
}
