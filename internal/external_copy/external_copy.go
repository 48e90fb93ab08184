// Package external_copy streams content from outside the store into a file
// inside it.
package external_copy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	fs "github.com/AnishMulay/tinyfs/internal/file_service"
)

// ChunkSize is how many bytes are read from the source per write call.
const ChunkSize = 128

// Writer is the part of the operation set a copy needs. Both the in-process
// file service and the remote client library satisfy it.
type Writer interface {
	Open(ctx context.Context, path string, mode fs.OpenMode) (int, error)
	Write(ctx context.Context, fd int, data []byte) (int, error)
	Close(ctx context.Context, fd int) error
}

// CopyFromExternal replaces the content of destPath with the content of the
// local file srcPath, creating destPath if needed.
func CopyFromExternal(ctx context.Context, w Writer, srcPath, destPath string) (int64, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open source %q: %w", srcPath, err)
	}
	defer src.Close()

	return CopyFrom(ctx, w, src, destPath)
}

// CopyFrom writes everything r produces into destPath in ChunkSize pieces.
// It stops early, without error, once the destination stops accepting bytes
// because its block is full. It returns the number of bytes stored.
func CopyFrom(ctx context.Context, w Writer, r io.Reader, destPath string) (written int64, err error) {
	fd, err := w.Open(ctx, destPath, fs.OpenCreate|fs.OpenTruncate)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := w.Close(ctx, fd); cerr != nil && err == nil {
			err = cerr
		}
	}()

	buf := make([]byte, ChunkSize)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			m, werr := w.Write(ctx, fd, buf[:n])
			if werr != nil {
				return written, werr
			}
			written += int64(m)
			if m < n {
				return written, nil
			}
		}
		if errors.Is(rerr, io.EOF) {
			return written, nil
		}
		if rerr != nil {
			return written, fmt.Errorf("failed to read source: %w", rerr)
		}
	}
}
