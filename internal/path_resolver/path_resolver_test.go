package path_resolver

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blockmem "github.com/AnishMulay/tinyfs/internal/block_service/inmemory"
	"github.com/AnishMulay/tinyfs/internal/directory_service/flat"
	is "github.com/AnishMulay/tinyfs/internal/inode_service"
	inodemem "github.com/AnishMulay/tinyfs/internal/inode_service/inmemory"
	"github.com/AnishMulay/tinyfs/internal/log_service/zaplog"
)

type fixture struct {
	resolver *Resolver
	dir      *flat.FlatDirectoryService
	inodes   *inodemem.InodeTable
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ls := zaplog.NewNop()
	pool := blockmem.NewBlockPool(8, 4096, ls)
	inodes := inodemem.NewInodeTable(64, pool, ls)
	root, err := inodes.Create(is.TypeDirectory)
	require.NoError(t, err)
	dir := flat.NewFlatDirectoryService(root, inodes, pool, ls)
	return fixture{resolver: NewResolver(dir, inodes), dir: dir, inodes: inodes}
}

func (f fixture) file(t *testing.T, name string) is.InodeID {
	t.Helper()
	id, err := f.inodes.Create(is.TypeFile)
	require.NoError(t, err)
	require.NoError(t, f.dir.Add(name, id))
	return id
}

func (f fixture) symlink(t *testing.T, name, target string) is.InodeID {
	t.Helper()
	id, err := f.inodes.Create(is.TypeSymlink)
	require.NoError(t, err)
	require.NoError(t, f.inodes.Update(id, func(inode *is.Inode) error {
		inode.SymlinkTarget = target
		return nil
	}))
	require.NoError(t, f.dir.Add(name, id))
	return id
}

func TestName(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{path: "/f1", want: "f1"},
		{path: "/a/b", want: "a/b"},
		{path: "//", want: "/"},
		{path: "/", wantErr: true},
		{path: "", wantErr: true},
		{path: "f1", wantErr: true},
		{path: "/" + string(make([]byte, 3)), wantErr: true},
		{path: "/0123456789012345678901234567890123456789x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.path), func(t *testing.T) {
			got, err := Name(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_LookupDoesNotFollowLinks(t *testing.T) {
	f := newFixture(t)
	f.file(t, "f1")
	sl := f.symlink(t, "sl1", "/f1")

	id, err := f.resolver.Lookup("/sl1")
	require.NoError(t, err)
	assert.Equal(t, sl, id)

	_, err = f.resolver.Lookup("/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolver_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		setupFn func(t *testing.T, f fixture) is.InodeID
		path    string
		wantErr error
	}{
		{
			name:    "regular file",
			setupFn: func(t *testing.T, f fixture) is.InodeID { return f.file(t, "f1") },
			path:    "/f1",
		},
		{
			name: "chain of two links",
			setupFn: func(t *testing.T, f fixture) is.InodeID {
				id := f.file(t, "f1")
				f.symlink(t, "sl1", "/f1")
				f.symlink(t, "sl2", "/sl1")
				return id
			},
			path: "/sl2",
		},
		{
			name: "dangling link",
			setupFn: func(t *testing.T, f fixture) is.InodeID {
				f.symlink(t, "sl1", "/f1")
				return is.NoInode
			},
			path:    "/sl1",
			wantErr: ErrNotFound,
		},
		{
			name: "link to malformed path",
			setupFn: func(t *testing.T, f fixture) is.InodeID {
				f.symlink(t, "sl1", "f1")
				return is.NoInode
			},
			path:    "/sl1",
			wantErr: ErrNotFound,
		},
		{
			name: "self cycle",
			setupFn: func(t *testing.T, f fixture) is.InodeID {
				f.symlink(t, "loop", "/loop")
				return is.NoInode
			},
			path:    "/loop",
			wantErr: ErrTooManyLinks,
		},
		{
			name: "two link cycle",
			setupFn: func(t *testing.T, f fixture) is.InodeID {
				f.symlink(t, "a", "/b")
				f.symlink(t, "b", "/a")
				return is.NoInode
			},
			path:    "/a",
			wantErr: ErrNotFound,
		},
		{
			name:    "invalid path",
			setupFn: func(t *testing.T, f fixture) is.InodeID { return is.NoInode },
			path:    "/",
			wantErr: ErrInvalidPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			want := tt.setupFn(t, f)

			id, inode, err := f.resolver.Resolve(tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, is.NoInode, id)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, want, id)
			assert.Equal(t, is.TypeFile, inode.Type)
		})
	}
}

func TestResolver_HopLimit(t *testing.T) {
	f := newFixture(t)
	f.file(t, "l0")
	for i := 1; i <= MaxSymlinkHops+1; i++ {
		f.symlink(t, fmt.Sprintf("l%d", i), fmt.Sprintf("/l%d", i-1))
	}

	_, _, err := f.resolver.Resolve(fmt.Sprintf("/l%d", MaxSymlinkHops))
	assert.NoError(t, err, "exactly MaxSymlinkHops links resolve")

	_, _, err = f.resolver.Resolve(fmt.Sprintf("/l%d", MaxSymlinkHops+1))
	assert.ErrorIs(t, err, ErrTooManyLinks)
	assert.ErrorIs(t, err, ErrNotFound)
}
