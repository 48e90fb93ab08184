package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Params)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(p *Params) {}},
		{name: "zero inodes", mutate: func(p *Params) { p.MaxInodeCount = 0 }, wantErr: true},
		{name: "negative blocks", mutate: func(p *Params) { p.MaxBlockCount = -1 }, wantErr: true},
		{name: "zero handles", mutate: func(p *Params) { p.MaxOpenFilesCount = 0 }, wantErr: true},
		{name: "zero block size", mutate: func(p *Params) { p.BlockSize = 0 }, wantErr: true},
		{name: "tiny but positive", mutate: func(p *Params) { *p = Params{1, 1, 1, 1} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)

			err := p.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParams)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultParams(t *testing.T) {
	assert.Equal(t, Params{
		MaxInodeCount:     64,
		MaxBlockCount:     1024,
		MaxOpenFilesCount: 16,
		BlockSize:         1024,
	}, DefaultParams())
}

func TestLoad_WritesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "tinyfs.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config should be written to disk")

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tinyfs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  block_size: 64\nlog:\n  level: DEBUG\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Store.BlockSize)
	assert.Equal(t, 64, cfg.Store.MaxInodeCount)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
}

func TestLoad_RejectsInvalidParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tinyfs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  max_inode_count: 0\n"), 0644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestLoadViper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tinyfs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  max_block_count: 8\nserver:\n  node_id: from-file\n"), 0644))
	t.Setenv("TINYFS_STORE_BLOCK_SIZE", "128")

	cfg, err := LoadViper(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Store.MaxBlockCount)
	assert.Equal(t, 128, cfg.Store.BlockSize)
	assert.Equal(t, 16, cfg.Store.MaxOpenFilesCount)
	assert.Equal(t, "from-file", cfg.Server.NodeID)
}

func TestLoadViper_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadViper(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultParams(), cfg.Store)
}
