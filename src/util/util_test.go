package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelativePath(t *testing.T) {
	tests := []struct {
		name     string
		root     string
		target   string
		expected string
		err      error
	}{
		{
			name:     "top_level_file",
			root:     "https://physionet.org/files/afdb/1.0.0/",
			target:   "https://physionet.org/files/afdb/1.0.0/RECORDS",
			expected: "RECORDS",
		},
		{
			name:     "nested_file",
			root:     "https://physionet.org/files/afdb/1.0.0/",
			target:   "https://physionet.org/files/afdb/1.0.0/sub/deep/b.bin",
			expected: "sub/deep/b.bin",
		},
		{
			name:     "escaped_name",
			root:     "http://example.com/data/",
			target:   "http://example.com/data/my%20file.txt",
			expected: "my file.txt",
		},
		{
			name:     "root_without_trailing_slash_resolves_to_parent",
			root:     "http://example.com/data/index.html",
			target:   "http://example.com/data/a.bin",
			expected: "a.bin",
		},
		{
			name:   "other_host",
			root:   "http://example.com/data/",
			target: "http://mirror.example.com/data/a.bin",
			err:    ErrOutsideRoot,
		},
		{
			name:   "other_scheme",
			root:   "http://example.com/data/",
			target: "https://example.com/data/a.bin",
			err:    ErrOutsideRoot,
		},
		{
			name:   "sibling_tree",
			root:   "http://example.com/data/",
			target: "http://example.com/other/a.bin",
			err:    ErrOutsideRoot,
		},
		{
			name:   "escapes_with_dots",
			root:   "http://example.com/data/",
			target: "http://example.com/data/../../etc/passwd",
			err:    ErrOutsideRoot,
		},
		{
			name:   "root_itself",
			root:   "http://example.com/data/",
			target: "http://example.com/data/",
			err:    ErrOutsideRoot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel, err := RelativePath(tt.root, tt.target)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, rel)
		})
	}
}

func TestLocalPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "sub", "b.bin"), LocalPath("out", "sub/b.bin"))
}

type testConfig struct {
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Fetcher struct {
		Concurrency uint32 `mapstructure:"concurrency"`
	} `mapstructure:"fetcher"`
}

func TestReadConfigDefaultsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o644))
	t.Setenv("DIRFETCH_FETCHER_CONCURRENCY", "4")

	var cfg testConfig
	err := ReadConfig(path, map[string]interface{}{
		"log.level":           "info",
		"fetcher.concurrency": 15,
	}, &cfg)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, uint32(4), cfg.Fetcher.Concurrency)
}

func TestReadConfigWithoutFile(t *testing.T) {
	var cfg testConfig
	err := ReadConfig("", map[string]interface{}{"fetcher.concurrency": 15}, &cfg)
	require.NoError(t, err)
	assert.Equal(t, uint32(15), cfg.Fetcher.Concurrency)
}

func TestReadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	err := ReadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil, &cfg)
	assert.Error(t, err)
}
