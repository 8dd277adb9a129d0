package slogutil

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"", 0},
		{"invalid", 0},
		{"100", 100},
		{"100B", 100},
		{"1kb", 1024},
		{"10KB", 10240},
		{"1MB", 1 << 20},
		{"10 MB", 10 << 20},
		{"1GB", 1 << 30},
		{"1.5MB", int64(1.5 * (1 << 20))},
		{"MB", 0},
		{"-5KB", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSize(tt.input))
		})
	}
}

func TestRotatingFile_RotatesAndKeepsBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "biome.log")

	rf, err := OpenRotatingFile(path, FileOptions{MaxSize: 50, MaxBackups: 2})
	require.NoError(t, err)

	line := append(bytes.Repeat([]byte("a"), 29), '\n')
	for i := 0; i < 6; i++ {
		_, err := rf.Write(line)
		require.NoError(t, err)
	}
	require.NoError(t, rf.Close())

	assert.FileExists(t, path)
	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	assert.NoFileExists(t, path+".3")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.LessOrEqual(t, info.Size(), int64(50))
}

func TestRotatingFile_NoBackupsTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biome.log")

	rf, err := OpenRotatingFile(path, FileOptions{MaxSize: 20})
	require.NoError(t, err)
	defer rf.Close()

	_, err = rf.Write([]byte("0123456789012345\n"))
	require.NoError(t, err)
	_, err = rf.Write([]byte("next\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "next\n", string(data))
	assert.NoFileExists(t, path+".1")
}

func TestRotatingFile_CompressesBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biome.log")

	rf, err := OpenRotatingFile(path, FileOptions{MaxSize: 20, MaxBackups: 2, Compress: true})
	require.NoError(t, err)
	_, err = rf.Write([]byte("first line of log\n"))
	require.NoError(t, err)
	_, err = rf.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, rf.Close())

	assert.NoFileExists(t, path+".1")
	f, err := os.Open(path + ".1.gz")
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "first line of log\n", string(data))

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(current))
}

func TestRotatingFile_WriteAfterClose(t *testing.T) {
	rf, err := OpenRotatingFile(filepath.Join(t.TempDir(), "biome.log"), FileOptions{})
	require.NoError(t, err)
	require.NoError(t, rf.Close())
	_, err = rf.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestNewFileLogger_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biome.log")

	logger, closer, err := NewFileLogger(path, slog.LevelInfo, FileOptions{JSON: true})
	require.NoError(t, err)
	logger.Info("scan finished", "files", 3)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"scan finished"`)
	assert.Contains(t, string(data), `"files":3`)
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biome.log")

	logger, closer, err := NewFileLogger(path, slog.LevelInfo, FileOptions{MaxSize: ParseSize("1MB"), MaxBackups: 3})
	require.NoError(t, err)
	logger.Info("watching root", "path", "/home/u/Desktop")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "watching root")
}
