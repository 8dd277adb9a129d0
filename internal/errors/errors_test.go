package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBiomeError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *BiomeError
		want string
	}{
		{
			name: "with cause",
			err:  New(ScanFailed, "cannot read /x", fs.ErrPermission),
			want: "[SCAN_FAILED] cannot read /x: permission denied",
		},
		{
			name: "without cause",
			err:  Newf(InvalidStrategy, "unknown strategy %q", "color"),
			want: `[INVALID_STRATEGY] unknown strategy "color"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestBiomeError_UnwrapAndIs(t *testing.T) {
	err := New(MoveFailed, "rename", fs.ErrExist)
	wrapped := fmt.Errorf("organize: %w", err)

	assert.ErrorIs(t, wrapped, fs.ErrExist)
	assert.Equal(t, MoveFailed, CodeOf(wrapped))
	assert.True(t, HasCode(wrapped, MoveFailed))
	assert.False(t, HasCode(wrapped, BackupFailed))
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, InternalError, CodeOf(errors.New("boom")))
	assert.False(t, HasCode(nil, InternalError))
}

func TestWithDetails(t *testing.T) {
	err := New(NotTracked, "no node", nil).WithDetails(map[string]string{"path": "/a"})
	require.NotNil(t, err.Details)
	assert.Equal(t, map[string]string{"path": "/a"}, err.Details)
}
