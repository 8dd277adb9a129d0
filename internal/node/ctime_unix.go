//go:build linux

package node

import (
	"os"
	"syscall"
	"time"
)

// createdAt uses the inode change time, the closest Linux offers to a
// creation time through stat(2).
func createdAt(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec)) //nolint:unconvert // int32 on 32-bit targets
	}
	return info.ModTime()
}
