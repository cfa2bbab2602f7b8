//go:build linux

package fs

import (
	"os"
	"syscall"
	"time"
)

// times_linux.go extracts the inode change time from syscall.Stat_t.
// Objects without a Stat_t (e.g. in-memory trees) fall back to the mtime.

func ctimeOf(info os.FileInfo) time.Time {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec))
}
