//go:build windows

package fs

import (
	"os"
	"syscall"
	"time"
)

// provides the creation time on Windows, which is what "ctime" means there.

func ctimeOf(info os.FileInfo) time.Time {
	d, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(0, d.CreationTime.Nanoseconds())
}
