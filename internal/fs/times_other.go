//go:build !linux && !darwin && !windows

package fs

import (
	"os"
	"time"
)

func ctimeOf(info os.FileInfo) time.Time {
	return info.ModTime()
}
