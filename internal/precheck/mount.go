package precheck

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// isMountPoint reports whether path is the root of a live mount, by the
// classic device-number comparison: a mount point lives on a different
// device than its parent directory.
func isMountPoint(path string) (bool, error) {
	path = filepath.Clean(path)
	if path == "/" {
		return true, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	parentInfo, err := os.Stat(filepath.Dir(path))
	if err != nil {
		return false, err
	}

	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false, fmt.Errorf("mount check unsupported on this platform")
	}
	pst, ok := parentInfo.Sys().(*syscall.Stat_t)
	if !ok {
		return false, fmt.Errorf("mount check unsupported on this platform")
	}

	if st.Dev != pst.Dev {
		return true, nil
	}
	// Bind mounts of the same filesystem share a device; the root of such a
	// mount is its own directory entry.
	return st.Ino == pst.Ino, nil
}
