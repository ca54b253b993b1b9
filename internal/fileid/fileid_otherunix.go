//go:build unix && !linux && !darwin

package fileid

import "golang.org/x/sys/unix"

func stat(path string) (dev, ino, nlink uint64, err error) {
	var st unix.Stat_t
	if err = unix.Lstat(path, &st); err != nil {
		return 0, 0, 0, err
	}
	return uint64(st.Dev), uint64(st.Ino), uint64(st.Nlink), nil
}
