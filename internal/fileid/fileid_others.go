//go:build !unix

package fileid

func stat(path string) (dev, ino, nlink uint64, err error) {
	return 0, 0, 0, ErrNotOS
}
