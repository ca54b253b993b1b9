// Package fileid identifies files by their on-disk (device, inode) pair so
// that an archive writer can recognize hardlinked files and emit a single
// TypeLink entry instead of duplicating their data.
package fileid

import (
	"encoding/binary"
	"errors"

	"github.com/cespare/xxhash/v2"
)

// ErrNotOS is returned when the platform does not expose stat identity
// (device/inode) information.
var ErrNotOS = errors.New("fileid: identity unavailable on this platform")

// ID is a fold of a file's (device, inode) pair into a single comparable
// value. It is stable only for the lifetime of a single archive-creation
// walk; it is not a persistent content identity.
type ID uint64

// Info records a file's hardlink identity as reported by the platform's
// stat call.
type Info struct {
	ID    ID
	Nlink uint64
}

// Lookup reports the on-disk identity of the file at path.
func Lookup(path string) (Info, error) {
	dev, ino, nlink, err := stat(path)
	if err != nil {
		return Info{}, err
	}
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], dev)
	binary.BigEndian.PutUint64(b[8:], ino)
	return Info{ID: ID(xxhash.Sum64(b[:])), Nlink: nlink}, nil
}

// Index tracks file identities already seen during a single archive walk,
// so a writer can emit TypeLink for the second and later occurrence of the
// same inode instead of re-archiving its data.
type Index struct {
	seen map[ID]string // identity -> first archive path
}

// NewIndex returns an empty hardlink index.
func NewIndex() *Index {
	return &Index{seen: make(map[ID]string)}
}

// Visit records archivePath under info's identity if this is the first
// time that identity has been seen. If it has been seen before, it returns
// the archive path of the first occurrence and ok is true. Files with
// Nlink <= 1 have no other names on disk and are never tracked.
func (idx *Index) Visit(info Info, archivePath string) (firstPath string, ok bool) {
	if info.Nlink <= 1 {
		return "", false
	}
	if p, seen := idx.seen[info.ID]; seen {
		return p, true
	}
	idx.seen[info.ID] = archivePath
	return "", false
}
