// Package tarindex builds and queries a persistent index of archive entry
// names to their byte offsets, so that a single sequential pass over a tar
// stream can answer later "does this archive contain X, and how big is it"
// questions without a full re-scan.
package tarindex

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/cockroachdb/pebble/v2"

	tar "github.com/naqvis/crystar"
)

// Entry describes where a single archive member's header begins and how
// large its payload is.
type Entry struct {
	Offset   int64
	Size     int64
	Typeflag byte
}

// Index is a pebble-backed on-disk store of archive entry offsets.
type Index struct {
	db *pebble.DB
}

// Open opens (creating if necessary) a persistent index rooted at dir.
func Open(dir string) (*Index, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Index{db: db}, nil
}

// Close releases the underlying database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Build performs one sequential pass over r, a complete tar stream, and
// persists a name -> Entry record for every file header encountered. It
// does not decompress r; callers are responsible for supplying an already
// decompressed tar byte stream.
func (idx *Index) Build(r io.Reader) (int, error) {
	tr := tar.NewReader(r)

	batch := idx.db.NewBatch()
	defer batch.Close()

	var n int
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, err
		}
		if err := batch.Set([]byte(hdr.Name), encodeEntry(Entry{
			Offset:   tr.HeaderOffset(),
			Size:     hdr.Size,
			Typeflag: hdr.Typeflag,
		}), nil); err != nil {
			return n, err
		}
		n++
	}
	return n, batch.Commit(pebble.Sync)
}

// Lookup reports the indexed Entry for name, if present.
func (idx *Index) Lookup(name string) (Entry, bool, error) {
	v, closer, err := idx.db.Get([]byte(name))
	if errors.Is(err, pebble.ErrNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	defer closer.Close()
	return decodeEntry(v), true, nil
}

func encodeEntry(e Entry) []byte {
	b := make([]byte, 17)
	binary.BigEndian.PutUint64(b[0:8], uint64(e.Offset))
	binary.BigEndian.PutUint64(b[8:16], uint64(e.Size))
	b[16] = e.Typeflag
	return b
}

func decodeEntry(b []byte) Entry {
	if len(b) < 17 {
		return Entry{}
	}
	return Entry{
		Offset:   int64(binary.BigEndian.Uint64(b[0:8])),
		Size:     int64(binary.BigEndian.Uint64(b[8:16])),
		Typeflag: b[16],
	}
}
