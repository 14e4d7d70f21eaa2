package keysource

import (
	"encoding/binary"
	"fmt"
	"io"

	"perfecthash/widekey"
)

// readerSource reads a dense stream of fixed-width little-endian keys
// (16 bytes per 128-bit key, 24 bytes per 192-bit key) and
// deduplicates them, grounded on the teacher's
// encoding/binary.LittleEndian read/append idiom
// (mmph/go-boomphf/serialize.go).
type readerSource struct {
	r     io.Reader
	width widekey.Width
	count int
}

// FromReader returns a Source reading count fixed-width keys from r.
func FromReader(r io.Reader, width widekey.Width, count int) Source {
	return &readerSource{r: r, width: width, count: count}
}

func (s *readerSource) Load() ([]widekey.Key, error) {
	keys := make([]widekey.Key, 0, s.count)
	buf := make([]byte, s.width.Lanes()*4)

	for i := 0; i < s.count; i++ {
		if _, err := io.ReadFull(s.r, buf); err != nil {
			return nil, fmt.Errorf("keysource: reading key %d: %w", i, err)
		}
		var k widekey.Key
		switch s.width {
		case widekey.Width128:
			k = widekey.NewKey128(
				binary.LittleEndian.Uint64(buf[0:8]),
				binary.LittleEndian.Uint64(buf[8:16]),
			)
		case widekey.Width192:
			k = widekey.NewKey192(
				binary.LittleEndian.Uint64(buf[0:8]),
				binary.LittleEndian.Uint64(buf[8:16]),
				binary.LittleEndian.Uint64(buf[16:24]),
			)
		default:
			return nil, fmt.Errorf("keysource: unsupported width %v", s.width)
		}
		keys = append(keys, k)
	}

	return Dedup(keys), nil
}

// WriteKey appends one key's little-endian wire form to w, matching
// the layout FromReader expects. Used by tests and by callers that
// want to stage a key file.
func WriteKey(w io.Writer, width widekey.Width, k widekey.Key) error {
	buf := make([]byte, 0, width.Lanes()*4)
	buf = binary.LittleEndian.AppendUint64(buf, k.Lo)
	if width == widekey.Width192 {
		buf = binary.LittleEndian.AppendUint64(buf, k.Mi)
	}
	buf = binary.LittleEndian.AppendUint64(buf, k.Hi)
	_, err := w.Write(buf)
	return err
}
