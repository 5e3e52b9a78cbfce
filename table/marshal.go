package table

import (
	"encoding/binary"
	"fmt"
)

// Marshal value tags.
const (
	tagArray  = 0x81
	tagBytes  = 0x03
	tagUint64 = 0x04
)

// Reader decodes marshalled values: arrays ([]any), byte strings
// ([]byte) and unsigned integers (uint64). All lengths and integers are
// big-endian.
type Reader struct {
	data []byte
	off  int
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || n > len(r.data)-r.off {
		return nil, fmt.Errorf("table: need %d bytes at offset %d, have %d",
			n, r.off, len(r.data)-r.off)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

// ReadValue decodes the next value.
func (r *Reader) ReadValue() (any, error) {
	kind, err := r.take(1)
	if err != nil {
		return nil, err
	}

	switch kind[0] {
	case tagArray:
		hdr, err := r.take(4)
		if err != nil {
			return nil, err
		}
		count := binary.BigEndian.Uint32(hdr)
		// Every element takes at least one byte.
		if int64(count) > int64(r.Remaining()) {
			return nil, fmt.Errorf("table: array of %d elements at offset %d overruns input",
				count, r.off)
		}
		values := make([]any, 0, count)
		for i := uint32(0); i < count; i++ {
			v, err := r.ReadValue()
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return values, nil

	case tagBytes:
		hdr, err := r.take(4)
		if err != nil {
			return nil, err
		}
		return r.take(int(binary.BigEndian.Uint32(hdr)))

	case tagUint64:
		b, err := r.take(8)
		if err != nil {
			return nil, err
		}
		return binary.BigEndian.Uint64(b), nil

	default:
		return nil, fmt.Errorf("table: unknown value type: %02x at offset %d", kind[0], r.off-1)
	}
}

// ReadAll decodes values until the input is exhausted.
func (r *Reader) ReadAll() ([]any, error) {
	var values []any
	for r.Remaining() > 0 {
		v, err := r.ReadValue()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// Decode decodes the single top-level value of data.
func Decode(data []byte) (any, error) {
	return NewReader(data).ReadValue()
}

// AppendValue encodes v, which must be built from []any, []byte and
// uint64, and appends it to dst.
func AppendValue(dst []byte, v any) ([]byte, error) {
	switch v := v.(type) {
	case []any:
		dst = append(dst, tagArray)
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(v)))
		for _, e := range v {
			var err error
			if dst, err = AppendValue(dst, e); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case []byte:
		dst = append(dst, tagBytes)
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(v)))
		return append(dst, v...), nil
	case uint64:
		dst = append(dst, tagUint64)
		return binary.BigEndian.AppendUint64(dst, v), nil
	default:
		return nil, fmt.Errorf("table: cannot marshal %T", v)
	}
}
