package dtype

import (
	"bytes"

	"github.com/robert-malhotra/hdf5kit/internal/message"
)

// FixedStringSize is the element size needed to store s with pad.
func FixedStringSize(s string, pad message.StringPadding) int {
	if pad == message.PadNullTerm {
		return len(s) + 1
	}
	return max(len(s), 1)
}

// EncodeFixedString lays s out in a size-byte slot. Text that does not
// fit is truncated, keeping room for the terminator when pad requires one.
func EncodeFixedString(s string, size int, pad message.StringPadding) []byte {
	out := make([]byte, size)
	limit := size
	if pad == message.PadNullTerm {
		limit = size - 1
	}
	n := copy(out[:max(limit, 0)], s)
	if pad == message.PadSpacePad {
		for i := n; i < size; i++ {
			out[i] = ' '
		}
	}
	return out
}

// DecodeFixedString extracts the text of a fixed-length string slot.
func DecodeFixedString(b []byte, pad message.StringPadding) string {
	if pad == message.PadSpacePad {
		return string(bytes.TrimRight(b, " \x00"))
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
