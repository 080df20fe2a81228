package lsb

import (
	"encoding/binary"
	"fmt"
	"math"
)

// FramedCapacity returns the largest payload, in bytes, that a buffer of n
// samples can carry in the framed layout.
func FramedCapacity(n int) int {
	c := n/BitsPerByte - HeaderBytes
	if c < 0 {
		return 0
	}
	return c
}

// EmbedFramed writes FrameMagic and a little-endian uint32 byte count
// followed by payload into the LSBs of buf. Header bytes are stored
// LSB-first like payload bytes. Samples after the frame are not modified.
// On error buf is left untouched.
func EmbedFramed(buf []byte, payload []byte) error {
	if uint64(len(payload)) > math.MaxUint32 {
		return newError(KindCapacityExceeded,
			fmt.Sprintf("payload of %d bytes exceeds the 32-bit length header", len(payload)))
	}
	need := (HeaderBytes + len(payload)) * BitsPerByte
	if len(buf) < need {
		return newError(KindCapacityExceeded,
			fmt.Sprintf("payload of %d bytes needs %d samples, buffer has %d", len(payload), need, len(buf)))
	}

	var header [HeaderBytes]byte
	copy(header[:], FrameMagic)
	binary.LittleEndian.PutUint32(header[len(FrameMagic):], uint32(len(payload)))
	writeBytes(buf, header[:])
	writeBytes(buf[HeaderBytes*BitsPerByte:], payload)
	return nil
}

// ExtractFramed reads the frame header from buf and returns the payload
// that follows it. A missing marker or a length that overruns the buffer is
// reported as KindCorruptHeader.
func ExtractFramed(buf []byte) ([]byte, error) {
	if len(buf) < HeaderBytes*BitsPerByte {
		return nil, newError(KindCorruptHeader,
			fmt.Sprintf("buffer of %d samples is too short for a frame header", len(buf)))
	}
	header := readBytes(buf, HeaderBytes)
	if string(header[:len(FrameMagic)]) != FrameMagic {
		return nil, newError(KindCorruptHeader, "no frame marker at the start of the buffer")
	}
	n := binary.LittleEndian.Uint32(header[len(FrameMagic):])
	if uint64(n) > uint64(FramedCapacity(len(buf))) {
		return nil, newError(KindCorruptHeader,
			fmt.Sprintf("header declares %d bytes, buffer holds at most %d", n, FramedCapacity(len(buf))))
	}
	return readBytes(buf[HeaderBytes*BitsPerByte:], int(n)), nil
}
