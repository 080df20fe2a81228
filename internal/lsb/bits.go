// Package lsb hides byte payloads in bit 0 of every sample of a flat pixel
// buffer and recovers them again.
//
// Payload bytes are written LSB-first: bit 0 of payload[0] goes into
// buf[0], bit 1 into buf[1], and so on. Only bit 0 of a buffer byte is ever
// modified; the upper seven bits and the buffer length never change.
//
// Two layouts are provided. The sentinel layout (Embed/Extract) stores no
// length and pads everything after the payload with set LSBs; extraction
// stops at the first run of SentinelRun consecutive set LSBs. The framed
// layout (EmbedFramed/ExtractFramed) writes a marker and a 32-bit length
// header first and accepts any payload.
package lsb

// FrameMagic opens every framed-layout header. A buffer whose first samples
// do not spell it carries no frame.
const FrameMagic = "SGF1"

const (
	// SentinelRun is the number of consecutive set LSBs that terminates a
	// sentinel-layout payload.
	SentinelRun = 8

	// BitsPerByte is the number of buffer bytes consumed per payload byte.
	BitsPerByte = 8

	// HeaderBytes is the size of the framed-layout header: FrameMagic
	// followed by a little-endian uint32 payload length.
	HeaderBytes = len(FrameMagic) + 4

	lsbMask = 0x01
)

// setLSB writes bit into bit 0 of b and leaves bits 1-7 untouched.
func setLSB(b byte, bit byte) byte {
	return b&^lsbMask | bit&lsbMask
}

// writeBytes stores src LSB-first into the LSBs of dst starting at dst[0].
// dst must hold at least len(src)*BitsPerByte bytes.
func writeBytes(dst []byte, src []byte) {
	for o, v := range src {
		for i := 0; i < BitsPerByte; i++ {
			n := o*BitsPerByte + i
			dst[n] = setLSB(dst[n], v>>i)
		}
	}
}

// readBytes reassembles n bytes from the LSBs of src.
func readBytes(src []byte, n int) []byte {
	out := make([]byte, n)
	for o := range out {
		var acc byte
		for i := 0; i < BitsPerByte; i++ {
			acc |= (src[o*BitsPerByte+i] & lsbMask) << i
		}
		out[o] = acc
	}
	return out
}

// longestOnesRun returns the longest run of set bits in payload when it is
// read LSB-first, byte after byte.
func longestOnesRun(payload []byte) int {
	longest, run := 0, 0
	for _, v := range payload {
		for i := 0; i < BitsPerByte; i++ {
			if v>>i&1 == 1 {
				run++
				if run > longest {
					longest = run
				}
			} else {
				run = 0
			}
		}
	}
	return longest
}
