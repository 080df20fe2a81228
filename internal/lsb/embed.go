package lsb

import "fmt"

// Capacity returns the largest payload, in bytes, that a buffer of n
// samples can carry in the sentinel layout.
func Capacity(n int) int {
	c := n/BitsPerByte - 1
	if c < 0 {
		return 0
	}
	return c
}

// Embed writes payload into the LSBs of buf and forces bit 0 of every byte
// after the payload to 1.
//
// buf must hold at least len(payload)*8 + SentinelRun bytes. Payloads whose
// bit stream contains a run of SentinelRun set bits are rejected because
// Extract would stop inside them. On error buf is left untouched.
func Embed(buf []byte, payload []byte) error {
	need := len(payload)*BitsPerByte + SentinelRun
	if len(buf) < need {
		return newError(KindCapacityExceeded,
			fmt.Sprintf("payload of %d bytes needs %d samples, buffer has %d", len(payload), need, len(buf)))
	}
	if longestOnesRun(payload) >= SentinelRun {
		return newError(KindAmbiguousPayload,
			fmt.Sprintf("payload contains %d consecutive set bits", SentinelRun))
	}
	EmbedTruncating(buf, payload)
	return nil
}

// EmbedTruncating writes as many payload bits as fit into buf, then pads the
// remaining bytes with set LSBs. It performs no validation and returns the
// number of whole payload bytes written, min(len(payload), len(buf)/8).
//
// When buf is shorter than len(payload)*8 + SentinelRun the terminator is
// incomplete and Extract reports KindSentinelNotFound.
func EmbedTruncating(buf []byte, payload []byte) int {
	o, i := 0, 0
	for n := range buf {
		if o == len(payload) {
			buf[n] |= lsbMask
			continue
		}
		buf[n] = setLSB(buf[n], payload[o]>>i)
		i++
		if i == BitsPerByte {
			i = 0
			o++
		}
	}
	return o
}
