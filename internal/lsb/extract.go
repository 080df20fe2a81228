package lsb

import "fmt"

// Extract scans the LSBs of buf and returns the bytes assembled before the
// first run of SentinelRun set LSBs. The byte under assembly when the run
// completes belongs to the terminator and is dropped.
//
// If buf ends before a terminator is seen, Extract returns the bytes it
// completed so far together with a KindSentinelNotFound error.
func Extract(buf []byte) ([]byte, error) {
	secret := make([]byte, 0, len(buf)/BitsPerByte)

	var acc byte
	i, ones := 0, 0
	for _, b := range buf {
		if i == BitsPerByte {
			secret = append(secret, acc)
			acc, i = 0, 0
		}
		if b&lsbMask == 0 {
			acc &^= 1 << i
			ones = 0
		} else {
			acc |= 1 << i
			ones++
		}
		i++
		if ones == SentinelRun {
			return secret, nil
		}
	}
	return secret, newError(KindSentinelNotFound,
		fmt.Sprintf("no run of %d set LSBs in %d samples", SentinelRun, len(buf)))
}
