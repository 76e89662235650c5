package common

// WipeByteArray zeroes buf in place. Callers use it to scrub passphrases and
// key material once they are no longer needed.
func WipeByteArray(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
