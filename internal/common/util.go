package common

// WipeByteArray overwrites the contents of b with zeros. Used for passwords
// read from a terminal once they have been copied out.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
