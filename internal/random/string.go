package random

import (
	"crypto/rand"
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// SuffixLength is the length of the random part of every blob key.
const SuffixLength = 16

// String generates a random alphanumeric string of the given length using crypto/rand.
// Bytes above the largest multiple of the charset size are discarded so every
// character is equally likely.
func String(length int) string {
	const limit = 256 - 256%len(alphanumeric)
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphanumeric[int(b)%len(alphanumeric)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out)
}

// Suffix returns a fresh random blob key prefix.
func Suffix() string {
	return String(SuffixLength)
}
