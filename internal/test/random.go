package test

import (
	"fmt"
	"math/rand"
)

const asciiLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomASCIIString returns an alphanumeric string with length in [minLen, maxLen].
func RandomASCIIString(minLen, maxLen int) string {
	if minLen <= 0 {
		minLen = 1
	}
	if maxLen < minLen {
		maxLen = minLen
	}
	buf := make([]byte, minLen+rand.Intn(maxLen-minLen+1))
	for i := range buf {
		buf[i] = asciiLetters[rand.Intn(len(asciiLetters))]
	}
	return string(buf)
}

// RandomPhone returns a local mobile number accepted by address validation.
func RandomPhone() string {
	return fmt.Sprintf("01%d%08d", 3+rand.Intn(7), rand.Intn(100_000_000))
}

// RandomDeviceID returns an identifier usable as cart device id.
func RandomDeviceID() string {
	return "device-" + RandomASCIIString(8, 8)
}
