package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Key derives the cache key for a chunk's samples under engine identity.
func Key(identity string, samples []float32) string {
	h := sha256.New()
	h.Write([]byte(identity))
	h.Write([]byte{0})

	var buf [4096]byte
	n := 0
	for _, s := range samples {
		binary.LittleEndian.PutUint32(buf[n:], math.Float32bits(s))
		n += 4
		if n == len(buf) {
			h.Write(buf[:n])
			n = 0
		}
	}
	h.Write(buf[:n])
	return hex.EncodeToString(h.Sum(nil))
}
