package idhash

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"qvariance-lab/internal/domain"
)

// ComputeDatasetHash fingerprints dataset rows in order using SHA256 over
// ticker, date, horizon and the IEEE-754 bits of z and sigma. Two datasets
// hash equal only if they are bit-identical. Returns hex-encoded hash.
func ComputeDatasetHash(rows []domain.HorizonRow) string {
	h := sha256.New()
	var buf [8]byte

	for _, r := range rows {
		h.Write([]byte(r.Ticker))
		h.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], uint64(r.Date))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(r.T))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(r.Z))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(r.Sigma))
		h.Write(buf[:])
	}

	return hex.EncodeToString(h.Sum(nil))
}
