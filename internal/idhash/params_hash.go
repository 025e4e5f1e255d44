// Package idhash computes deterministic fingerprints of runs and datasets.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"qvariance-lab/internal/domain"
)

// ComputeParamsHash fingerprints simulation parameters using SHA256.
// Formula: SHA256(n_days|s0|sigma0|kappa|c_int|a_shape|lam_cap|seed|burn_in)
// Floats use the shortest exact decimal form. Returns hex-encoded hash (64 characters).
func ComputeParamsHash(p domain.SimulationParams) string {
	data := fmt.Sprintf("%d|%s|%s|%s|%s|%s|%s|%d|%d",
		p.NDays,
		exact(p.S0),
		exact(p.Sigma0),
		exact(p.Kappa),
		exact(p.CInt),
		exact(p.AShape),
		exact(p.LamCap),
		p.Seed,
		p.BurnIn,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

func exact(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
