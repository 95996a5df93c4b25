package core

import "math/rand/v2"

// CellNoise returns a deterministic pseudo-random value for one cell of one
// frame. Kernels use it instead of shared RNG state so parallel rows never
// contend.
func CellNoise(seed uint64, frame uint64, x, y int) uint64 {
	idx := uint64(uint32(x)) | uint64(uint32(y))<<32
	pcg := rand.NewPCG(seed^idx, frame*0x9e3779b97f4a7c15+idx)
	return pcg.Uint64()
}

// CellChance converts CellNoise into a float in [0, 1).
func CellChance(seed uint64, frame uint64, x, y int) float32 {
	return float32(CellNoise(seed, frame, x, y)>>40) / float32(1<<24)
}
