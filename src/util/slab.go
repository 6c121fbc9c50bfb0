package util

// Slab is a pre-allocated scratch area for the scoring algorithms so that a
// worker never allocates inside the match loop
type Slab struct {
	I16 []int16
	I32 []int32
}

// MakeSlab returns a new Slab of the given capacities
func MakeSlab(size16 int, size32 int) *Slab {
	return &Slab{
		I16: make([]int16, size16),
		I32: make([]int32, size32)}
}
