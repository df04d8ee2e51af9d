package noise

// LatticeHash maps a simplex lattice corner and a salt (seed+tag) to a
// 32-bit hash. The kernel only consumes the low bits.
type LatticeHash func(i, j int, salt string) uint32

// MixCoord is an integer-mixing alternative to HashCoord. It skips the
// coordinate string formatting and mixes the coordinates with a splitmix64
// finalizer, so it is several times faster, but the fields it produces are
// NOT compatible with fields generated through HashCoord.
func MixCoord(i, j int, salt string) uint32 {
	seed := uint64(HashString(salt, ""))
	ui := uint64(uint32(int32(i)))
	uj := uint64(uint32(int32(j)))
	v := mix64(seed ^ ui*0x9e3779b97f4a7c15 ^ uj*0xbf58476d1ce4e5b9)
	return uint32(v ^ v>>32)
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// ParseLatticeHash maps a config name to a LatticeHash.
// "" and "string" select HashCoord; "mix" selects MixCoord.
func ParseLatticeHash(name string) (LatticeHash, bool) {
	switch name {
	case "", "string":
		return HashCoord, true
	case "mix":
		return MixCoord, true
	default:
		return nil, false
	}
}
