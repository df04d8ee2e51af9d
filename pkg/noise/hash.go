package noise

import "strconv"

// HashString returns a 32-bit SuperFastHash of the UTF-8 bytes of text+salt.
//
// The result is part of the on-disk contract: fields generated with earlier
// releases must hash identically, so every shift, operation order and the
// 32-bit wraparound below is fixed. An empty text hashes to 0 whatever the
// salt.
func HashString(text, salt string) uint32 {
	if text == "" {
		return 0
	}
	b := text + salt

	n := len(b)
	hash := uint32(n)
	rem := n & 3
	i := 0

	for blocks := n >> 2; blocks > 0; blocks-- {
		hash += le16(b[i], b[i+1])
		tmp := le16(b[i+2], b[i+3])<<11 ^ hash
		hash = hash<<16 ^ tmp
		hash += hash >> 11
		i += 4
	}

	switch rem {
	case 3:
		hash += le16(b[i], b[i+1])
		hash ^= hash << 16
		hash ^= uint32(b[i+2]) << 18
		// Left shift, unlike the published algorithm. Existing fields depend on it.
		hash += hash << 11
	case 2:
		hash += le16(b[i], b[i+1])
		hash ^= hash << 11
		hash += hash >> 17
	case 1:
		hash += uint32(b[i])
		hash ^= hash << 10
		hash += hash >> 1
	}

	hash ^= hash << 3
	hash += hash >> 5
	hash ^= hash << 4
	hash += hash >> 17
	hash ^= hash << 25
	hash += hash >> 6

	return hash
}

func le16(lo, hi byte) uint32 {
	return uint32(lo) | uint32(hi)<<8
}

// CoordKey formats a lattice coordinate the way HashCoord hashes it.
func CoordKey(i, j int) string {
	buf := make([]byte, 0, 24)
	buf = append(buf, "x:"...)
	buf = strconv.AppendInt(buf, int64(i), 10)
	buf = append(buf, ", y:"...)
	buf = strconv.AppendInt(buf, int64(j), 10)
	return string(buf)
}

// HashCoord hashes the lattice coordinate (i, j) salted with seed.
func HashCoord(i, j int, seed string) uint32 {
	return HashString(CoordKey(i, j), seed)
}

// Hash8 reduces HashCoord to a byte by XOR-ing its four bytes together.
func Hash8(i, j int, seed string) uint8 {
	return fold8(HashCoord(i, j, seed))
}

func fold8(h uint32) uint8 {
	return uint8(h) ^ uint8(h>>8) ^ uint8(h>>16) ^ uint8(h>>24)
}
