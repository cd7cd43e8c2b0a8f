package mathx

func FloorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func Mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func Hash2(seed int64, x, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uz := uint64(uint32(int32(z)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

// Hash4 mixes the full 64-bit value of each argument in order, so values
// outside the int32 range and permutations of the arguments hash apart.
func Hash4(seed int64, a, b, c, d int) uint64 {
	h := uint64(seed)
	for _, v := range [4]int{a, b, c, d} {
		h = mix64(h ^ uint64(int64(v)))
	}
	return h
}

// Unit maps a hash onto [0, 1).
func Unit(h uint64) float64 {
	return float64(h>>11) / (1 << 53)
}
