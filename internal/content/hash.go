package content

// hash32 mixes 32-bit input into a well-distributed 32-bit output.
func hash32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

// hash2 returns a stable hash for 2D integer coordinates + seed.
func hash2(seed uint32, x, y int) uint32 {
	h := seed
	h ^= uint32(int32(x)) * 0x9e3779b1
	h ^= uint32(int32(y)) * 0x85ebca6b
	return hash32(h)
}

// stream is a splitmix-style sequence seeded from a cell hash. It is local to
// one generation call and never shared between goroutines.
type stream struct {
	state uint64
}

func newStream(seed uint32) *stream {
	return &stream{state: uint64(seed)<<32 | uint64(hash32(seed^0xa5a5a5a5))}
}

func (s *stream) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// float returns a value in [0, 1).
func (s *stream) float() float64 {
	return float64(s.next()>>11) / (1 << 53)
}

func (s *stream) between(lo, hi float64) float64 {
	return lo + (hi-lo)*s.float()
}
