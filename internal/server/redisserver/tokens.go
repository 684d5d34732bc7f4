package redisserver

// tokenPool hands out connection tokens 1..size. Token 0 and the wake
// token are reserved by the loop.
type tokenPool struct {
	free []uint32
}

func newTokenPool(size int) *tokenPool {
	free := make([]uint32, size)
	for i := range free {
		// Lowest tokens are handed out first.
		free[i] = uint32(size - i)
	}
	return &tokenPool{free: free}
}

// get returns a free token, or false when the pool is exhausted.
func (p *tokenPool) get() (uint32, bool) {
	n := len(p.free)
	if n == 0 {
		return 0, false
	}
	t := p.free[n-1]
	p.free = p.free[:n-1]
	return t, true
}

// put returns t to the pool.
func (p *tokenPool) put(t uint32) {
	p.free = append(p.free, t)
}

// available returns the number of free tokens.
func (p *tokenPool) available() int {
	return len(p.free)
}
