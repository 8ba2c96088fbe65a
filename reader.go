package bitlock

// Reader is a readable bit vector.  It is implemented by both Vector
// (in memory, r/w) and Disk (file backed, ro)
type Reader interface {
	Len() uint64
	Get(i uint64) bool
}

// Each calls fn with the index of every set bit of r, in ascending order,
// until fn returns false.
func Each(r Reader, fn func(i uint64) bool) {
	for i := uint64(0); i < r.Len(); i++ {
		if r.Get(i) && !fn(i) {
			return
		}
	}
}
