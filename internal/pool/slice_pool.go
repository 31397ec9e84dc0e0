package pool

import "sync"

// The two-phase fused encoders cache one float32 range per row between
// the reduce and quantize passes; that scratch is hot enough to be worth
// recycling.
var float32SlicePool = sync.Pool{
	New: func() any { return &[]float32{} },
}

// GetFloat32Slice retrieves a float32 slice of exactly the requested
// length from the pool. Contents are unspecified. The cleanup function
// must be called, typically with defer, to return the slice.
//
//	ranges, cleanup := pool.GetFloat32Slice(nrows)
//	defer cleanup()
func GetFloat32Slice(size int) ([]float32, func()) {
	ptr, _ := float32SlicePool.Get().(*[]float32)
	slice := *ptr

	if cap(slice) < size {
		slice = make([]float32, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { float32SlicePool.Put(ptr) }
}
