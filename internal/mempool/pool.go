// Package mempool provides sized pools for the scratch buffers used on
// pixel-level hot paths: correlation integral images and flood-fill
// visitation masks. Buffers come back zeroed so callers can treat a
// pooled slice exactly like a fresh make().
package mempool

import "sync"

var (
	float64Pools sync.Map // size class (int) -> *sync.Pool of []float64
	boolPools    sync.Map // size class (int) -> *sync.Pool of []bool
)

// sizeClass rounds n up to a 1 KiB-element bucket so slightly different
// raster sizes share pools instead of fragmenting them.
func sizeClass(n int) int {
	const step = 1024
	if n <= step {
		return step
	}
	return ((n + step - 1) / step) * step
}

// GetFloat64 returns a zeroed []float64 of length n. Return it with
// PutFloat64 once the computation is done.
func GetFloat64(n int) []float64 {
	cls := sizeClass(n)
	pAny, _ := float64Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]float64, cls) }})
	buf := pAny.(*sync.Pool).Get().([]float64)
	if cap(buf) < n {
		buf = make([]float64, cls)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}

// PutFloat64 hands a buffer back to its pool. Nil is a no-op.
func PutFloat64(buf []float64) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := float64Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]float64, cls) }})
	pAny.(*sync.Pool).Put(buf[:cap(buf)]) //nolint:staticcheck
}

// GetBool returns a zeroed []bool of length n for visitation masks.
// Return it with PutBool once the fill is done.
func GetBool(n int) []bool {
	cls := sizeClass(n)
	pAny, _ := boolPools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]bool, cls) }})
	buf := pAny.(*sync.Pool).Get().([]bool)
	if cap(buf) < n {
		buf = make([]bool, cls)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}

// PutBool hands a mask back to its pool. Nil is a no-op.
func PutBool(buf []bool) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := boolPools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]bool, cls) }})
	pAny.(*sync.Pool).Put(buf[:cap(buf)]) //nolint:staticcheck
}
