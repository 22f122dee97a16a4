// Package mempool recycles the per-image mask buffers used while labeling.
package mempool

import "sync"

// sizedPool keeps one sync.Pool per size class.
type sizedPool[T any] struct {
	pools sync.Map // key: size class (int), value: *sync.Pool
}

// sizeClass rounds n up to a multiple of 1024 to reduce churn.
func sizeClass(n int) int {
	if n <= 1024 {
		return 1024
	}
	const step = 1024
	return (n + step - 1) / step * step
}

func (sp *sizedPool[T]) pool(cls int) *sync.Pool {
	pAny, _ := sp.pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]T, cls) }})
	return pAny.(*sync.Pool) //nolint:forcetypeassert // only *sync.Pool is stored
}

func (sp *sizedPool[T]) get(n int) []T {
	cls := sizeClass(n)
	buf, ok := sp.pool(cls).Get().([]T)
	if !ok || cap(buf) < cls {
		buf = make([]T, cls)
	}
	return buf[:n]
}

func (sp *sizedPool[T]) put(buf []T) {
	if buf == nil {
		return
	}
	// A buffer is filed under the largest class it can serve.
	cls := cap(buf) / 1024 * 1024
	if cls < 1024 {
		return
	}
	sp.pool(cls).Put(buf[:cap(buf)]) //nolint:staticcheck // slices are small headers
}

var boolPool sizedPool[bool]

// GetBool returns a zeroed []bool of length n. Return it with PutBool.
func GetBool(n int) []bool {
	buf := boolPool.get(n)
	clear(buf)
	return buf
}

// PutBool returns a buffer to the pool. It is safe to pass a nil slice.
func PutBool(buf []bool) {
	boolPool.put(buf)
}
