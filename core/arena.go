package core

import "github.com/go-gl/mathgl/mgl64"

// Arena hands out reusable scratch slices for the per-frame pipeline.
// Checkout order must be stable across frames: Reset at the top of the
// frame, then each Vec3/Float64 call returns the next pooled slice grown
// to the requested length. Capacity is retained between frames so the
// steady state performs no allocation.
//
// An Arena is not safe for concurrent use; give each creature its own.
type Arena struct {
	vec3 [][]mgl64.Vec3
	f64  [][]float64
	vn   int
	fn   int
}

// Reset rewinds the arena for a new frame. Previously returned slices
// become invalid.
func (a *Arena) Reset() {
	a.vn = 0
	a.fn = 0
}

// Vec3 returns the next scratch Vec3 slice with length n.
func (a *Arena) Vec3(n int) []mgl64.Vec3 {
	if a.vn == len(a.vec3) {
		a.vec3 = append(a.vec3, make([]mgl64.Vec3, 0, n))
	}
	s := a.vec3[a.vn]
	if cap(s) < n {
		s = make([]mgl64.Vec3, n)
		a.vec3[a.vn] = s
	}
	a.vec3[a.vn] = s[:n]
	a.vn++
	return a.vec3[a.vn-1]
}

// Float64 returns the next scratch float64 slice with length n.
func (a *Arena) Float64(n int) []float64 {
	if a.fn == len(a.f64) {
		a.f64 = append(a.f64, make([]float64, 0, n))
	}
	s := a.f64[a.fn]
	if cap(s) < n {
		s = make([]float64, n)
		a.f64[a.fn] = s
	}
	a.f64[a.fn] = s[:n]
	a.fn++
	return a.f64[a.fn-1]
}

// GrowVec3 returns s resized to length n, reallocating only when the
// retained capacity is exceeded.
func GrowVec3(s []mgl64.Vec3, n int) []mgl64.Vec3 {
	if cap(s) < n {
		next := make([]mgl64.Vec3, n)
		copy(next, s)
		return next
	}
	return s[:n]
}

// GrowFloat32 returns s resized to length n, reallocating only when the
// retained capacity is exceeded.
func GrowFloat32(s []float32, n int) []float32 {
	if cap(s) < n {
		next := make([]float32, n)
		copy(next, s)
		return next
	}
	return s[:n]
}

// GrowUint32 returns s resized to length n, reallocating only when the
// retained capacity is exceeded.
func GrowUint32(s []uint32, n int) []uint32 {
	if cap(s) < n {
		next := make([]uint32, n)
		copy(next, s)
		return next
	}
	return s[:n]
}
