// Package ptr has helpers for the optional, pointer-typed fields of the snapshot document.
package ptr

// Ref returns a pointer to a copy of v.
func Ref[T any](v T) *T {
	return &v
}

// Deref returns *p, or fallback when p is nil.
func Deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

// Clone returns a pointer to a copy of *p, or nil when p is nil, so that copies never alias.
func Clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
