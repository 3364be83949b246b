package format

// DerefInt64 dereferences p or returns def when nil.
func DerefInt64(p *int64, def int64) int64 {
	if p != nil {
		return *p
	}
	return def
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}

// EqualInt64 reports whether both pointers are nil or point to equal values.
func EqualInt64(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
