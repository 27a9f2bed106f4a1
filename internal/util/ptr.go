package util

// Ptr returns a pointer to the given value, for optional config fields
// set from literals.
func Ptr[T any](v T) *T {
	return &v
}
