// Package utils provides utility functions for the application.
package utils

// ToPtr returns a pointer to v. Handy for the nullable model fields
// gorm maps to pointer types.
func ToPtr[T any](v T) *T {
	return &v
}
