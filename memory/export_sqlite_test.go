//go:build !without_sqlite

package memory

// SetMaxKNN lowers the vec0 k limit for a test and restores it on cleanup.
func SetMaxKNN(t interface{ Cleanup(func()) }, n int) {
	prev := maxKNN
	maxKNN = n
	t.Cleanup(func() { maxKNN = prev })
}
