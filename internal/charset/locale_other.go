//go:build !windows

package charset

// Outside Windows the locale comes from the environment only.
func hostCodePageIsCP932() bool { return false }
