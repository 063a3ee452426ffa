//go:build windows

package runtime

// SetupSessionPersistence does nothing on Windows.
func SetupSessionPersistence() {}
