package utils

import "io"

// Close closes c and ignores any error.
// Use for response bodies and other best-effort cleanup in defer.
func Close(c io.Closer) {
	_ = c.Close()
}
