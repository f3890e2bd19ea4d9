package discovery

import "runtime"

// hostOS is indirected so tests can build providers for another OS.
var hostOS = func() string { return runtime.GOOS }
