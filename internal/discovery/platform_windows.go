//go:build windows

package discovery

import (
	"github.com/MrSnakeDoc/hostwatch/internal/hostexec"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

// NewPlatformProvider returns the native service-manager provider for this OS.
func NewPlatformProvider(runner hostexec.Runner, log logger.Logger) Provider {
	return NewWindowsServiceProvider(runner, log)
}
