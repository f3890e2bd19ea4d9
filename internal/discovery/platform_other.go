//go:build !linux && !darwin && !windows

package discovery

import (
	"github.com/MrSnakeDoc/hostwatch/internal/hostexec"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

// NewPlatformProvider returns nil: no native service manager is supported here.
func NewPlatformProvider(_ hostexec.Runner, _ logger.Logger) Provider {
	return nil
}
