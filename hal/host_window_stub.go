//go:build !tinygo && !cgo

package hal

import "fmt"

// RunWindow fails without cgo: ebiten needs it for the desktop backends.
func RunWindow(_ func(h HAL) func() error) error {
	return fmt.Errorf("window mode: %w without cgo (set CGO_ENABLED=1 or run with -headless)", ErrNotImplemented)
}
