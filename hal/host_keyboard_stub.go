//go:build !tinygo && !cgo

package hal

// Without the window backend there is nothing to read keys from: the event
// channel is nil and never delivers.
type hostKeyboard struct {
	ch chan KeyEvent
}

func newHostKeyboard() *hostKeyboard { return &hostKeyboard{} }

func (k *hostKeyboard) Events() <-chan KeyEvent { return k.ch }
