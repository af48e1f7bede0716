//go:build !tinygo && cgo

package hal

import (
	"os"

	"rtthread/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

// windowScale is the integer zoom of the monitor framebuffer on screen.
const windowScale = 2

// RunWindow shows the framebuffer in a desktop window and feeds it key
// events and ticks. newApp's step runs once per frame; an error from it
// closes the window and is returned.
func RunWindow(newApp func(HAL) func() error) error {
	h := newHostHAL(os.Stdout)
	w := &window{
		h:     h,
		step:  newApp(h),
		front: make([]byte, len(h.fb.buf)),
		rgba:  make([]byte, h.fb.width*h.fb.height*4),
	}

	ebiten.SetWindowTitle("rtthread monitor (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(h.fb.width*windowScale, h.fb.height*windowScale)
	ebiten.SetTPS(60)
	return ebiten.RunGame(w)
}

// window adapts the host HAL to ebiten.Game. The framebuffer size is fixed
// for the life of the window.
type window struct {
	h    *hostHAL
	step func() error

	front []byte // last presented RGB565 frame
	rgba  []byte
	img   *ebiten.Image
}

func (w *window) Update() error {
	w.h.kbd.poll()
	w.h.t.step(1)
	if w.step == nil {
		return nil
	}
	return w.step()
}

func (w *window) Draw(screen *ebiten.Image) {
	fb := w.h.fb
	if w.img == nil {
		w.img = ebiten.NewImage(fb.width, fb.height)
	}
	fb.snapshotRGB565(w.front)
	expandRGB565(w.rgba, w.front)
	w.img.WritePixels(w.rgba)
	screen.DrawImage(w.img, nil)
}

func (w *window) Layout(int, int) (int, int) {
	return w.h.fb.width, w.h.fb.height
}
