//go:build !tinygo

package hal

import (
	"errors"
	"image/color"
	"testing"

	"tinygo.org/x/drivers"
)

func pixelAt(fb *hostFramebuffer, x, y int) uint16 {
	off := y*fb.stride + x*2
	return uint16(fb.buf[off]) | uint16(fb.buf[off+1])<<8
}

func TestFramebufferDisplaySetPixel(t *testing.T) {
	fb := newHostFramebuffer(8, 4)
	d := NewFramebufferDisplay(fb)
	white := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	d.SetPixel(2, 1, white)
	d.SetPixel(-1, 0, white)
	d.SetPixel(8, 0, white)
	d.SetPixel(0, 4, white)

	if got := pixelAt(fb, 2, 1); got != 0xFFFF {
		t.Fatalf("pixel(2,1) = %#04x, want 0xffff", got)
	}
	set := 0
	for i := 0; i < len(fb.buf); i += 2 {
		if fb.buf[i] != 0 || fb.buf[i+1] != 0 {
			set++
		}
	}
	if set != 1 {
		t.Fatalf("%d pixels set, want 1", set)
	}
	if x, y := d.Size(); x != 8 || y != 4 {
		t.Fatalf("Size() = %d,%d, want 8,4", x, y)
	}
}

func TestFramebufferDisplayFillRectangleClips(t *testing.T) {
	fb := newHostFramebuffer(4, 4)
	d := NewFramebufferDisplay(fb)
	red := color.RGBA{R: 0xFF, A: 0xFF}

	if err := d.FillRectangle(2, 2, 10, 10, red); err != nil {
		t.Fatalf("FillRectangle() = %v, want nil", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := uint16(0)
			if x >= 2 && y >= 2 {
				want = 0xF800
			}
			if got := pixelAt(fb, x, y); got != want {
				t.Fatalf("pixel(%d,%d) = %#04x, want %#04x", x, y, got, want)
			}
		}
	}
}

func TestFramebufferDisplayPresent(t *testing.T) {
	fb := newHostFramebuffer(2, 1)
	d := NewFramebufferDisplay(fb)
	d.SetPixel(0, 0, color.RGBA{B: 0xFF, A: 0xFF})

	snap := make([]byte, len(fb.buf))
	fb.snapshotRGB565(snap)
	if snap[0] != 0 {
		t.Fatal("snapshot shows a frame that was not presented")
	}
	if err := d.Display(); err != nil {
		t.Fatalf("Display() = %v, want nil", err)
	}
	fb.snapshotRGB565(snap)
	if got := uint16(snap[0]) | uint16(snap[1])<<8; got != 0x001F {
		t.Fatalf("presented pixel = %#04x, want 0x001f", got)
	}
}

func TestFramebufferDisplayRotation(t *testing.T) {
	d := NewFramebufferDisplay(newHostFramebuffer(2, 2))
	if err := d.SetRotation(drivers.Rotation0); err != nil {
		t.Fatalf("SetRotation(0) = %v, want nil", err)
	}
	if err := d.SetRotation(drivers.Rotation90); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("SetRotation(90) = %v, want %v", err, ErrNotImplemented)
	}
}

func TestExpandRGB565(t *testing.T) {
	src := []byte{0x00, 0xF8, 0xFF, 0xFF}
	dst := make([]byte, 8)
	expandRGB565(dst, src)
	want := []byte{0xFF, 0, 0, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst = %v, want %v", dst, want)
		}
	}
}
