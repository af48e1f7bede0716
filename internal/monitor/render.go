package monitor

import (
	"fmt"
	"image/color"

	"rtthread/hal"
	"rtthread/tick"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var (
	colorBG       = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xff}
	colorFG       = color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	colorDim      = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
	colorHeaderBG = color.RGBA{R: 0x18, G: 0x18, B: 0x18, A: 0xff}
	colorSelBG    = color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	colorSelFG    = color.RGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff}
)

// Screen draws the thread table on a framebuffer.
type Screen struct {
	d *hal.FramebufferDisplay

	font       tinyfont.Fonter
	fontWidth  int16
	fontHeight int16
	fontOffset int16
}

// NewScreen returns a Screen drawing into fb.
func NewScreen(fb hal.Framebuffer) *Screen {
	s := &Screen{
		d:          hal.NewFramebufferDisplay(fb),
		font:       &proggy.TinySZ8pt7b,
		fontHeight: 10,
		fontOffset: 8,
	}
	_, outboxWidth := tinyfont.LineWidth(s.font, "0")
	s.fontWidth = int16(outboxWidth)
	if s.fontWidth <= 0 {
		s.fontWidth = 6
	}
	return s
}

// Columns returns how many characters fit on one line.
func (s *Screen) Columns() int {
	w, _ := s.d.Size()
	return int(w / s.fontWidth)
}

// Lines returns how many text lines fit on the screen.
func (s *Screen) Lines() int {
	_, h := s.d.Size()
	return int(h / s.fontHeight)
}

// Draw renders rows with the selected row highlighted and status as the
// bottom line, then presents the frame.
func (s *Screen) Draw(now tick.TimePoint, rows []Row, selected int, status string) error {
	w, h := s.d.Size()
	s.d.FillRectangle(0, 0, w, h, colorBG)

	s.d.FillRectangle(0, 0, w, 2*s.fontHeight, colorHeaderBG)
	s.text(0, fmt.Sprintf("tick %d  threads %d", now, len(rows)), colorFG)
	s.text(1, header, colorDim)

	line := 2
	maxLines := s.Lines() - 1
	for i, r := range rows {
		if line >= maxLines {
			break
		}
		fg := colorFG
		if i == selected {
			s.d.FillRectangle(0, int16(line)*s.fontHeight, w, s.fontHeight, colorSelBG)
			fg = colorSelFG
		}
		s.text(line, formatRow(r), fg)
		line++
	}

	if status != "" {
		s.text(s.Lines()-1, status, colorDim)
	}
	return s.d.Display()
}

// DrawLines renders plain text lines on a light background, wrapping long
// lines, then presents the frame.
func (s *Screen) DrawLines(lines []string) error {
	w, h := s.d.Size()
	s.d.FillRectangle(0, 0, w, h, colorFG)

	cols := s.Columns()
	if cols <= 0 {
		cols = 1
	}
	y := 0
	for _, l := range lines {
		for {
			if y >= s.Lines() {
				return s.d.Display()
			}
			chunk := l
			if len(chunk) > cols {
				chunk = chunk[:cols]
			}
			s.text(y, chunk, colorSelFG)
			y++
			l = l[len(chunk):]
			if l == "" {
				break
			}
		}
	}
	return s.d.Display()
}

func (s *Screen) text(line int, str string, c color.RGBA) {
	if cols := s.Columns(); len(str) > cols {
		str = str[:cols]
	}
	y := int16(line)*s.fontHeight + s.fontOffset
	tinyfont.WriteLine(s.d, s.font, 0, y, str, c)
}
