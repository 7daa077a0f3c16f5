package render

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawText draws a small bitmap-font label with its baseline at (x, y).
func drawText(img *image.RGBA, text string, x, y int, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// textWidth measures a label in pixels for centering.
func textWidth(text string) int {
	d := &font.Drawer{Face: basicfont.Face7x13}
	return d.MeasureString(text).Ceil()
}

// drawTextCentered centers a label horizontally around cx.
func drawTextCentered(img *image.RGBA, text string, cx, y int, col color.Color) {
	drawText(img, text, cx-textWidth(text)/2, y, col)
}
