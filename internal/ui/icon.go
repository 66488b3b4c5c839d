package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// iconBytes is a 22x22 3x3 grid, drawn at startup so no binary asset is
// checked in.
var iconBytes = renderIcon(22)

func renderIcon(size int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	fg := color.NRGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xff}
	cell := size / 3
	for y := range size {
		for x := range size {
			// One-pixel gutters between cells.
			if x%cell == 0 || y%cell == 0 || x >= cell*3 || y >= cell*3 {
				continue
			}
			img.SetNRGBA(x, y, fg)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
