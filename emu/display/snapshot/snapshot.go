/*
 * HP48 - PNG snapshot export for the LCD display buffer.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package snapshot renders a Saturn Display buffer to a labeled PNG,
// for the display stream server's PNG endpoint and websocket frames.
package snapshot

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/rcornwell/hp48emu/emu/saturn"
)

// labelHeight is the strip below the LCD image reserved for the
// caption drawn with basicfont.
const labelHeight = 12

// Encode renders disp's current RGBA buffer into a PNG, with caption
// burned into a strip below the screen.
func Encode(disp *saturn.Display, caption string) ([]byte, error) {
	w, h := saturn.DisplayWidth, saturn.DisplayHeight
	img := image.NewNRGBA(image.Rect(0, 0, w, h+labelHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	src := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(src.Pix, disp.RGBA)
	draw.Draw(img, image.Rect(0, 0, w, h), src, image.Point{}, draw.Src)

	if caption != "" {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.Black),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(2, h+10),
		}
		d.DrawString(caption)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
