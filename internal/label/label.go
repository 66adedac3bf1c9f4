// Package label renders printable product labels: name, CODE128 barcode and price.
package label

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/shopspring/decimal"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/tallerpiolin/inventory-backend/internal/utils"
)

type Size string

const (
	Small  Size = "pequeno"
	Medium Size = "mediano"
	Large  Size = "grande"
)

const (
	nameBand  = 30
	priceBand = 25
	margin    = 10
)

type preset struct {
	width     int
	height    int
	barHeight int
}

var presets = map[Size]preset{
	Small:  {width: 200, height: 120, barHeight: 40},
	Medium: {width: 280, height: 160, barHeight: 60},
	Large:  {width: 350, height: 200, barHeight: 80},
}

type Label struct {
	Name    string
	Barcode string
	Price   decimal.Decimal
}

// ParseSize accepts a preset name; empty means Medium.
func ParseSize(s string) (Size, error) {
	if s == "" {
		return Medium, nil
	}
	size := Size(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := presets[size]; !ok {
		return "", fmt.Errorf("unknown label size %q", s)
	}
	return size, nil
}

// Dimensions returns the pixel size of a rendered label.
func (s Size) Dimensions() (int, int) {
	p := presets[s]
	return p.width, p.height + nameBand + priceBand
}

// Render draws l at size and encodes it as PNG.
func Render(l Label, size Size) ([]byte, error) {
	p, ok := presets[size]
	if !ok {
		return nil, fmt.Errorf("unknown label size %q", size)
	}
	if !utils.IsBarcode(l.Barcode) {
		return nil, fmt.Errorf("invalid barcode %q", l.Barcode)
	}

	code, err := code128.Encode(l.Barcode)
	if err != nil {
		return nil, fmt.Errorf("failed to encode barcode: %w", err)
	}

	barWidth := max(p.width-2*margin, code.Bounds().Dx())
	bars, err := barcode.Scale(code, barWidth, p.barHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to scale barcode: %w", err)
	}

	width := max(p.width, barWidth+2*margin)
	height := p.height + nameBand + priceBand
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawCentered(img, face, fit(face, l.Name, width-2*margin), width, nameBand-margin)

	barTop := nameBand + (p.height-p.barHeight-face.Height)/2
	barLeft := (width - bars.Bounds().Dx()) / 2
	draw.Draw(img, image.Rect(barLeft, barTop, barLeft+bars.Bounds().Dx(), barTop+p.barHeight), bars, bars.Bounds().Min, draw.Src)
	drawCentered(img, face, l.Barcode, width, barTop+p.barHeight+face.Ascent+2)

	drawCentered(img, face, utils.FormatCRC(l.Price), width, nameBand+p.height+priceBand-margin)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode label: %w", err)
	}
	return buf.Bytes(), nil
}

func drawCentered(dst draw.Image, face font.Face, text string, width, baseline int) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(color.Black), Face: face}
	x := (fixed.I(width) - d.MeasureString(text)) / 2
	d.Dot = fixed.Point26_6{X: x, Y: fixed.I(baseline)}
	d.DrawString(text)
}

// fit shortens text with an ellipsis until it is at most width pixels wide.
func fit(face font.Face, text string, width int) string {
	if font.MeasureString(face, text) <= fixed.I(width) {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if font.MeasureString(face, candidate) <= fixed.I(width) {
			return candidate
		}
	}
	return ""
}
