package rimage

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"go.viam.com/holefill/utils"
)

// MaxPixelValue is the value a normalized grid value of 1 maps to.
const MaxPixelValue = 255.0

// GridFromImage converts any image to grayscale and normalizes its values into [0, 1] by
// dividing each gray level by 255. Rows follow the image's y axis and columns its x axis.
func GridFromImage(img image.Image) *Grid {
	bounds := img.Bounds()
	g := NewGrid(bounds.Dy(), bounds.Dx())
	if g.data == nil {
		return g
	}

	// imaging.Grayscale weighs channels the same way as ITU-R 601 luma and returns a zero based
	// NRGBA image whose R, G and B channels all hold the gray level.
	gray := imaging.Grayscale(img)
	raw := g.data.RawMatrix()
	for row := 0; row < raw.Rows; row++ {
		for col := 0; col < raw.Cols; col++ {
			level := gray.Pix[gray.PixOffset(col, row)]
			raw.Data[row*raw.Stride+col] = float64(level) / MaxPixelValue
		}
	}
	return g
}

// ToGray converts the grid back into storable 8 bit pixel values. Values are clamped into
// [0, 1] before scaling to [0, 255] and rounding.
func (g *Grid) ToGray() *image.Gray {
	rows, cols := g.Dims()
	out := image.NewGray(image.Rect(0, 0, cols, rows))
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			out.SetGray(col, row, color.Gray{Y: pixelFromValue(g.data.At(row, col))})
		}
	}
	return out
}

func pixelFromValue(val float64) uint8 {
	if math.IsNaN(val) {
		return 0
	}
	return uint8(math.Round(utils.ClampF64(val, 0, 1) * MaxPixelValue))
}
