package rimage

import (
	"image"
	"sync"

	"github.com/lmittmann/ppm"
	"github.com/xfmoulet/qoi"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

var registerCodecsOnce sync.Once

// RegisterCodecs makes every decoder holefill can read from available to image.Decode. It
// should be called once at process start; later calls are no-ops. png, jpeg and gif are
// provided by imaging's own imports.
func RegisterCodecs() {
	registerCodecsOnce.Do(func() {
		image.RegisterFormat("bmp", "BM????\x00\x00\x00\x00", bmp.Decode, bmp.DecodeConfig)
		image.RegisterFormat("tiff", "II*\x00", tiff.Decode, tiff.DecodeConfig)
		image.RegisterFormat("tiff", "MM\x00*", tiff.Decode, tiff.DecodeConfig)
		image.RegisterFormat("webp", "RIFF????WEBPVP8", webp.Decode, webp.DecodeConfig)
		image.RegisterFormat("ppm", "P6", ppm.Decode, ppm.DecodeConfig)
		image.RegisterFormat("ppm", "P3", ppm.Decode, ppm.DecodeConfig)
		image.RegisterFormat("qoi", "qoif", qoi.Decode, qoi.DecodeConfig)
	})
}
