// Package processor re-encodes uploaded images to a byte budget.
package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"math"

	// decoders for accepted upload formats
	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/lk2023060901/dealer-backend/internal/storage/biz"
)

const (
	InitialQuality = 80
	MinQuality     = 25
	QualityStep    = 10
	// MinDimension is the smallest side the budget fallback shrinks to.
	MinDimension = 320
)

type encodeFunc func(img image.Image, quality int) ([]byte, error)

// ImageCompressor produces JPEGs within a byte budget.
//
// The image is first fitted inside the maximum dimensions (never enlarged)
// and encoded at decreasing quality from InitialQuality down to MinQuality.
// If it is still too large, both sides are scaled by sqrt(budget/size) with a
// MinDimension floor and the result is encoded once more at MinQuality and
// returned whatever its size.
type ImageCompressor struct {
	encode encodeFunc
}

func NewImageCompressor() *ImageCompressor {
	return &ImageCompressor{encode: encodeJPEG}
}

var _ biz.Compressor = (*ImageCompressor)(nil)

func (c *ImageCompressor) Compress(data []byte, budget, maxWidth, maxHeight int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", biz.ErrImageDecode, err)
	}

	b := src.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), maxWidth, maxHeight)
	base := flatten(src, w, h)

	var out []byte
	for q := InitialQuality; q >= MinQuality; q -= QualityStep {
		out, err = c.encode(base, q)
		if err != nil {
			return nil, err
		}
		if len(out) <= budget {
			return out, nil
		}
	}

	scale := math.Sqrt(float64(budget) / float64(len(out)))
	sw, sh := shrinkWithFloor(w, scale), shrinkWithFloor(h, scale)
	return c.encode(flatten(base, sw, sh), MinQuality)
}

// fitWithin returns w x h scaled down to fit maxW x maxH, keeping the aspect ratio.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = float64(maxW) / float64(w)
	}
	if maxH > 0 && h > maxH {
		scale = min(scale, float64(maxH)/float64(h))
	}
	if scale >= 1 {
		return w, h
	}
	return max(1, int(math.Round(float64(w)*scale))), max(1, int(math.Round(float64(h)*scale)))
}

// shrinkWithFloor scales side down, never below MinDimension and never above side.
func shrinkWithFloor(side int, scale float64) int {
	scaled := int(math.Round(float64(side) * scale))
	return min(side, max(scaled, MinDimension))
}

// flatten draws src onto a white w x h canvas, resampling when the size changes.
func flatten(src image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	sb := src.Bounds()
	if sb.Dx() == w && sb.Dy() == h {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Over)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: %v", biz.ErrImageEncode, err)
	}
	return buf.Bytes(), nil
}
