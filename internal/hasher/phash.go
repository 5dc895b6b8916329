package hasher

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// averageHash computes a perceptual hash over an 8x8 downscaled, grayscale
// thumbnail: threshold each pixel against the mean, producing a 64-bit
// bitmap rendered as hex. No perceptual-hash library is grounded anywhere
// in the retrieval pack, so this is implemented directly on the standard
// image package (a documented stdlib exception — see DESIGN.md); the
// algorithm itself mirrors imagehash.average_hash, the library
// original_source/core/pipeline/passes/hashing.py calls. Downscaling uses
// area averaging rather than a dedicated resize library, since none is
// grounded in the pack either.
func averageHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	const side = 8
	pixels := downscaleGray(img, side)

	var sum int
	for _, v := range pixels {
		sum += int(v)
	}
	mean := sum / len(pixels)

	var bits uint64
	for i, v := range pixels {
		if int(v) >= mean {
			bits |= 1 << uint(i)
		}
	}

	return fmt.Sprintf("%016x", bits), nil
}

// downscaleGray produces a side x side grayscale thumbnail by averaging the
// source pixels that fall into each destination cell, returning the pixels
// in row-major order.
func downscaleGray(img image.Image, side int) []uint8 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]uint8, side*side)

	for dy := 0; dy < side; dy++ {
		y0 := bounds.Min.Y + dy*h/side
		y1 := bounds.Min.Y + (dy+1)*h/side
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for dx := 0; dx < side; dx++ {
			x0 := bounds.Min.X + dx*w/side
			x1 := bounds.Min.X + (dx+1)*w/side
			if x1 <= x0 {
				x1 = x0 + 1
			}

			var sum, count int
			for y := y0; y < y1 && y < bounds.Max.Y; y++ {
				for x := x0; x < x1 && x < bounds.Max.X; x++ {
					gray := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
					sum += int(gray.Y)
					count++
				}
			}
			if count == 0 {
				count = 1
			}
			pixels[dy*side+dx] = uint8(sum / count)
		}
	}
	return pixels
}

// The blank imports above register the gif/jpeg/png decoders image.Decode
// dispatches on, covering the extension set declared for the Image
// category in the default filetypes.toml (jpg/jpeg/png/gif). bmp/tiff/
// heic/svg thumbnails that slip through extension-based categorization
// will fail to decode and the perceptual hash step is simply skipped (it
// is wrapped in its own try/continue per spec.md §4.4).
