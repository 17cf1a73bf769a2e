package imgproc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Luminance weights applied to the red, green and blue channels.
const (
	redWeight   = 0.2989
	greenWeight = 0.5870
	blueWeight  = 0.1140
)

// Load reads the raster image at path and converts it to a grayscale grid.
// Any failure, including a missing file, is reported as a *DecodeError.
func Load(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	g, err := decodeBytes(data)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	g.path = path
	return g, nil
}

// Decode reads a raster image from r and converts it to a grayscale grid.
func Decode(r io.Reader) (*Grid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	g, err := decodeBytes(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return g, nil
}

func decodeBytes(data []byte) (*Grid, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("not an image (detected %s)", mt.String())
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return fromImage(img), nil
}

// fromImage converts img to luminance values. Alpha is ignored.
func fromImage(img image.Image) *Grid {
	b := img.Bounds()
	rows := make([][]float64, b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := make([]float64, b.Dx())
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			row[x-b.Min.X] = redWeight*float64(c.R) + greenWeight*float64(c.G) + blueWeight*float64(c.B)
		}
		rows[y-b.Min.Y] = row
	}
	return &Grid{rows: rows}
}
