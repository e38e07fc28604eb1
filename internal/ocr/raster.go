package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

const (
	// RenderDPI renders PDF pages at 2x the PDF's 72 DPI user space.
	RenderDPI = 144

	// TIFFScale is the upscale factor applied to TIFF frames before recognition.
	TIFFScale = 2
)

// Raster is a page image ready for a Backend.
type Raster struct {
	Data      []byte
	MimeType  string
	PageCount int
	Converted bool
}

// Rasterize prepares the first page of a document for recognition.
// PDF, TIFF and BMP inputs are converted to PNG; PNG and JPEG pass through untouched.
func Rasterize(data []byte, ext string) (*Raster, error) {
	const op = "Rasterize"

	switch ext {
	case ".pdf":
		img, pages, err := renderFirstPDFPage(data)
		if err != nil {
			return nil, NewOCRError(op, ErrUnsupportedFormat, fmt.Sprintf("cannot render PDF: %v", err))
		}
		return encodePNG(op, img, pages)

	case ".tiff", ".tif":
		img, err := tiff.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, NewOCRError(op, ErrUnsupportedFormat, fmt.Sprintf("cannot decode TIFF: %v", err))
		}
		return encodePNG(op, upscale(img, TIFFScale), 1)

	case ".bmp":
		img, err := bmp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, NewOCRError(op, ErrUnsupportedFormat, fmt.Sprintf("cannot decode BMP: %v", err))
		}
		return encodePNG(op, img, 1)
	}

	return &Raster{
		Data:      data,
		MimeType:  mimeTypeForExt(ext),
		PageCount: 1,
	}, nil
}

func renderFirstPDFPage(data []byte) (image.Image, int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, 0, err
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages == 0 {
		return nil, 0, fmt.Errorf("document has no pages")
	}

	img, err := doc.ImageDPI(0, RenderDPI)
	if err != nil {
		return nil, 0, err
	}
	return img, pages, nil
}

func upscale(src image.Image, factor int) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

func encodePNG(op string, img image.Image, pages int) (*Raster, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, WrapOCRError(op, err, "failed to encode PNG")
	}
	return &Raster{
		Data:      buf.Bytes(),
		MimeType:  "image/png",
		PageCount: pages,
		Converted: true,
	}, nil
}
