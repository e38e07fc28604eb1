package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

type recordingBackend struct {
	text  string
	err   error
	calls int
	last  Page
}

func (r *recordingBackend) Name() string { return "recording" }

func (r *recordingBackend) Recognize(_ context.Context, page Page) (string, error) {
	r.calls++
	r.last = page
	return r.text, r.err
}

func newTestGateway(backend Backend) *Gateway {
	return NewGateway(backend, GatewayOptions{
		AllowedExtensions: []string{".pdf", ".png", ".jpg", ".jpeg", ".tiff", ".bmp"},
		MaxFileSize:       1024,
	})
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.Black)
	}
	return img
}

func TestGateway_ValidationRejectsBeforeBackend(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		size    int
		wantErr error
	}{
		{"unsupported extension", "notes.txt", 10, ErrUnsupportedFormat},
		{"too large", "scan.png", 1025, ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &recordingBackend{text: "unused"}
			path := writeFile(t, tt.file, bytes.Repeat([]byte("x"), tt.size))

			_, err := newTestGateway(backend).ExtractText(context.Background(), path, "")

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
			assert.Zero(t, backend.calls)
		})
	}
}

func TestGateway_MissingFile(t *testing.T) {
	backend := &recordingBackend{}
	_, err := newTestGateway(backend).ExtractText(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"), "")

	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Zero(t, backend.calls)
}

func TestGateway_DirectoryIsNotAFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "folder.pdf")
	require.NoError(t, os.Mkdir(dir, 0o755))

	_, err := newTestGateway(&recordingBackend{}).ExtractText(context.Background(), dir, "")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestGateway_SizeAtLimitIsAccepted(t *testing.T) {
	backend := &recordingBackend{text: "ok"}
	path := writeFile(t, "scan.jpg", bytes.Repeat([]byte("x"), 1024))

	result, err := newTestGateway(backend).ExtractText(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Text)
}

func TestGateway_PassThroughKeepsBytes(t *testing.T) {
	backend := &recordingBackend{text: "Invoice 42"}
	path := writeFile(t, "Scan.JPG", []byte("jpeg-bytes"))

	result, err := newTestGateway(backend).ExtractText(context.Background(), path, "")
	require.NoError(t, err)

	assert.Equal(t, "Invoice 42", result.Text)
	assert.Equal(t, "recording", result.Backend)
	assert.Equal(t, 1, result.PageCount)
	assert.False(t, result.Rasterized)
	assert.Equal(t, []byte("jpeg-bytes"), backend.last.Data)
	assert.Equal(t, "image/jpeg", backend.last.MimeType)
	assert.Equal(t, "Scan.JPG", backend.last.Filename)
}

func TestGateway_MimeHintOverridesPassThrough(t *testing.T) {
	backend := &recordingBackend{text: "x"}
	path := writeFile(t, "scan.png", []byte("png-ish"))

	_, err := newTestGateway(backend).ExtractText(context.Background(), path, "image/x-custom")
	require.NoError(t, err)
	assert.Equal(t, "image/x-custom", backend.last.MimeType)
}

func TestGateway_BMPIsConvertedToPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, testImage(8, 6)))

	backend := &recordingBackend{text: "bitmap"}
	gateway := NewGateway(backend, GatewayOptions{AllowedExtensions: []string{".bmp"}, MaxFileSize: 1 << 20})
	path := writeFile(t, "fax.bmp", buf.Bytes())

	result, err := gateway.ExtractText(context.Background(), path, "")
	require.NoError(t, err)

	assert.True(t, result.Rasterized)
	assert.Equal(t, "image/png", backend.last.MimeType)
	assert.Equal(t, "fax.png", backend.last.Filename)
}

func TestGateway_BackendFailureIsUpstream(t *testing.T) {
	backend := &recordingBackend{err: errors.New("connection refused")}
	path := writeFile(t, "scan.png", []byte("png"))

	_, err := newTestGateway(backend).ExtractText(context.Background(), path, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOCRFailed)
	assert.False(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGateway_BlankTextIsEmptyDocument(t *testing.T) {
	backend := &recordingBackend{text: "  \n\t "}
	path := writeFile(t, "scan.png", []byte("png"))

	_, err := newTestGateway(backend).ExtractText(context.Background(), path, "")
	assert.ErrorIs(t, err, ErrEmptyDocument)
	assert.False(t, IsValidationError(err))
}

func TestRasterize_TIFFIsUpscaled(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, testImage(10, 4), nil))

	raster, err := Rasterize(buf.Bytes(), ".tiff")
	require.NoError(t, err)

	assert.True(t, raster.Converted)
	assert.Equal(t, "image/png", raster.MimeType)

	decoded, err := png.Decode(bytes.NewReader(raster.Data))
	require.NoError(t, err)
	assert.Equal(t, 20, decoded.Bounds().Dx())
	assert.Equal(t, 8, decoded.Bounds().Dy())
}

func TestRasterize_CorruptInput(t *testing.T) {
	for _, ext := range []string{".tiff", ".bmp"} {
		t.Run(ext, func(t *testing.T) {
			_, err := Rasterize([]byte("definitely not an image"), ext)
			assert.ErrorIs(t, err, ErrUnsupportedFormat)
		})
	}
}

func TestRasterize_PNGPassesThrough(t *testing.T) {
	raster, err := Rasterize([]byte("raw"), ".png")
	require.NoError(t, err)

	assert.False(t, raster.Converted)
	assert.Equal(t, []byte("raw"), raster.Data)
	assert.Equal(t, "image/png", raster.MimeType)
}

func TestRasterize_PDFRendersFirstPage(t *testing.T) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 14)
	doc.AddPage()
	doc.Cell(40, 10, "Page one")
	doc.AddPage()
	doc.Cell(40, 10, "Page two")
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))

	raster, err := Rasterize(buf.Bytes(), ".pdf")
	require.NoError(t, err)

	assert.Equal(t, "image/png", raster.MimeType)
	assert.Equal(t, 2, raster.PageCount)
	assert.True(t, raster.Converted)

	img, err := png.Decode(bytes.NewReader(raster.Data))
	require.NoError(t, err)
	// A4 at 144 DPI is roughly 1190x1684.
	assert.InDelta(t, 1190, img.Bounds().Dx(), 4)
}
