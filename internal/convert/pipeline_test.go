package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/ocr"
	"docchat/internal/synthesis"
)

type failingSynthesizer struct{}

func (failingSynthesizer) Synthesize(context.Context, string, string) (string, error) {
	return "", errors.New("template exploded")
}

type failingBackend struct{}

func (failingBackend) Name() string { return "failing" }

func (failingBackend) Recognize(context.Context, ocr.Page) (string, error) {
	return "", errors.New("model server down")
}

func gateway(backend ocr.Backend) *ocr.Gateway {
	return ocr.NewGateway(backend, ocr.GatewayOptions{
		AllowedExtensions: []string{".png", ".pdf"},
		MaxFileSize:       1 << 20,
	})
}

func sampleFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("image"), 0o644))
	return path
}

func TestPipeline_Success(t *testing.T) {
	p := NewPipeline(gateway(&ocr.MockBackend{Text: "Total: 100"}), synthesis.EscapeWrap{})

	out, err := p.Convert(context.Background(), sampleFile(t, "abc-report.png"), "report.png")
	require.NoError(t, err)

	assert.NoError(t, out.Err)
	assert.Equal(t, "report.png", out.Filename)
	assert.Contains(t, out.HTML, "<p>Total: 100</p>")
	assert.Contains(t, out.HTML, "<title>report.png</title>")
	require.NotNil(t, out.OCR)
	assert.Equal(t, "mock", out.OCR.Backend)
}

func TestPipeline_OCRFailureBecomesErrorDocument(t *testing.T) {
	p := NewPipeline(gateway(failingBackend{}), synthesis.EscapeWrap{})

	out, err := p.Convert(context.Background(), sampleFile(t, "scan.png"), "")
	require.NoError(t, err)

	assert.ErrorIs(t, out.Err, ocr.ErrOCRFailed)
	assert.Nil(t, out.OCR)
	assert.Equal(t, "scan.png", out.Filename)
	assert.Contains(t, out.HTML, "Document processing failed")
	assert.Contains(t, out.HTML, "model server down")
}

func TestPipeline_EmptyTextBecomesErrorDocument(t *testing.T) {
	p := NewPipeline(gateway(&ocr.MockBackend{Text: "   "}), synthesis.EscapeWrap{})

	out, err := p.Convert(context.Background(), sampleFile(t, "blank.png"), "")
	require.NoError(t, err)
	assert.ErrorIs(t, out.Err, ocr.ErrEmptyDocument)
}

func TestPipeline_SynthesisFailureBecomesErrorDocument(t *testing.T) {
	p := NewPipeline(gateway(ocr.NewMockBackend()), failingSynthesizer{})

	out, err := p.Convert(context.Background(), sampleFile(t, "scan.png"), "")
	require.NoError(t, err)

	assert.Error(t, out.Err)
	assert.NotNil(t, out.OCR)
	assert.Contains(t, out.HTML, "template exploded")
}

func TestPipeline_ValidationErrorsAreReturned(t *testing.T) {
	p := NewPipeline(gateway(ocr.NewMockBackend()), synthesis.EscapeWrap{})

	_, err := p.Convert(context.Background(), sampleFile(t, "notes.txt"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ocr.ErrUnsupportedFormat)
}
