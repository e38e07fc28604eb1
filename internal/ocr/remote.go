package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"docchat/internal/logger"
)

// DefaultTask is the directive sent alongside the file to the remote model server.
const DefaultTask = "ocr"

// maxErrorBody bounds how much of a failed response ends up in the error message.
const maxErrorBody = 512

// RemoteBackend posts page images to an OCR model server.
//
// The server receives a multipart form with the image in the "file" part and the task
// directive in the "task" field, and answers with JSON:
//
//	{"result": "plain text"}
//	{"result": {"title": "...", "body": "..."}}
//
// A mapping is joined with newlines in the order the server emitted it.
type RemoteBackend struct {
	url    string
	task   string
	client *http.Client
	log    zerolog.Logger
}

// NewRemoteBackend creates a backend for the server at url. A nil client uses http.DefaultClient.
func NewRemoteBackend(url, task string, client *http.Client) *RemoteBackend {
	if task == "" {
		task = DefaultTask
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteBackend{
		url:    url,
		task:   task,
		client: client,
		log:    logger.WithComponent("ocr-remote"),
	}
}

// Name implements Backend.
func (r *RemoteBackend) Name() string { return "remote" }

// Recognize implements Backend.
func (r *RemoteBackend) Recognize(ctx context.Context, page Page) (string, error) {
	const op = "RemoteRecognize"

	body, contentType, err := r.encodeForm(page)
	if err != nil {
		return "", WrapOCRError(op, err, "failed to build multipart request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, body)
	if err != nil {
		return "", WrapOCRError(op, err, "failed to create request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", NewOCRError(op, ErrOCRFailed, fmt.Sprintf("OCR server unreachable: %v", err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewOCRError(op, ErrOCRFailed, fmt.Sprintf("failed to read response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(payload)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		r.log.Warn().
			Int("status", resp.StatusCode).
			Str("body", snippet).
			Msg("OCR server returned an error status")
		return "", NewOCRError(op, ErrOCRFailed, fmt.Sprintf("OCR server returned status %d: %s", resp.StatusCode, strings.TrimSpace(snippet)))
	}

	return parseRemoteResult(op, payload)
}

func (r *RemoteBackend) encodeForm(page Page) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(page.Filename)))
	header.Set("Content-Type", page.MimeType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(page.Data); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("task", r.task); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func parseRemoteResult(op string, payload []byte) (string, error) {
	if !gjson.ValidBytes(payload) {
		return "", NewOCRError(op, ErrOCRFailed, "OCR server returned invalid JSON")
	}

	result := gjson.GetBytes(payload, "result")
	if !result.Exists() {
		return "", NewOCRError(op, ErrOCRFailed, `OCR response has no "result" field`)
	}

	if result.IsObject() {
		var parts []string
		result.ForEach(func(_, value gjson.Result) bool {
			parts = append(parts, value.String())
			return true
		})
		return strings.Join(parts, "\n"), nil
	}
	return result.String(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
