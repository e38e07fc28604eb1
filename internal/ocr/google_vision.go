package ocr

import (
	"context"
	"fmt"
	"os"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// VisionBackend recognizes pages with Google Cloud Vision document text detection.
type VisionBackend struct {
	client *vision.ImageAnnotatorClient
}

// NewVisionBackend creates a Vision client with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewVisionBackend(ctx context.Context) (*VisionBackend, error) {
	const op = "NewVisionBackend"

	opts := googleClientOptions()
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, "failed to create Vision client")
	}

	return &VisionBackend{client: client}, nil
}

// NewVisionBackendWithClient creates a backend with an explicit client (for testing).
func NewVisionBackendWithClient(client *vision.ImageAnnotatorClient) *VisionBackend {
	return &VisionBackend{client: client}
}

// Name implements Backend.
func (v *VisionBackend) Name() string { return "vision" }

// Recognize implements Backend.
func (v *VisionBackend) Recognize(ctx context.Context, page Page) (string, error) {
	const op = "VisionRecognize"

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: page.Data},
				Features: []*visionpb.Feature{
					{
						Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION,
					},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", NewOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return "", NewOCRError(op, ErrOCRFailed, "no response from Vision API")
	}

	imageResp := resp.Responses[0]
	if imageResp.Error != nil {
		return "", NewOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", imageResp.Error.Message))
	}
	if imageResp.FullTextAnnotation == nil {
		return "", nil
	}
	return imageResp.FullTextAnnotation.Text, nil
}

// Close closes the underlying Vision client.
func (v *VisionBackend) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}

// googleClientOptions resolves credentials the same way for every Google backend:
// inline JSON first, then a credentials file, else Application Default Credentials.
func googleClientOptions() []option.ClientOption {
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credJSON))}
	}
	if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(credFile)}
	}
	return nil
}
