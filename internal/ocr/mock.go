package ocr

import "context"

// SampleText is what the mock backend recognizes on every page.
const SampleText = `SAMPLE DOCUMENT

Invoice Number: 2024-0042
Date: 2024-03-15

Bill To:
Acme Corporation
123 Main Street

Description        Qty   Price
Consulting hours   10    150.00
Travel expenses     1    320.00

Total: 1820.00`

// MockBackend returns fixed text without contacting any service.
type MockBackend struct {
	Text string
}

// NewMockBackend creates a backend that always answers with SampleText.
func NewMockBackend() *MockBackend {
	return &MockBackend{Text: SampleText}
}

// Name implements Backend.
func (m *MockBackend) Name() string { return "mock" }

// Recognize implements Backend.
func (m *MockBackend) Recognize(ctx context.Context, _ Page) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.Text, nil
}
