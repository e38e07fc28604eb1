package models

// EditTurn is the outcome of one chat request against the current document
type EditTurn struct {
	Explanation string // Model explanation, the raw reply, or an error description
	HTML        string // Document after the turn (unchanged unless Applied)
	Applied     bool   // Whether the reply was parsed and written to the document
}

// UploadResponse is returned by POST /api/upload
type UploadResponse struct {
	Success  bool   `json:"success"`
	HTML     string `json:"html"`
	Filename string `json:"filename"`
}

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is returned by POST /api/chat. Message carries the explanation.
type ChatResponse struct {
	Message string `json:"message"`
	HTML    string `json:"html"`
}

// ExportResponse is returned by GET /api/export
type ExportResponse struct {
	HTML string `json:"html"`
}

// HealthResponse is returned by GET /api/health
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every 4xx/5xx response
type ErrorResponse struct {
	Detail string `json:"detail"`
}
