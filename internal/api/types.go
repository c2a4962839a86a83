package api

// SessionInfo is one entry of the backend session directory.
// Title is server-derived and may be empty until the first exchange.
type SessionInfo struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
}

// Message is one turn of a session's history as stored server-side.
type Message struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// UploadResult is the backend's answer to a multipart upload. Partial
// success is normal: ProcessedFiles is the authoritative attachment list for
// the session after the upload, Errors names the files that were rejected.
type UploadResult struct {
	ProcessedFiles []string `json:"processed_files"`
	Errors         []string `json:"errors"`
}

// ChatRequest is the payload for a question.
type ChatRequest struct {
	Question     string   `json:"question"`
	SessionID    string   `json:"session_id"`
	SelectedPDFs []string `json:"selected_pdfs,omitempty"`
}

// ChatResponse carries the answer text. Context holds the retrieved chunks
// the backend used; the client carries it but does not display it.
type ChatResponse struct {
	Response string `json:"response"`
	Context  string `json:"context"`
}

// statusResponse is the generic {status, message} envelope used by the
// mutation endpoints.
type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// File is one file to upload.
type File struct {
	Name string
	Data []byte
}
