// Package api implements the HTTP client for the document-chat backend.
//
// All operations are best effort for display: a transport failure degrades
// the view rather than crashing it, so callers log errors and fall back to
// empty results. The backend specifies no timeout; the client imposes its
// own on every call.
package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client talks to the document-chat backend.
type Client struct {
	r   *resty.Client
	log *zap.Logger
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			// Retries are safe for reads only; a retried POST /chat would
			// double-send the question.
			if resp == nil || resp.Request == nil {
				return false
			}
			if resp.Request.Method != http.MethodGet {
				return false
			}
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{r: r, log: log}
}

// req starts a request. The backend always speaks JSON, so decoding is
// forced even when a proxy strips or rewrites the content-type header;
// otherwise SetResult silently yields zero values.
func (c *Client) req(ctx context.Context) *resty.Request {
	return c.r.R().
		SetContext(ctx).
		ForceContentType("application/json")
}

// ListSessions returns the server's session directory in server order.
func (c *Client) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	var sessions []SessionInfo
	resp, err := c.req(ctx).
		SetResult(&sessions).
		Get("/get_sessions")
	if err != nil {
		return nil, fmt.Errorf("api: list sessions: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("api: list sessions: status %d", resp.StatusCode())
	}
	return sessions, nil
}

// FetchHistory returns the ordered message history for a session.
// An id the server has never seen yields an empty history, not an error.
func (c *Client) FetchHistory(ctx context.Context, sessionID string) ([]Message, error) {
	var history []Message
	resp, err := c.req(ctx).
		SetQueryParam("session_id", sessionID).
		SetResult(&history).
		Get("/get_history")
	if err != nil {
		return nil, fmt.Errorf("api: fetch history: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("api: fetch history: status %d", resp.StatusCode())
	}
	return history, nil
}

// DeleteSession removes a session server-side. Deleting an id the server no
// longer knows is not a failure; only transport errors are reported.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := c.req(ctx).
		SetBody(map[string]string{"session_id": sessionID}).
		Post("/delete_session")
	if err != nil {
		return fmt.Errorf("api: delete session: %w", err)
	}
	return nil
}

// ListFiles returns the filenames attached to a session.
func (c *Client) ListFiles(ctx context.Context, sessionID string) ([]string, error) {
	var out struct {
		Files []string `json:"files"`
	}
	resp, err := c.req(ctx).
		SetQueryParam("session_id", sessionID).
		SetResult(&out).
		Get("/get_uploaded_files")
	if err != nil {
		return nil, fmt.Errorf("api: list files: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("api: list files: status %d", resp.StatusCode())
	}
	return out.Files, nil
}

// Upload sends files to a session. The returned UploadResult is authoritative
// for the session's attachment list; Errors may be non-empty alongside a
// non-empty ProcessedFiles.
func (c *Client) Upload(ctx context.Context, sessionID string, files []File) (*UploadResult, error) {
	req := c.req(ctx).
		SetFormData(map[string]string{"session_id": sessionID}).
		SetResult(&UploadResult{})
	for _, f := range files {
		req.SetFileReader("pdf_docs", f.Name, bytes.NewReader(f.Data))
	}

	resp, err := req.Post("/upload")
	if err != nil {
		return nil, fmt.Errorf("api: upload: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("api: upload: status %d", resp.StatusCode())
	}
	return resp.Result().(*UploadResult), nil
}

// RemoveFile detaches a file from a session. Callers must wait for this ack
// before refreshing any local attachment list.
func (c *Client) RemoveFile(ctx context.Context, sessionID, filename string) error {
	resp, err := c.req(ctx).
		SetBody(map[string]string{"filename": filename, "session_id": sessionID}).
		Post("/remove_file")
	if err != nil {
		return fmt.Errorf("api: remove file: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("api: remove file: status %d", resp.StatusCode())
	}
	return nil
}

// Chat sends a question and blocks until the answer (or the self-imposed
// timeout) arrives.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	resp, err := c.req(ctx).
		SetBody(req).
		SetResult(&ChatResponse{}).
		Post("/chat")
	if err != nil {
		return nil, fmt.Errorf("api: chat: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("api: chat: status %d", resp.StatusCode())
	}
	return resp.Result().(*ChatResponse), nil
}

// Clean wipes all server-side data. The session id is sent for parity with
// the web client; the server wipes everything regardless.
func (c *Client) Clean(ctx context.Context, sessionID string) error {
	resp, err := c.req(ctx).
		SetBody(map[string]string{"session_id": sessionID}).
		SetResult(&statusResponse{}).
		SetError(&statusResponse{}).
		Post("/clean")
	if err != nil {
		return fmt.Errorf("api: clean: %w", err)
	}

	var status *statusResponse
	if resp.IsSuccess() {
		status = resp.Result().(*statusResponse)
	} else {
		status, _ = resp.Error().(*statusResponse)
	}
	if status == nil || status.Status != "success" {
		msg := "unknown error"
		if status != nil && status.Message != "" {
			msg = status.Message
		}
		return fmt.Errorf("api: clean: %s", msg)
	}

	c.log.Info("server data wiped")
	return nil
}
