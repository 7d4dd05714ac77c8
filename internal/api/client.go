// Package api provides a typed client for the vridge REST service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/book-expert/vridge/internal/core"
)

// API endpoints and paths.
const (
	pathLogin           = "/api/v1/user/login"
	pathUnregister      = "/api/v1/user/unregister"
	pathUserInfo        = "/api/v1/user/info"
	pathVoiceSingle     = "/api/v1/voice/single"
	pathVoiceList       = "/api/v1/voice/list"
	pathVoiceUpload     = "/api/v1/voice/upload"
	pathVoiceRecord     = "/api/v1/voice/record"
	pathVoiceDelete     = "/api/v1/voice/delete"
	pathVoiceFinish     = "/api/v1/voice/finish"
	pathVoiceSynthesize = "/api/v1/voice/synthesize"
	pathTtsCreate       = "/api/v1/tts/create"
	pathTtsList         = "/api/v1/tts/list"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
)

// Error messages.
const (
	errFmtSendRequest   = "failed to send request to %s: %w: %w"
	errFmtDecodeBody    = "failed to decode response from %s: %w"
	errFmtMarshalBody   = "failed to marshal request for %s: %w"
	errFmtCreateRequest = "failed to create request for %s: %w"
	maxErrorBodyBytes   = 4096
)

// Client is a typed wrapper over the vridge REST service. Every method maps
// to exactly one remote operation.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the service at baseURL. A zero timeout
// leaves the transport default in place.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewClientWithHTTP creates a client that sends requests through httpClient.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Login registers the identity token together with the push message token.
func (c *Client) Login(ctx context.Context, req LoginRequest) error {
	return c.post(ctx, pathLogin, req, nil)
}

// Unregister deletes the account of the given user.
func (c *Client) Unregister(ctx context.Context, req UIDRequest) error {
	return c.post(ctx, pathUnregister, req, nil)
}

// GetUserInfo fetches the account of uid.
func (c *Client) GetUserInfo(ctx context.Context, uid string) (core.User, error) {
	var user core.User

	err := c.get(ctx, pathUserInfo, url.Values{"uid": {uid}}, &user)

	return user, err
}

// GetVoice fetches a single voice owned by uid.
func (c *Client) GetVoice(ctx context.Context, uid, vid string) (core.Voice, error) {
	var voice core.Voice

	err := c.get(ctx, pathVoiceSingle, url.Values{"uid": {uid}, "vid": {vid}}, &voice)

	return voice, err
}

// GetVoiceList fetches every voice owned by uid in server order.
func (c *Client) GetVoiceList(ctx context.Context, uid string) ([]core.Voice, error) {
	var resp VoiceListResponse

	err := c.get(ctx, pathVoiceList, url.Values{"uid": {uid}}, &resp)
	if err != nil {
		return nil, err
	}

	return resp.VoiceList, nil
}

// UploadRecording announces the metadata of one uploaded segment.
func (c *Client) UploadRecording(ctx context.Context, req RecordingRequest) error {
	return c.post(ctx, pathVoiceUpload, req, nil)
}

// GetRecordingStatus returns the in-progress recording the server holds for uid.
func (c *Client) GetRecordingStatus(ctx context.Context, uid string) (RecordingRequest, error) {
	var status RecordingRequest

	err := c.get(ctx, pathVoiceRecord, url.Values{"uid": {uid}}, &status)

	return status, err
}

// RemoveRecording discards the not-yet-finalized recording of the user.
func (c *Client) RemoveRecording(ctx context.Context, req UIDRequest) error {
	return c.post(ctx, pathVoiceDelete, req, nil)
}

// FinishRecording converts the uploaded segments into a named voice.
func (c *Client) FinishRecording(ctx context.Context, req VoiceRequest) error {
	return c.post(ctx, pathVoiceFinish, req, nil)
}

// SynthesizeVoice asks the server to blend the given voices.
func (c *Client) SynthesizeVoice(ctx context.Context, req SynthRequest) (core.Voice, error) {
	var voice core.Voice

	err := c.post(ctx, pathVoiceSynthesize, req, &voice)

	return voice, err
}

// CreateTts creates one utterance and returns the server-confirmed entity.
func (c *Client) CreateTts(ctx context.Context, req TtsRequest) (core.Tts, error) {
	var tts core.Tts

	err := c.post(ctx, pathTtsCreate, req, &tts)

	return tts, err
}

// GetTtsList fetches the utterance history of a voice in server order.
func (c *Client) GetTtsList(ctx context.Context, uid, vid string) ([]core.Tts, error) {
	var talks []core.Tts

	err := c.get(ctx, pathTtsList, url.Values{"uid": {uid}, "vid": {vid}}, &talks)

	return talks, err
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf(errFmtMarshalBody, path, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf(errFmtCreateRequest, path, err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)

	return c.do(httpReq, path, out)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return fmt.Errorf(errFmtCreateRequest, path, err)
	}

	return c.do(httpReq, path, out)
}

// do sends the request and decodes the JSON body into out when out is
// non-nil. Acknowledgement bodies are drained and discarded.
func (c *Client) do(httpReq *http.Request, path string, out any) error {
	httpReq.Header.Set(headerAccept, contentTypeJSON)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf(errFmtSendRequest, path, core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.parseErrorResponse(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return fmt.Errorf(errFmtDecodeBody, path, err)
	}

	return nil
}

// parseErrorResponse decodes a structured error when the server sends one
// and falls back to the raw body otherwise.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	serverErr := &core.ServerError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Detail:     strings.TrimSpace(string(body)),
	}

	var errorResp ErrorResponse

	if json.Unmarshal(body, &errorResp) == nil && errorResp.Detail != "" {
		serverErr.Detail = errorResp.Detail
		serverErr.Code = errorResp.ErrorCode
	}

	return serverErr
}
