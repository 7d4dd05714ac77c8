package api

import "github.com/book-expert/vridge/internal/core"

// LoginRequest registers the identity token and the push message token.
type LoginRequest struct {
	Token    string `json:"token"`
	FcmToken string `json:"fcmToken"`
}

// UIDRequest carries only the user id.
type UIDRequest struct {
	UID string `json:"uid"`
}

// RecordingRequest announces one uploaded segment of a recording session.
type RecordingRequest struct {
	UID   string `json:"uid"`
	VID   string `json:"vid"`
	Index int    `json:"index"`
}

// VoiceRequest finalizes a recording session into a named voice.
type VoiceRequest struct {
	UID      string `json:"uid"`
	VID      string `json:"vid"`
	Name     string `json:"name"`
	Pitch    int    `json:"pitch"`
	Language string `json:"language"`
}

// SynthRequest blends existing voices into a new one.
type SynthRequest struct {
	UID      string   `json:"uid"`
	VIDs     []string `json:"vids"`
	Name     string   `json:"name"`
	Pitch    int      `json:"pitch"`
	Language string   `json:"language"`
}

// TtsRequest creates one utterance. Timestamp is in milliseconds.
type TtsRequest struct {
	Text      string `json:"text"`
	UID       string `json:"uid"`
	VID       string `json:"vid"`
	TID       string `json:"tid"`
	Pitch     int    `json:"pitch"`
	Timestamp int64  `json:"timestamp"`
}

// VoiceListResponse wraps the voice list endpoint payload.
type VoiceListResponse struct {
	VoiceList []core.Voice `json:"voiceList"`
}

// ErrorResponse represents a structured error response from the server.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}
