package events

import (
	"github.com/nfrund/announcer/internal/commentary"
)

// GameEvent is one gameplay occurrence reported by the game client.
type GameEvent struct {
	Kind        string `json:"kind" validate:"required,max=64"`
	Score       int    `json:"score,omitempty" validate:"gte=0"`
	Lives       int    `json:"lives,omitempty" validate:"gte=0"`
	Level       int    `json:"level,omitempty" validate:"gte=0"`
	PowerUpType string `json:"powerUpType,omitempty" validate:"max=32"`
	// Priority overrides the table priority for this event only.
	Priority *int `json:"priority,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// Context returns the interpolation values of the event.
func (e GameEvent) Context() commentary.Context {
	return commentary.Context{
		Score:       e.Score,
		Lives:       e.Lives,
		Level:       e.Level,
		PowerUpType: e.PowerUpType,
	}
}

// SpeechEnded acknowledges that the browser finished or dropped an utterance.
type SpeechEnded struct {
	Token uint64 `json:"token" validate:"required"`
}

// SpeechVoices reports the browser's speech capability.
type SpeechVoices struct {
	Supported bool               `json:"supported"`
	Voices    []commentary.Voice `json:"voices" validate:"max=512"`
}

// SettingsUpdate changes the session's style and/or voice preference.
type SettingsUpdate struct {
	Style string  `json:"style,omitempty" validate:"omitempty,max=16"`
	Voice *string `json:"voice,omitempty" validate:"omitempty,max=128"`
}

// CommentaryPublished is emitted after every announce call.
type CommentaryPublished struct {
	SessionID string            `json:"sessionID"`
	Record    commentary.Record `json:"record"`
}

// SpeakCommand is sent to the data websocket to start an utterance.
type SpeakCommand struct {
	Type      string               `json:"type"`
	Utterance commentary.Utterance `json:"utterance"`
}

// CancelCommand is sent to the data websocket to stop speaking.
type CancelCommand struct {
	Type string `json:"type"`
}

const (
	CommandSpeak  = "speak"
	CommandCancel = "cancel"
)
