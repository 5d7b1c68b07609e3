package websocket

import "encoding/json"

// IncomingMessage is the frame format clients send:
//
//	{"action":"announcer.game.event","payload":{"kind":"LEVEL_UP","level":3}}
type IncomingMessage struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ClientEvent is the payload of the connection lifecycle topics.
type ClientEvent struct {
	Endpoint     Endpoint `json:"endpoint"`
	SessionID    string   `json:"sessionID"`
	ConnectionID string   `json:"connectionID"`
	Reason       string   `json:"reason,omitempty"`
}
