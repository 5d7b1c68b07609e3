package websocket

import (
	"errors"

	"github.com/nfrund/announcer/internal/topicmgr"
)

// Framework topics used by the bridge for routing.
var (
	TopicHTMLBroadcast = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.html.broadcast",
		Description: "Broadcast an HTML fragment to every HTML websocket client",
		Example:     `<div id="commentary" hx-swap-oob="true">Game start!</div>`,
		Metadata: map[string]any{
			"endpoint_type": "html",
			"routing_type":  "broadcast",
		},
	})

	// TopicHTMLDirect needs the recipient session in the "recipient_id" metadata.
	TopicHTMLDirect = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.html.direct",
		Description: "Send an HTML fragment to the HTML clients of one session",
		Example:     `<div id="commentary" hx-swap-oob="true">Alien down!</div>`,
		Metadata: map[string]any{
			"endpoint_type": "html",
			"routing_type":  "direct",
			"requires":      []string{"recipient_id"},
		},
	})

	TopicDataBroadcast = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.data.broadcast",
		Description: "Broadcast a JSON message to every data websocket client",
		Example:     `{"type":"command","payload":{"name":"reload"}}`,
		Metadata: map[string]any{
			"endpoint_type": "data",
			"routing_type":  "broadcast",
		},
	})

	// TopicDataDirect needs the recipient session in the "recipient_id" metadata.
	TopicDataDirect = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.data.direct",
		Description: "Send a JSON message to the data clients of one session",
		Example:     `{"type":"speak","payload":{"token":3,"text":"Game over!"}}`,
		Metadata: map[string]any{
			"endpoint_type": "data",
			"routing_type":  "direct",
			"requires":      []string{"recipient_id"},
		},
	})

	TopicClientReady = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.client.ready",
		Description: "Published when a websocket client connects",
		Example:     `{"endpoint":"data","sessionID":"7f9c...","connectionID":"c1"}`,
		Metadata: map[string]any{
			"event_type":     "lifecycle",
			"payload_fields": []string{"endpoint", "sessionID", "connectionID"},
		},
	})

	TopicClientDisconnected = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.client.disconnected",
		Description: "Published when a websocket client disconnects",
		Example:     `{"endpoint":"data","sessionID":"7f9c...","connectionID":"c1","reason":"client_closed"}`,
		Metadata: map[string]any{
			"event_type":     "lifecycle",
			"payload_fields": []string{"endpoint", "sessionID", "connectionID", "reason"},
		},
	})
)

// Topics lists the framework topics owned by this package.
func Topics() []topicmgr.Topic {
	return []topicmgr.Topic{
		TopicHTMLBroadcast,
		TopicHTMLDirect,
		TopicDataBroadcast,
		TopicDataDirect,
		TopicClientReady,
		TopicClientDisconnected,
	}
}

// RegisterTopics registers the websocket topics with the default manager.
func RegisterTopics() error {
	return RegisterTopicsWithManager(topicmgr.Default())
}

// RegisterTopicsWithManager registers the websocket topics with manager.
// Registering twice is not an error.
func RegisterTopicsWithManager(manager *topicmgr.Manager) error {
	for _, topic := range Topics() {
		if err := manager.Register(topic); err != nil {
			var te *topicmgr.TopicError
			if errors.As(err, &te) && te.Type == topicmgr.ErrorDuplicateRegistration {
				continue
			}
			return err
		}
	}
	return nil
}
