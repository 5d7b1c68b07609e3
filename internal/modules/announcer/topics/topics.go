package topics

import (
	"github.com/nfrund/announcer/internal/modules/announcer/events"
	"github.com/nfrund/announcer/internal/pubsub"
)

// Typed topics of the announcer module. Client-originated topics arrive
// through the websocket bridge with the player session as UserID.
var (
	GameEvent = pubsub.NewEvent[events.GameEvent](
		"announcer.game.event",
		"A gameplay event to be commented on",
	)

	SpeechEnded = pubsub.NewEvent[events.SpeechEnded](
		"announcer.speech.ended",
		"The browser finished or dropped an utterance",
	)

	SpeechVoices = pubsub.NewEvent[events.SpeechVoices](
		"announcer.speech.voices",
		"The browser reports speech support and its voice list",
	)

	SettingsUpdate = pubsub.NewEvent[events.SettingsUpdate](
		"announcer.settings.update",
		"Change the commentary style or voice preference",
	)

	CommentaryPublished = pubsub.NewEvent[events.CommentaryPublished](
		"announcer.commentary.published",
		"An announce call completed; carries the record",
	)
)

// ClientActions are the topics browsers may publish over the websocket.
func ClientActions() []string {
	return []string{
		GameEvent.Name(),
		SpeechEnded.Name(),
		SpeechVoices.Name(),
		SettingsUpdate.Name(),
	}
}
