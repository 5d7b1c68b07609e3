package commentary

import (
	"errors"
	"strings"
)

// EventKind names a gameplay occurrence that may trigger commentary.
type EventKind string

const (
	AlienDestroyedNormal    EventKind = "ALIEN_DESTROYED_NORMAL"
	AlienDestroyedTough     EventKind = "ALIEN_DESTROYED_TOUGH"
	PowerUpAppear           EventKind = "POWERUP_APPEAR"
	PowerUpCollectRapidFire EventKind = "POWERUP_COLLECT_RAPID_FIRE"
	PowerUpCollectShield    EventKind = "POWERUP_COLLECT_SHIELD"
	PowerUpDestroyed        EventKind = "POWERUP_DESTROYED"
	LoseLife                EventKind = "LOSE_LIFE"
	LevelUp                 EventKind = "LEVEL_UP"
	GainLife                EventKind = "GAIN_LIFE"
	GameStart               EventKind = "GAME_START"
	GameRestart             EventKind = "GAME_RESTART"
	GameOver                EventKind = "GAME_OVER"
	GamePaused              EventKind = "GAME_PAUSED"
	GameResumed             EventKind = "GAME_RESUMED"
)

var allKinds = []EventKind{
	AlienDestroyedNormal,
	AlienDestroyedTough,
	PowerUpAppear,
	PowerUpCollectRapidFire,
	PowerUpCollectShield,
	PowerUpDestroyed,
	LoseLife,
	LevelUp,
	GainLife,
	GameStart,
	GameRestart,
	GameOver,
	GamePaused,
	GameResumed,
}

// Kinds returns every known event kind in a stable order.
func Kinds() []EventKind {
	out := make([]EventKind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Valid reports whether k belongs to the closed set of event kinds.
func (k EventKind) Valid() bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k EventKind) String() string {
	return string(k)
}

// ParseKind normalises user input ("level up", "level-up", "LEVEL_UP") into an
// EventKind. The result is not checked against the known set.
func ParseKind(s string) EventKind {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("-", "_", " ", "_", ".", "_").Replace(s)
	return EventKind(strings.ToUpper(s))
}

// Style selects the tone of resolved messages.
type Style string

const (
	StyleNeutral   Style = "neutral"
	StyleTrashTalk Style = "trashtalk"
)

// ErrUnknownStyle is returned by ParseStyle for anything other than a known style.
var ErrUnknownStyle = errors.New("unknown commentary style")

// ParseStyle accepts "neutral", "trashtalk" and "trash-talk" in any case.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "neutral", "":
		return StyleNeutral, nil
	case "trashtalk", "trash-talk", "trash_talk":
		return StyleTrashTalk, nil
	default:
		return "", ErrUnknownStyle
	}
}

// Styles lists the supported styles.
func Styles() []Style {
	return []Style{StyleNeutral, StyleTrashTalk}
}
