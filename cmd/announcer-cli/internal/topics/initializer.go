package topics

import (
	"github.com/nfrund/announcer/internal/topicmgr"
	"github.com/nfrund/announcer/internal/websocket"

	// Typed announcer topics register themselves with the default manager.
	_ "github.com/nfrund/announcer/internal/modules/announcer/topics"
)

// Initialize registers every topic of the service with the default manager
// and returns it. Module topics are declared at package level, so importing
// their packages is enough; framework topics are registered explicitly.
func Initialize() (*topicmgr.Manager, error) {
	manager := topicmgr.Default()
	if err := websocket.RegisterTopicsWithManager(manager); err != nil {
		return nil, err
	}
	return manager, nil
}
