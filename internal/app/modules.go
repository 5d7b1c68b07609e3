package app

import (
	"github.com/nfrund/announcer/internal/database"
	"github.com/nfrund/announcer/internal/module"
	"github.com/nfrund/announcer/internal/modules/announcer"
	"github.com/nfrund/announcer/internal/pubsub"
	"github.com/nfrund/announcer/internal/rendering"
	"github.com/nfrund/announcer/internal/storage"
	"github.com/nfrund/announcer/internal/websocket"
)

// Dependencies holds the core services that are required by the application's modules.
// This struct is passed from the server to wire up the modules.
type Dependencies struct {
	Publisher  pubsub.Publisher
	Subscriber pubsub.Subscriber
	Renderer   rendering.Renderer
	Bridges    []*websocket.Bridge
	History    database.HistoryStore
	Files      storage.Store
}

// announcerDeps creates the dependency struct for the announcer module.
func announcerDeps(deps Dependencies) announcer.Dependencies {
	return announcer.Dependencies{
		Publisher:  deps.Publisher,
		Subscriber: deps.Subscriber,
		Renderer:   deps.Renderer,
		Bridges:    deps.Bridges,
		History:    deps.History,
		Files:      deps.Files,
	}
}

// NewModules creates and returns the list of all active modules for the application.
// This is the single source of truth for which features are enabled.
func NewModules(deps Dependencies) []module.Module {
	return []module.Module{
		announcer.New(announcerDeps(deps)),
	}
}
