// Package topicmgr keeps the catalogue of bus topics.
//
// Every topic the service publishes or subscribes to is declared once, at
// package level, with a description and an example payload, and registered
// with the Default manager. The catalogue backs the "topics list" CLI command
// and rejects malformed or duplicate names at startup.
//
// Framework topics belong to the transport and server layers:
//
//	var HTMLDirect = topicmgr.DefineFramework(topicmgr.TopicConfig{
//		Name:        "ws.html.direct",
//		Description: "HTML fragment for one websocket session",
//	})
//
// Module topics carry the owning module as their first name segment:
//
//	var GameEvent = topicmgr.DefineModule(topicmgr.TopicConfig{
//		Name:        "announcer.game.event",
//		Module:      "announcer",
//		Description: "Gameplay event reported by the browser",
//	})
package topicmgr
