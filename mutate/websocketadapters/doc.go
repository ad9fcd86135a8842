// Package websocketadapters provides a WebSocket implementation of the
// mutate.Publisher interface.
//
// The HubPublisher broadcasts live events to a set of attached WebSocket
// connections as JSON text frames, so that other sessions subscribed to a
// resource channel learn about mutations as they happen. Connection
// acceptance and lifecycle stay with the host application; the hub only
// writes to connections it has been handed.
package websocketadapters
