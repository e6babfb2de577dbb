// Package realtime is the websocket transport: it upgrades HTTP
// connections, speaks the event/response wire protocol, and fans
// published messages out to channel subscribers through the Hub.
//
// Inbound publishes run through the publish-in middleware chain before
// delivery; the authorization gate lives there. Server-side exchange
// publishes (the pong counter) skip the inbound chain.
package realtime
