package realtime

import "encoding/json"

// The wire protocol is JSON, one frame per websocket message. Clients
// send requests carrying an event name and a correlation id; the
// server answers with a response frame echoing that id, and pushes
// channel traffic as #publish events.
type (
	request struct {
		Event string          `json:"event"`
		CID   uint64          `json:"cid,omitempty"`
		Data  json.RawMessage `json:"data,omitempty"`
	}

	response struct {
		RID   uint64      `json:"rid"`
		Error string      `json:"error,omitempty"`
		Data  interface{} `json:"data,omitempty"`
	}

	push struct {
		Event string      `json:"event"`
		Data  interface{} `json:"data"`
	}

	credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	authToken struct {
		Token string `json:"token"`
	}

	channelRef struct {
		Channel string `json:"channel"`
	}

	publishData struct {
		Channel string          `json:"channel"`
		Data    json.RawMessage `json:"data"`
	}

	// publishEnvelope is the outbound twin of publishData; Data is
	// whatever the publisher sent, or a server-side value for
	// exchange publishes.
	publishEnvelope struct {
		Channel string      `json:"channel"`
		Data    interface{} `json:"data"`
	}

	loginResult struct {
		Channel string `json:"channel"`
		Token   string `json:"token"`
	}
)

const (
	eventPublish = "#publish"
)
