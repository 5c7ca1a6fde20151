package ws

import "encoding/json"

// inboundMessage is the envelope for every client message. Only
// make_move carries a payload; position stays raw so the dispatcher can
// reject unparsable values itself.
type inboundMessage struct {
	Type     string          `json:"type"`
	Position json.RawMessage `json:"position,omitempty"`
}

// envelope wraps every outbound event.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
