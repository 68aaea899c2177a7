package gateway

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// ClientMessageType identifies an inbound client request.
type ClientMessageType string

const (
	ClientMessageRequestCharacter ClientMessageType = "request_character"
	ClientMessageQTEInput         ClientMessageType = "qte_input"
	ClientMessageHazardCollision  ClientMessageType = "hazard_collision"
	ClientMessageStartCountdown   ClientMessageType = "start_countdown"
)

// ClientMessage is the envelope for every inbound client request. Requests
// carry no payload today; the participant identity comes from the connection,
// never from the message body.
type ClientMessage struct {
	Type ClientMessageType `json:"type"`
}

// dispatchClientMessage parses one inbound frame and funnels it into the
// session queue. Malformed or unknown messages are logged and dropped; a
// misbehaving client must never take the loop down.
func (m *Manager) dispatchClientMessage(c *Connection, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Warn().
			Err(err).
			Str("connection_id", c.ID).
			Msg("malformed client message, dropping")
		return
	}

	switch msg.Type {
	case ClientMessageRequestCharacter:
		m.core.RequestCharacter(c.Participant)
	case ClientMessageQTEInput:
		m.core.SubmitQTEInput(c.Participant)
	case ClientMessageHazardCollision:
		m.core.ReportHazardCollision(c.Participant)
	case ClientMessageStartCountdown:
		m.core.StartCountdown()
	default:
		log.Warn().
			Str("connection_id", c.ID).
			Str("message_type", string(msg.Type)).
			Msg("unknown client message type, dropping")
	}
}
