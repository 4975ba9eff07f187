package model

import (
	"encoding/json"
	"strconv"
)

// Symbolic message types understood by the dispatch engine. Codes are
// assigned by the printer and looked up through Enums.MessageTypes.
const (
	MessageLabelCount = "TLABELCOUNT"
	MessageError      = "ERROR"
	MessageExtKey     = "extKey"
	MessageExtChar    = "extChar"
	MessageVariables  = "webAepVariables"
	MessageUserData   = "webAepUserData"
	MessageArray      = "ARRAY"
	MessageKbdSleep   = "KBDSLEEP"
	MessageRunState   = "runState"
	MessageProcessing = "TPROCESSING"
	MessageMotion     = "TMOTION"
)

// LocalClientNotice is the KBDSLEEP payload announcing a client running on
// the printer itself.
const LocalClientNotice = "l:1"

// --- WebSocket Messages ---

// Frame is one JSON object as carried on the push channel. Type is nil
// when the object has no type field.
type Frame struct {
	Type  *int            `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Value *float64        `json:"v,omitempty"`
}

// OutboundFrame is a frame written by the client.
type OutboundFrame struct {
	Type int `json:"type"`
	Data any `json:"data"`
}

// Message is a decoded frame with its symbolic type resolved. Symbol is
// empty when the code is not present in the message type table.
type Message struct {
	Type   int
	Data   json.RawMessage
	Value  *float64
	Symbol string
}

// Number returns the numeric value of the message, preferring the "v" field
// and falling back to a numeric data payload.
func (m Message) Number() (float64, bool) {
	if m.Value != nil {
		return *m.Value, true
	}
	if len(m.Data) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(m.Data, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(m.Data, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// Flag interprets the data payload as a boolean. Numbers are true when
// non-zero.
func (m Message) Flag() (bool, bool) {
	var b bool
	if err := json.Unmarshal(m.Data, &b); err == nil {
		return b, true
	}
	if f, ok := m.Number(); ok {
		return f != 0, true
	}
	return false, false
}

// ErrorRecord is a device error with its localized message. Message is
// empty when localization failed.
type ErrorRecord struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
