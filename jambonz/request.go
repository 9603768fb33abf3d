package jambonz

import (
	"fmt"

	"github.com/google/uuid"
	gut "github.com/panyam/goutils/utils"
	gohttp "github.com/panyam/jambonzws/http"
)

// Message types jambonz sends on hook connections.
const (
	TypeSessionNew       = "session:new"
	TypeSessionReconnect = "session:reconnect"
	TypeSessionRedirect  = "session:redirect"
	TypeVerbHook         = "verb:hook"
	TypeVerbStatus       = "verb:status"
	TypeCallStatus       = "call:status"
	TypeJambonzError     = "jambonz:error"
)

// Message types an application sends back on hook connections.
const (
	TypeAck     = "ack"
	TypeCommand = "command"
)

// HookPayload is a jambonz websocket API message received on a Hook route.
type HookPayload struct {
	Type    string     `json:"type"`
	MsgID   string     `json:"msgid,omitempty"`
	CallSid string     `json:"call_sid,omitempty"`
	Hook    string     `json:"hook,omitempty"`
	B3      string     `json:"b3,omitempty"`
	Data    gut.StrMap `json:"data,omitempty"`
}

// RecordingPayload is the JSON control message that opens a Recording stream.
// It describes the audio that follows in binary frames.
type RecordingPayload struct {
	Type           string     `json:"type,omitempty"`
	CallSid        string     `json:"callSid,omitempty"`
	CallID         string     `json:"callId,omitempty"`
	AccountSid     string     `json:"accountSid,omitempty"`
	ApplicationSid string     `json:"applicationSid,omitempty"`
	From           string     `json:"from,omitempty"`
	To             string     `json:"to,omitempty"`
	Direction      string     `json:"direction,omitempty"`
	SampleRate     int        `json:"sampleRate,omitempty"`
	MixType        string     `json:"mixType,omitempty"`
	Metadata       gut.StrMap `json:"metadata,omitempty"`
}

// RequestKind tags the variant held by a Request.
type RequestKind int

const (
	// HookRequest carries a decoded HookPayload (Hook routes only).
	HookRequest RequestKind = iota + 1
	// RecordingNewRequest carries a decoded RecordingPayload (Recording routes only).
	RecordingNewRequest
	// BinaryRequest carries raw audio bytes (Recording routes only).
	BinaryRequest
	// CloseRequest is the terminal request sent when the peer closes.
	CloseRequest
)

func (k RequestKind) String() string {
	switch k {
	case HookRequest:
		return "hook"
	case RecordingNewRequest:
		return "recording:new"
	case BinaryRequest:
		return "binary"
	case CloseRequest:
		return "close"
	}
	return fmt.Sprintf("RequestKind(%d)", int(k))
}

// Request is a classified inbound frame. Exactly one of the payload fields
// matching Kind is set.
type Request struct {
	Kind RequestKind

	// Hook is set for HookRequest.
	Hook *HookPayload

	// Recording is set for RecordingNewRequest.
	Recording *RecordingPayload

	// Binary is set for BinaryRequest.
	Binary []byte

	// Close is the peer's close reason for CloseRequest, nil if it sent none.
	Close *gohttp.CloseReason
}

// RequestEnvelope is what a Handler receives for every dispatched request.
type RequestEnvelope[S any] struct {
	// ID identifies the connection the request arrived on. All requests of
	// one connection share it.
	ID uuid.UUID

	// Session writes back to the peer.
	Session gohttp.Session

	Request Request

	// State is the application value given to the Server.
	State S
}

// HookResponse is the reply an application sends to a hook message.
type HookResponse struct {
	Type  string `json:"type"`
	MsgID string `json:"msgid,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// Ack acknowledges the hook message msgID, optionally with a verb list to execute.
func Ack(session gohttp.Session, msgID string, verbs any) error {
	return gohttp.SendJSON(session, HookResponse{Type: TypeAck, MsgID: msgID, Data: verbs})
}
