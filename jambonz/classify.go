package jambonz

import (
	"bytes"
	"errors"
	"fmt"

	gohttp "github.com/panyam/jambonzws/http"
)

var (
	// ErrContinuationUnsupported is reported for continuation frames.
	ErrContinuationUnsupported = errors.New("continuation frames are not supported")

	// ErrNotJSONObject is reported for text frames that are not a JSON object.
	ErrNotJSONObject = errors.New("text frame is not a JSON object")

	// ErrMissingType is reported for hook messages without a type.
	ErrMissingType = errors.New("hook message has no type")
)

var (
	hookCodec      = &gohttp.TypedJSONCodec[HookPayload, HookPayload]{}
	recordingCodec = &gohttp.TypedJSONCodec[RecordingPayload, RecordingPayload]{}
)

// Classify turns a frame into a request according to the route flavor.
//
// It returns ok=false when the frame produces no request. A non-nil error
// explains why a frame was dropped; it is never fatal to the connection.
// Ping and pong frames never produce a request.
func Classify(flavor RouteFlavor, frame gohttp.Frame) (req Request, ok bool, err error) {
	switch frame.Kind {
	case gohttp.TextFrame:
		return classifyText(flavor, frame.Data)
	case gohttp.BinaryFrame:
		if flavor != Recording {
			return Request{}, false, nil
		}
		return Request{Kind: BinaryRequest, Binary: bytes.Clone(frame.Data)}, true, nil
	case gohttp.CloseFrame:
		return Request{Kind: CloseRequest, Close: frame.Close}, true, nil
	case gohttp.ContinuationFrame:
		return Request{}, false, ErrContinuationUnsupported
	}
	return Request{}, false, nil
}

func classifyText(flavor RouteFlavor, data []byte) (Request, bool, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Request{}, false, ErrNotJSONObject
	}
	switch flavor {
	case Hook:
		payload, err := hookCodec.Decode(trimmed, gohttp.TextMessage)
		if err != nil {
			return Request{}, false, fmt.Errorf("decode hook message: %w", err)
		}
		if payload.Type == "" {
			return Request{}, false, ErrMissingType
		}
		return Request{Kind: HookRequest, Hook: &payload}, true, nil
	case Recording:
		payload, err := recordingCodec.Decode(trimmed, gohttp.TextMessage)
		if err != nil {
			return Request{}, false, fmt.Errorf("decode recording message: %w", err)
		}
		return Request{Kind: RecordingNewRequest, Recording: &payload}, true, nil
	}
	return Request{}, false, fmt.Errorf("unknown route flavor %v", flavor)
}
