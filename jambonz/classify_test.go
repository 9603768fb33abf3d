package jambonz

import (
	"errors"
	"testing"

	gohttp "github.com/panyam/jambonzws/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	audio := []byte{0x00, 0xff, 0x10, 0x7f}
	tests := []struct {
		name     string
		flavor   RouteFlavor
		frame    gohttp.Frame
		wantOK   bool
		wantKind RequestKind
		wantErr  error
	}{
		{
			name:     "hook text",
			flavor:   Hook,
			frame:    gohttp.Frame{Kind: gohttp.TextFrame, Data: []byte(`{"type":"session:new","msgid":"m1","call_sid":"c1"}`)},
			wantOK:   true,
			wantKind: HookRequest,
		},
		{
			name:    "hook text without type",
			flavor:  Hook,
			frame:   gohttp.Frame{Kind: gohttp.TextFrame, Data: []byte(`{"msgid":"m1"}`)},
			wantErr: ErrMissingType,
		},
		{
			name:    "hook json array",
			flavor:  Hook,
			frame:   gohttp.Frame{Kind: gohttp.TextFrame, Data: []byte(`[1,2]`)},
			wantErr: ErrNotJSONObject,
		},
		{
			name:   "hook binary ignored",
			flavor: Hook,
			frame:  gohttp.Frame{Kind: gohttp.BinaryFrame, Data: audio},
		},
		{
			name:     "recording text",
			flavor:   Recording,
			frame:    gohttp.Frame{Kind: gohttp.TextFrame, Data: []byte(`{"type":"new","callSid":"c1","sampleRate":8000}`)},
			wantOK:   true,
			wantKind: RecordingNewRequest,
		},
		{
			name:     "recording text without type",
			flavor:   Recording,
			frame:    gohttp.Frame{Kind: gohttp.TextFrame, Data: []byte(`{"callSid":"c1"}`)},
			wantOK:   true,
			wantKind: RecordingNewRequest,
		},
		{
			name:    "recording null",
			flavor:  Recording,
			frame:   gohttp.Frame{Kind: gohttp.TextFrame, Data: []byte(`null`)},
			wantErr: ErrNotJSONObject,
		},
		{
			name:     "recording binary",
			flavor:   Recording,
			frame:    gohttp.Frame{Kind: gohttp.BinaryFrame, Data: audio},
			wantOK:   true,
			wantKind: BinaryRequest,
		},
		{
			name:    "continuation",
			flavor:  Recording,
			frame:   gohttp.Frame{Kind: gohttp.ContinuationFrame, Data: audio},
			wantErr: ErrContinuationUnsupported,
		},
		{name: "ping", flavor: Hook, frame: gohttp.Frame{Kind: gohttp.PingFrame}},
		{name: "pong", flavor: Recording, frame: gohttp.Frame{Kind: gohttp.PongFrame}},
		{name: "nop", flavor: Hook, frame: gohttp.Frame{Kind: gohttp.NopFrame}},
		{
			name:     "close",
			flavor:   Hook,
			frame:    gohttp.Frame{Kind: gohttp.CloseFrame, Close: &gohttp.CloseReason{Code: 1000}},
			wantOK:   true,
			wantKind: CloseRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, ok, err := Classify(tt.flavor, tt.frame)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "err = %v, want %v", err, tt.wantErr)
			}
			if ok {
				require.NoError(t, err)
				assert.Equal(t, tt.wantKind, req.Kind)
			}
		})
	}
}

func TestClassify_MalformedJSONReportsError(t *testing.T) {
	_, ok, err := Classify(Hook, gohttp.Frame{Kind: gohttp.TextFrame, Data: []byte(`{"type":`)})
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestClassify_Payloads(t *testing.T) {
	req, ok, err := Classify(Hook, gohttp.Frame{
		Kind: gohttp.TextFrame,
		Data: []byte(`{"type":"verb:hook","msgid":"m2","call_sid":"c2","hook":"/gather","data":{"speech":"hi"}}`),
	})
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, req.Hook)
	assert.Equal(t, TypeVerbHook, req.Hook.Type)
	assert.Equal(t, "m2", req.Hook.MsgID)
	assert.Equal(t, "c2", req.Hook.CallSid)
	assert.Equal(t, "/gather", req.Hook.Hook)
	assert.Equal(t, "hi", req.Hook.Data["speech"])

	req, ok, err = Classify(Recording, gohttp.Frame{
		Kind: gohttp.TextFrame,
		Data: []byte(`{"type":"new","callSid":"c3","from":"+1","to":"+2","sampleRate":16000,"mixType":"stereo"}`),
	})
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, req.Recording)
	assert.Equal(t, "new", req.Recording.Type)
	assert.Equal(t, "c3", req.Recording.CallSid)
	assert.Equal(t, 16000, req.Recording.SampleRate)
	assert.Equal(t, "stereo", req.Recording.MixType)
}

func TestClassify_BinaryIsCopied(t *testing.T) {
	data := []byte{1, 2, 3}
	req, ok, err := Classify(Recording, gohttp.Frame{Kind: gohttp.BinaryFrame, Data: data})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, data, req.Binary)
	data[0] = 9
	assert.Equal(t, byte(1), req.Binary[0])
}

func TestClassify_CloseCarriesReason(t *testing.T) {
	reason := &gohttp.CloseReason{Code: 4000, Description: "hangup"}
	req, ok, err := Classify(Recording, gohttp.Frame{Kind: gohttp.CloseFrame, Close: reason})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, reason, req.Close)

	req, ok, _ = Classify(Hook, gohttp.Frame{Kind: gohttp.CloseFrame})
	require.True(t, ok)
	assert.Nil(t, req.Close)
}

func TestRouteFlavor(t *testing.T) {
	assert.Equal(t, "ws.jambonz.org", Hook.SubProtocol())
	assert.Equal(t, "audio.jambonz.org", Recording.SubProtocol())
	assert.Equal(t, "", RouteFlavor(0).SubProtocol())
	assert.False(t, RouteFlavor(7).Valid())

	f, err := ParseRouteFlavor(" Recording ")
	require.NoError(t, err)
	assert.Equal(t, Recording, f)
	f, err = ParseRouteFlavor("hook")
	require.NoError(t, err)
	assert.Equal(t, Hook, f)
	_, err = ParseRouteFlavor("video")
	assert.Error(t, err)
}
