package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEventKinds(t *testing.T) {
	cases := []struct {
		name string
		data string
		kind EventKind
	}{
		{"delta", `{"type":"response.text.delta","delta":"Bon"}`, KindTextDelta},
		{"done", `{"type":"response.text.done","text":"Bonjour"}`, KindTextDone},
		{"transcript", `{"type":"input_audio_transcription.done","transcript":"Salut"}`, KindTranscript},
		{"error", `{"type":"error","error":{"message":"boom"}}`, KindError},
		{"other", `{"type":"session.updated"}`, KindOther},
		{"raw non-json", `not json at all`, KindRaw},
		{"raw missing type", `{"delta":"x"}`, KindRaw},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := parseEvent([]byte(tc.data))
			assert.Equal(t, tc.kind, ev.Kind)
			assert.Equal(t, tc.data, string(ev.Raw))
		})
	}
}

func TestParseEventFields(t *testing.T) {
	ev := parseEvent([]byte(`{"type":"response.text.delta","delta":"jour"}`))
	assert.Equal(t, "jour", ev.Delta)

	ev = parseEvent([]byte(`{"type":"input_audio_transcription.done","transcript":"Bonjour madame"}`))
	assert.Equal(t, "Bonjour madame", ev.Transcript)

	ev = parseEvent([]byte(`{"type":"error","error":{"message":"session expired"}}`))
	assert.Equal(t, "session expired", ev.Message)
}
