package client

import "encoding/json"

// EventKind discriminates inbound realtime events. Every inbound payload
// maps to exactly one kind; nothing is dropped on the receive path.
type EventKind int

const (
	// KindTextDelta is an incremental assistant-text fragment.
	KindTextDelta EventKind = iota
	// KindTextDone finalizes the pending assistant turn.
	KindTextDone
	// KindTranscript is a completed transcription of user speech.
	KindTranscript
	// KindError is an error surfaced by the remote service.
	KindError
	// KindOther is a recognized JSON event with no special rendering.
	KindOther
	// KindRaw is an unparseable payload preserved verbatim.
	KindRaw
)

func (k EventKind) String() string {
	switch k {
	case KindTextDelta:
		return "text_delta"
	case KindTextDone:
		return "text_done"
	case KindTranscript:
		return "transcript"
	case KindError:
		return "error"
	case KindOther:
		return "other"
	case KindRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Event is one inbound realtime event. Raw always carries the original
// payload; the other fields are populated per kind.
type Event struct {
	Kind       EventKind
	Type       string
	Delta      string
	Text       string
	Transcript string
	Message    string
	Raw        json.RawMessage
}

type wireEvent struct {
	Type       string `json:"type"`
	Delta      string `json:"delta"`
	Text       string `json:"text"`
	Transcript string `json:"transcript"`
	Error      struct {
		Message string `json:"message"`
	} `json:"error"`
}

// parseEvent classifies one inbound payload. Payloads that are not JSON
// objects come back as KindRaw with the bytes preserved.
func parseEvent(data []byte) Event {
	raw := json.RawMessage(append([]byte(nil), data...))

	var we wireEvent
	if err := json.Unmarshal(data, &we); err != nil || we.Type == "" {
		return Event{Kind: KindRaw, Raw: raw}
	}

	ev := Event{Type: we.Type, Raw: raw}
	switch we.Type {
	case "response.text.delta":
		ev.Kind = KindTextDelta
		ev.Delta = we.Delta
	case "response.text.done":
		ev.Kind = KindTextDone
		ev.Text = we.Text
	case "input_audio_transcription.done":
		ev.Kind = KindTranscript
		ev.Transcript = we.Transcript
	case "error":
		ev.Kind = KindError
		ev.Message = we.Error.Message
	default:
		ev.Kind = KindOther
	}
	return ev
}
