package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/voxlingua/voxlingua/client/internal/api"
	"github.com/voxlingua/voxlingua/client/internal/types"
)

// iceGatherTimeout bounds the wait for ICE candidate gathering before the
// offer is submitted (vanilla ICE: the complete SDP goes out in one shot).
const iceGatherTimeout = 15 * time.Second

// eventsChannelLabel is the data channel the realtime service expects for
// structured protocol events.
const eventsChannelLabel = "oai-events"

// State is the conversation lifecycle. Failed absorbs from any non-terminal
// state; the ordering matters: states at or past StateClosing are terminal
// or tearing down, which the guards below rely on.
type State int32

const (
	StateIdle State = iota
	StateRequesting
	StateAwaitingCredential
	StateNegotiating
	StateConnected
	StateClosing
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateAwaitingCredential:
		return "awaiting_credential"
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Turn is one finalized line of the conversation.
type Turn struct {
	Role string // "user" or "assistant"
	Text string
}

// ConversationConfig configures one conversation. Audio is required for
// Start; OnEvent and OnState are optional observers invoked from the
// engine's goroutines.
type ConversationConfig struct {
	SituationID    string
	PromptOverride string
	Audio          AudioSource

	OnEvent func(Event)
	OnState func(State, string)

	// PingInterval and PingIncrement tune the usage pump. Zero values use
	// the 10 s / 10 s defaults.
	PingInterval  time.Duration
	PingIncrement int
}

// Conversation is the client-side negotiation engine: one instance owns one
// realtime session from request through teardown. No ambient globals; the
// pump, the channel handler, and the teardown path all share this struct.
type Conversation struct {
	client *Client
	cfg    ConversationConfig

	mu        sync.Mutex
	state     State
	session   *SessionInfo
	pc        *webrtc.PeerConnection
	dc        *webrtc.DataChannel
	textBuf   strings.Builder
	pending   []interface{} // inbound events buffered for the log
	turns     []Turn
	remaining int

	connectedOnce sync.Once
	audioStopOnce sync.Once
	pumpCancel    context.CancelFunc
}

// NewConversation creates an Idle conversation. Start drives it.
func (c *Client) NewConversation(cfg ConversationConfig) *Conversation {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	if cfg.PingIncrement <= 0 {
		cfg.PingIncrement = defaultPingIncrement
	}
	return &Conversation{client: c, cfg: cfg, state: StateIdle}
}

// StartConversation creates a conversation and starts it. The conversation
// is returned even when Start fails so callers can inspect its state.
func (c *Client) StartConversation(ctx context.Context, cfg ConversationConfig) (*Conversation, error) {
	conv := c.NewConversation(cfg)
	if err := conv.Start(ctx); err != nil {
		return conv, err
	}
	return conv, nil
}

// State returns the current lifecycle state.
func (conv *Conversation) State() State {
	conv.mu.Lock()
	defer conv.mu.Unlock()
	return conv.state
}

// Remaining returns the latest quota snapshot in seconds, from session
// issuance or the most recent successful ping.
func (conv *Conversation) Remaining() int {
	conv.mu.Lock()
	defer conv.mu.Unlock()
	return conv.remaining
}

// Turns returns a copy of the finalized conversation lines.
func (conv *Conversation) Turns() []Turn {
	conv.mu.Lock()
	defer conv.mu.Unlock()
	out := make([]Turn, len(conv.turns))
	copy(out, conv.turns)
	return out
}

// Start runs the session pipeline: broker request, capture acquisition, SDP
// negotiation, pump launch. On any failure the conversation lands in Failed
// with resources released; a fresh client secret is required to try again.
func (conv *Conversation) Start(ctx context.Context) error {
	conv.mu.Lock()
	if conv.state != StateIdle {
		conv.mu.Unlock()
		return fmt.Errorf("conversation already started (state %s)", conv.state)
	}
	if conv.cfg.SituationID == "" {
		conv.notifyLocked(StateIdle, "choose a situation before starting")
		conv.mu.Unlock()
		return ErrNoSituation
	}
	if conv.cfg.Audio == nil {
		conv.notifyLocked(StateIdle, "an audio source is required")
		conv.mu.Unlock()
		return fmt.Errorf("conversation requires an AudioSource")
	}
	conv.setStateLocked(StateRequesting, "requesting session")
	conv.mu.Unlock()

	info, err := conv.client.RequestSession(ctx, conv.cfg.SituationID, conv.cfg.PromptOverride)
	if err != nil {
		conv.fail("session request failed: " + err.Error())
		return err
	}
	conv.mu.Lock()
	conv.session = info
	conv.remaining = info.RemainingSeconds
	conv.setStateLocked(StateAwaitingCredential, "credential received")
	conv.mu.Unlock()

	track, err := conv.cfg.Audio.Track()
	if err != nil {
		conv.fail("audio capture failed: " + err.Error())
		return err
	}
	conv.mu.Lock()
	conv.setStateLocked(StateNegotiating, "negotiating")
	conv.mu.Unlock()

	if err := conv.negotiate(ctx, track); err != nil {
		conv.fail("negotiation failed: " + err.Error())
		return err
	}

	pumpCtx, cancel := context.WithCancel(context.Background())
	conv.mu.Lock()
	conv.pumpCancel = cancel
	conv.mu.Unlock()
	go conv.runPump(pumpCtx)

	return nil
}

// negotiate performs the one-shot offer/answer exchange. The client secret
// is consumed here; it must not be reused on failure.
func (conv *Conversation) negotiate(ctx context.Context, track webrtc.TrackLocal) error {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return fmt.Errorf("creating peer connection: %w", err)
	}
	conv.mu.Lock()
	conv.pc = pc
	conv.mu.Unlock()

	if _, err := pc.AddTrack(track); err != nil {
		return fmt.Errorf("attaching audio track: %w", err)
	}

	// Drain remote audio so the transport does not back up. Playback is the
	// host application's concern.
	pc.OnTrack(func(remote *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		go func() {
			for {
				if _, _, err := remote.ReadRTP(); err != nil {
					return
				}
			}
		}()
	})

	dc, err := pc.CreateDataChannel(eventsChannelLabel, nil)
	if err != nil {
		return fmt.Errorf("creating events channel: %w", err)
	}
	conv.mu.Lock()
	conv.dc = dc
	conv.mu.Unlock()

	dc.OnOpen(func() {
		conv.markConnected("events channel open")
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		conv.handleInbound(msg.Data)
	})
	dc.OnClose(func() {
		conv.Stop()
	})

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		switch s {
		case webrtc.PeerConnectionStateConnected:
			conv.markConnected("transport connected")
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateDisconnected:
			conv.transportFailure("transport " + s.String())
		case webrtc.PeerConnectionStateClosed:
			conv.Stop()
		}
	})

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("creating offer: %w", err)
	}
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("setting local description: %w", err)
	}
	select {
	case <-gatherComplete:
	case <-time.After(iceGatherTimeout):
		return fmt.Errorf("ICE gathering timed out after %s", iceGatherTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	answerSDP, err := api.ExchangeOffer(ctx, conv.client.negotiateHTTP,
		conv.client.realtimeBase, conv.session.ClientSecret, conv.session.Model,
		pc.LocalDescription().SDP)
	if err != nil {
		return err
	}

	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: answerSDP}
	if err := pc.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("setting remote description: %w", err)
	}
	return nil
}

// markConnected enters Connected exactly once, on whichever of transport
// connect or channel open fires first.
func (conv *Conversation) markConnected(reason string) {
	conv.connectedOnce.Do(func() {
		conv.mu.Lock()
		defer conv.mu.Unlock()
		if conv.state >= StateClosing {
			return
		}
		conv.setStateLocked(StateConnected, reason)
	})
}

// handleInbound processes one data channel message in arrival order.
func (conv *Conversation) handleInbound(data []byte) {
	ev := parseEvent(data)

	conv.mu.Lock()
	conv.pending = append(conv.pending, json.RawMessage(ev.Raw))

	var flush types.EventBatch
	switch ev.Kind {
	case KindTextDelta:
		conv.textBuf.WriteString(ev.Delta)
	case KindTextDone:
		if text := strings.TrimSpace(conv.textBuf.String()); text != "" {
			conv.turns = append(conv.turns, Turn{Role: "assistant", Text: text})
			if conv.session != nil {
				flush = conv.drainPendingLocked()
			}
		}
		conv.textBuf.Reset()
	case KindTranscript:
		if ev.Transcript != "" {
			conv.turns = append(conv.turns, Turn{Role: "user", Text: ev.Transcript})
		}
	}
	conv.mu.Unlock()

	if len(flush.Events) > 0 {
		if err := conv.client.AppendLog(context.Background(), flush); err != nil {
			log.Debug().Err(err).Msg("log batch enqueue failed")
		}
	}
	if conv.cfg.OnEvent != nil {
		conv.cfg.OnEvent(ev)
	}
}

// drainPendingLocked moves the buffered events into a batch. Caller holds
// the lock.
func (conv *Conversation) drainPendingLocked() types.EventBatch {
	batch := types.EventBatch{
		SessionID:   conv.session.SessionID,
		SituationID: conv.cfg.SituationID,
		Events:      conv.pending,
	}
	conv.pending = nil
	return batch
}

// SendText sends user-typed text: a conversation item followed by a response
// request, in that order, and echoes the text as a local user turn.
func (conv *Conversation) SendText(text string) error {
	return conv.sendText(text, true)
}

// SendSuggestedPhrase sends a phrase chosen from a suggestion list. Same
// wire protocol as SendText but without the local echo, since the phrase is
// already visible to the user.
func (conv *Conversation) SendSuggestedPhrase(text string) error {
	return conv.sendText(text, false)
}

func (conv *Conversation) sendText(text string, echo bool) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("text is empty")
	}

	conv.mu.Lock()
	if conv.state != StateConnected || conv.dc == nil {
		state := conv.state
		conv.mu.Unlock()
		return fmt.Errorf("conversation is not connected (state %s)", state)
	}
	dc := conv.dc
	if echo {
		conv.turns = append(conv.turns, Turn{Role: "user", Text: text})
	}
	conv.mu.Unlock()

	item, err := json.Marshal(map[string]interface{}{
		"type": "conversation.item.create",
		"item": map[string]interface{}{
			"type": "message",
			"role": "user",
			"content": []map[string]string{
				{"type": "input_text", "text": text},
			},
		},
	})
	if err != nil {
		return err
	}
	if err := dc.SendText(string(item)); err != nil {
		return err
	}
	return dc.SendText(`{"type":"response.create"}`)
}

// Stop closes the conversation: Closing, full teardown, Closed. Safe to call
// from any goroutine and idempotent once teardown has begun.
func (conv *Conversation) Stop() {
	conv.mu.Lock()
	if conv.state == StateIdle || conv.state >= StateClosing {
		conv.mu.Unlock()
		return
	}
	conv.setStateLocked(StateClosing, "closing")
	conv.mu.Unlock()

	conv.teardown()

	conv.mu.Lock()
	conv.setStateLocked(StateClosed, "closed")
	conv.mu.Unlock()
}

// transportFailure collapses the state machine to Failed and tears down.
func (conv *Conversation) transportFailure(msg string) {
	conv.mu.Lock()
	if conv.state >= StateClosing {
		conv.mu.Unlock()
		return
	}
	conv.setStateLocked(StateFailed, msg)
	conv.mu.Unlock()

	conv.teardown()
}

// fail marks a pre-connection failure and releases whatever was acquired.
func (conv *Conversation) fail(msg string) {
	conv.transportFailure(msg)
}

// teardown releases resources in a fixed order: audio capture, transport,
// pump, final log flush. Every step runs even if an earlier one errors.
func (conv *Conversation) teardown() {
	conv.mu.Lock()
	pc := conv.pc
	cancel := conv.pumpCancel
	var flush types.EventBatch
	if conv.session != nil && len(conv.pending) > 0 {
		flush = conv.drainPendingLocked()
	}
	conv.mu.Unlock()

	if conv.cfg.Audio != nil {
		conv.audioStopOnce.Do(func() {
			if err := conv.cfg.Audio.Stop(); err != nil {
				log.Debug().Err(err).Msg("audio source stop failed")
			}
		})
	}
	if pc != nil {
		if err := pc.Close(); err != nil {
			log.Debug().Err(err).Msg("peer connection close failed")
		}
	}
	if cancel != nil {
		cancel()
	}
	if len(flush.Events) > 0 {
		if err := conv.client.AppendLog(context.Background(), flush); err != nil {
			log.Debug().Err(err).Msg("final log flush enqueue failed")
		}
	}
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer flushCancel()
	if err := conv.client.AwaitLogFlush(flushCtx); err != nil {
		log.Debug().Err(err).Msg("final log flush incomplete")
	}
}

// setStateLocked updates state and notifies the observer. Caller holds the
// lock.
func (conv *Conversation) setStateLocked(s State, msg string) {
	conv.state = s
	conv.notifyLocked(s, msg)
}

func (conv *Conversation) notifyLocked(s State, msg string) {
	if conv.cfg.OnState != nil {
		// Callback runs outside the lock to keep observers free to call
		// back into the conversation.
		go conv.cfg.OnState(s, msg)
	}
}
