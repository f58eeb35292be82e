package client

import (
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
)

// AudioSource supplies the local capture track attached to the peer
// connection. Track is called once during negotiation; Stop is called
// exactly once during teardown.
type AudioSource interface {
	Track() (webrtc.TrackLocal, error)
	Stop() error
}

// opusSilence is a minimal valid Opus frame carrying silence.
var opusSilence = []byte{0xf8, 0xff, 0xfe}

// SilenceSource is an AudioSource producing Opus silence frames at a 20 ms
// cadence. It stands in for microphone capture in headless use (voxctl,
// tests); real capture plugs in behind the same interface.
type SilenceSource struct {
	mu      sync.Mutex
	track   *webrtc.TrackLocalStaticSample
	done    chan struct{}
	stopped bool
}

// NewSilenceSource creates a stopped source; the writer goroutine starts on
// the first Track call.
func NewSilenceSource() *SilenceSource {
	return &SilenceSource{done: make(chan struct{})}
}

func (s *SilenceSource) Track() (webrtc.TrackLocal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.track != nil {
		return s.track, nil
	}
	track, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{
		MimeType:  webrtc.MimeTypeOpus,
		ClockRate: 48000,
		Channels:  2,
	}, "audio", "voxlingua")
	if err != nil {
		return nil, err
	}
	s.track = track
	go s.writeLoop(track)
	return track, nil
}

func (s *SilenceSource) writeLoop(track *webrtc.TrackLocalStaticSample) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			_ = track.WriteSample(media.Sample{
				Data:     opusSilence,
				Duration: 20 * time.Millisecond,
			})
		}
	}
}

// Stop halts the writer goroutine. Idempotent.
func (s *SilenceSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.done)
	}
	return nil
}
