package client

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/oggreader"
)

// FileSource is an AudioSource that streams an Ogg Opus file as the local
// capture track, looping when it reaches the end. Useful for scripted
// sessions and demos where no microphone is available.
type FileSource struct {
	path string

	mu      sync.Mutex
	track   *webrtc.TrackLocalStaticSample
	done    chan struct{}
	stopped bool
}

// NewFileSource validates that path is readable Ogg Opus and returns the
// source. The file is re-opened on each loop pass.
func NewFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, _, err := oggreader.NewWith(f); err != nil {
		return nil, fmt.Errorf("%s is not an Ogg Opus file: %w", path, err)
	}
	return &FileSource{path: path, done: make(chan struct{})}, nil
}

func (s *FileSource) Track() (webrtc.TrackLocal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, fmt.Errorf("audio source is stopped")
	}
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

func (s *FileSource) writeLoop(track *webrtc.TrackLocalStaticSample) {
	for {
		if err := s.playOnce(track); err != nil {
			return
		}
		select {
		case <-s.done:
			return
		default:
		}
	}
}

// playOnce streams the file once, pacing pages by their granule positions
// (48 kHz clock per the Opus-in-Ogg mapping).
func (s *FileSource) playOnce(track *webrtc.TrackLocalStaticSample) error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	ogg, _, err := oggreader.NewWith(f)
	if err != nil {
		return err
	}

	var lastGranule uint64
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		page, header, err := ogg.ParseNextPage()
		if err != nil {
			// EOF ends the pass; the caller decides whether to loop.
			return nil
		}
		sampleCount := header.GranulePosition - lastGranule
		lastGranule = header.GranulePosition
		duration := time.Duration(sampleCount) * time.Second / 48000

		select {
		case <-s.done:
			return fmt.Errorf("stopped")
		case <-ticker.C:
		}
		if err := track.WriteSample(media.Sample{Data: page, Duration: duration}); err != nil {
			return err
		}
	}
}

// Stop halts streaming. Idempotent.
func (s *FileSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.done)
	}
	return nil
}
