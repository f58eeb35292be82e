package client

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// The pump reports observed connected time on a fixed cadence: every
// interval it bills one increment. Soft enforcement only; server-side
// admission for the next session stays hard regardless of missed pings.
const (
	defaultPingInterval  = 10 * time.Second
	defaultPingIncrement = 10
)

// runPump ticks while the conversation is Connected. Ping failures are
// swallowed and retried on the next tick; a successful ping that reports an
// exhausted budget forces Closing immediately.
func (conv *Conversation) runPump(ctx context.Context) {
	ticker := time.NewTicker(conv.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if conv.State() != StateConnected {
				continue
			}
			snap, err := conv.client.PingUsage(ctx, conv.cfg.PingIncrement)
			if err != nil {
				log.Debug().Err(err).Msg("usage ping failed")
				continue
			}
			conv.mu.Lock()
			conv.remaining = snap.RemainingSeconds
			conv.mu.Unlock()
			if snap.RemainingSeconds <= 0 {
				conv.Stop()
				return
			}
		}
	}
}
