package client

import "github.com/voxlingua/voxlingua/client/internal/types"

// Aliases so SDK callers never import internal packages.
type (
	SessionInfo            = types.SessionInfo
	UsageSnapshot          = types.UsageSnapshot
	Situation              = types.Situation
	UpdateSituationRequest = types.UpdateSituationRequest
	EventBatch             = types.EventBatch
)
