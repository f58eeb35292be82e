package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/voxlingua/voxlingua/client/internal/types"
)

// RequestSession asks the broker for an ephemeral realtime credential.
func RequestSession(ctx context.Context, httpClient *http.Client, baseURL, situationID, promptOverride string) (*types.SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(map[string]string{
		"situationId":    situationID,
		"promptOverride": promptOverride,
	})
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/session", baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("request session", resp)
	}

	var info types.SessionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}
