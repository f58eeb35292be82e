package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/voxlingua/voxlingua/client/internal/types"
)

// AppendLog posts one event batch to the conversation log.
func AppendLog(ctx context.Context, httpClient *http.Client, baseURL string, batch types.EventBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/log", baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusError("append log", resp)
	}
	return nil
}
