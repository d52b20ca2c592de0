package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

var pingClient = &http.Client{Timeout: 2 * time.Second}

// PingUntil polls /api/ping until the server answers, then calls callback.
func PingUntil(ctx context.Context, baseURL string, timeout time.Duration, callback func()) {
	pingURL := baseURL + "/api/ping"
	timeoutC := time.NewTimer(timeout)
	defer timeoutC.Stop()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {

		case <-timeoutC.C:
			log.Warnf("ping hits %s timeout", timeout)
			return

		case <-ctx.Done():
			return

		case <-ticker.C:
			var response map[string]interface{}
			var err = getJSON(ctx, pingURL, &response)
			if err == nil {
				callback()
				return
			}
		}
	}
}

func getJSON(ctx context.Context, url string, data interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := pingClient.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(data)
}
