package stats

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// throttle is the pause before each request so we don't hammer stats sites.
var throttle = 250 * time.Millisecond

func get(url string) (string, error) {
	data, err := download(url)
	return string(data), err
}

func download(url string) ([]byte, error) {
	slog.Debug("download", "url", url)

	time.Sleep(throttle)

	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}

	return io.ReadAll(resp.Body)
}
