package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"xwatch/pkg/status"
)

// Run shows the dashboard until the user quits or ctx is done
func Run(ctx context.Context, fetch Fetcher, interval time.Duration) error {
	model := NewModel(fetch, interval)
	program := tea.NewProgram(&model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// HTTPFetcher polls the /progress endpoint of a status server at addr
func HTTPFetcher(client *http.Client, addr string) Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	url := strings.TrimRight(addr, "/")
	if !strings.Contains(url, "://") {
		url = "http://" + url
	}
	url += "/progress"

	return func(ctx context.Context) (status.Snapshot, error) {
		var snap status.Snapshot
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return snap, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return snap, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return snap, fmt.Errorf("status server returned %s", resp.Status)
		}
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return snap, fmt.Errorf("failed to decode progress: %w", err)
		}
		return snap, nil
	}
}
