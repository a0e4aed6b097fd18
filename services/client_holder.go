package services

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"front/config"
)

// ClientHolder owns the current AssistantClient. Handlers take a snapshot
// with Current once per request; Reload swaps in a client for the saved
// endpoint without disturbing requests that hold the previous one.
type ClientHolder struct {
	current     atomic.Pointer[AssistantClient]
	connections *config.ConnectionStore
	defaultURL  string
	logger      *zap.Logger

	reloadMu sync.Mutex
}

// NewClientHolder builds the first client. defaultURL is used until an
// endpoint is saved.
func NewClientHolder(connections *config.ConnectionStore, defaultURL string, logger *zap.Logger) (*ClientHolder, error) {
	h := &ClientHolder{
		connections: connections,
		defaultURL:  defaultURL,
		logger:      logger,
	}
	if err := h.Reload(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *ClientHolder) Current() *AssistantClient {
	return h.current.Load()
}

func (h *ClientHolder) Reload() error {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	baseURL, err := h.resolveBaseURL()
	if err != nil {
		return err
	}

	next := NewAssistantClient(baseURL, h.logger)
	if prev := h.current.Swap(next); prev != nil {
		prev.Close()
	}
	h.logger.Info("assistant client ready", zap.String("base_url", baseURL))
	return nil
}

func (h *ClientHolder) resolveBaseURL() (string, error) {
	endpoint, err := h.connections.Endpoint()
	if err != nil {
		return "", fmt.Errorf("failed to read connection endpoint: %w", err)
	}
	if endpoint == "" {
		return h.defaultURL, nil
	}
	return endpoint, nil
}
