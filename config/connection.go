package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const connectionEndpointKey = "connection_endpoint"

// ConnectionStore persists the upstream base URL chosen on the connection
// settings page. The file is re-read on every lookup and rewritten wholesale
// on update.
type ConnectionStore struct {
	path string
	mu   sync.RWMutex
}

func NewConnectionStore(path string) (*ConnectionStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	s := &ConnectionStore{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.save(map[string]interface{}{connectionEndpointKey: ""}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *ConnectionStore) Path() string {
	return s.path
}

// Endpoint returns the saved endpoint, or "" if none was configured.
func (s *ConnectionStore) Endpoint() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, err := s.load()
	if err != nil {
		return "", err
	}
	endpoint, _ := cfg[connectionEndpointKey].(string)
	return endpoint, nil
}

func (s *ConnectionStore) UpdateEndpoint(endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.load()
	if err != nil {
		return err
	}
	cfg[connectionEndpointKey] = endpoint
	return s.save(cfg)
}

func (s *ConnectionStore) load() (map[string]interface{}, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	cfg := map[string]interface{}{}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return cfg, nil
}

func (s *ConnectionStore) save(cfg map[string]interface{}) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode connection config: %w", err)
	}

	// Write to a temp file and rename so readers never see a half-written file.
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	return os.Rename(tmpPath, s.path)
}
