package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"front/config"
)

func newConnections(t *testing.T) *config.ConnectionStore {
	t.Helper()
	store, err := config.NewConnectionStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	return store
}

func TestClientHolderFallsBackToDefault(t *testing.T) {
	holder, err := NewClientHolder(newConnections(t), "http://default:8080", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "http://default:8080", holder.Current().BaseURL())
}

func TestClientHolderReloadSwapsClient(t *testing.T) {
	connections := newConnections(t)
	holder, err := NewClientHolder(connections, "http://default:8080", zap.NewNop())
	require.NoError(t, err)
	before := holder.Current()

	require.NoError(t, connections.UpdateEndpoint("http://saved:9000"))
	require.NoError(t, holder.Reload())

	after := holder.Current()
	assert.NotSame(t, before, after)
	assert.Equal(t, "http://saved:9000", after.BaseURL())
	assert.Equal(t, "http://default:8080", before.BaseURL())
}

func TestClientHolderSavedEndpointBeatsDefault(t *testing.T) {
	connections := newConnections(t)
	require.NoError(t, connections.UpdateEndpoint("http://saved:9000"))

	// the mock backend address is only a default
	holder, err := NewClientHolder(connections, "http://localhost:8080", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "http://saved:9000", holder.Current().BaseURL())
}
