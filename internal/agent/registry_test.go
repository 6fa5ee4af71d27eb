package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ywstorage/deskhub/internal/config"
)

func testConfigs() []config.AgentConfig {
	return []config.AgentConfig{
		{ID: "agent1", Name: "업무매뉴얼", Icon: "search", WebhookURL: "https://hooks.example.com/manual"},
		{ID: "agent2", Name: "상담지원", Icon: "user", WebhookURL: "https://hooks.example.com/support"},
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry(testConfigs())

	a, err := r.Get("agent2")
	require.NoError(t, err)
	assert.Equal(t, "상담지원", a.Name)

	_, err = r.Get("agent9")
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestRegistry_ListAndDefault(t *testing.T) {
	r := NewRegistry(testConfigs())

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "agent1", list[0].ID)

	def := r.Default()
	require.NotNil(t, def)
	assert.Equal(t, "agent1", def.ID)
}

func TestRegistry_Empty(t *testing.T) {
	r := NewRegistry(nil)
	assert.Nil(t, r.Default())
	assert.Empty(t, r.List())
}
