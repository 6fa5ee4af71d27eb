// ABOUTME: Registry of preconfigured external webhook agents
// ABOUTME: Agents are loaded from config and looked up by id at request time

package agent

import (
	"errors"

	"github.com/ywstorage/deskhub/internal/config"
)

// ErrAgentNotFound is returned when no agent matches the requested id
var ErrAgentNotFound = errors.New("agent not found")

// Agent is one preconfigured AI assistant persona backed by a webhook endpoint
type Agent struct {
	ID          string
	Name        string
	Icon        string
	Title       string
	Description string
	WebhookURL  string
}

// Registry holds the configured agents in declaration order
type Registry struct {
	agents []Agent
	byID   map[string]*Agent
}

// NewRegistry builds a registry from configured agent definitions
func NewRegistry(configs []config.AgentConfig) *Registry {
	r := &Registry{
		agents: make([]Agent, 0, len(configs)),
		byID:   make(map[string]*Agent, len(configs)),
	}
	for _, c := range configs {
		r.agents = append(r.agents, Agent{
			ID:          c.ID,
			Name:        c.Name,
			Icon:        c.Icon,
			Title:       c.Title,
			Description: c.Description,
			WebhookURL:  c.WebhookURL,
		})
	}
	for i := range r.agents {
		r.byID[r.agents[i].ID] = &r.agents[i]
	}
	return r
}

// Get looks up an agent by id. Returns ErrAgentNotFound for unknown ids.
func (r *Registry) Get(id string) (*Agent, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, ErrAgentNotFound
	}
	return a, nil
}

// List returns all configured agents in declaration order
func (r *Registry) List() []Agent {
	return r.agents
}

// Default returns the first configured agent, or nil if none exist
func (r *Registry) Default() *Agent {
	if len(r.agents) == 0 {
		return nil
	}
	return &r.agents[0]
}
