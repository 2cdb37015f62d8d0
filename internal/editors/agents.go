package editors

import (
	"context"
	"strings"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

// AgentsEditor edits the agent contacts: at most five, unique by name
type AgentsEditor struct {
	*core[domain.AgentsData]
}

func newAgentsEditor(deps Deps, status *StatusTracker) *AgentsEditor {
	e := &AgentsEditor{core: newCore[domain.AgentsData](domain.SectionAgents, deps, status)}
	e.apply = e.applyFields
	return e
}

// Add appends an agent. Adding to a full list or a name already listed is a no-op.
// An agent that breaks the section schema is refused before it reaches the draft.
func (e *AgentsEditor) Add(ctx context.Context, agent domain.Agent) (*Result, error) {
	agent.Name = strings.TrimSpace(agent.Name)
	agent.Phone = strings.TrimSpace(agent.Phone)
	if agent.Name != "" && e.deps.Validator != nil {
		candidate := map[string]interface{}{"agents": []domain.Agent{agent}}
		if err := e.deps.Validator.Section(e.section, candidate); err != nil {
			return nil, err
		}
	}
	return e.mutate(ctx, nil, func(d *domain.AgentsData) (outcome, error) {
		if agent.Name == "" {
			return rejected("agent name is required"), nil
		}
		if len(d.Agents) >= domain.MaxAgents {
			return rejected("agent list is full"), nil
		}
		if indexOfAgent(d.Agents, agent.Name) >= 0 {
			return rejected("agent already listed"), nil
		}
		d.Agents = append(d.Agents, agent)
		return outcome{changed: true, immediate: true}, nil
	})
}

// Remove drops the agent whose name matches exactly
func (e *AgentsEditor) Remove(ctx context.Context, name string) (*Result, error) {
	return e.mutate(ctx, nil, func(d *domain.AgentsData) (outcome, error) {
		i := indexOfAgent(d.Agents, name)
		if i < 0 {
			return rejected("agent not found"), nil
		}
		d.Agents = append(d.Agents[:i:i], d.Agents[i+1:]...)
		return outcome{changed: true, immediate: true}, nil
	})
}

// applyFields replaces the whole list, e.g. after a reorder or a phone edit
func (e *AgentsEditor) applyFields(d *domain.AgentsData, fields map[string]interface{}) (outcome, error) {
	var change struct {
		Agents *[]domain.Agent `json:"agents"`
	}
	if err := decodeFields(fields, &change); err != nil {
		return outcome{}, err
	}
	if change.Agents == nil {
		return rejected("unchanged"), nil
	}

	agents := make([]domain.Agent, 0, len(*change.Agents))
	for _, a := range *change.Agents {
		a.Name = strings.TrimSpace(a.Name)
		if a.Name == "" {
			return rejected("agent name is required"), nil
		}
		if indexOfAgent(agents, a.Name) >= 0 {
			return rejected("agent already listed"), nil
		}
		agents = append(agents, a)
	}
	if len(agents) > domain.MaxAgents {
		return rejected("agent list is full"), nil
	}
	d.Agents = agents
	return outcome{changed: true, immediate: true}, nil
}

func indexOfAgent(agents []domain.Agent, name string) int {
	for i, a := range agents {
		if a.Name == name {
			return i
		}
	}
	return -1
}
