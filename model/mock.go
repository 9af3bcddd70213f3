package model

import (
	"context"
	"fmt"

	"github.com/SWE-agent/mini-swe-agent/core"
)

// MockModel is a scripted in-memory Model useful for tests and examples.
// Each call returns the next queued response; when the script is exhausted
// the last response repeats.
type MockModel struct {
	Ledger
	responses   []string
	costPerCall float64
	calls       int
}

// NewMockModel constructs a MockModel that replays the given responses.
func NewMockModel(responses ...string) *MockModel {
	return &MockModel{responses: responses, costPerCall: 0.01}
}

// SetCostPerCall overrides the cost recorded for each call.
func (m *MockModel) SetCostPerCall(cost float64) { m.costPerCall = cost }

// GetTurn implements Model by replaying the scripted responses.
func (m *MockModel) GetTurn(ctx context.Context, history []core.Message, vars map[string]any) (Turn, error) {
	if err := ctx.Err(); err != nil {
		return Turn{}, err
	}
	if len(m.responses) == 0 {
		return Turn{}, fmt.Errorf("mock model has no scripted responses")
	}

	idx := m.calls
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.calls++

	content := m.responses[idx]
	m.Add(m.costPerCall)

	msg := core.Message{
		Role:    core.RoleAssistant,
		Content: content,
		Extra:   map[string]any{"model": m.Name(), "cost": m.costPerCall},
	}
	return Turn{Message: msg, Actions: ExtractActions(content), Cost: m.costPerCall}, nil
}

// Name implements Model.
func (m *MockModel) Name() string { return "mock" }
