package notifier

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockGateway is a Notifier for development and tests. It records every
// send and retract instead of delivering anything.
type MockGateway struct {
	mu       sync.Mutex
	sequence int

	SentMessages     []MockMessage
	RetractedHandles []string
	FailSends        bool // when true, Send returns an error
	FailRetracts     bool // when true, Retract returns an error
}

// MockMessage captures one Send call
type MockMessage struct {
	EmployeeID uuid.UUID
	Message    string
	ActionURL  string
	Handle     string
}

// NewMockGateway creates a new mock notifier
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// Send records the message and returns a synthetic handle
func (g *MockGateway) Send(employeeID uuid.UUID, message, actionURL string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailSends {
		return "", fmt.Errorf("mock notifier: send failed")
	}

	g.sequence++
	handle := fmt.Sprintf("mock-%d", g.sequence)
	g.SentMessages = append(g.SentMessages, MockMessage{
		EmployeeID: employeeID,
		Message:    message,
		ActionURL:  actionURL,
		Handle:     handle,
	})

	return handle, nil
}

// Retract records the handle
func (g *MockGateway) Retract(employeeID uuid.UUID, handle string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailRetracts {
		return fmt.Errorf("mock notifier: retract failed")
	}

	g.RetractedHandles = append(g.RetractedHandles, handle)
	return nil
}
