package notifier

import (
	"github.com/google/uuid"
)

// Notifier delivers check-in challenges to employees. Send returns an opaque
// handle the caller stores so the message can be retracted once the
// challenge is resolved. Both operations are best-effort from the scheduling
// engine's point of view: failures are logged by the caller, never allowed
// to roll back a state transition.
type Notifier interface {
	Send(employeeID uuid.UUID, message, actionURL string) (handle string, err error)
	Retract(employeeID uuid.UUID, handle string) error
}
