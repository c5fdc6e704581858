package domain

import "github.com/google/uuid"

// Actor is the already-resolved identity executing an operation. It arrives
// from the session layer; the core distinguishes ownership and management
// rights, plus the role for capability checks that are finer than the
// route-level gate (e.g. reading another member's payment).
type Actor struct {
	UserID       uuid.UUID
	OrgID        uuid.UUID
	Role         string
	IsManagement bool
}
