package domain

import "github.com/google/uuid"

// Principal is the acting seller resolved by the identity layer. It is passed
// explicitly (through the request context) to every repository call.
type Principal struct {
	ID   uuid.UUID
	Name string
	Role Role
}

// CanCreate reports whether the principal may create records.
func (p Principal) CanCreate() bool {
	return p.ID != uuid.Nil && p.Role.IsValid() && p.Role != RoleViewer
}

// Owns reports whether the principal is the owner of a record.
func (p Principal) Owns(ownerID uuid.UUID) bool {
	return p.ID != uuid.Nil && p.ID == ownerID
}

// AuthorizeCreate returns an AuthorizationError unless p may create records.
func AuthorizeCreate(op string, p Principal) error {
	if p.CanCreate() {
		return nil
	}
	return &AuthorizationError{Op: op, PrincipalID: p.ID, Reason: "role " + string(p.Role) + " cannot create records"}
}

// AuthorizeOwner returns an AuthorizationError unless p owns the record.
func AuthorizeOwner(op string, id uuid.UUID, p Principal, ownerID uuid.UUID) error {
	if p.Owns(ownerID) {
		return nil
	}
	return &AuthorizationError{Op: op, ID: id.String(), PrincipalID: p.ID, Reason: "not the owner"}
}

// AuthorizeAdmin returns an AuthorizationError unless p is an administrator.
func AuthorizeAdmin(op string, p Principal) error {
	if p.ID != uuid.Nil && p.Role.IsAdmin() {
		return nil
	}
	return &AuthorizationError{Op: op, PrincipalID: p.ID, Reason: "admin role required"}
}
