package domain

// QuoteStatus represents the commercial outcome of a quote.
type QuoteStatus string

const (
	QuoteStatusPending QuoteStatus = "pending"
	QuoteStatusWon     QuoteStatus = "won"
	QuoteStatusLost    QuoteStatus = "lost"
)

func (s QuoteStatus) String() string { return string(s) }

func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusPending, QuoteStatusWon, QuoteStatusLost:
		return true
	}
	return false
}

// Role represents the authorization level of a principal.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
	RoleViewer Role = "viewer"
)

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleSeller, RoleViewer:
		return true
	}
	return false
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// NormalizeRole maps unknown role strings to the least privileged role.
func NormalizeRole(role string) Role {
	r := Role(role)
	if r.IsValid() {
		return r
	}
	return RoleViewer
}

// EntityType identifies the kind of record (used in audit records).
type EntityType string

const (
	EntityTypeQuote    EntityType = "QUOTE"
	EntityTypeSale     EntityType = "SALE"
	EntityTypeSettings EntityType = "SETTINGS"
)

func (e EntityType) String() string { return string(e) }

func (e EntityType) IsValid() bool {
	switch e {
	case EntityTypeQuote, EntityTypeSale, EntityTypeSettings:
		return true
	}
	return false
}

// AuditAction represents the kind of mutation recorded in the audit log.
type AuditAction string

const (
	AuditActionCreate  AuditAction = "CREATE"
	AuditActionUpdate  AuditAction = "UPDATE"
	AuditActionDelete  AuditAction = "DELETE"
	AuditActionConvert AuditAction = "CONVERT"
)

func (a AuditAction) String() string { return string(a) }

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionCreate, AuditActionUpdate, AuditActionDelete, AuditActionConvert:
		return true
	}
	return false
}
