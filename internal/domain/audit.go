package domain

// Audit document field names. Audit records are append-only and are
// written in the same batch as the mutation they describe.
const (
	AuditFieldPrincipalID = "principalId"
	AuditFieldEntityType  = "entityType"
	AuditFieldEntityID    = "entityId"
	AuditFieldAction      = "action"
	AuditFieldChanges     = "changes"
	AuditFieldCreatedAt   = "createdAt"
)
