package domain

// Document store collection names.
const (
	CollectionQuotes   = "quotes"
	CollectionSales    = "sales"
	CollectionSettings = "settings"
	CollectionAudit    = "audit"
)

// SettingsFollowUpID is the id of the shared follow-up settings document.
const SettingsFollowUpID = "followup"
