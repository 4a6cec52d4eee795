package enums

// AuditAction names an operation recorded in audit_logs.
type AuditAction string

const (
	AuditLicenceCreated   AuditAction = "licence.created"
	AuditLicenceUpdated   AuditAction = "licence.updated"
	AuditLicenceValidated AuditAction = "licence.validated"
	AuditLicenceRefused   AuditAction = "licence.refused"
	AuditClubUpdated      AuditAction = "club.updated"
	AuditQuotaCredited    AuditAction = "quota.credited"
	AuditOrderProcessed   AuditAction = "order.processed"
	AuditImportCommitted  AuditAction = "import.committed"
	AuditExportGenerated  AuditAction = "export.generated"
	AuditSettingsUpdated  AuditAction = "settings.updated"
)

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// AuditEntity names the kind of record an audit entry points at.
type AuditEntity string

const (
	AuditEntityLicence  AuditEntity = "licence"
	AuditEntityClub     AuditEntity = "club"
	AuditEntityOrder    AuditEntity = "order"
	AuditEntitySettings AuditEntity = "settings"
)
