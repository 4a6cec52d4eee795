package enums

// LicenceStatus is the canonical value stored in licences.statut.
type LicenceStatus string

const (
	LicenceStatusValid   LicenceStatus = "valide"
	LicenceStatusPending LicenceStatus = "en_attente"
	LicenceStatusRefused LicenceStatus = "refuse"
)

var licenceStatuses = newSet("licence status",
	LicenceStatusValid,
	LicenceStatusPending,
	LicenceStatusRefused,
)

func (l LicenceStatus) String() string { return string(l) }

func (l LicenceStatus) IsValid() bool { return licenceStatuses.has(l) }

// ParseLicenceStatus converts a canonical value into LicenceStatus.
// Raw legacy spellings go through the status package instead.
func ParseLicenceStatus(value string) (LicenceStatus, error) {
	return licenceStatuses.parse(value)
}

// Sex is the licence holder's declared sex code.
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

// IsValid reports whether the value is M or F.
func (s Sex) IsValid() bool {
	return s == SexMale || s == SexFemale
}
