package enums

// ClubStatus is the canonical value stored in clubs.status.
type ClubStatus string

const (
	ClubStatusPending     ClubStatus = "en_attente"
	ClubStatusActive      ClubStatus = "actif"
	ClubStatusInCreation  ClubStatus = "en_creation"
	ClubStatusToSettle    ClubStatus = "a_regler"
	ClubStatusDeactivated ClubStatus = "desactive"
)

var clubStatuses = newSet("club status",
	ClubStatusPending,
	ClubStatusActive,
	ClubStatusInCreation,
	ClubStatusToSettle,
	ClubStatusDeactivated,
)

func (c ClubStatus) String() string { return string(c) }

func (c ClubStatus) IsValid() bool { return clubStatuses.has(c) }

// ParseClubStatus accepts canonical values only; legacy spellings go through
// the status package.
func ParseClubStatus(value string) (ClubStatus, error) {
	return clubStatuses.parse(value)
}
