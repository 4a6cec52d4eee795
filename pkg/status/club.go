package status

import (
	"sort"
	"strings"

	"github.com/ufsc-france/gestion-backend/pkg/enums"
	"github.com/ufsc-france/gestion-backend/pkg/textkey"
)

var clubAliases = map[string]enums.ClubStatus{
	"en_attente": enums.ClubStatusPending,
	"attente":    enums.ClubStatusPending,
	"pending":    enums.ClubStatusPending,

	"actif":     enums.ClubStatusActive,
	"active":    enums.ClubStatusActive,
	"valide":    enums.ClubStatusActive,
	"validee":   enums.ClubStatusActive,
	"validated": enums.ClubStatusActive,
	"affilie":   enums.ClubStatusActive,

	"en_creation":          enums.ClubStatusInCreation,
	"en_cours_de_creation": enums.ClubStatusInCreation,
	"in_creation":          enums.ClubStatusInCreation,

	"a_regler":  enums.ClubStatusToSettle,
	"to_settle": enums.ClubStatusToSettle,
	"unpaid":    enums.ClubStatusToSettle,

	"desactive":   enums.ClubStatusDeactivated,
	"desactivee":  enums.ClubStatusDeactivated,
	"deactivated": enums.ClubStatusDeactivated,
	"inactive":    enums.ClubStatusDeactivated,
}

// NormalizeClub maps a raw club status to the club enum. ok is false for
// empty or unrecognised input.
func NormalizeClub(raw string) (enums.ClubStatus, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	st, ok := clubAliases[textkey.Fold(trimmed)]
	return st, ok
}

// ClubLabelFR renders the French label of a raw club status.
func ClubLabelFR(raw string) string {
	st, _ := NormalizeClub(raw)
	switch st {
	case enums.ClubStatusActive:
		return "Actif"
	case enums.ClubStatusInCreation:
		return "En cours de création"
	case enums.ClubStatusToSettle:
		return "À régler"
	case enums.ClubStatusDeactivated:
		return "Désactivé"
	}
	return "En attente"
}

// ClubAliasesFor lists the raw spellings of st, for SQL filters.
func ClubAliasesFor(st enums.ClubStatus) []string {
	out := []string{}
	for alias, candidate := range clubAliases {
		if candidate == st {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}
