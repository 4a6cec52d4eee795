// Package status maps the heterogeneous status spellings found in stored
// data onto the canonical licence and club statuses.
package status

import (
	"sort"
	"strings"

	"github.com/ufsc-france/gestion-backend/pkg/enums"
	"github.com/ufsc-france/gestion-backend/pkg/textkey"
)

// Kind classifies a normalised licence status.
type Kind int

const (
	KindEmpty Kind = iota
	KindValid
	KindPending
	KindRefused
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindValid:
		return "valid"
	case KindPending:
		return "pending"
	case KindRefused:
		return "refused"
	case KindUnknown:
		return "unknown"
	}
	return "empty"
}

// LicenceStatus is either one of the three canonical statuses, an
// unrecognised raw value carried through untouched, or empty.
type LicenceStatus struct {
	kind Kind
	raw  string
}

var (
	Valid   = LicenceStatus{kind: KindValid, raw: string(enums.LicenceStatusValid)}
	Pending = LicenceStatus{kind: KindPending, raw: string(enums.LicenceStatusPending)}
	Refused = LicenceStatus{kind: KindRefused, raw: string(enums.LicenceStatusRefused)}
)

var licenceAliases = map[string]Kind{
	"valide":     KindValid,
	"validee":    KindValid,
	"valid":      KindValid,
	"validated":  KindValid,
	"validation": KindValid,
	"active":     KindValid,
	"actif":      KindValid,
	"approved":   KindValid,
	"approuve":   KindValid,
	"approuvee":  KindValid,
	"paid":       KindValid,
	"payee":      KindValid,
	"paye":       KindValid,
	"completed":  KindValid,

	"en_attente":        KindPending,
	"attente":           KindPending,
	"pending":           KindPending,
	"pending_payment":   KindPending,
	"awaiting_transfer": KindPending,
	"awaiting_payment":  KindPending,
	"en_cours":          KindPending,
	"in_review":         KindPending,
	"a_valider":         KindPending,
	"submitted":         KindPending,
	"soumis":            KindPending,
	"soumise":           KindPending,
	"draft":             KindPending,
	"brouillon":         KindPending,
	"non_paye":          KindPending,
	"non_payee":         KindPending,

	"refuse":   KindRefused,
	"refusee":  KindRefused,
	"refused":  KindRefused,
	"rejected": KindRefused,
	"rejete":   KindRefused,
	"rejetee":  KindRefused,
	"denied":   KindRefused,
	"declined": KindRefused,
}

// Normalize maps a raw stored status to its canonical form. The lookup
// ignores case, accents and separators; unmatched values become KindUnknown.
func Normalize(raw string) LicenceStatus {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return LicenceStatus{}
	}
	switch licenceAliases[textkey.Fold(trimmed)] {
	case KindValid:
		return Valid
	case KindPending:
		return Pending
	case KindRefused:
		return Refused
	}
	return LicenceStatus{kind: KindUnknown, raw: trimmed}
}

func (s LicenceStatus) Kind() Kind { return s.kind }

// Known reports whether the status is one of the three canonical values.
func (s LicenceStatus) Known() bool {
	return s.kind == KindValid || s.kind == KindPending || s.kind == KindRefused
}

// Canonical returns the stored spelling: valide, en_attente, refuse, the raw
// passthrough for unknown values, or "" when empty.
func (s LicenceStatus) Canonical() string {
	return s.raw
}

func (s LicenceStatus) String() string { return s.Canonical() }

// Enum returns the canonical enum and false for unknown or empty statuses.
func (s LicenceStatus) Enum() (enums.LicenceStatus, bool) {
	if !s.Known() {
		return "", false
	}
	return enums.LicenceStatus(s.raw), true
}

// LabelFR renders the French badge label. Anything that is not valid or
// refused displays as pending.
func (s LicenceStatus) LabelFR() string {
	switch s.kind {
	case KindValid:
		return "Validée"
	case KindRefused:
		return "Refusée"
	}
	return "En attente"
}

// IsEditable is true only for pending licences; validated and refused
// licences are read-only to club users.
func (s LicenceStatus) IsEditable() bool {
	return s.kind == KindPending
}

// LabelFR normalises raw and renders its French label.
func LabelFR(raw string) string {
	return Normalize(raw).LabelFR()
}

// IsEditable normalises raw and reports whether a club user may edit it.
func IsEditable(raw string) bool {
	return Normalize(raw).IsEditable()
}

// Canonical normalises raw and returns its stored spelling.
func Canonical(raw string) string {
	return Normalize(raw).Canonical()
}

// AliasesFor lists every raw spelling that normalises to kind, for SQL filters.
func AliasesFor(kind Kind) []string {
	out := []string{}
	for alias, k := range licenceAliases {
		if k == kind {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}
