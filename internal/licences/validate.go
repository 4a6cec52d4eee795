package licences

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	"github.com/ufsc-france/gestion-backend/pkg/status"
)

const birthDateLayout = "2006-01-02"

var emailValidator = validator.New()

// ValidEmail reports whether s is a syntactically valid address.
func ValidEmail(s string) bool {
	return emailValidator.Var(strings.TrimSpace(s), "required,email") == nil
}

// ValidBirthDate accepts strict YYYY-MM-DD calendar dates only.
func ValidBirthDate(s string) bool {
	t, err := time.Parse(birthDateLayout, s)
	return err == nil && t.Format(birthDateLayout) == s
}

// ParseSex accepts M or F in any case.
func ParseSex(s string) (enums.Sex, bool) {
	sex := enums.Sex(strings.ToUpper(strings.TrimSpace(s)))
	return sex, sex.IsValid()
}

// statusFilter lists the lowercased stored spellings matching a canonical
// status, with spaced variants of underscored aliases. Empty reads as pending.
// Accented spellings are only caught by Go-side normalisation.
func statusFilter(st enums.LicenceStatus) []string {
	var aliases []string
	switch st {
	case enums.LicenceStatusValid:
		aliases = status.AliasesFor(status.KindValid)
	case enums.LicenceStatusRefused:
		aliases = status.AliasesFor(status.KindRefused)
	default:
		aliases = append(status.AliasesFor(status.KindPending), "")
	}
	out := make([]string, 0, len(aliases)*2)
	for _, alias := range aliases {
		out = append(out, alias)
		if spaced := strings.ReplaceAll(alias, "_", " "); spaced != alias {
			out = append(out, spaced)
		}
	}
	return out
}
