package scope

import (
	"strings"

	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

type mode int

const (
	modeDeny mode = iota
	modeGlobal
	modeRegion
)

// Scope is the set of regions a staff user may see or act on. The zero value
// denies everything.
type Scope struct {
	mode   mode
	region string
	values []string
}

// Global is the unrestricted scope.
func Global() Scope {
	return Scope{mode: modeGlobal}
}

// Deny matches nothing.
func Deny() Scope {
	return Scope{mode: modeDeny}
}

// ForRegion restricts to one region. Stored rows may carry either the slug or
// the label, so both are matched.
func ForRegion(region string) Scope {
	region = strings.TrimSpace(region)
	if region == "" {
		return Deny()
	}
	values := []string{region}
	if r, ok := enums.LookupRegion(region); ok {
		values = []string{r.Slug, r.Label}
		region = r.Slug
	}
	return Scope{mode: modeRegion, region: region, values: values}
}

// Resolve derives the scope for a user: admins and holders of the all-regions
// capability are global, everyone else is limited to their own region.
func Resolve(user *models.User) Scope {
	if user == nil {
		return Deny()
	}
	if user.Role == enums.UserRoleAdmin || user.AllRegions {
		return Global()
	}
	if user.Region == nil {
		return Deny()
	}
	return ForRegion(*user.Region)
}

func (s Scope) IsGlobal() bool { return s.mode == modeGlobal }

func (s Scope) IsDenied() bool { return s.mode == modeDeny }

// Region is the canonical region slug, empty unless the scope is regional.
func (s Scope) Region() string { return s.region }

// Values lists the stored forms matched by the scope.
func (s Scope) Values() []string {
	return append([]string(nil), s.values...)
}

// BuildCondition returns a SQL predicate for column, or "" when unrestricted.
func (s Scope) BuildCondition(column, alias string) (string, []any) {
	switch s.mode {
	case modeGlobal:
		return "", nil
	case modeRegion:
		qualified := column
		if alias != "" {
			qualified = alias + "." + column
		}
		placeholders := make([]string, len(s.values))
		args := make([]any, len(s.values))
		for i, v := range s.values {
			placeholders[i] = "?"
			args[i] = v
		}
		return qualified + " IN (" + strings.Join(placeholders, ", ") + ")", args
	default:
		return "1 = 0", nil
	}
}

// Apply narrows a gorm query to the scope.
func (s Scope) Apply(db *gorm.DB, column string) *gorm.DB {
	cond, args := s.BuildCondition(column, "")
	if cond == "" {
		return db
	}
	return db.Where(cond, args...)
}

// IsInScope is the read-side check used to silently exclude rows.
func (s Scope) IsInScope(region string) bool {
	switch s.mode {
	case modeGlobal:
		return true
	case modeRegion:
		// A Caser keeps state, so each call gets its own.
		folder := cases.Fold()
		needle := folder.String(strings.TrimSpace(region))
		for _, v := range s.values {
			if folder.String(v) == needle {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// AssertInScope is the write-side check; out-of-scope mutations are forbidden.
func (s Scope) AssertInScope(region string) error {
	if s.IsInScope(region) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "region outside of your scope")
}
