package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UUIDList persists a list of ids as a JSON array in a text column, which
// keeps the schema portable between Postgres and SQLite.
type UUIDList []uuid.UUID

func (l *UUIDList) Scan(src any) error {
	if src == nil {
		*l = UUIDList{}
		return nil
	}

	switch v := src.(type) {
	case string:
		return l.parse([]byte(v))
	case []byte:
		return l.parse(v)
	default:
		return fmt.Errorf("UUIDList: unsupported Scan type %T", src)
	}
}

func (l UUIDList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	encoded, err := json.Marshal([]uuid.UUID(l))
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

// Strings returns the ids in their canonical text form.
func (l UUIDList) Strings() []string {
	out := make([]string, 0, len(l))
	for _, id := range l {
		out = append(out, id.String())
	}
	return out
}

func (l *UUIDList) parse(raw []byte) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "[]" || trimmed == "null" {
		*l = UUIDList{}
		return nil
	}
	var ids []uuid.UUID
	if err := json.Unmarshal([]byte(trimmed), &ids); err != nil {
		return fmt.Errorf("UUIDList: parse %q: %w", trimmed, err)
	}
	*l = UUIDList(ids)
	return nil
}
