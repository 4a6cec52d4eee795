package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	pkgpagination "github.com/ufsc-france/gestion-backend/pkg/pagination"
	"github.com/ufsc-france/gestion-backend/pkg/types"
	"gorm.io/gorm"
)

// Entry is what callers record.
type Entry struct {
	ActorID    *uuid.UUID
	Action     enums.AuditAction
	EntityType enums.AuditEntity
	EntityID   string
	ClubID     *uuid.UUID
	Details    map[string]any
}

// Record is the read model returned by List.
type Record struct {
	ID         uuid.UUID         `json:"id"`
	ActorID    *uuid.UUID        `json:"actor_id,omitempty"`
	Action     enums.AuditAction `json:"action"`
	EntityType enums.AuditEntity `json:"entity_type"`
	EntityID   *string           `json:"entity_id,omitempty"`
	ClubID     *uuid.UUID        `json:"club_id,omitempty"`
	Details    json.RawMessage   `json:"details"`
	CreatedAt  time.Time         `json:"created_at"`
}

// ListFilter narrows List.
type ListFilter struct {
	Action enums.AuditAction
	ClubID *uuid.UUID
	pkgpagination.Params
}

type ActionCount struct {
	Action enums.AuditAction `json:"action"`
	Count  int64             `json:"count"`
}

type Stats struct {
	Total    int64         `json:"total"`
	ByAction []ActionCount `json:"by_action"`
}

// Service records and queries the audit trail.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, filter ListFilter) (*types.Page[Record], error)
	Stats(ctx context.Context) (*Stats, error)
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if entry.Action == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit action is required")
	}
	if entry.EntityType == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit entity type is required")
	}
	details := "{}"
	if len(entry.Details) > 0 {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode audit details")
		}
		details = string(raw)
	}
	row := &models.AuditLog{
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		ClubID:     entry.ClubID,
		Details:    details,
	}
	if entry.EntityID != "" {
		id := entry.EntityID
		row.EntityID = &id
	}
	if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
	}
	return nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (*types.Page[Record], error) {
	cursor, err := pkgpagination.ParseCursor(filter.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, listQuery{
		action: filter.Action,
		clubID: filter.ClubID,
		limit:  pkgpagination.LimitWithBuffer(filter.Limit),
		cursor: cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit entries")
	}

	page, next := pkgpagination.Trim(rows, filter.Limit, func(row models.AuditLog) pkgpagination.Cursor {
		return pkgpagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	items := make([]Record, len(page))
	for i, row := range page {
		items[i] = toRecord(row)
	}
	return types.NewPage(items, next), nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.repo.CountByAction(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count audit entries")
	}
	stats := &Stats{ByAction: counts}
	if stats.ByAction == nil {
		stats.ByAction = []ActionCount{}
	}
	for _, c := range counts {
		stats.Total += c.Count
	}
	return stats, nil
}

// Cleanup deletes entries older than the retention window and returns the row count.
func (s *service) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "retention must be positive")
	}
	cutoff := s.now().UTC().Add(-olderThan)
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete audit entries")
	}
	return deleted, nil
}

func toRecord(row models.AuditLog) Record {
	details := json.RawMessage(row.Details)
	if !json.Valid(details) {
		details = json.RawMessage("{}")
	}
	return Record{
		ID:         row.ID,
		ActorID:    row.ActorID,
		Action:     row.Action,
		EntityType: row.EntityType,
		EntityID:   row.EntityID,
		ClubID:     row.ClubID,
		Details:    details,
		CreatedAt:  row.CreatedAt,
	}
}
