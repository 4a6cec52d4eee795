package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/internal/quota"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
	"github.com/ufsc-france/gestion-backend/pkg/redis"
	"github.com/ufsc-france/gestion-backend/pkg/status"
)

const DefaultTTL = time.Hour

// Counts breaks licences down by canonical status and by how they were paid.
type Counts struct {
	Total    int `json:"total"`
	Valid    int `json:"valide"`
	Pending  int `json:"en_attente"`
	Refused  int `json:"refuse"`
	Other    int `json:"other"`
	Included int `json:"included"`
	Paid     int `json:"paid"`
}

func (c *Counts) add(row statusRow) {
	n := int(row.Count)
	c.Total += n
	switch status.Normalize(row.Statut).Kind() {
	case status.KindValid:
		c.Valid += n
	case status.KindPending, status.KindEmpty:
		c.Pending += n
	case status.KindRefused:
		c.Refused += n
	default:
		c.Other += n
	}
	if row.IsIncluded {
		c.Included += n
	} else if row.Paid {
		c.Paid += n
	}
}

// ClubStats is the cached dashboard payload for one club and season.
type ClubStats struct {
	ClubID      uuid.UUID  `json:"club_id"`
	Season      string     `json:"season"`
	Licences    Counts     `json:"licences"`
	Quota       quota.Info `json:"quota"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// ClubSummary is one line of the federation-wide overview.
type ClubSummary struct {
	ClubID   uuid.UUID `json:"club_id"`
	Name     string    `json:"name"`
	Region   string    `json:"region"`
	Licences Counts    `json:"licences"`
}

type Overview struct {
	Season string        `json:"season"`
	Totals Counts        `json:"totals"`
	Clubs  []ClubSummary `json:"clubs"`
}

type CacheInfo struct {
	Keys    int           `json:"keys"`
	Pattern string        `json:"pattern"`
	TTL     time.Duration `json:"ttl"`
}

// Service computes licence statistics and memoises them per club and season.
// Invalidation is explicit: writers call Invalidate after committing.
type Service interface {
	ClubStats(ctx context.Context, clubID uuid.UUID, season string) (*ClubStats, error)
	Overview(ctx context.Context, season string) (*Overview, error)
	Invalidate(ctx context.Context, clubID uuid.UUID, season string)
	Purge(ctx context.Context) (int, error)
	Info(ctx context.Context) (*CacheInfo, error)
}

type ServiceParams struct {
	Repo   Repository
	Quota  quota.Service
	Cache  redis.CacheStore
	Logger *logger.Logger
	TTL    time.Duration
}

type service struct {
	repo  Repository
	quota quota.Service
	cache redis.CacheStore
	logg  *logger.Logger
	ttl   time.Duration
	now   func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("stats repository required")
	}
	if params.Quota == nil {
		return nil, fmt.Errorf("quota service required")
	}
	if params.Cache == nil {
		return nil, fmt.Errorf("cache store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &service{
		repo:  params.Repo,
		quota: params.Quota,
		cache: params.Cache,
		logg:  params.Logger,
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

func (s *service) ClubStats(ctx context.Context, clubID uuid.UUID, season string) (*ClubStats, error) {
	if clubID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "club id is required")
	}
	key := s.cache.StatsKey(clubID.String(), season)
	logCtx := s.logg.WithFields(ctx, map[string]any{"club_id": clubID.String(), "season": season})

	if cached, ok := s.readCache(logCtx, key); ok {
		return cached, nil
	}

	rows, err := s.repo.StatusCounts(ctx, &clubID, season)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count licences")
	}
	info, err := s.quota.Info(ctx, clubID, season)
	if err != nil {
		return nil, err
	}

	result := &ClubStats{
		ClubID:      clubID,
		Season:      season,
		Quota:       *info,
		GeneratedAt: s.now().UTC(),
	}
	for _, row := range rows {
		result.Licences.add(row)
	}

	if payload, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
			s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "stats cache write failed")
		}
	}
	return result, nil
}

func (s *service) readCache(ctx context.Context, key string) (*ClubStats, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.ErrNil) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "stats cache read failed")
		}
		return nil, false
	}
	var cached ClubStats
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		s.logg.Warn(ctx, "stats cache entry unreadable")
		return nil, false
	}
	return &cached, true
}

// Overview aggregates every club for a season. It is not cached.
func (s *service) Overview(ctx context.Context, season string) (*Overview, error) {
	clubs, err := s.repo.ListClubs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list clubs")
	}
	rows, err := s.repo.StatusCounts(ctx, nil, season)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count licences")
	}

	byClub := make(map[uuid.UUID]*Counts, len(clubs))
	overview := &Overview{Season: season, Clubs: make([]ClubSummary, 0, len(clubs))}
	for _, row := range rows {
		counts, ok := byClub[row.ClubID]
		if !ok {
			counts = &Counts{}
			byClub[row.ClubID] = counts
		}
		counts.add(row)
		overview.Totals.add(row)
	}
	for _, club := range clubs {
		summary := ClubSummary{ClubID: club.ID, Name: club.Name, Region: club.Region}
		if counts, ok := byClub[club.ID]; ok {
			summary.Licences = *counts
		}
		overview.Clubs = append(overview.Clubs, summary)
	}
	return overview, nil
}

// Invalidate drops one cached entry. Failures are logged, never returned.
func (s *service) Invalidate(ctx context.Context, clubID uuid.UUID, season string) {
	if clubID == uuid.Nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.StatsKey(clubID.String(), season)); err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"club_id": clubID.String(), "season": season})
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "stats cache invalidation failed")
	}
}

// Purge removes every cached statistics entry and returns how many were dropped.
func (s *service) Purge(ctx context.Context) (int, error) {
	keys, err := s.cache.ScanKeys(ctx, s.cache.StatsPattern())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan stats cache")
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge stats cache")
	}
	return len(keys), nil
}

func (s *service) Info(ctx context.Context) (*CacheInfo, error) {
	pattern := s.cache.StatsPattern()
	keys, err := s.cache.ScanKeys(ctx, pattern)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan stats cache")
	}
	return &CacheInfo{Keys: len(keys), Pattern: pattern, TTL: s.ttl}, nil
}
