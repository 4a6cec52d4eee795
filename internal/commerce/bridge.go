// Package commerce links commerce orders to club affiliations, licence
// payments and quota credits.
package commerce

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ufsc-france/gestion-backend/internal/audit"
	"github.com/ufsc-france/gestion-backend/internal/clubs"
	"github.com/ufsc-france/gestion-backend/internal/quota"
	"github.com/ufsc-france/gestion-backend/internal/scope"
	"github.com/ufsc-france/gestion-backend/internal/settings"
	"github.com/ufsc-france/gestion-backend/pkg/config"
	"github.com/ufsc-france/gestion-backend/pkg/db"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	dbtypes "github.com/ufsc-france/gestion-backend/pkg/db/types"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
	"github.com/ufsc-france/gestion-backend/pkg/metrics"
	"gorm.io/gorm"
)

type statsInvalidator interface {
	Invalidate(ctx context.Context, clubID uuid.UUID, season string)
}

// Bridge reacts to commerce order transitions.
type Bridge interface {
	HandleStatusChange(ctx context.Context, change OrderStatusChanged) (*ProcessResult, error)
	Process(ctx context.Context, orderID uuid.UUID) (*ProcessResult, error)
	CreateOverflowOrder(ctx context.Context, tx *gorm.DB, clubID uuid.UUID, licenceIDs []uuid.UUID, season string) (*models.CommerceOrder, error)
	UpsertSnapshot(ctx context.Context, orderID uuid.UUID, snapshot OrderSnapshot) (*models.CommerceOrder, error)
	GetOrder(ctx context.Context, sc scope.Scope, id uuid.UUID) (*OrderDTO, error)
}

type BridgeParams struct {
	Repo     Repository
	Clubs    clubs.Repository
	DB       db.TxRunner
	Quota    quota.Service
	Seasons  settings.SeasonSource
	Audit    audit.Service
	Stats    statsInvalidator
	Metrics  *metrics.CommerceMetrics
	Logger   *logger.Logger
	Commerce config.CommerceConfig
}

type bridge struct {
	repo      Repository
	clubs     clubs.Repository
	db        db.TxRunner
	quota     quota.Service
	seasons   settings.SeasonSource
	audit     audit.Service
	stats     statsInvalidator
	metrics   *metrics.CommerceMetrics
	logg      *logger.Logger
	cfg       config.CommerceConfig
	unitPrice decimal.Decimal
	now       func() time.Time
}

func NewBridge(params BridgeParams) (Bridge, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "commerce repository required")
	case params.Clubs == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "clubs repository required")
	case params.DB == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	case params.Quota == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "quota service required")
	case params.Seasons == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "season source required")
	case params.Audit == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "audit service required")
	case params.Stats == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stats invalidator required")
	case params.Logger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	price, err := params.Commerce.UnitPrice()
	if err != nil {
		return nil, err
	}
	return &bridge{
		repo:      params.Repo,
		clubs:     params.Clubs,
		db:        params.DB,
		quota:     params.Quota,
		seasons:   params.Seasons,
		audit:     params.Audit,
		stats:     params.Stats,
		metrics:   params.Metrics,
		logg:      params.Logger,
		cfg:       params.Commerce,
		unitPrice: price,
		now:       time.Now,
	}, nil
}

// Classify maps a product id to its configured kind.
func Classify(cfg config.CommerceConfig, productID string) enums.ProductKind {
	id := strings.TrimSpace(productID)
	for _, candidate := range cfg.AffiliationProductIDs {
		if strings.TrimSpace(candidate) == id {
			return enums.ProductKindAffiliation
		}
	}
	for _, candidate := range cfg.LicenceProductIDs {
		if strings.TrimSpace(candidate) == id {
			return enums.ProductKindLicence
		}
	}
	return enums.ProductKindUnknown
}

func (b *bridge) classify(productID string) enums.ProductKind {
	return Classify(b.cfg, productID)
}

// HandleStatusChange records the new status and fulfils the order when the
// status unlocks paid items. A fulfilling transition is written in the same
// transaction as the fulfilment, so a failure leaves the stored status as it was.
func (b *bridge) HandleStatusChange(ctx context.Context, change OrderStatusChanged) (*ProcessResult, error) {
	if change.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !change.To.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if change.To.TriggersFulfilment() {
		return b.process(ctx, change.OrderID, change.To)
	}

	rows, err := b.repo.UpdateOrder(ctx, change.OrderID, map[string]any{"status": string(change.To)})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	b.metrics.ObserveOrder(metrics.OrderOutcomeIgnored)
	return &ProcessResult{OrderID: change.OrderID, Skipped: true}, nil
}

// Process fulfils an order exactly once. The claim, the club and licence
// updates and the quota credits share one transaction; any failure rolls all
// of them back and is reported as retryable.
func (b *bridge) Process(ctx context.Context, orderID uuid.UUID) (*ProcessResult, error) {
	return b.process(ctx, orderID, "")
}

// process optionally stores status alongside the claim. An empty status
// leaves the order's status untouched.
func (b *bridge) process(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*ProcessResult, error) {
	ctx = b.logg.WithOrderID(ctx, orderID.String())
	result := &ProcessResult{OrderID: orderID}
	touched := map[uuid.UUID]struct{}{}

	err := b.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := b.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}
		if status != "" {
			if _, err := repo.UpdateOrder(ctx, orderID, map[string]any{"status": string(status)}); err != nil {
				return err
			}
			order.Status = status
		}

		now := b.now().UTC()
		claimed, err := repo.Claim(ctx, orderID, now)
		if err != nil {
			return err
		}
		if claimed == 0 {
			result.Skipped = true
			return nil
		}

		season, err := b.orderSeason(ctx, order)
		if err != nil {
			return err
		}
		result.Season = season

		for _, item := range order.Items {
			clubID := itemClub(order, item)
			kind := b.classify(item.ProductID)
			if clubID == nil && kind != enums.ProductKindUnknown {
				b.logg.Warn(b.logg.WithField(ctx, "product_id", item.ProductID), "order item without club skipped")
				result.UnknownItems++
				continue
			}
			switch kind {
			case enums.ProductKindAffiliation:
				rows, err := b.clubs.WithTx(tx).MarkAffiliationPaid(ctx, *clubID, now, season)
				if err != nil {
					return err
				}
				if rows == 0 {
					return pkgerrors.New(pkgerrors.CodeNotFound, "club not found")
				}
				credit := b.cfg.IncludedLicencesPerPack * item.Quantity
				if credit > 0 {
					if err := b.quota.AddIncluded(ctx, tx, *clubID, credit, season); err != nil {
						return err
					}
				}
				result.Affiliations += item.Quantity
				result.IncludedCredited += credit
			case enums.ProductKindLicence:
				if len(item.LicenceIDs) > 0 {
					marked, err := repo.MarkLicencesPaid(ctx, *clubID, item.LicenceIDs, season)
					if err != nil {
						return err
					}
					result.LicencesMarked += marked
				} else {
					if err := b.quota.AddPaid(ctx, tx, *clubID, item.Quantity, season); err != nil {
						return err
					}
					result.PaidCredited += item.Quantity
				}
			default:
				b.logg.Warn(b.logg.WithField(ctx, "product_id", item.ProductID), "unknown product skipped")
				result.UnknownItems++
				continue
			}
			touched[*clubID] = struct{}{}
		}

		return b.audit.Record(ctx, tx, audit.Entry{
			Action:     enums.AuditOrderProcessed,
			EntityType: enums.AuditEntityOrder,
			EntityID:   orderID.String(),
			ClubID:     order.ClubID,
			Details: map[string]any{
				"season":            season,
				"status":            string(order.Status),
				"included_credited": result.IncludedCredited,
				"paid_credited":     result.PaidCredited,
				"licences_marked":   result.LicencesMarked,
				"affiliations":      result.Affiliations,
				"unknown_items":     result.UnknownItems,
			},
		})
	})
	if err != nil {
		b.metrics.ObserveOrder(metrics.OrderOutcomeFailed)
		b.logg.Error(ctx, "order processing failed", err)
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "process order")
	}

	if result.Skipped {
		b.metrics.ObserveOrder(metrics.OrderOutcomeSkipped)
		b.logg.Info(ctx, "order already processed")
		return result, nil
	}
	for clubID := range touched {
		b.stats.Invalidate(ctx, clubID, result.Season)
	}
	b.metrics.ObserveOrder(metrics.OrderOutcomeProcessed)
	b.metrics.AddQuotaCredit(metrics.QuotaCreditIncluded, result.IncludedCredited)
	b.metrics.AddQuotaCredit(metrics.QuotaCreditPaid, result.PaidCredited)
	b.logg.Info(b.logg.WithFields(ctx, map[string]any{
		"included_credited": result.IncludedCredited,
		"paid_credited":     result.PaidCredited,
		"licences_marked":   result.LicencesMarked,
	}), "order processed")
	return result, nil
}

func (b *bridge) orderSeason(ctx context.Context, order *models.CommerceOrder) (string, error) {
	if order.Season != nil && strings.TrimSpace(*order.Season) != "" {
		return strings.TrimSpace(*order.Season), nil
	}
	current, err := b.seasons.CurrentSeason(ctx)
	if err != nil {
		return "", err
	}
	return current.String(), nil
}

func itemClub(order *models.CommerceOrder, item models.CommerceOrderItem) *uuid.UUID {
	if item.ClubID != nil {
		return item.ClubID
	}
	return order.ClubID
}

// CreateOverflowOrder opens a pending order with one licence line covering
// licenceIDs. It runs inside the caller's transaction.
func (b *bridge) CreateOverflowOrder(ctx context.Context, tx *gorm.DB, clubID uuid.UUID, licenceIDs []uuid.UUID, season string) (*models.CommerceOrder, error) {
	if clubID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "club id is required")
	}
	if len(licenceIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one licence is required")
	}
	if len(b.cfg.LicenceProductIDs) == 0 || strings.TrimSpace(b.cfg.LicenceProductIDs[0]) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "licence product is not configured")
	}

	qty := len(licenceIDs)
	total := b.unitPrice.Mul(decimal.NewFromInt(int64(qty)))
	club := clubID
	seasonLabel := season
	order := &models.CommerceOrder{
		ClubID:   &club,
		Status:   enums.OrderStatusPending,
		Season:   &seasonLabel,
		Total:    total,
		Currency: b.currency(""),
		Items: []models.CommerceOrderItem{{
			ProductID:  strings.TrimSpace(b.cfg.LicenceProductIDs[0]),
			Quantity:   qty,
			ClubID:     &club,
			LicenceIDs: dbtypes.UUIDList(append([]uuid.UUID{}, licenceIDs...)),
			UnitPrice:  b.unitPrice,
			Total:      total,
		}},
	}
	if err := b.repo.WithTx(tx).CreateOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create overflow order")
	}
	return order, nil
}

// UpsertSnapshot creates the local order from the platform snapshot, or
// refreshes the external reference of an existing one. Items of an existing
// order are only filled when it has none.
func (b *bridge) UpsertSnapshot(ctx context.Context, orderID uuid.UUID, snapshot OrderSnapshot) (*models.CommerceOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	items := make([]models.CommerceOrderItem, 0, len(snapshot.Items))
	for _, it := range snapshot.Items {
		if strings.TrimSpace(it.ProductID) == "" || it.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order items need a product and a positive quantity")
		}
		items = append(items, models.CommerceOrderItem{
			OrderID:    orderID,
			ProductID:  strings.TrimSpace(it.ProductID),
			Quantity:   it.Quantity,
			ClubID:     it.ClubID,
			LicenceIDs: dbtypes.UUIDList(append([]uuid.UUID{}, it.LicenceIDs...)),
			UnitPrice:  it.UnitPrice,
			Total:      it.Total,
		})
	}

	var out *models.CommerceOrder
	err := b.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := b.repo.WithTx(tx)
		existing, err := repo.FindOrder(ctx, orderID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			order := &models.CommerceOrder{
				ID:       orderID,
				ClubID:   snapshot.ClubID,
				Status:   enums.OrderStatusPending,
				Total:    snapshot.Total,
				Currency: b.currency(snapshot.Currency),
				Items:    items,
			}
			if ref := strings.TrimSpace(snapshot.ExternalRef); ref != "" {
				order.ExternalRef = &ref
			}
			if label := strings.TrimSpace(snapshot.Season); label != "" {
				order.Season = &label
			}
			if err := repo.CreateOrder(ctx, order); err != nil {
				if db.IsUniqueViolation(err, "") {
					return pkgerrors.New(pkgerrors.CodeConflict, "external reference already used")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
			}
			out = order
			return nil
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup order")
		}

		values := map[string]any{}
		if ref := strings.TrimSpace(snapshot.ExternalRef); ref != "" && (existing.ExternalRef == nil || *existing.ExternalRef != ref) {
			values["external_ref"] = ref
		}
		if existing.ClubID == nil && snapshot.ClubID != nil {
			values["club_id"] = *snapshot.ClubID
		}
		if len(values) > 0 {
			if _, err := repo.UpdateOrder(ctx, orderID, values); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh order")
			}
		}
		if len(existing.Items) == 0 && len(items) > 0 {
			if err := repo.CreateItems(ctx, items); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
			}
		}
		out, err = repo.FindOrder(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *bridge) GetOrder(ctx context.Context, sc scope.Scope, id uuid.UUID) (*OrderDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := b.repo.FindOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup order")
	}
	if !sc.IsGlobal() {
		if order.ClubID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "region outside of your scope")
		}
		club, err := b.clubs.FindByID(ctx, *order.ClubID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup order club")
		}
		if err := sc.AssertInScope(club.Region); err != nil {
			return nil, err
		}
	}
	return toOrderDTO(order, b.classify), nil
}

func (b *bridge) currency(raw string) string {
	if c := strings.ToUpper(strings.TrimSpace(raw)); c != "" {
		return c
	}
	if c := strings.ToUpper(strings.TrimSpace(b.cfg.Currency)); c != "" {
		return c
	}
	return "EUR"
}

