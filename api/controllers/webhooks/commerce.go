package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/api/responses"
	"github.com/ufsc-france/gestion-backend/api/validators"
	"github.com/ufsc-france/gestion-backend/internal/commerce"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
)

const maxWebhookBytes = 1 << 20

type commerceBridge interface {
	HandleStatusChange(ctx context.Context, change commerce.OrderStatusChanged) (*commerce.ProcessResult, error)
	UpsertSnapshot(ctx context.Context, orderID uuid.UUID, snapshot commerce.OrderSnapshot) (*models.CommerceOrder, error)
}

type deliveryGuard interface {
	CheckAndMark(ctx context.Context, deliveryID string) (bool, error)
	Release(ctx context.Context, deliveryID string) error
}

// CommerceWebhook receives signed order status transitions from the shop.
func CommerceWebhook(bridge commerceBridge, guard deliveryGuard, secret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if secret == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook secret not configured"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get(commerce.SignatureHeader)
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "signature missing"))
			return
		}
		if !commerce.VerifySignature([]byte(secret), payload, sigHeader) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid signature"))
			return
		}

		var event commerce.WebhookPayload
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payload"))
			return
		}
		if err := validators.ValidateStruct(&event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			ctx = logg.WithOrderID(ctx, event.OrderID.String())
			ctx = logg.WithField(ctx, "delivery_id", event.DeliveryID)
		}

		seen, err := guard.CheckAndMark(ctx, event.DeliveryID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if seen {
			if logg != nil {
				logg.Info(ctx, "commerce.webhook.duplicate")
			}
			responses.WriteSuccess(w, map[string]any{"duplicate": true})
			return
		}

		result, err := handle(ctx, bridge, event)
		if err != nil {
			if relErr := guard.Release(ctx, event.DeliveryID); relErr != nil && logg != nil {
				logg.Warn(logg.WithField(ctx, "release_error", relErr.Error()), "commerce.webhook.release_failed")
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func handle(ctx context.Context, bridge commerceBridge, event commerce.WebhookPayload) (*commerce.ProcessResult, error) {
	if event.Order != nil {
		if _, err := bridge.UpsertSnapshot(ctx, event.OrderID, *event.Order); err != nil {
			return nil, err
		}
	}
	return bridge.HandleStatusChange(ctx, commerce.OrderStatusChanged{
		OrderID: event.OrderID,
		From:    enums.OrderStatus(event.From),
		To:      enums.OrderStatus(event.To),
	})
}
