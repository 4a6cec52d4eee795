package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ufsc-france/gestion-backend/api/controllers"
	"github.com/ufsc-france/gestion-backend/internal/audit"
	"github.com/ufsc-france/gestion-backend/internal/commerce"
	"github.com/ufsc-france/gestion-backend/internal/licences"
	"github.com/ufsc-france/gestion-backend/internal/scope"
	pkgAuth "github.com/ufsc-france/gestion-backend/pkg/auth"
	"github.com/ufsc-france/gestion-backend/pkg/config"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/metrics"
	"github.com/ufsc-france/gestion-backend/pkg/redis/redistest"
	"github.com/ufsc-france/gestion-backend/pkg/types"
)

const webhookSecret = "whsec"

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubScopes struct{ sc scope.Scope }

func (s stubScopes) ForUser(context.Context, uuid.UUID) (scope.Scope, error) { return s.sc, nil }

type stubAudit struct {
	audit.Service
	calls int
}

func (s *stubAudit) List(context.Context, audit.ListFilter) (*types.Page[audit.Record], error) {
	s.calls++
	return &types.Page[audit.Record]{Items: []audit.Record{}}, nil
}

type stubLicences struct {
	licences.Service
	userID uuid.UUID
}

func (s *stubLicences) List(_ context.Context, userID uuid.UUID, _ licences.ListParams) (*types.Page[licences.LicenceDTO], error) {
	s.userID = userID
	return &types.Page[licences.LicenceDTO]{Items: []licences.LicenceDTO{}}, nil
}

type stubBridge struct {
	commerce.Bridge
	changes []commerce.OrderStatusChanged
	err     error
}

func (s *stubBridge) HandleStatusChange(_ context.Context, change commerce.OrderStatusChanged) (*commerce.ProcessResult, error) {
	s.changes = append(s.changes, change)
	if s.err != nil {
		return nil, s.err
	}
	return &commerce.ProcessResult{OrderID: change.OrderID}, nil
}

func (s *stubBridge) UpsertSnapshot(context.Context, uuid.UUID, commerce.OrderSnapshot) (*models.CommerceOrder, error) {
	return &models.CommerceOrder{}, nil
}

type fixture struct {
	handler  http.Handler
	cfg      *config.Config
	audit    *stubAudit
	licences *stubLicences
	bridge   *stubBridge
	scopes   *stubScopes
	pingErr  *stubPinger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		App:       config.AppConfig{Env: "test"},
		JWT:       config.JWTConfig{Secret: "secret", Issuer: "ufsc-test", ExpirationMinutes: 30},
		Commerce:  config.CommerceConfig{WebhookSecret: webhookSecret},
		RateLimit: config.RateLimitConfig{LoginWindow: time.Minute, LoginIPLimit: 2},
	}
	mem := redistest.NewMemory()
	guard, err := commerce.NewDeliveryGuard(mem, time.Hour, "commerce-webhook")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	f := &fixture{
		cfg:      cfg,
		audit:    &stubAudit{},
		licences: &stubLicences{},
		bridge:   &stubBridge{},
		scopes:   &stubScopes{sc: scope.Global()},
		pingErr:  &stubPinger{},
	}
	f.handler = NewRouter(Deps{
		Config:      cfg,
		Pingers:     map[string]controllers.Pinger{"db": stubPinger{}, "redis": f.pingErr},
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		RateLimit:   mem,
		Scopes:      f.scopes,
		Guard:       guard,
		Audit:       f.audit,
		Licences:    f.licences,
		Commerce:    f.bridge,
	})
	return f
}

func (f *fixture) token(t *testing.T, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(f.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: userID, Role: role})
	require.NoError(t, err)
	return token
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-UFSC-Env"))

	rec = f.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	f.pingErr.err = errors.New("connection refused")
	rec = f.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_request_duration_seconds")
}

func TestClubRoutesRequireToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/licences", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "not logged in", body.Error.Message)
}

func TestClubRoutesPassUserID(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/licences?statut=validee", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, userID, enums.UserRoleClub))
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, userID, f.licences.userID)
}

func TestClubRoutesRejectStaff(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/licences", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, uuid.New(), enums.UserRoleStaff))
	assert.Equal(t, http.StatusForbidden, f.do(req).Code)
}

func TestAdminRoutesRejectClubUsers(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/audit", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, uuid.New(), enums.UserRoleClub))
	assert.Equal(t, http.StatusForbidden, f.do(req).Code)
	assert.Zero(t, f.audit.calls)
}

func TestAdminAuditNeedsNationalScope(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, uuid.New(), enums.UserRoleStaff)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/audit?action=licence.validated", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, f.do(req).Code)
	assert.Equal(t, 1, f.audit.calls)

	f.scopes.sc = scope.ForRegion("bretagne")
	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/audit", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, f.do(req).Code)
	assert.Equal(t, 1, f.audit.calls)
}

func TestLoginIsRateLimited(t *testing.T) {
	f := newFixture(t)

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{}`))
		req.RemoteAddr = "10.1.1.1:4000"
		codes = append(codes, f.do(req).Code)
	}
	// an empty body fails validation until the limit trips
	assert.Equal(t, http.StatusBadRequest, codes[0])
	assert.Equal(t, http.StatusBadRequest, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
}

func webhookRequest(t *testing.T, payload commerce.WebhookPayload, secret string) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/commerce", strings.NewReader(string(body)))
	req.Header.Set(commerce.SignatureHeader, commerce.Sign([]byte(secret), body))
	return req
}

func TestCommerceWebhookProcessesOncePerDelivery(t *testing.T) {
	f := newFixture(t)
	payload := commerce.WebhookPayload{DeliveryID: "d-1", OrderID: uuid.New(), From: "pending", To: "completed"}

	rec := f.do(webhookRequest(t, payload, webhookSecret))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(webhookRequest(t, payload, webhookSecret))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"duplicate":true`)

	require.Len(t, f.bridge.changes, 1)
	assert.Equal(t, enums.OrderStatusCompleted, f.bridge.changes[0].To)
}

func TestCommerceWebhookRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	payload := commerce.WebhookPayload{DeliveryID: "d-2", OrderID: uuid.New(), To: "completed"}

	rec := f.do(webhookRequest(t, payload, "wrong"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.bridge.changes)
}

func TestCommerceWebhookReleasesDeliveryOnFailure(t *testing.T) {
	f := newFixture(t)
	f.bridge.err = pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "process order")
	payload := commerce.WebhookPayload{DeliveryID: "d-3", OrderID: uuid.New(), To: "completed"}

	rec := f.do(webhookRequest(t, payload, webhookSecret))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	f.bridge.err = nil
	rec = f.do(webhookRequest(t, payload, webhookSecret))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "duplicate")
	assert.Len(t, f.bridge.changes, 2)
}
