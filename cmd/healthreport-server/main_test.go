package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/healthreport/internal/config"
	"github.com/ehr/healthreport/internal/domain/healthdata"
	"github.com/ehr/healthreport/internal/domain/identity"
	"github.com/ehr/healthreport/internal/domain/partner"
	"github.com/ehr/healthreport/internal/domain/report"
	"github.com/ehr/healthreport/internal/domain/status"
	"github.com/ehr/healthreport/internal/platform/apperr"
)

type stubCollector struct{}

func (stubCollector) Collect(context.Context, string, string) healthdata.Snapshots {
	now := time.Now()
	return healthdata.Snapshots{Broker: healthdata.Snapshot{Count: 6, LastSynced: &now}}
}

type stubReports struct{}

func (stubReports) Latest(context.Context, string, string) (*report.Report, error) { return nil, nil }

type stubPartners struct{}

func (stubPartners) Resolve(context.Context, string, string) (*partner.Config, error) {
	return nil, apperr.ErrConfigNotFound
}

type stubPayments struct{}

func (stubPayments) HasCompletedPayment(context.Context, string, string, string) (bool, error) {
	return false, nil
}

type stubPending struct{}

func (stubPending) Upsert(_ context.Context, partnerID, facilityID string, seenAt time.Time) (*identity.PendingRegistration, error) {
	return &identity.PendingRegistration{PartnerID: partnerID, FacilityID: facilityID, FirstSeenAt: seenAt, LastSeenAt: seenAt, RequestCount: 1}, nil
}

func (stubPending) List(context.Context, identity.PendingStatus, int, int) ([]*identity.PendingRegistration, int, error) {
	return nil, 0, nil
}

func newTestServer(t *testing.T, env string) *echo.Echo {
	t.Helper()
	cfg := &config.Config{
		Env:            env,
		CORSOrigins:    []string{"http://localhost:3000"},
		RateLimitRPS:   100,
		RateLimitBurst: 100,
		RequestTimeout: 5 * time.Second,
		AuthSigningKey: "test-key",
	}
	logger := zerolog.Nop()
	resolver := status.NewResolver(stubCollector{}, stubReports{}, stubPartners{}, stubPayments{}, status.Options{}, logger)
	reconciler := identity.NewReconciler(nil, stubPending{}, logger)

	return newEcho(cfg, logger, routes{
		status:   status.NewHandler(resolver, reconciler, logger),
		identity: identity.NewHandler(reconciler),
		health: func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
		},
	})
}

func serve(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestServer_HealthAndMetricsArePublic(t *testing.T) {
	e := newTestServer(t, "production")
	if rec := serve(e, "/health"); rec.Code != http.StatusOK {
		t.Errorf("/health: expected 200, got %d", rec.Code)
	}
	if rec := serve(e, "/metrics"); rec.Code != http.StatusOK {
		t.Errorf("/metrics: expected 200, got %d", rec.Code)
	}
}

func TestServer_StatusIsPublic(t *testing.T) {
	e := newTestServer(t, "production")
	rec := serve(e, "/api/v1/status?identity_id=id-1&facility_id=fac-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "REPORT_PENDING" {
		t.Errorf("expected REPORT_PENDING, got %v", body["status"])
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("expected security headers")
	}
}

func TestServer_StatusInvalidInputIs400(t *testing.T) {
	e := newTestServer(t, "production")
	rec := serve(e, "/api/v1/status?facility_id=fac-1")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INVALID_INPUT") {
		t.Errorf("expected INVALID_INPUT code, got %s", rec.Body.String())
	}
}

func TestServer_StaffRoutesRequireToken(t *testing.T) {
	e := newTestServer(t, "production")
	for _, path := range []string{"/api/v1/pending-registrations", "/api/v1/external-patients?phone=1&birth_date=1990-01-01&name=a"} {
		if rec := serve(e, path); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestServer_DevAuthWithoutSigningKey(t *testing.T) {
	cfg := &config.Config{Env: "development", RequestTimeout: time.Second}
	logger := zerolog.Nop()
	reconciler := identity.NewReconciler(nil, stubPending{}, logger)
	resolver := status.NewResolver(stubCollector{}, stubReports{}, stubPartners{}, stubPayments{}, status.Options{}, logger)
	srv := newEcho(cfg, logger, routes{
		status:   status.NewHandler(resolver, reconciler, logger),
		identity: identity.NewHandler(reconciler),
		health:   func(c echo.Context) error { return c.NoContent(http.StatusOK) },
	})
	if rec := serve(srv, "/api/v1/pending-registrations"); rec.Code != http.StatusOK {
		t.Errorf("expected dev admin to list pending registrations, got %d", rec.Code)
	}
}

func TestPrintPending(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)
	items := []*identity.PendingRegistration{
		{PartnerID: "acme", FacilityID: "fac-9", Status: identity.PendingStatusPending, RequestCount: 3, FirstSeenAt: at, LastSeenAt: at},
	}
	if err := printPending(&buf, items, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"PARTNER", "acme", "fac-9", "2026-01-02 03:04", "1 of 7 shown"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestNewLogger_Levels(t *testing.T) {
	l := newLogger(nil)
	if l.GetLevel() != zerolog.InfoLevel {
		t.Errorf("expected info level without config, got %s", l.GetLevel())
	}
	dev := newLogger(&config.Config{Env: "development"})
	if dev.GetLevel() != zerolog.DebugLevel {
		t.Errorf("expected debug level in development, got %s", dev.GetLevel())
	}
}
