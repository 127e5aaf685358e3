package status

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/healthreport/internal/domain/identity"
	"github.com/ehr/healthreport/internal/platform/apperr"
)

// HeaderAPIKey carries a partner's API key.
const HeaderAPIKey = "X-API-Key"

// PendingRecorder notes partner/facility pairs seen in traffic but absent
// from partner configuration.
type PendingRecorder interface {
	RecordPendingObservation(ctx context.Context, partnerID, facilityID string) (*identity.PendingRegistration, error)
}

type Handler struct {
	svc     *Resolver
	pending PendingRecorder
	logger  zerolog.Logger
}

func NewHandler(svc *Resolver, pending PendingRecorder, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, pending: pending, logger: logger}
}

// RegisterRoutes mounts the status endpoint. Partners authenticate with
// their API key, so no role is required here.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/status", h.GetStatus)
}

func (h *Handler) GetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	st, err := h.svc.Resolve(ctx, Query{
		IdentityID: c.QueryParam("identity_id"),
		FacilityID: c.QueryParam("facility_id"),
		PartnerID:  c.QueryParam("partner_id"),
		APIKey:     c.Request().Header.Get(HeaderAPIKey),
	})
	if err != nil {
		return apperr.HTTP(err)
	}

	if st.unprovisioned && h.pending != nil {
		if _, err := h.pending.RecordPendingObservation(ctx, st.PartnerID, st.FacilityID); err != nil {
			rid, _ := c.Get("request_id").(string)
			h.logger.Warn().Err(err).
				Str("request_id", rid).
				Str("partner_id", st.PartnerID).
				Str("facility_id", st.FacilityID).
				Msg("failed to record pending registration")
		}
	}
	return c.JSON(http.StatusOK, st)
}
