package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/healthreport/internal/platform/apperr"
	"github.com/ehr/healthreport/internal/platform/auth"
	"github.com/ehr/healthreport/pkg/pagination"
)

type Handler struct {
	svc *Reconciler
}

func NewHandler(svc *Reconciler) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "staff"))
	readGroup.GET("/external-patients", h.FindExternalPatients)

	adminGroup := api.Group("", auth.RequireRole("admin"))
	adminGroup.GET("/pending-registrations", h.ListPendingRegistrations)
}

func (h *Handler) FindExternalPatients(c echo.Context) error {
	matches, err := h.svc.FindExternalMatches(c.Request().Context(),
		c.QueryParam("phone"), c.QueryParam("birth_date"), c.QueryParam("name"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  matches,
		"total": len(matches),
	})
}

func (h *Handler) ListPendingRegistrations(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPending(c.Request().Context(),
		PendingStatus(c.QueryParam("status")), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*PendingRegistration{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
