package record

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/salutem/emo-consolidator/pkg/pagination"
)

// Handler provides HTTP handlers for the consolidation domain.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers all consolidation routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/consolidations", h.CreateConsolidation)
	api.GET("/consolidations", h.ListConsolidations)
	api.GET("/consolidations/:id", h.GetConsolidation)
	api.GET("/consolidations/:id/sources", h.GetConsolidationSources)
	api.DELETE("/consolidations/:id", h.DeleteConsolidation)
}

// ConsolidationRequest is the POST body: one person's source records.
type ConsolidationRequest struct {
	PersonRef string         `json:"person_ref"`
	Sources   []SourceRecord `json:"sources"`
}

func (h *Handler) CreateConsolidation(c echo.Context) error {
	var req ConsolidationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.Consolidate(c.Request().Context(), req.PersonRef, req.Sources)
	if err != nil {
		if errors.Is(err, ErrTooFewSources) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetConsolidation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "consolidation not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) GetConsolidationSources(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sources, err := h.svc.GetSources(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "consolidation not found")
	}
	return c.JSON(http.StatusOK, sources)
}

func (h *Handler) ListConsolidations(c echo.Context) error {
	pg := pagination.FromContext(c)
	var (
		items []*ConsolidatedRecord
		total int
		err   error
	)
	if personRef := c.QueryParam("person_ref"); personRef != "" {
		items, total, err = h.svc.ListByPerson(c.Request().Context(), personRef, pg.Limit, pg.Offset)
	} else {
		items, total, err = h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) DeleteConsolidation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
