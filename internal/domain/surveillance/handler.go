package surveillance

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/salutem/emo-consolidator/pkg/pagination"
)

// Handler provides HTTP handlers for the surveillance domain.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers catalog, company and evaluation routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/surveillance/programs", h.ListPrograms)
	api.PUT("/surveillance/programs", h.SaveProgram)
	api.DELETE("/surveillance/programs/:id", h.DeleteProgram)
	api.POST("/surveillance/evaluate", h.Evaluate)

	api.GET("/companies", h.ListCompanies)
	api.POST("/companies", h.CreateCompany)
	api.GET("/companies/:id", h.GetCompany)
	api.PUT("/companies/:id/programs", h.SetEnrollment)
	api.DELETE("/companies/:id", h.DeleteCompany)
}

func (h *Handler) ListPrograms(c echo.Context) error {
	entries, err := h.svc.Programs(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) SaveProgram(c echo.Context) error {
	var entry CatalogEntry
	if err := c.Bind(&entry); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SaveProgram(c.Request().Context(), &entry); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *Handler) DeleteProgram(c echo.Context) error {
	if err := h.svc.DeleteProgram(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// EvaluateRequest carries a person's consolidated diagnosis codes and the
// employer to evaluate them against.
type EvaluateRequest struct {
	CompanyID      uuid.UUID `json:"company_id"`
	DiagnosisCodes []string  `json:"diagnosis_codes"`
}

func (h *Handler) Evaluate(c echo.Context) error {
	var req EvaluateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.CompanyID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "company_id is required")
	}
	eval, err := h.svc.Evaluate(c.Request().Context(), req.CompanyID, req.DiagnosisCodes)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, eval)
}

func (h *Handler) ListCompanies(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListCompanies(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreateCompany(c echo.Context) error {
	var company Company
	if err := c.Bind(&company); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateCompany(c.Request().Context(), &company); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, company)
}

func (h *Handler) GetCompany(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	company, err := h.svc.GetCompany(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "company not found")
	}
	return c.JSON(http.StatusOK, company)
}

// EnrollmentRequest replaces a company's enrolled-program list.
type EnrollmentRequest struct {
	Programs []string `json:"programs"`
}

func (h *Handler) SetEnrollment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req EnrollmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SetEnrollment(c.Request().Context(), id, req.Programs); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteCompany(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteCompany(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
