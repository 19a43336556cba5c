package clinical

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carepulse/carepulse/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/clinical-records", h.CreateRecord)
	api.GET("/clinical-records/:id", h.GetRecord)
	api.GET("/patients/:patientId/clinical-records", h.History)
	api.GET("/patients/:patientId/medications", h.ActiveMedications)
	api.GET("/medications", h.SearchMedications)
}

func (h *Handler) CreateRecord(c echo.Context) error {
	var in RecordInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.CreateRecord(c.Request().Context(), &in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetRecord(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}
	rec, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "record not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load record")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) History(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	records, err := h.svc.History(c.Request().Context(), patientID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load history")
	}
	return c.JSON(http.StatusOK, records)
}

func (h *Handler) ActiveMedications(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	meds, err := h.svc.ActiveMedications(c.Request().Context(), patientID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load medications")
	}
	return c.JSON(http.StatusOK, meds)
}

func (h *Handler) SearchMedications(c echo.Context) error {
	params := pagination.FromContext(c)
	meds, total, err := h.svc.SearchMedications(c.Request().Context(), c.QueryParam("q"), params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot search medications")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(meds, total, params.Limit, params.Offset))
}
