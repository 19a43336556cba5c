package insight

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/ai/analyze", h.Analyze)
	api.GET("/ai/insights/:patientId", h.ListInsights)
	api.GET("/ai/insight/:id", h.GetInsight)
	api.POST("/ai/chat", h.Chat)
}

type analyzeRequest struct {
	PatientID     string        `json:"patientId"`
	TriggerSource TriggerSource `json:"triggerSource"`
	SymptomText   string        `json:"symptomText"`
}

func (h *Handler) Analyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	trigger := req.TriggerSource
	if trigger == "" {
		trigger = TriggerManual
	}
	if !ValidTrigger(trigger) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown trigger source")
	}

	ins, err := h.svc.Analyze(c.Request().Context(), patientID, trigger, req.SymptomText)
	if err != nil {
		if errors.Is(err, ErrResponseInvalid) {
			return echo.NewHTTPError(http.StatusBadGateway, "reasoning engine returned an invalid response")
		}
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusCreated, ins)
}

func (h *Handler) ListInsights(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	insights, err := h.svc.InsightsForPatient(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list insights")
	}
	return c.JSON(http.StatusOK, insights)
}

func (h *Handler) GetInsight(c echo.Context) error {
	ins, err := h.svc.InsightByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "insight not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load insight")
	}
	return c.JSON(http.StatusOK, ins)
}

type chatRequest struct {
	InsightID string `json:"insightId"`
	Question  string `json:"question"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	answer, err := h.svc.Chat(c.Request().Context(), req.InsightID, req.Question)
	if err != nil {
		if errors.Is(err, ErrEmptyQuestion) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, chatResponse{Answer: answer})
}
