package vitals

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carepulse/carepulse/internal/domain/insight"
	"github.com/carepulse/carepulse/pkg/pagination"
)

type Handler struct {
	svc      *Ingestor
	insights *insight.Service
	log      zerolog.Logger
}

// NewHandler wires the vitals endpoints. insights may be nil, in which case
// uploads skip the post-ingest analysis.
func NewHandler(svc *Ingestor, insights *insight.Service, log zerolog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		insights: insights,
		log:      log.With().Str("component", "vitals_handler").Logger(),
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients/:patientId/vitals/uploads", h.Upload)
	api.GET("/patients/:patientId/vitals", h.ListReadings)
	api.GET("/patients/:patientId/vitals/batches", h.ListBatches)
	api.GET("/vitals/batches/:id", h.GetBatch)
}

type uploadResponse struct {
	*BatchResult
	Analysis *insight.Insight `json:"analysis,omitempty"`
}

// Upload ingests one CSV stream posted as the request body. The stream is
// spooled to a temp file so the parser gets a plain reader and the artifact
// is removed on every exit path. After a batch with at least one stored
// reading, an AI analysis is attempted best-effort: its failure never fails
// the upload.
func (h *Handler) Upload(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	fileName := c.Request().Header.Get("X-File-Name")
	if fileName == "" {
		fileName = "upload.csv"
	}

	tmp, err := os.CreateTemp("", "vitals-upload-*.csv")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot spool upload")
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read upload stream")
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot spool upload")
	}

	result, err := h.svc.Ingest(c.Request().Context(), patientID, tmp, fileName, size)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	resp := uploadResponse{BatchResult: result}
	if h.insights != nil && result.SuccessCount > 0 {
		ins, err := h.insights.Analyze(c.Request().Context(), patientID, insight.TriggerUpload, "")
		if err != nil {
			h.log.Warn().Err(err).Str("patient_id", patientID.String()).Msg("post-upload analysis failed")
		} else {
			resp.Analysis = ins
		}
	}

	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) ListReadings(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	limit := int64(20)
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		if v > 500 {
			v = 500
		}
		limit = v
	}
	readings, err := h.svc.RecentReadings(c.Request().Context(), patientID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list readings")
	}
	return c.JSON(http.StatusOK, readings)
}

func (h *Handler) ListBatches(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	params := pagination.FromContext(c)
	batches, total, err := h.svc.Batches(c.Request().Context(), patientID, params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list batches")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(batches, total, params.Limit, params.Offset))
}

func (h *Handler) GetBatch(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid batch id")
	}
	b, err := h.svc.Batch(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrBatchNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "batch not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load batch")
	}
	return c.JSON(http.StatusOK, b)
}
