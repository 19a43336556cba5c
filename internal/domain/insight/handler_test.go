package insight

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler(engine *mockEngine) (*Handler, *echo.Echo) {
	svc, _ := newTestService(engine)
	return NewHandler(svc), echo.New()
}

func TestHandler_Analyze(t *testing.T) {
	h, e := newTestHandler(&mockEngine{jsonResponse: validEngineJSON})

	body := `{"patientId":"` + uuid.NewString() + `","triggerSource":"Doctor"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/analyze", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Analyze(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var ins Insight
	json.Unmarshal(rec.Body.Bytes(), &ins)
	if ins.RiskCategory != RiskLow || ins.TriggerSource != TriggerDoctor {
		t.Errorf("unexpected insight: %+v", ins)
	}
}

func TestHandler_Analyze_DefaultsTriggerToManual(t *testing.T) {
	h, e := newTestHandler(&mockEngine{jsonResponse: validEngineJSON})

	body := `{"patientId":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/analyze", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Analyze(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ins Insight
	json.Unmarshal(rec.Body.Bytes(), &ins)
	if ins.TriggerSource != TriggerManual {
		t.Errorf("expected Manual default, got %s", ins.TriggerSource)
	}
}

func TestHandler_Analyze_BadEngineResponse(t *testing.T) {
	h, e := newTestHandler(&mockEngine{jsonResponse: `not json`})

	body := `{"patientId":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/analyze", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Analyze(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %v", err)
	}
}

func TestHandler_Analyze_InvalidPatientID(t *testing.T) {
	h, e := newTestHandler(&mockEngine{jsonResponse: validEngineJSON})

	body := `{"patientId":"abc"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/analyze", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Analyze(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_GetInsight_NotFound(t *testing.T) {
	h, e := newTestHandler(&mockEngine{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("missing")

	err := h.GetInsight(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_ListInsights_Empty(t *testing.T) {
	h, e := newTestHandler(&mockEngine{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("patientId")
	c.SetParamValues(uuid.NewString())

	if err := h.ListInsights(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected empty array, got %s", body)
	}
}

func TestHandler_Chat(t *testing.T) {
	engine := &mockEngine{jsonResponse: validEngineJSON, textResponse: "Keep monitoring at home."}
	h, e := newTestHandler(engine)

	ins, err := h.svc.Analyze(nil, uuid.New(), TriggerManual, "")
	if err != nil {
		t.Fatalf("seed insight: %v", err)
	}

	body := `{"insightId":"` + ins.ID + `","question":"what should I do next?"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/chat", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Chat(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out chatResponse
	json.Unmarshal(rec.Body.Bytes(), &out)
	if out.Answer != "Keep monitoring at home." {
		t.Errorf("unexpected answer: %q", out.Answer)
	}
}

func TestHandler_Chat_NoInsightID(t *testing.T) {
	engine := &mockEngine{textResponse: "General guidance only; run an analysis for specifics."}
	h, e := newTestHandler(engine)

	body := `{"question":"is a heart rate of 90 normal?"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/chat", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Chat(c); err != nil {
		t.Fatalf("chat without an insight id must succeed: %v", err)
	}
	var out chatResponse
	json.Unmarshal(rec.Body.Bytes(), &out)
	if out.Answer == "" {
		t.Error("expected an ungrounded answer")
	}
}

func TestHandler_Chat_EmptyQuestion(t *testing.T) {
	h, e := newTestHandler(&mockEngine{})

	body := `{"insightId":"x","question":""}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/chat", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Chat(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
