package intake

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Inreet-Kaur/capstone/internal/platform/auth"
	"github.com/Inreet-Kaur/capstone/internal/platform/classifier"
	"github.com/Inreet-Kaur/capstone/internal/platform/extraction"
	"github.com/Inreet-Kaur/capstone/internal/platform/transcribe"
	"github.com/Inreet-Kaur/capstone/pkg/pagination"
)

// MaxBatchSize caps the number of texts in one batch request.
const MaxBatchSize = 100

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole(auth.RoleIntakeReader, auth.RoleIntakeWriter))
	readGroup.GET("/intake-records", h.ListRecords)
	readGroup.GET("/intake-records/:id", h.GetRecord)
	readGroup.POST("/sections/classify", h.Classify)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleIntakeWriter))
	writeGroup.POST("/intake/extract", h.Extract)
	writeGroup.POST("/intake/extract/batch", h.ExtractBatch)
	writeGroup.POST("/intake/transcribe", h.Transcribe)
	writeGroup.DELETE("/intake-records/:id", h.DeleteRecord)
}

type extractRequest struct {
	Text string `json:"text"`
}

type batchRequest struct {
	Texts []string `json:"texts"`
}

type extractResponse struct {
	ID         *uuid.UUID                 `json:"id,omitempty"`
	Source     string                     `json:"source"`
	Transcript string                     `json:"transcript,omitempty"`
	Record     *extraction.ClinicalRecord `json:"record"`
}

type classifyResponse struct {
	Label string `json:"label"`
}

func toResponse(r *IntakeRecord) extractResponse {
	resp := extractResponse{Source: r.Source, Record: r.Record}
	if r.ID != uuid.Nil {
		id := r.ID
		resp.ID = &id
	}
	if r.Source == SourceAudio {
		resp.Transcript = r.Transcript
	}
	return resp
}

func actor(c echo.Context) string {
	return auth.UserIDFromContext(c.Request().Context())
}

func (h *Handler) Extract(c echo.Context) error {
	var req extractRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.Extract(c.Request().Context(), req.Text, actor(c))
	if err != nil {
		return httpError(err)
	}
	status := http.StatusOK
	if rec.ID != uuid.Nil {
		status = http.StatusCreated
	}
	return c.JSON(status, toResponse(rec))
}

func (h *Handler) ExtractBatch(c echo.Context) error {
	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Texts) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "texts is required")
	}
	if len(req.Texts) > MaxBatchSize {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("at most %d texts per batch", MaxBatchSize))
	}
	recs, err := h.svc.ExtractBatch(c.Request().Context(), req.Texts, actor(c))
	if err != nil {
		return httpError(err)
	}
	out := make([]extractResponse, len(recs))
	for i, r := range recs {
		out[i] = toResponse(r)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"records": out})
}

func (h *Handler) Transcribe(c echo.Context) error {
	audio, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return httpError(err)
	}
	rec, err := h.svc.Transcribe(c.Request().Context(), audio, actor(c))
	if err != nil {
		return httpError(err)
	}
	status := http.StatusOK
	if rec.ID != uuid.Nil {
		status = http.StatusCreated
	}
	return c.JSON(status, toResponse(rec))
}

func (h *Handler) Classify(c echo.Context) error {
	var req extractRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	label, err := h.svc.Classify(req.Text)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, classifyResponse{Label: label})
}

func (h *Handler) GetRecord(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListRecords(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListRecords(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteRecord(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// httpError maps service errors onto HTTP statuses.
func httpError(err error) error {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he
	case errors.Is(err, ErrEmptyText), errors.Is(err, transcribe.ErrEmptyAudio):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "intake record not found")
	case errors.Is(err, classifier.ErrUntrainedModel):
		return echo.NewHTTPError(http.StatusConflict, "section classifier is not trained yet")
	case errors.Is(err, ErrPersistenceDisabled), errors.Is(err, ErrTranscriberUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	var te *TranscriptionError
	if errors.As(err, &te) {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
}
