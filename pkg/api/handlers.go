package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/data"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/predict"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/segment"
)

// Status strings shown to users instead of raw errors.
const (
	StatusOK             = "ok"
	StatusNotTrained     = "not yet trained"
	StatusPredictFailed  = "prediction failed"
	StatusNoSegmentation = "no segmentation yet"
	StatusBadRequest     = "invalid request"
)

const maxBodyBytes = 64 << 10

// PredictResponse is the body of a successful prediction.
type PredictResponse struct {
	Status string        `json:"status"`
	Label  predict.Label `json:"label"`
	Family string        `json:"family,omitempty"`
}

// AssignResponse is the body of a successful segment assignment.
type AssignResponse struct {
	Status string `json:"status"`
	predict.Assignment
}

// SegmentsResponse wraps the segmentation document.
type SegmentsResponse struct {
	Status   string            `json:"status"`
	Segments *segment.Metadata `json:"segments,omitempty"`
}

// StatusResponse carries a status and an optional message.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse reports readiness.
type HealthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
	Family string `json:"family,omitempty"`
}

// Health always answers 200; Ready tells whether predictions can be served.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, HealthResponse{Status: StatusOK, Ready: h.svc.Ready(), Family: h.svc.Family()})
}

// Predict labels one record.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}
	label, err := h.svc.Predict(rec)
	if err != nil {
		h.respondPredictError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, PredictResponse{Status: StatusOK, Label: label, Family: h.svc.Family()})
}

// AssignSegment places one record in a segment.
func (h *Handler) AssignSegment(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}
	a, err := h.svc.AssignSegment(rec)
	if err != nil {
		h.respondPredictError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, AssignResponse{Status: StatusOK, Assignment: a})
}

// Segments returns the segmentation document, or a "no segmentation yet" status.
func (h *Handler) Segments(w http.ResponseWriter, _ *http.Request) {
	meta, ok := h.svc.Segments()
	if !ok {
		h.respondJSON(w, http.StatusOK, SegmentsResponse{Status: StatusNoSegmentation})
		return
	}
	h.respondJSON(w, http.StatusOK, SegmentsResponse{Status: StatusOK, Segments: meta})
}

func (h *Handler) decodeRecord(w http.ResponseWriter, r *http.Request) (*data.RawRecord, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.respondJSON(w, http.StatusBadRequest, StatusResponse{Status: StatusBadRequest, Message: "unreadable body"})
		return nil, false
	}
	var rec data.RawRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		h.respondJSON(w, http.StatusBadRequest, StatusResponse{Status: StatusBadRequest, Message: "malformed JSON"})
		return nil, false
	}
	if err := rec.Validate(); err != nil {
		h.respondJSON(w, http.StatusBadRequest, StatusResponse{Status: StatusBadRequest, Message: err.Error()})
		return nil, false
	}
	return &rec, true
}

func (h *Handler) respondPredictError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, predict.ErrInvalidRecord):
		h.respondJSON(w, http.StatusBadRequest, StatusResponse{Status: StatusBadRequest, Message: err.Error()})
	case errors.Is(err, predict.ErrNotReady):
		h.respondJSON(w, http.StatusServiceUnavailable, StatusResponse{Status: StatusNotTrained})
	case errors.Is(err, predict.ErrNoSegmentation):
		h.respondJSON(w, http.StatusNotFound, StatusResponse{Status: StatusNoSegmentation})
	default:
		h.log.Error().Err(err).Msg("prediction failed")
		h.respondJSON(w, http.StatusInternalServerError, StatusResponse{Status: StatusPredictFailed})
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(b); err != nil {
		h.log.Error().Err(err).Msg("failed to write JSON response")
	}
}
