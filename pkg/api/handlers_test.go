package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/data"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/predict"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/segment"
)

type fakePredictor struct {
	ready  bool
	label  predict.Label
	err    error
	assign predict.Assignment
	meta   *segment.Metadata
	got    *data.RawRecord
}

func (f *fakePredictor) Ready() bool { return f.ready }

func (f *fakePredictor) Family() string {
	if f.ready {
		return "AdaBoost"
	}
	return ""
}

func (f *fakePredictor) Predict(rec *data.RawRecord) (predict.Label, error) {
	f.got = rec
	if f.err != nil {
		return "", f.err
	}
	return f.label, nil
}

func (f *fakePredictor) AssignSegment(rec *data.RawRecord) (predict.Assignment, error) {
	f.got = rec
	if f.err != nil {
		return predict.Assignment{}, f.err
	}
	return f.assign, nil
}

func (f *fakePredictor) Segments() (*segment.Metadata, bool) { return f.meta, f.meta != nil }

const record = `{
	"Age": 34, "TypeofContact": "Self Inquiry", "CityTier": 1, "DurationOfPitch": 8,
	"Occupation": "Salaried", "Gender": "Male", "NumberOfPersonVisiting": 3,
	"NumberOfFollowups": 4, "ProductPitched": "Basic", "PreferredPropertyStar": 3,
	"MaritalStatus": "Married", "NumberOfTrips": 2, "Passport": 1,
	"PitchSatisfactionScore": 3, "OwnCar": 1, "NumberOfChildrenVisiting": 1,
	"Designation": "Executive", "MonthlyIncome": 20000
}`

const partialRecord = `{"Age": 34, "TypeofContact": "Self Inquiry", "CityTier": 1, "Designation": "Executive"}`

func do(t *testing.T, svc Predictor, method, path, contentType, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	NewHandler(svc, zerolog.Nop()).Router().ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	rec, body := do(t, &fakePredictor{}, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusOK, body["status"])
	assert.Equal(t, false, body["ready"])

	_, body = do(t, &fakePredictor{ready: true}, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, true, body["ready"])
	assert.Equal(t, "AdaBoost", body["family"])
}

func TestPredict(t *testing.T) {
	svc := &fakePredictor{ready: true, label: predict.LabelPurchase}
	rec, body := do(t, svc, http.MethodPost, "/api/v1/predict", "application/json", record)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, StatusOK, body["status"])
	assert.Equal(t, "Will Purchase", body["label"])
	assert.Equal(t, "AdaBoost", body["family"])
	require.NotNil(t, svc.got)
	assert.Equal(t, 34, svc.got.Age)
	assert.Equal(t, "Executive", svc.got.Designation)
}

func TestPredict_Errors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		contentType string
		body        string
		wantCode    int
		wantStatus  string
	}{
		{"not trained", predict.ErrNotReady, "application/json", record, http.StatusServiceUnavailable, StatusNotTrained},
		{"invalid record", predict.ErrInvalidRecord, "application/json", record, http.StatusBadRequest, StatusBadRequest},
		{"malformed json", nil, "application/json", "{", http.StatusBadRequest, StatusBadRequest},
		{"missing fields", nil, "application/json", partialRecord, http.StatusBadRequest, StatusBadRequest},
		{"out of range", nil, "application/json", strings.Replace(record, `"CityTier": 1`, `"CityTier": 7`, 1), http.StatusBadRequest, StatusBadRequest},
		{"internal", errors.New("boom"), "application/json", record, http.StatusInternalServerError, StatusPredictFailed},
		{"wrong content type", nil, "text/plain", record, http.StatusUnsupportedMediaType, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, &fakePredictor{ready: true, err: tt.err}, http.MethodPost, "/api/v1/predict", tt.contentType, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantStatus != "" {
				assert.Equal(t, tt.wantStatus, body["status"])
			}
		})
	}
}

func TestPredict_MissingFieldsNeverReachPredictor(t *testing.T) {
	svc := &fakePredictor{ready: true, label: predict.LabelPurchase}
	rec, body := do(t, svc, http.MethodPost, "/api/v1/predict", "application/json", partialRecord)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, StatusBadRequest, body["status"])
	assert.Contains(t, body["message"], data.ColMonthlyIncome)
	assert.Nil(t, svc.got)

	rec, _ = do(t, svc, http.MethodPost, "/api/v1/segments/assign", "application/json", partialRecord)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.got)
}

func TestAssignSegment(t *testing.T) {
	svc := &fakePredictor{ready: true, assign: predict.Assignment{Segment: 2, Strategy: segment.StrategyFrequent}}
	rec, body := do(t, svc, http.MethodPost, "/api/v1/segments/assign", "application/json", record)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, body["segment"])
	assert.Equal(t, segment.StrategyFrequent, body["strategy"])

	rec, body = do(t, &fakePredictor{ready: true, err: predict.ErrNoSegmentation}, http.MethodPost, "/api/v1/segments/assign", "application/json", record)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, StatusNoSegmentation, body["status"])
}

func TestSegments(t *testing.T) {
	rec, body := do(t, &fakePredictor{}, http.MethodGet, "/api/v1/segments", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusNoSegmentation, body["status"])
	assert.NotContains(t, body, "segments")

	meta := &segment.Metadata{ChosenCount: 3, QualityScore: 0.4, Profiles: map[string]segment.Profile{"0": {Size: 10}}}
	rec, body = do(t, &fakePredictor{meta: meta}, http.MethodGet, "/api/v1/segments", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusOK, body["status"])
	segs, ok := body["segments"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3.0, segs["best_k"])
}

func TestMetricsEndpoint(t *testing.T) {
	do(t, &fakePredictor{}, http.MethodGet, "/api/v1/segments", "", "")

	rec, _ := do(t, &fakePredictor{}, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "travelml_api_requests_total")
}
