package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"phenomap/db"
	"phenomap/inference"
	"phenomap/ml"
	"phenomap/schema"
)

type fakeModel struct {
	label int
	proba []float64
	err   error
}

func (f *fakeModel) Predict(ctx context.Context, features []float64) (int, error) {
	return f.label, f.err
}

func (f *fakeModel) PredictProba(ctx context.Context, features []float64) ([]float64, error) {
	return f.proba, f.err
}

type fakeJournal struct {
	rows []db.AssignmentRow
}

func (f *fakeJournal) RecentAssignments(ctx context.Context, schemaName string, limit int) ([]db.AssignmentRow, error) {
	return f.rows, nil
}

func setupPhenotype(t *testing.T, model ml.Classifier) {
	t.Helper()
	SetService(inference.NewService(schema.Phenotype, model))
	t.Cleanup(ResetState)
}

func TestHealthHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(handleHealth)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("handler returned wrong content type: got %q", ct)
	}

	expected := `{"status":"ok"}`
	if rr.Body.String() != expected+"\n" && rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestHandleAssign(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHandlers(mux)
	setupPhenotype(t, &fakeModel{label: 1, proba: []float64{0.7, 0.2, 0.1}})

	body := strings.NewReader(`{"renal_disease": "Yes", "spo2": 140}`)
	req := httptest.NewRequest(http.MethodPost, "/api/assign/hfpef-phenotype/v1", body)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var payload assignmentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.Label != 1 || payload.Confidence != 0.7 || payload.ConfidenceText != "0.70" {
		t.Fatalf("unexpected result: %+v", payload)
	}
	if !strings.Contains(payload.Description, "Diabetic and Renal Phenotype") {
		t.Fatalf("unexpected description: %q", payload.Description)
	}
	if payload.Inputs["spo2"] != 100 || payload.Inputs["renal_disease"] != 1 {
		t.Fatalf("unexpected inputs: %v", payload.Inputs)
	}
	if strings.Join(payload.Columns, ",") != strings.Join(schema.Phenotype.Columns(), ",") {
		t.Fatalf("unexpected columns: %v", payload.Columns)
	}
}

func TestHandleAssignErrors(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHandlers(mux)
	setupPhenotype(t, &fakeModel{label: 1, proba: []float64{0.7, 0.2, 0.1}})
	SetModelError(schema.Hematology.Name, ml.ErrArtifactLoad)

	cases := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unknown schema", "/api/assign/nope/v1", `{}`, http.StatusNotFound},
		{"invalid number", "/api/assign/hfpef-phenotype/v1", `{"glucose": "high"}`, http.StatusBadRequest},
		{"invalid json", "/api/assign/hfpef-phenotype/v1", `{`, http.StatusBadRequest},
		{"nested value", "/api/assign/hfpef-phenotype/v1", `{"glucose": [1]}`, http.StatusBadRequest},
		{"unknown field", "/api/assign/hfpef-phenotype/v1", `{"SpO2": 55, "renal": "Yes"}`, http.StatusBadRequest},
		{"unknown null field", "/api/assign/hfpef-phenotype/v1", `{"spo": null}`, http.StatusBadRequest},
		{"model load failure", "/api/assign/hfpef-hematology/v1", `{}`, http.StatusServiceUnavailable},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, c.path, strings.NewReader(c.body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			if w.Code != c.status {
				t.Fatalf("expected %d, got %d: %s", c.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestHandleAssignInferenceError(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHandlers(mux)
	setupPhenotype(t, &fakeModel{err: errAssign("X has 13 features")})

	req := httptest.NewRequest(http.MethodPost, "/api/assign/hfpef-phenotype/v1", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "X has 13 features") {
		t.Fatalf("expected model error verbatim, got %s", w.Body.String())
	}
}

type errAssign string

func (e errAssign) Error() string { return string(e) }

func TestHandleSchemas(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHandlers(mux)
	setupPhenotype(t, &fakeModel{label: 1, proba: []float64{1, 0, 0}})

	req := httptest.NewRequest(http.MethodGet, "/api/schemas", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var infos []schemaInfo
	if err := json.Unmarshal(w.Body.Bytes(), &infos); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 schemas, got %d", len(infos))
	}
	for _, info := range infos {
		switch info.Name {
		case schema.Phenotype.Name:
			if !info.Available || info.Indexing != "one_based" {
				t.Fatalf("unexpected phenotype info %+v", info)
			}
		case schema.Hematology.Name:
			if info.Available || info.ModelError == "" {
				t.Fatalf("expected hematology to be unavailable: %+v", info)
			}
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/api/schemas/hfpef-phenotype/v1", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	var info schemaInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(info.Fields) != 14 || info.Fields[11].Name != "spo2" || info.Fields[11].Max == nil || *info.Fields[11].Max != 100 {
		t.Fatalf("unexpected fields: %+v", info.Fields)
	}
}

func TestHandleAssignments(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHandlers(mux)
	t.Cleanup(ResetState)

	req := httptest.NewRequest(http.MethodGet, "/api/assignments", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with journal disabled, got %d", w.Code)
	}

	SetJournal(&fakeJournal{rows: []db.AssignmentRow{{ID: "a1", Label: 2}}})
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/assignments?limit=5", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"id":"a1"`) {
		t.Fatalf("unexpected response %d: %s", w.Code, w.Body.String())
	}
}

func TestMain(m *testing.M) {
	ResetState()
	code := m.Run()
	os.Exit(code)
}
