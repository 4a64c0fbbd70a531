package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"phenomap/inference"
	"phenomap/ml"
	"phenomap/schema"
)

func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/schemas", handleSchemas)
	mux.HandleFunc("GET /api/schemas/{schema...}", handleSchema)
	mux.HandleFunc("POST /api/assign/{schema...}", handleAssign)
	mux.HandleFunc("GET /api/assignments", handleAssignments)
}

type fieldInfo struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Group   string   `json:"group"`
	Kind    string   `json:"kind"`
	Min     float64  `json:"min"`
	Max     *float64 `json:"max,omitempty"`
	Default float64  `json:"default"`
	Step    float64  `json:"step,omitempty"`
}

type schemaInfo struct {
	Name         string      `json:"name"`
	Title        string      `json:"title"`
	Columns      []string    `json:"columns"`
	Indexing     string      `json:"label_indexing"`
	Descriptions bool        `json:"descriptions"`
	Available    bool        `json:"available"`
	ModelError   string      `json:"model_error,omitempty"`
	Fields       []fieldInfo `json:"fields,omitempty"`
}

// assignmentResponse 分配结果
type assignmentResponse struct {
	ID             string             `json:"id"`
	Schema         string             `json:"schema"`
	Label          int                `json:"label"`
	Confidence     float64            `json:"confidence"`
	ConfidenceText string             `json:"confidence_text"`
	Description    string             `json:"description,omitempty"`
	Columns        []string           `json:"columns"`
	Inputs         map[string]float64 `json:"inputs"`
	CreatedAt      time.Time          `json:"created_at"`
}

func newAssignmentResponse(a *inference.Assignment) assignmentResponse {
	return assignmentResponse{
		ID:             a.ID,
		Schema:         a.Schema,
		Label:          a.Result.Label,
		Confidence:     a.Result.Confidence,
		ConfidenceText: formatConfidence(a.Result.Confidence),
		Description:    a.Description,
		Columns:        a.Record.Columns(),
		Inputs:         a.Inputs(),
		CreatedAt:      a.CreatedAt,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleSchemas(w http.ResponseWriter, r *http.Request) {
	all := schema.All()
	out := make([]schemaInfo, 0, len(all))
	for _, s := range all {
		out = append(out, describeSchema(s, false))
	}
	respondJSON(w, http.StatusOK, out)
}

func handleSchema(w http.ResponseWriter, r *http.Request) {
	s, err := schema.Lookup(r.PathValue("schema"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, describeSchema(s, true))
}

func handleAssign(w http.ResponseWriter, r *http.Request) {
	_, svc, err := lookupService(r.PathValue("schema"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	var body map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", schema.ErrInvalidInput, err))
		return
	}
	values, err := valuesFromJSON(body)
	if err != nil {
		respondError(w, r, err)
		return
	}

	a, err := svc.Assign(r.Context(), values)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newAssignmentResponse(a))
}

func handleAssignments(w http.ResponseWriter, r *http.Request) {
	j := currentJournal()
	if j == nil {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "assignment journal is disabled"})
		return
	}
	limit := 50
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	rows, err := j.RecentAssignments(r.Context(), r.URL.Query().Get("schema"), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": rows})
}

func describeSchema(s *schema.Schema, withFields bool) schemaInfo {
	available, modelErr := modelStatus(s.Name)
	info := schemaInfo{
		Name:         s.Name,
		Title:        s.Title,
		Columns:      s.Columns(),
		Indexing:     s.Indexing.String(),
		Descriptions: s.Descriptions,
		Available:    available,
		ModelError:   modelErr,
	}
	if withFields {
		for _, f := range s.Fields {
			fi := fieldInfo{
				Name:    f.Name,
				Label:   f.Label,
				Group:   f.Group,
				Kind:    f.Kind.String(),
				Min:     f.Min,
				Default: f.Default,
				Step:    f.Step,
			}
			if f.HasMax {
				upper := f.Max
				fi.Max = &upper
			}
			info.Fields = append(info.Fields, fi)
		}
	}
	return info
}

// valuesFromJSON 将JSON标量转换为表单字符串值
func valuesFromJSON(body map[string]any) (map[string]string, error) {
	values := make(map[string]string, len(body))
	for k, v := range body {
		switch val := v.(type) {
		case nil:
			values[k] = ""
		case string:
			values[k] = val
		case json.Number:
			values[k] = val.String()
		case bool:
			values[k] = strconv.FormatBool(val)
		default:
			return nil, fmt.Errorf("%w: %s must be a number or a string", schema.ErrInvalidInput, k)
		}
	}
	return values, nil
}

func formatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'f', 2, 64)
}

// statusFor 将错误映射为HTTP状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, schema.ErrUnknownSchema):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, inference.ErrModelUnavailable),
		errors.Is(err, ml.ErrArtifactLoad),
		errors.Is(err, ml.ErrSchemaMismatch):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		currentLogger().Error("request failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

// respondJSON 统一JSON响应
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		currentLogger().Warn("failed to encode JSON", zap.Error(err))
	}
}
