package http

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"phenomap/inference"
	"phenomap/ml"
	"phenomap/phenotype"
	"phenomap/schema"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func RegisterFormHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", handleIndex)
	mux.HandleFunc("GET /forms/{schema...}", handleForm)
	mux.HandleFunc("POST /forms/{schema...}", handleFormSubmit)
}

type formField struct {
	Name  string
	Label string
	Value string
	Min   string
	Max   string
	Step  string
	Flag  bool
	Yes   bool
}

type formGroup struct {
	Title  string
	Fields []formField
}

type formResult struct {
	Heading     string
	Label       string
	Confidence  string
	Description string
	Disclaimer  string
}

type summaryCell struct {
	Name  string
	Value string
}

// formPage 表单页面视图，每次渲染都由一个不可变的记录生成
type formPage struct {
	Schema     string
	Title      string
	Caption    string
	Button     string
	Columns    []formGroup
	Rows       []formGroup
	ModelError string
	InputError string
	Result     *formResult
	Summary    []summaryCell
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	all := schema.All()
	infos := make([]schemaInfo, 0, len(all))
	for _, s := range all {
		infos = append(infos, describeSchema(s, false))
	}
	renderPage(w, http.StatusOK, "index", infos)
}

func handleForm(w http.ResponseWriter, r *http.Request) {
	s, _, err := lookupService(r.PathValue("schema"))
	if errors.Is(err, schema.ErrUnknownSchema) {
		http.NotFound(w, r)
		return
	}
	page := newFormPage(s, s.Defaults())
	status := http.StatusOK
	if err != nil {
		page.ModelError = modelErrorText(err)
		status = http.StatusServiceUnavailable
	}
	renderPage(w, status, "form", page)
}

func handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	s, svc, err := lookupService(r.PathValue("schema"))
	if errors.Is(err, schema.ErrUnknownSchema) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		// 模型不可用时不处理任何输入
		page := newFormPage(s, s.Defaults())
		page.ModelError = modelErrorText(err)
		renderPage(w, http.StatusServiceUnavailable, "form", page)
		return
	}

	if err := r.ParseForm(); err != nil {
		page := newFormPage(s, s.Defaults())
		page.InputError = err.Error()
		renderPage(w, http.StatusBadRequest, "form", page)
		return
	}
	// 只收集表单字段，其余键（例如提交按钮）忽略
	values := make(map[string]string, len(s.Fields))
	for _, name := range s.Columns() {
		if _, ok := r.PostForm[name]; ok {
			values[name] = r.PostForm.Get(name)
		}
	}

	record, err := s.Collect(values)
	if err != nil {
		page := newFormPage(s, s.Defaults())
		page.InputError = err.Error()
		renderPage(w, http.StatusBadRequest, "form", page)
		return
	}

	page := newFormPage(s, record)
	a, err := svc.AssignRecord(r.Context(), record)
	if err != nil {
		page.InputError = err.Error()
		renderPage(w, statusFor(err), "form", page)
		return
	}
	page.Result = newFormResult(s, a)
	renderPage(w, http.StatusOK, "form", page)
}

func newFormPage(s *schema.Schema, record schema.Record) formPage {
	page := formPage{
		Schema: s.Name,
		Title:  s.Title,
		Button: "Classify",
	}
	if s.Descriptions {
		page.Caption = phenotype.Caption
		page.Button = "Assign HFpEF Phenotype"
	}

	byGroup := make(map[string]*formGroup)
	for _, f := range s.Fields {
		g, ok := byGroup[f.Group]
		if !ok {
			g = &formGroup{Title: f.Group}
			byGroup[f.Group] = g
		}
		v, _ := record.Get(f.Name)
		ff := formField{
			Name:  f.Name,
			Label: f.Label,
			Value: record.Display(f.Name),
			Min:   formatNumber(f.Min),
			Step:  formatNumber(f.Step),
			Flag:  f.Kind == schema.Flag,
			Yes:   f.Kind == schema.Flag && v == 1,
		}
		if f.HasMax {
			ff.Max = formatNumber(f.Max)
		}
		g.Fields = append(g.Fields, ff)
		page.Summary = append(page.Summary, summaryCell{Name: f.Name, Value: formatNumber(v)})
	}

	// 实验室指标与生命体征并排显示，合并症单独一行
	for _, title := range []string{"Laboratory Measurements", "Vital Signs"} {
		if g, ok := byGroup[title]; ok {
			page.Columns = append(page.Columns, *g)
			delete(byGroup, title)
		}
	}
	for _, title := range s.Groups() {
		if g, ok := byGroup[title]; ok {
			page.Rows = append(page.Rows, *g)
		}
	}
	return page
}

func newFormResult(s *schema.Schema, a *inference.Assignment) *formResult {
	if s.Descriptions {
		return &formResult{
			Heading:     "Phenotype Assignment Result",
			Label:       fmt.Sprintf("Assigned HFpEF Phenotype: Phenotype %d", a.Result.Label),
			Confidence:  "Phenotype assignment confidence: " + formatConfidence(a.Result.Confidence),
			Description: a.Description,
			Disclaimer:  phenotype.Disclaimer,
		}
	}
	return &formResult{
		Heading:    "Classification Result",
		Label:      fmt.Sprintf("Predicted class: %d", a.Result.Label),
		Confidence: "Prediction confidence: " + formatConfidence(a.Result.Confidence),
	}
}

func modelErrorText(err error) string {
	if errors.Is(err, ml.ErrArtifactLoad) || errors.Is(err, ml.ErrSchemaMismatch) {
		return "Failed to load model file: " + err.Error()
	}
	if errors.Is(err, inference.ErrModelUnavailable) {
		return err.Error()
	}
	return "Failed to load model: " + err.Error()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func renderPage(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		currentLogger().Error("template render failed", zap.String("template", name), zap.Error(err))
	}
}
