package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"phenomap/ml"
	"phenomap/schema"
)

func writeModel(t *testing.T) string {
	t.Helper()
	a := &ml.Artifact{
		Schema:    schema.Phenotype.Name,
		Features:  schema.Phenotype.Columns(),
		Classes:   []int{1, 2, 3},
		ModelType: ml.TypeDecisionTree,
		Nodes: []ml.TreeNode{
			{FeatureIdx: 7, Threshold: 0.5, LeftChild: 1, RightChild: 2},
			{IsLeaf: true, Distribution: []float64{1, 2, 7}},
			{IsLeaf: true, Distribution: []float64{7, 2, 1}},
		},
	}
	path := filepath.Join(t.TempDir(), "clf.json")
	if err := a.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func TestRunText(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), &out, schema.Phenotype.Name, writeModel(t), map[string]string{"renal_disease": "Yes"}, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"Assigned HFpEF Phenotype: Phenotype 1",
		"Phenotype assignment confidence: 0.70",
		"Diabetic and Renal Phenotype",
		"renal_disease  Yes",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestRunJSON(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), &out, schema.Phenotype.Name, writeModel(t), nil, true); err != nil {
		t.Fatalf("run: %v", err)
	}
	var payload struct {
		Result struct {
			Label      int     `json:"label"`
			Confidence float64 `json:"confidence"`
		} `json:"result"`
		Inputs map[string]float64 `json:"inputs"`
	}
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out.String())
	}
	if payload.Result.Label != 3 || payload.Result.Confidence != 0.7 {
		t.Fatalf("unexpected result %+v", payload.Result)
	}
	if payload.Inputs["platelet"] != 250 {
		t.Fatalf("unexpected inputs %v", payload.Inputs)
	}
}

func TestRunMissingModel(t *testing.T) {
	err := run(context.Background(), &bytes.Buffer{}, schema.Phenotype.Name, filepath.Join(t.TempDir(), "clf.json"), nil, false)
	if err == nil || !strings.Contains(err.Error(), "failed to load model artifact") {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestSetFlags(t *testing.T) {
	s := setFlags{}
	if err := s.Set("spo2=97"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("spo2"); err == nil {
		t.Fatal("expected error for missing value")
	}
	if s["spo2"] != "97" {
		t.Fatalf("unexpected flags %v", s)
	}
}

func TestRunUnknownField(t *testing.T) {
	err := run(context.Background(), &bytes.Buffer{}, schema.Phenotype.Name, writeModel(t), map[string]string{"sp02": "90"}, false)
	if !errors.Is(err, schema.ErrInvalidInput) {
		t.Fatalf("expected invalid input for a misspelled field, got %v", err)
	}
}
