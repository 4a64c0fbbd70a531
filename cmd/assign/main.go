package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"phenomap/inference"
	"phenomap/ml"
	"phenomap/schema"
)

type setFlags map[string]string

func (s setFlags) String() string {
	parts := make([]string, 0, len(s))
	for k, v := range s {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (s setFlags) Set(value string) error {
	name, v, ok := strings.Cut(value, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", value)
	}
	s[strings.TrimSpace(name)] = strings.TrimSpace(v)
	return nil
}

func main() {
	values := setFlags{}
	schemaName := flag.String("schema", schema.Phenotype.Name, "form schema")
	modelPath := flag.String("model", "clf.json", "model artifact path")
	asJSON := flag.Bool("json", false, "print the assignment as JSON")
	flag.Var(values, "set", "field value as name=value (repeatable)")
	flag.Parse()

	if err := run(context.Background(), os.Stdout, *schemaName, *modelPath, values, *asJSON); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, out io.Writer, schemaName, modelPath string, values map[string]string, asJSON bool) error {
	s, err := schema.Lookup(schemaName)
	if err != nil {
		return err
	}
	model, err := ml.LoadModel(modelPath, s)
	if err != nil {
		return err
	}
	a, err := inference.NewService(s, model).Assign(ctx, values)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*inference.Assignment
			Inputs map[string]float64 `json:"inputs"`
		}{a, a.Inputs()})
	}

	if s.Descriptions {
		fmt.Fprintf(out, "Assigned HFpEF Phenotype: Phenotype %d\n", a.Result.Label)
		fmt.Fprintf(out, "Phenotype assignment confidence: %.2f\n", a.Result.Confidence)
		fmt.Fprintf(out, "\n%s\n", a.Description)
	} else {
		fmt.Fprintf(out, "Predicted class: %d\n", a.Result.Label)
		fmt.Fprintf(out, "Prediction confidence: %.2f\n", a.Result.Confidence)
	}
	fmt.Fprintln(out, "\nInput summary:")
	for _, name := range a.Record.Columns() {
		fmt.Fprintf(out, "  %-14s %s\n", name, a.Record.Display(name))
	}
	return nil
}
