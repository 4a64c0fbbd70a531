package ml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phenomap/schema"
)

func phenotypeArtifact() *Artifact {
	return &Artifact{
		Schema:    schema.Phenotype.Name,
		Features:  schema.Phenotype.Columns(),
		Classes:   []int{1, 2, 3},
		ModelType: TypeDecisionTree,
		Nodes:     phenotypeTree(),
	}
}

func writeArtifact(t *testing.T, a *Artifact) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clf.json")
	require.NoError(t, a.Save(path))
	return path
}

func TestLoadModel(t *testing.T) {
	path := writeArtifact(t, phenotypeArtifact())

	m, err := LoadModel(path, schema.Phenotype)
	require.NoError(t, err)
	assert.Equal(t, TypeDecisionTree, m.Type)
	assert.Equal(t, []int{1, 2, 3}, m.Classes)
	assert.Equal(t, schema.Phenotype.Columns(), m.Features)
}

func TestLoadModelMissingFile(t *testing.T) {
	_, err := LoadModel(filepath.Join(t.TempDir(), "clf.json"), schema.Phenotype)
	require.ErrorIs(t, err, ErrArtifactLoad)
	assert.Contains(t, err.Error(), "clf.json")
}

func TestLoadModelCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clf.json")
	require.NoError(t, os.WriteFile(path, []byte("\x80\x04\x95pickle"), 0o600))
	_, err := LoadModel(path, schema.Phenotype)
	require.ErrorIs(t, err, ErrArtifactLoad)
}

func TestLoadModelUnsupported(t *testing.T) {
	a := phenotypeArtifact()
	a.ModelType = "tabpfn"
	_, err := LoadModel(writeArtifact(t, a), schema.Phenotype)
	require.ErrorIs(t, err, ErrUnsupportedModel)
	require.ErrorIs(t, err, ErrArtifactLoad)
}

func TestLoadModelSchemaMismatch(t *testing.T) {
	swapped := phenotypeArtifact()
	swapped.Features[0], swapped.Features[1] = swapped.Features[1], swapped.Features[0]

	wrongName := phenotypeArtifact()
	wrongName.Schema = schema.Hematology.Name

	zeroBased := phenotypeArtifact()
	zeroBased.Classes = []int{0, 1, 2}

	short := phenotypeArtifact()
	short.Features = short.Features[:13]

	for name, a := range map[string]*Artifact{
		"swapped columns": swapped,
		"wrong schema":    wrongName,
		"zero based":      zeroBased,
		"short":           short,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadModel(writeArtifact(t, a), schema.Phenotype)
			require.ErrorIs(t, err, ErrSchemaMismatch)
		})
	}
}

func TestLoadModelLogistic(t *testing.T) {
	cols := schema.Hematology.Columns()
	coef := make([][]float64, 2)
	for i := range coef {
		coef[i] = make([]float64, len(cols))
	}
	coef[1][len(cols)-1] = 3 // diabetes
	a := &Artifact{
		Schema:       schema.Hematology.Name,
		Features:     cols,
		Classes:      []int{0, 1},
		ModelType:    TypeLogisticRegression,
		Coefficients: coef,
		Intercepts:   []float64{0, -1},
	}
	m, err := LoadModel(writeArtifact(t, a), schema.Hematology)
	require.NoError(t, err)
	assert.Equal(t, TypeLogisticRegression, m.Type)
}

func TestStoreLoadsOnce(t *testing.T) {
	st, err := NewStore(0, nil)
	require.NoError(t, err)

	calls := 0
	st.load = func(path string, s *schema.Schema) (*Model, error) {
		calls++
		return LoadModel(path, s)
	}
	path := writeArtifact(t, phenotypeArtifact())

	first, err := st.Get(path, schema.Phenotype)
	require.NoError(t, err)
	second, err := st.Get(path, schema.Phenotype)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, st.Len())
}

func TestStoreDoesNotCacheFailures(t *testing.T) {
	st, err := NewStore(2, nil)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "clf.json")

	_, err = st.Get(path, schema.Phenotype)
	require.ErrorIs(t, err, ErrArtifactLoad)

	require.NoError(t, phenotypeArtifact().Save(path))
	_, err = st.Get(path, schema.Phenotype)
	require.NoError(t, err)
}
