package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/internal/model"
)

func testPackage(id, version, category string) model.TaskPackage {
	return model.TaskPackage{
		PackageID: id,
		Version:   version,
		Title:     "Test package " + id,
		Intent: model.IntentSpec{
			Category:            category,
			Verbs:               []string{"echo"},
			Entities:            []string{"message"},
			ConfidenceThreshold: 0.3,
		},
		InputContract: model.Contract{Fields: []model.ContractField{
			{Name: "message", Type: "string", Required: true},
		}},
		OutputContract: model.Contract{Fields: []model.ContractField{
			{Name: "output", Type: "string", Required: true},
		}},
		Pipeline: model.Pipeline{Steps: []model.PipelineStep{
			{
				StepID:  "echo",
				Worker:  model.WorkerRef{WorkerID: "echo_worker", Version: "1.0.0", Status: model.WorkerAvailable},
				Inputs:  []string{"message"},
				Outputs: []string{"output"},
			},
		}},
	}
}

func TestAddAndGet(t *testing.T) {
	ws := t.TempDir()
	r := New(ws)

	pkg := testPackage("utility.echo", "1.0.0", "utility")
	path, err := r.Add(pkg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws, "packages", "utility", "echo", "v1.0.0", "package.yaml"), path)

	got, err := r.Get("utility.echo", "1.0.0")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, pkg.PackageID, got.PackageID)
	assert.Equal(t, pkg.Intent.Verbs, got.Intent.Verbs)
	assert.Equal(t, pkg.Pipeline.Steps[0].Worker.WorkerID, got.Pipeline.Steps[0].Worker.WorkerID)
}

func TestAddRejectsDuplicate(t *testing.T) {
	r := New(t.TempDir())
	pkg := testPackage("utility.echo", "1.0.0", "utility")

	_, err := r.Add(pkg)
	require.NoError(t, err)

	_, err = r.Add(pkg)
	require.ErrorIs(t, err, ErrAlreadyExists)

	// A new version of the same package is a distinct identity.
	pkg.Version = "1.1.0"
	_, err = r.Add(pkg)
	assert.NoError(t, err)
}

func TestAddRejectsMalformedID(t *testing.T) {
	r := New(t.TempDir())
	pkg := testPackage("nodot", "1.0.0", "utility")
	_, err := r.Add(pkg)
	assert.Error(t, err)
}

func TestGetAbsentAndCorrupt(t *testing.T) {
	ws := t.TempDir()
	r := New(ws)

	got, err := r.Get("utility.missing", "1.0.0")
	require.NoError(t, err)
	assert.Nil(t, got)

	path := filepath.Join(ws, "packages", "utility", "broken", "v1.0.0", "package.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("package_id: [unclosed"), 0o644))

	got, err = r.Get("utility.broken", "1.0.0")
	require.NoError(t, err)
	assert.Nil(t, got, "corrupted record must load as nil")
}

func TestListOrderAndFilter(t *testing.T) {
	r := New(t.TempDir())

	// Added out of order on purpose.
	for _, p := range []model.TaskPackage{
		testPackage("media.convert", "2.0.0", "media"),
		testPackage("utility.echo", "1.0.0", "utility"),
		testPackage("media.convert", "1.0.0", "media"),
	} {
		_, err := r.Add(p)
		require.NoError(t, err)
	}

	all, err := r.List("")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "media.convert", all[0].PackageID)
	assert.Equal(t, "1.0.0", all[0].Version)
	assert.Equal(t, "media.convert", all[1].PackageID)
	assert.Equal(t, "2.0.0", all[1].Version)
	assert.Equal(t, "utility.echo", all[2].PackageID)

	media, err := r.List("media")
	require.NoError(t, err)
	assert.Len(t, media, 2)
}

func TestListDetailedReportsSkips(t *testing.T) {
	ws := t.TempDir()
	r := New(ws)

	_, err := r.Add(testPackage("utility.echo", "1.0.0", "utility"))
	require.NoError(t, err)

	path := filepath.Join(ws, "packages", "utility", "broken", "v1.0.0", "package.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("package_id: [unclosed"), 0o644))

	pkgs, skipped, err := r.ListDetailed("")
	require.NoError(t, err)
	assert.Len(t, pkgs, 1)
	require.Len(t, skipped, 1)
	assert.Equal(t, path, skipped[0].Path)
	assert.NotEmpty(t, skipped[0].Reason)
}

func TestSearch(t *testing.T) {
	r := New(t.TempDir())

	echo := testPackage("utility.echo", "1.0.0", "utility")
	convert := testPackage("media.convert", "1.0.0", "media")
	convert.Intent.Verbs = []string{"convert", "transform"}
	convert.Intent.Entities = []string{"image", "photo"}

	for _, p := range []model.TaskPackage{echo, convert} {
		_, err := r.Add(p)
		require.NoError(t, err)
	}

	byVerb, err := r.Search("", []string{"convert"}, nil)
	require.NoError(t, err)
	require.Len(t, byVerb, 1)
	assert.Equal(t, "media.convert", byVerb[0].PackageID)

	byEntity, err := r.Search("", nil, []string{"message"})
	require.NoError(t, err)
	require.Len(t, byEntity, 1)
	assert.Equal(t, "utility.echo", byEntity[0].PackageID)

	none, err := r.Search("utility", []string{"convert"}, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}
