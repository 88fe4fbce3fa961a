package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semlink/aas"
)

const scanEnv = `{
	"submodels": [
		{
			"idShort": "TechnicalData",
			"modelType": "Submodel",
			"semanticId": {"keys": [{"value": "urn:sm:technical-data"}]},
			"submodelElements": [
				{
					"idShort": "RotationSpeed",
					"modelType": "Property",
					"semanticId": {"keys": [{"value": "urn:prop:rotation-speed"}]},
					"supplementalSemanticIds": [
						{"keys": [{"value": "urn:supp:one"}, {"value": "urn:supp:two"}]}
					]
				},
				{
					"idShort": "Measurements",
					"modelType": "SubmodelElementList",
					"semanticId": {"keys": [{"value": "urn:list:measurements"}]},
					"semanticIdListElement": {"keys": [{"value": "urn:list:element"}]}
				},
				{
					"modelType": "Property",
					"semanticId": {"keys": [{"value": "urn:prop:anonymous"}]}
				}
			]
		}
	],
	"conceptDescriptions": [
		{"id": "urn:prop:rotation-speed", "idShort": "RotationSpeed", "isCaseOf": [{"keys": [{"value": "0173-1#02-AAA123#001"}]}]},
		{"id": "urn:cd:orphan", "idShort": "Orphan"}
	]
}`

func scanTestDoc(t *testing.T) *aas.Document {
	t.Helper()
	doc, err := aas.DecodeDocument([]byte(scanEnv))
	require.NoError(t, err)
	return doc
}

func TestCollectSemanticRefs(t *testing.T) {
	doc := scanTestDoc(t)
	sm, err := aas.Resolve(doc.Root, aas.ParsePath("submodels/0"))
	require.NoError(t, err)

	refs := CollectSemanticRefs(sm, "submodels/0")

	want := []SemanticRef{
		{Owner: "TechnicalData", SemanticID: "urn:sm:technical-data", Path: "submodels/0"},
		{Owner: "RotationSpeed", SemanticID: "urn:prop:rotation-speed", Path: "submodels/0/submodelElements/0"},
		{Owner: "|_>", SemanticID: "urn:supp:one", Path: "submodels/0/submodelElements/0"},
		{Owner: "|_>", SemanticID: "urn:supp:two", Path: "submodels/0/submodelElements/0"},
		{Owner: "Measurements", SemanticID: "urn:list:measurements", Path: "submodels/0/submodelElements/1"},
		{Owner: "Measurements [LIST-ELEMENT]", SemanticID: "urn:list:element", Path: "submodels/0/submodelElements/1"},
		{Owner: "<no-idShort>", SemanticID: "urn:prop:anonymous", Path: "submodels/0/submodelElements/2"},
	}
	assert.Equal(t, want, refs)
}

func TestScanDocument(t *testing.T) {
	doc := scanTestDoc(t)
	reports := ScanDocument(doc, "test.json")
	require.Len(t, reports, 1)

	rep := reports[0]
	assert.Equal(t, "TechnicalData", rep.Submodel)
	assert.Equal(t, "test.json", rep.File)

	// One reference resolves, six are missing.
	assert.Equal(t, 6, rep.MissingCount())
	var matched *SemanticRow
	for i := range rep.SemRows {
		if !rep.SemRows[i].Missing {
			matched = &rep.SemRows[i]
		}
	}
	require.NotNil(t, matched)
	assert.Equal(t, "urn:prop:rotation-speed", matched.SemanticID)
	assert.Equal(t, "RotationSpeed", matched.ConceptIDShort)
	assert.Equal(t, []string{"0173-1#02-AAA123#001"}, matched.IsCaseOf)

	// The orphan concept description is unlinked.
	assert.Equal(t, 1, rep.UnlinkedCount())
	require.Len(t, rep.CDRows, 2)
	for _, row := range rep.CDRows {
		assert.Equal(t, row.ID == "urn:cd:orphan", row.Unlinked, row.ID)
	}
}

func TestMissingTargets(t *testing.T) {
	doc := scanTestDoc(t)
	reports := ScanDocument(doc, "test.json")

	targets := MissingTargets(reports)

	// Supplemental rows are not linkable targets.
	for _, target := range targets {
		assert.NotEqual(t, supplementalOwner, target.IDShort)
	}
	require.Len(t, targets, 4)
	assert.Equal(t, "urn:sm:technical-data", targets[0].SemanticID)
	assert.Equal(t, "submodels/0/submodelElements/2", targets[3].Path)
	assert.Equal(t, "<no-idShort>", targets[3].IDShort)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestFindDocuments_VersionDirectories(t *testing.T) {
	root := t.TempDir()
	// Two templates, one with numeric version directories.
	writeFile(t, filepath.Join(root, "Nameplate", "1", "old.json"), "{}")
	writeFile(t, filepath.Join(root, "Nameplate", "2", "nameplate.json"), "{}")
	writeFile(t, filepath.Join(root, "TechnicalData", "techdata.json"), "{}")
	// A file directly under root must not be picked.
	writeFile(t, filepath.Join(root, "stray.json"), "{}")

	files, err := FindDocuments(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "Nameplate", "2", "nameplate.json"),
		filepath.Join(root, "TechnicalData", "techdata.json"),
	}, files)
}

func TestFindDocuments_PrefersTemplate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Nameplate", "aaa.json"), "{}")
	writeFile(t, filepath.Join(root, "Nameplate", "zzz_template.json"), "{}")

	files, err := FindDocuments(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "Nameplate", "zzz_template.json")}, files)
}

func TestFindDocuments_StopsBelowPickedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Nameplate", "nameplate.json"), "{}")
	writeFile(t, filepath.Join(root, "Nameplate", "attachments", "extra.json"), "{}")

	files, err := FindDocuments(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "Nameplate", "nameplate.json")}, files)
}

func TestFindDocuments_Excludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Nameplate", "nameplate.json"), "{}")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "pkg.json"), "{}")

	files, err := FindDocuments(root, []string{"**/node_modules/**", "node_modules"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "Nameplate", "nameplate.json")}, files)
}

func TestFindDocuments_NotADirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "doc.json")
	writeFile(t, file, "{}")

	_, err := FindDocuments(file, nil)
	assert.Error(t, err)
}

func TestScanFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "env.json")
	writeFile(t, path, scanEnv)

	reports, err := ScanFile(path)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, path, reports[0].File)

	_, err = ScanFile(filepath.Join(root, "missing.json"))
	assert.Error(t, err)
}
