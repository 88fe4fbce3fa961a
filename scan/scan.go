// Package scan traverses template repositories, inventories semantic
// references per submodel, and reports elements whose semantic id has no
// matching concept description.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/semlink/aas"
)

// noIDShort stands in for elements without an idShort of their own.
const noIDShort = "<no-idShort>"

// supplementalOwner marks rows whose reference belongs to the element of
// the preceding primary row.
const supplementalOwner = "|_>"

var numericDir = regexp.MustCompile(`^\d+$`)

// FindDocuments walks a template repository and picks one JSON file per
// template directory. Directories whose name is purely numeric are version
// directories: only the highest version is descended. Within a directory
// that contains JSON files, a *template*.json is preferred, otherwise the
// lexicographically first JSON; once a file is picked the subtree below it
// is not descended. Exclude patterns are doublestar globs matched against
// the path relative to root.
func FindDocuments(root string, excludes []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %q is not a directory", root)
	}

	var picked []string
	if err := findDocumentsDir(root, root, false, excludes, &picked); err != nil {
		return nil, err
	}
	return picked, nil
}

func findDocumentsDir(root, dir string, pickHere bool, excludes []string, picked *[]string) error {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return err
	}
	if rel != "." && excluded(rel, excludes) {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	// The repository root itself never holds a template document.
	if pickHere {
		if chosen := pickJSON(dir, entries, root, excludes); chosen != "" {
			*picked = append(*picked, chosen)
			return nil
		}
	}

	subdirs := make([]os.DirEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e)
		}
	}

	// Numeric children are version directories: keep only the newest.
	if newest := newestNumeric(subdirs); newest != "" {
		return findDocumentsDir(root, filepath.Join(dir, newest), true, excludes, picked)
	}

	sort.Slice(subdirs, func(i, j int) bool { return subdirs[i].Name() < subdirs[j].Name() })
	for _, d := range subdirs {
		if err := findDocumentsDir(root, filepath.Join(dir, d.Name()), true, excludes, picked); err != nil {
			return err
		}
	}
	return nil
}

func pickJSON(dir string, entries []os.DirEntry, root string, excludes []string) string {
	var jsons []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		full := filepath.Join(dir, e.Name())
		if rel, err := filepath.Rel(root, full); err == nil && excluded(rel, excludes) {
			continue
		}
		jsons = append(jsons, e.Name())
	}
	if len(jsons) == 0 {
		return ""
	}
	sort.Strings(jsons)
	for _, name := range jsons {
		if strings.Contains(strings.ToLower(name), "template") {
			return filepath.Join(dir, name)
		}
	}
	return filepath.Join(dir, jsons[0])
}

func newestNumeric(dirs []os.DirEntry) string {
	best := -1
	name := ""
	for _, d := range dirs {
		if !numericDir.MatchString(d.Name()) {
			continue
		}
		n, err := strconv.Atoi(d.Name())
		if err != nil {
			continue
		}
		if n > best {
			best = n
			name = d.Name()
		}
	}
	return name
}

func excluded(rel string, excludes []string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range excludes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// SemanticRef is one semantic reference occurrence in a submodel tree.
type SemanticRef struct {
	Owner      string // idShort, "<no-idShort>", "... [LIST-ELEMENT]", or "|_>"
	SemanticID string
	Path       string // absolute path into the document
}

// SemanticRow joins a reference with its concept description match.
type SemanticRow struct {
	Owner          string
	SemanticID     string
	Path           string
	ConceptIDShort string
	IsCaseOf       []string
	Missing        bool
}

// ConceptRow describes one concept description relative to a submodel.
type ConceptRow struct {
	IDShort  string
	ID       string
	IsCaseOf []string
	Unlinked bool // not referenced by any semantic id in this submodel
}

// SubmodelReport is the scan result for one submodel of one file.
type SubmodelReport struct {
	File     string
	Submodel string
	SemRows  []SemanticRow
	CDRows   []ConceptRow
}

// MissingCount returns the number of references without a concept match.
func (r *SubmodelReport) MissingCount() int {
	n := 0
	for _, row := range r.SemRows {
		if row.Missing {
			n++
		}
	}
	return n
}

// UnlinkedCount returns the number of concept descriptions unused by this
// submodel.
func (r *SubmodelReport) UnlinkedCount() int {
	n := 0
	for _, row := range r.CDRows {
		if row.Unlinked {
			n++
		}
	}
	return n
}

// MissingTarget is a linkable element whose semantic id has no concept
// description in the same document.
type MissingTarget struct {
	File       string `json:"file"`
	IDShort    string `json:"idShort"`
	SemanticID string `json:"semanticId"`
	Path       string `json:"absPath"`
}

// CollectSemanticRefs walks a node tree gathering every semanticId,
// semanticIdListElement, and supplementalSemanticIds occurrence, in
// document order.
func CollectSemanticRefs(node *aas.Node, path string) []SemanticRef {
	var out []SemanticRef
	collectRefs(node, path, &out)
	return out
}

func collectRefs(node *aas.Node, path string, out *[]SemanticRef) {
	switch node.Kind() {
	case aas.KindObject:
		owner := node.StringField("idShort")
		if owner == "" {
			owner = noIDShort
		}

		if sid, ok := node.Field("semanticId"); ok {
			if uris := aas.RefURIs(sid); len(uris) > 0 {
				*out = append(*out, SemanticRef{Owner: owner, SemanticID: uris[0], Path: path})
			}
		}
		if sidLE, ok := node.Field("semanticIdListElement"); ok {
			if uris := aas.RefURIs(sidLE); len(uris) > 0 {
				*out = append(*out, SemanticRef{Owner: owner + " [LIST-ELEMENT]", SemanticID: uris[0], Path: path})
			}
		}
		if supps, ok := node.Field("supplementalSemanticIds"); ok && supps.Kind() == aas.KindArray {
			for i := 0; i < supps.Len(); i++ {
				ref, _ := supps.Index(i)
				for _, v := range aas.RefURIs(ref) {
					*out = append(*out, SemanticRef{Owner: supplementalOwner, SemanticID: v, Path: path})
				}
			}
		}

		for _, key := range node.Keys() {
			child, _ := node.Field(key)
			collectRefs(child, joinPath(path, key), out)
		}

	case aas.KindArray:
		for i := 0; i < node.Len(); i++ {
			child, _ := node.Index(i)
			collectRefs(child, joinPath(path, strconv.Itoa(i)), out)
		}
	}
}

func joinPath(base, step string) string {
	if base == "" {
		return step
	}
	return base + "/" + step
}

// ScanDocument builds one report per submodel, matching each semantic
// reference against the document's concept descriptions. A reference whose
// semantic id matches several concept descriptions yields one row per match.
func ScanDocument(doc *aas.Document, file string) []SubmodelReport {
	var reports []SubmodelReport

	submodels, ok := doc.Root.Field("submodels")
	if !ok || submodels.Kind() != aas.KindArray {
		return reports
	}

	for i := 0; i < submodels.Len(); i++ {
		sm, _ := submodels.Index(i)
		if sm.Kind() != aas.KindObject {
			continue
		}

		name := sm.StringField("idShort")
		if name == "" {
			name = "<no-submodel-idShort>"
		}

		refs := CollectSemanticRefs(sm, fmt.Sprintf("submodels/%d", i))

		rep := SubmodelReport{File: file, Submodel: name}
		usedIDs := make(map[string]bool, len(refs))
		for _, ref := range refs {
			usedIDs[ref.SemanticID] = true

			matches := doc.MatchConcepts(ref.SemanticID)
			if len(matches) == 0 {
				rep.SemRows = append(rep.SemRows, SemanticRow{
					Owner:      ref.Owner,
					SemanticID: ref.SemanticID,
					Path:       ref.Path,
					Missing:    true,
				})
				continue
			}
			for _, cd := range matches {
				rep.SemRows = append(rep.SemRows, SemanticRow{
					Owner:          ref.Owner,
					SemanticID:     ref.SemanticID,
					Path:           ref.Path,
					ConceptIDShort: cd.IDShort,
					IsCaseOf:       cd.IsCaseOf,
				})
			}
		}

		for _, cd := range doc.ConceptDescriptions() {
			if cd.ID == "" {
				continue
			}
			rep.CDRows = append(rep.CDRows, ConceptRow{
				IDShort:  cd.IDShort,
				ID:       cd.ID,
				IsCaseOf: cd.IsCaseOf,
				Unlinked: !usedIDs[cd.ID],
			})
		}

		reports = append(reports, rep)
	}

	return reports
}

// MissingTargets extracts the linkable elements from a set of reports:
// rows with a primary owner (not supplemental) and no concept match.
func MissingTargets(reports []SubmodelReport) []MissingTarget {
	var targets []MissingTarget
	for _, rep := range reports {
		for _, row := range rep.SemRows {
			if !row.Missing || row.Owner == supplementalOwner {
				continue
			}
			targets = append(targets, MissingTarget{
				File:       rep.File,
				IDShort:    row.Owner,
				SemanticID: row.SemanticID,
				Path:       row.Path,
			})
		}
	}
	return targets
}

// ScanFile reads, decodes, and scans one AAS JSON file.
func ScanFile(path string) ([]SubmodelReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := aas.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return ScanDocument(doc, path), nil
}
