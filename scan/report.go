package scan

import (
	"fmt"
	"io"
	"strings"
)

const ruleWidth = 140

// WriteReport renders one submodel report as aligned text tables: the
// semantic-reference table with (M) marking references without a concept
// match, the concept-description table with (U) marking concepts unused by
// this submodel, and a summary line.
func WriteReport(w io.Writer, rep *SubmodelReport) {
	if len(rep.SemRows) > 0 {
		writeSemTable(w, rep)
	}
	if len(rep.CDRows) > 0 {
		writeCDTable(w, rep)
	}
	fmt.Fprintf(w, "\nSUMMARY: missing semanticIds (M): %d, unlinked ConceptDescriptions (U): %d\n",
		rep.MissingCount(), rep.UnlinkedCount())
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
}

func writeSemTable(w io.Writer, rep *SubmodelReport) {
	owners := make([]string, len(rep.SemRows))
	concepts := make([]string, len(rep.SemRows))
	cases := make([]string, len(rep.SemRows))
	for i, row := range rep.SemRows {
		owners[i] = row.Owner
		if row.Missing {
			owners[i] += " (M)"
		}
		concepts[i] = row.ConceptIDShort
		if concepts[i] == "" {
			concepts[i] = "NO_CONCEPT"
		}
		cases[i] = joinOrDash(row.IsCaseOf)
	}

	wIdx := numWidth(len(rep.SemRows))
	wOwner := maxLen(owners, len("idShort"))
	wSid := maxLenF(rep.SemRows, len("semanticId"), func(r SemanticRow) string { return r.SemanticID })
	wCd := maxLen(concepts, len("conceptIdShort"))
	wIs := maxLen(cases, len("cd_isCaseOf"))
	wPath := maxLenF(rep.SemRows, len("absPath"), func(r SemanticRow) string { return r.Path })

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	fmt.Fprintf(w, "FILE: %s\n", rep.File)
	fmt.Fprintf(w, "SUBMODEL: %s\n", rep.Submodel)
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))

	fmt.Fprintf(w, "%*s  %-*s   %-*s   %-*s   %-*s   %-*s\n",
		wIdx, "#", wOwner, "idShort", wSid, "semanticId", wCd, "conceptIdShort", wIs, "cd_isCaseOf", wPath, "absPath")
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))

	for i, row := range rep.SemRows {
		fmt.Fprintf(w, "%*d  %-*s   %-*s   %-*s   %-*s   %-*s\n",
			wIdx, i+1, wOwner, owners[i], wSid, row.SemanticID, wCd, concepts[i], wIs, cases[i], wPath, row.Path)
	}
}

func writeCDTable(w io.Writer, rep *SubmodelReport) {
	shorts := make([]string, len(rep.CDRows))
	cases := make([]string, len(rep.CDRows))
	for i, row := range rep.CDRows {
		shorts[i] = row.IDShort
		if shorts[i] == "" {
			shorts[i] = noIDShort
		}
		if row.Unlinked {
			shorts[i] += " (U)"
		}
		cases[i] = joinOrDash(row.IsCaseOf)
	}

	wIdx := numWidth(len(rep.CDRows))
	wShort := maxLen(shorts, len("cd_idShort"))
	wID := maxLenF(rep.CDRows, len("cd_id"), func(r ConceptRow) string { return r.ID })
	wIs := maxLen(cases, len("cd_isCaseOf"))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "CONCEPT DESCRIPTIONS (U = unlinked w.r.t this submodel)")
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
	fmt.Fprintf(w, "%*s  %-*s   %-*s   %-*s\n",
		wIdx, "#", wShort, "cd_idShort", wID, "cd_id", wIs, "cd_isCaseOf")
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))

	for i, row := range rep.CDRows {
		fmt.Fprintf(w, "%*d  %-*s   %-*s   %-*s\n",
			wIdx, i+1, wShort, shorts[i], wID, row.ID, wIs, cases[i])
	}
}

func joinOrDash(vals []string) string {
	if len(vals) == 0 {
		return "-"
	}
	return strings.Join(vals, ", ")
}

func maxLen(vals []string, floor int) int {
	m := floor
	for _, v := range vals {
		if len(v) > m {
			m = len(v)
		}
	}
	return m
}

func maxLenF[T any](rows []T, floor int, f func(T) string) int {
	m := floor
	for _, r := range rows {
		if l := len(f(r)); l > m {
			m = l
		}
	}
	return m
}

func numWidth(n int) int {
	return len(fmt.Sprintf("%d", n))
}
