package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/reoring/kairo"
	"github.com/reoring/kairo/aggregate"
)

func printJSON(w io.Writer, v any, pretty bool) error {
	if iss, ok := v.(kairo.Issues); ok {
		v = issuesJSON(iss)
	}
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

type issueJSON struct {
	Path    string         `json:"path"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params,omitempty"`
}

func issuesJSON(iss kairo.Issues) []issueJSON {
	out := make([]issueJSON, len(iss))
	for i, is := range iss {
		params := make(map[string]any, len(is.Params))
		for k, v := range is.Params {
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			params[k] = v
		}
		out[i] = issueJSON{Path: is.Path, Code: is.Code, Message: is.Message, Params: params}
	}
	return out
}

func renderIssues(w io.Writer, iss kairo.Issues) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Path", "Code", "Message"})
	for _, is := range iss {
		tw.AppendRow(table.Row{is.Path, is.Code, is.Message})
	}
	tw.Render()
}

// reportRows flattens a report into (group, metric, field, value) rows
// ordered by group, then metric, then field. Field names come from ops so
// path fields such as "stats.rev" stay whole.
func reportRows(rep *aggregate.Report[any], ops aggregate.Operations[any]) []table.Row {
	var rows []table.Row
	for _, g := range rep.GroupKeys() {
		addFloats := func(metric string, fields []string, m map[string]float64) {
			for _, f := range fields {
				if v, ok := m[aggregate.FlatKey(g, f)]; ok {
					rows = append(rows, table.Row{g, metric, f, v})
				}
			}
		}
		addFloats("sum", ops.Sum, rep.Totals)
		addFloats("avg", ops.Avg, rep.Averages)
		addFloats("min", ops.Min, rep.Minimums)
		addFloats("max", ops.Max, rep.Maximums)
		for _, f := range ops.Count {
			if f == aggregate.CountAll {
				f = "count"
			}
			if v, ok := rep.Counts[aggregate.FlatKey(g, f)]; ok {
				rows = append(rows, table.Row{g, "count", f, v})
			}
		}
		for name := range ops.Custom {
			if v, ok := rep.Custom[aggregate.FlatKey(g, name)]; ok {
				rows = append(rows, table.Row{g, "custom", name, v})
			}
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for c := 0; c < 3; c++ {
			a, b := rows[i][c].(string), rows[j][c].(string)
			if a != b {
				return a < b
			}
		}
		return false
	})
	return rows
}

func renderReport(w io.Writer, rep *aggregate.Report[any], ops aggregate.Operations[any]) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Group", "Metric", "Field", "Value"})
	for _, r := range reportRows(rep, ops) {
		tw.AppendRow(r)
	}
	tw.AppendFooter(table.Row{"", "", "groups", len(rep.Groups)})
	tw.Render()
}

func reportJSON(rep *aggregate.Report[any]) map[string]any {
	sizes := make(map[string]int, len(rep.Groups))
	for g, items := range rep.Groups {
		sizes[g] = len(items)
	}
	out := map[string]any{
		"groups":   sizes,
		"totals":   rep.Totals,
		"averages": rep.Averages,
		"counts":   rep.Counts,
		"minimums": rep.Minimums,
		"maximums": rep.Maximums,
	}
	if len(rep.Custom) > 0 {
		out["custom"] = rep.Custom
	}
	return out
}

func fingerprintString(v uint64) string { return fmt.Sprintf("%016x", v) }
