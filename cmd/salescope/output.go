package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"salescope/internal/analysis"
	"salescope/internal/logging"
	"salescope/internal/metrics"
	"salescope/internal/store"
)

var metricHeaders = []string{"Area", "Speed", "Interaction", "Attendance"}

func metricCells(r metrics.Results) []string {
	return []string{
		strconv.Itoa(r.Area),
		strconv.Itoa(r.Speed),
		strconv.Itoa(r.Interaction),
		formatRatio(r.Attendance),
	}
}

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func renderBatch(batch analysis.Batch) string {
	spec := tableSpec{
		headers: append([]string{"Video", "Date"}, append(metricHeaders, "Fragments", "Status")...),
		aligns:  []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft},
	}
	for _, report := range batch.Reports {
		row := []string{logging.FormatSubject(report.Job.Shop, report.Job.Video), dashIfEmpty(report.Job.Date)}
		if report.Failed() {
			row = append(row, "-", "-", "-", "-", fragmentList(report), "failed: "+report.Err.Error())
		} else {
			row = append(row, metricCells(report.Results)...)
			row = append(row, fragmentList(report), "ok")
		}
		spec.rows = append(spec.rows, row)
	}
	spec.footer = []string{
		fmt.Sprintf("%d videos", len(batch.Reports)),
		"", "", "", "", "", "",
		fmt.Sprintf("%d failed", batch.FailedCount()),
	}

	var b strings.Builder
	b.WriteString(spec.render())
	b.WriteByte('\n')
	fmt.Fprintf(&b, "Run %s finished in %s\n", batch.RunID, batch.FinishedAt.Sub(batch.StartedAt).Round(time.Millisecond))
	return b.String()
}

func fragmentList(report analysis.Report) string {
	ids := report.Consolidated()
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}

func renderResults(results []store.VideoResult) string {
	spec := tableSpec{
		headers: append([]string{"Shop", "Date", "Salesman", "Video"}, append(metricHeaders, "Run", "Status")...),
		aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft},
	}
	for _, r := range results {
		row := []string{r.Shop, dashIfEmpty(r.Date), dashIfEmpty(r.Salesman), r.Video}
		if r.Failed() {
			row = append(row, "-", "-", "-", "-")
		} else {
			row = append(row, metricCells(r.Metrics)...)
		}
		row = append(row, shortID(r.RunID), resultStatus(r))
		spec.rows = append(spec.rows, row)
	}
	return spec.render() + "\n"
}

func resultStatus(r store.VideoResult) string {
	if r.Failed() {
		return "failed: " + r.Error
	}
	if len(r.Consolidated) > 0 {
		return "ok (subject " + strings.Join(r.Consolidated, ",") + ")"
	}
	return "ok"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
