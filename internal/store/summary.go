package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/moby/sys/atomicwriter"

	"github.com/antigravity-dev/corpusgen/internal/axis"
)

// BucketCoverage reports one bucket's progress toward its configured
// target share.
type BucketCoverage struct {
	Bucket      axis.Bucket `json:"bucket"`
	Count       int         `json:"count"`
	TargetShare float64     `json:"target_share"`
	ActualShare float64     `json:"actual_share"`
}

// AxisCoverage reports every bucket's coverage for one axis.
type AxisCoverage struct {
	Axis    axis.Axis        `json:"axis"`
	Buckets []BucketCoverage `json:"buckets"`
}

// Dashboard is the machine-readable snapshot served by GET /dashboard
// and written to summary.json.
type Dashboard struct {
	Issued    int            `json:"issued"`
	Submitted int            `json:"submitted"`
	Remaining int            `json:"remaining"`
	Axes      []AxisCoverage `json:"axes"`
}

// Dashboard builds the current coverage snapshot against generationTarget
// (issued's ceiling), used both for the HTTP dashboard endpoint and the
// on-disk summary exports.
func (s *Store) Dashboard(generationTarget int) Dashboard {
	snap := s.counters.Snapshot()
	remaining := generationTarget - snap.Issued
	if remaining < 0 {
		remaining = 0
	}

	d := Dashboard{Issued: snap.Issued, Submitted: snap.Submitted, Remaining: remaining}
	for _, a := range axis.Ordered {
		spec := s.catalog[a]
		if len(spec.Buckets) == 0 {
			continue
		}
		cov := AxisCoverage{Axis: a}
		for _, share := range spec.Buckets {
			count := snap.Buckets[a][share.Bucket]
			actual := 0.0
			if snap.Issued > 0 {
				actual = float64(count) / float64(snap.Issued)
			}
			cov.Buckets = append(cov.Buckets, BucketCoverage{
				Bucket:      share.Bucket,
				Count:       count,
				TargetShare: share.Target,
				ActualShare: actual,
			})
		}
		d.Axes = append(d.Axes, cov)
	}
	return d
}

// writeSummaries regenerates summary.json and summary.md from the
// current counters against the configured generation target.
func (s *Store) writeSummaries() error {
	s.mu.RLock()
	target := s.generationTarget
	s.mu.RUnlock()
	d := s.Dashboard(target)

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal summary: %w", err)
	}
	if err := atomicwriter.WriteFile(filepath.Join(s.dir, summaryJSONName), data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", summaryJSONName, err)
	}

	md := renderSummaryMarkdown(d)
	if err := atomicwriter.WriteFile(filepath.Join(s.dir, summaryMDName), []byte(md), 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", summaryMDName, err)
	}
	return nil
}

func renderSummaryMarkdown(d Dashboard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Corpus generation summary\n\n")
	fmt.Fprintf(&b, "- Issued: %s\n", humanize.Comma(int64(d.Issued)))
	fmt.Fprintf(&b, "- Submitted: %s\n", humanize.Comma(int64(d.Submitted)))
	fmt.Fprintf(&b, "- Remaining: %s\n\n", humanize.Comma(int64(d.Remaining)))

	axes := make([]AxisCoverage, len(d.Axes))
	copy(axes, d.Axes)
	sort.Slice(axes, func(i, j int) bool { return axes[i].Axis < axes[j].Axis })

	for _, cov := range axes {
		fmt.Fprintf(&b, "## %s\n\n", cov.Axis)
		fmt.Fprintf(&b, "| bucket | count | target share | actual share |\n")
		fmt.Fprintf(&b, "|---|---:|---:|---:|\n")
		for _, bucket := range cov.Buckets {
			name := string(bucket.Bucket)
			if name == "" {
				name = "(none)"
			}
			fmt.Fprintf(&b, "| %s | %s | %.1f%% | %.1f%% |\n",
				name,
				humanize.Comma(int64(bucket.Count)),
				bucket.TargetShare*100,
				bucket.ActualShare*100,
			)
		}
		b.WriteString("\n")
	}
	return b.String()
}
