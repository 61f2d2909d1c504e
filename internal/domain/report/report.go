// Package report assembles the ranked markdown risk report.
//
// Everything here is a pure function of its input: no I/O, no clock reads.
// Writing the rendered markdown anywhere is the caller's responsibility.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/groupscholar/earlywarn/internal/domain/model"
)

// Defaults for report assembly.
const (
	DefaultTopRiskLimit = 10
	recentNotesLimit    = 5
	dateLayout          = "2006-01-02"
)

// Params carries the window and scope the report describes.
type Params struct {
	// Scope is the cohort label, or the scholar email for single-scholar
	// reports. Empty means "all cohorts".
	Scope     string
	SinceDays int
	Cutoff    time.Time
	// TopRiskLimit caps the ranked list. Zero means DefaultTopRiskLimit.
	TopRiskLimit int
}

// TypeSummary aggregates one signal type across the whole scope.
type TypeSummary struct {
	SignalType  string
	Count       int
	AvgSeverity float64
}

// Rank orders scored scholars for presentation: score descending, ties
// broken by full name ascending. The input is not mutated.
func Rank(scored []model.ScoredScholar) []model.ScoredScholar {
	ranked := make([]model.ScoredScholar, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].FullName < ranked[j].FullName
	})
	return ranked
}

// SummarizeByType totals per-type counts and average severity across the
// window, most frequent type first.
func SummarizeByType(records []model.SignalRecord) []TypeSummary {
	type acc struct {
		count    int
		severity int
	}
	byType := make(map[string]*acc)
	for i := range records {
		a, ok := byType[records[i].SignalType]
		if !ok {
			a = &acc{}
			byType[records[i].SignalType] = a
		}
		a.count++
		a.severity += records[i].Severity
	}

	summaries := make([]TypeSummary, 0, len(byType))
	for signalType, a := range byType {
		summaries = append(summaries, TypeSummary{
			SignalType:  signalType,
			Count:       a.count,
			AvgSeverity: float64(a.severity) / float64(a.count),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Count != summaries[j].Count {
			return summaries[i].Count > summaries[j].Count
		}
		return summaries[i].SignalType < summaries[j].SignalType
	})
	return summaries
}

// WeeklyTrend buckets records by ISO week start (Monday), oldest first.
func WeeklyTrend(records []model.SignalRecord) []model.TrendBucket {
	type acc struct {
		count    int
		severity int
		scholars map[string]struct{}
	}
	byWeek := make(map[time.Time]*acc)
	for i := range records {
		week := weekStart(records[i].OccurredAt)
		a, ok := byWeek[week]
		if !ok {
			a = &acc{scholars: make(map[string]struct{})}
			byWeek[week] = a
		}
		a.count++
		a.severity += records[i].Severity
		a.scholars[records[i].ScholarID.String()] = struct{}{}
	}

	buckets := make([]model.TrendBucket, 0, len(byWeek))
	for week, a := range byWeek {
		buckets = append(buckets, model.TrendBucket{
			WeekStart:    week,
			SignalCount:  a.count,
			ScholarCount: len(a.scholars),
			AvgSeverity:  float64(a.severity) / float64(a.count),
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].WeekStart.Before(buckets[j].WeekStart)
	})
	return buckets
}

// weekStart normalizes a date to the Monday of its week, UTC midnight.
func weekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}

// Build renders the full markdown report.
func Build(params Params, scored []model.ScoredScholar, records []model.SignalRecord) string {
	limit := params.TopRiskLimit
	if limit <= 0 {
		limit = DefaultTopRiskLimit
	}
	scope := params.Scope
	if scope == "" {
		scope = "all cohorts"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Cohort Early Warning Report\n\n")
	fmt.Fprintf(&b, "Generated for %s (signals since %s, window %d days)\n\n",
		scope, params.Cutoff.Format(dateLayout), params.SinceDays)

	writeSignalMix(&b, SummarizeByType(records))
	writeTopRisk(&b, Rank(scored), limit)
	writeRecentNotes(&b, records)
	writeWeeklyTrend(&b, WeeklyTrend(records))

	return b.String()
}

func writeSignalMix(b *strings.Builder, summaries []TypeSummary) {
	b.WriteString("## Signal Mix\n\n")
	if len(summaries) == 0 {
		b.WriteString("No signals recorded for this window.\n\n")
		return
	}
	b.WriteString("| Signal Type | Count | Avg Severity |\n")
	b.WriteString("|---|---|---|\n")
	for _, s := range summaries {
		fmt.Fprintf(b, "| %s | %d | %.1f |\n", s.SignalType, s.Count, s.AvgSeverity)
	}
	b.WriteString("\n")
}

func writeTopRisk(b *strings.Builder, ranked []model.ScoredScholar, limit int) {
	b.WriteString("## Top Risk Scholars\n\n")
	if len(ranked) == 0 {
		b.WriteString("No scholars found for this scope.\n\n")
		return
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i, s := range ranked {
		fmt.Fprintf(b, "%d. **%s** (%s, %s) - score %.2f across %d signals%s\n",
			i+1, s.FullName, s.Email, s.Cohort, s.Score, s.SignalCount, mixBreakdown(s.Mix))
	}
	b.WriteString("\n")
}

// mixBreakdown renders a scholar's per-type counts in stable type order.
func mixBreakdown(mix map[string]model.TypeStat) string {
	if len(mix) == 0 {
		return ""
	}
	types := make([]string, 0, len(mix))
	for t := range mix {
		types = append(types, t)
	}
	sort.Strings(types)
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("%s x%d", t, mix[t].Count))
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func writeRecentNotes(b *strings.Builder, records []model.SignalRecord) {
	b.WriteString("## Recent Signal Notes\n\n")
	if len(records) == 0 {
		b.WriteString("No signals recorded for this window.\n\n")
		return
	}
	recent := make([]model.SignalRecord, len(records))
	copy(recent, records)
	sort.SliceStable(recent, func(i, j int) bool {
		if !recent[i].OccurredAt.Equal(recent[j].OccurredAt) {
			return recent[i].OccurredAt.After(recent[j].OccurredAt)
		}
		if recent[i].ScholarName != recent[j].ScholarName {
			return recent[i].ScholarName < recent[j].ScholarName
		}
		return recent[i].SignalType < recent[j].SignalType
	})
	if len(recent) > recentNotesLimit {
		recent = recent[:recentNotesLimit]
	}
	for _, r := range recent {
		fmt.Fprintf(b, "- %s (%s) on %s: %s\n",
			r.ScholarName, r.SignalType, r.OccurredAt.Format(dateLayout), r.Note)
	}
	b.WriteString("\n")
}

func writeWeeklyTrend(b *strings.Builder, buckets []model.TrendBucket) {
	b.WriteString("## Weekly Signal Trend\n\n")
	if len(buckets) == 0 {
		b.WriteString("No weekly trend data available for this window.\n")
		return
	}
	for _, bucket := range buckets {
		fmt.Fprintf(b, "- Week of %s: %d signals across %d scholars (avg severity %.2f)\n",
			bucket.WeekStart.Format(dateLayout), bucket.SignalCount, bucket.ScholarCount, bucket.AvgSeverity)
	}
}
