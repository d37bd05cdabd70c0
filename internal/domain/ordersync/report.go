package ordersync

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/warehouse/stocksync/internal/domain/marketplace"
)

// PlatformRunReport summarises one platform's ingestion and push for a run
type PlatformRunReport struct {
	Platform marketplace.Platform `json:"platform"`
	// Fetched is the number of orders the platform returned
	Fetched int `json:"fetched"`
	// Processed counts orders newly applied to the ledger
	Processed int `json:"processed"`
	// Duplicates counts orders skipped because they were already applied
	Duplicates int `json:"duplicates"`
	// Failed counts orders that could not be applied and will be retried
	Failed     int       `json:"failed"`
	Sent       int       `json:"sent"`
	Skipped    string    `json:"skipped,omitempty"`
	Errors     []string  `json:"errors"`
	Warnings   []string  `json:"warnings"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	CursorFrom time.Time `json:"cursor_from"`
	// CursorAdvanced is true when the poll cursor was moved forward
	CursorAdvanced bool `json:"cursor_advanced"`
	// ChangedItems lists internal item ids whose ledger entries changed, in first-touch order
	ChangedItems []string                        `json:"changed_items,omitempty"`
	Push         *marketplace.PlatformSyncResult `json:"push,omitempty"`
}

// NewPlatformRunReport creates an empty report
func NewPlatformRunReport(p marketplace.Platform) *PlatformRunReport {
	return &PlatformRunReport{
		Platform: p,
		Errors:   []string{},
		Warnings: []string{},
	}
}

// AddError records an error message
func (r *PlatformRunReport) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// AddWarning records a warning message
func (r *PlatformRunReport) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// MarkChanged records itemID as changed once
func (r *PlatformRunReport) MarkChanged(itemID string) {
	for _, id := range r.ChangedItems {
		if id == itemID {
			return
		}
	}
	r.ChangedItems = append(r.ChangedItems, itemID)
}

// HasErrors returns true if any error was recorded
func (r *PlatformRunReport) HasErrors() bool {
	return len(r.Errors) > 0
}

// RunSummary is the structured result of one scheduled or manual run
type RunSummary struct {
	RunID      string                                      `json:"run_id"`
	StartedAt  time.Time                                   `json:"started_at"`
	FinishedAt time.Time                                   `json:"finished_at"`
	Platforms  map[marketplace.Platform]*PlatformRunReport `json:"platforms"`
	Summary    string                                      `json:"summary"`
}

// NewRunSummary creates an empty summary
func NewRunSummary(runID string, startedAt time.Time) *RunSummary {
	return &RunSummary{
		RunID:     runID,
		StartedAt: startedAt,
		Platforms: make(map[marketplace.Platform]*PlatformRunReport),
	}
}

// Report returns the platform report, creating it on first use
func (s *RunSummary) Report(p marketplace.Platform) *PlatformRunReport {
	r, ok := s.Platforms[p]
	if !ok {
		r = NewPlatformRunReport(p)
		s.Platforms[p] = r
	}
	return r
}

// Finish stamps the end time and renders the human-readable summary
func (s *RunSummary) Finish(at time.Time) {
	s.FinishedAt = at
	s.Summary = s.render()
}

func (s *RunSummary) render() string {
	platforms := make([]string, 0, len(s.Platforms))
	for p := range s.Platforms {
		platforms = append(platforms, string(p))
	}
	sort.Strings(platforms)

	parts := make([]string, 0, len(platforms))
	for _, code := range platforms {
		r := s.Platforms[marketplace.Platform(code)]
		status := "ok"
		switch {
		case r.Skipped != "":
			status = "skipped: " + r.Skipped
		case r.HasErrors():
			status = fmt.Sprintf("%d error(s)", len(r.Errors))
		}
		parts = append(parts, fmt.Sprintf("%s: processed %d, duplicates %d, failed %d, sent %d (%s)",
			strings.ToUpper(code), r.Processed, r.Duplicates, r.Failed, r.Sent, status))
	}
	return strings.Join(parts, "; ")
}
