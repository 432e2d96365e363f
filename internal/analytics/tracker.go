package analytics

import (
	"math"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/spec-kit/request-analytics/internal/domain"
)

const (
	// DefaultWindowMinutes is used when no window is configured.
	DefaultWindowMinutes = 60
	// DefaultZThreshold is the z-score magnitude above which a record is anomalous.
	DefaultZThreshold = 2.0
	// MinAnomalySamples is the smallest window that anomaly detection will score.
	MinAnomalySamples = 5
	// ReportAnomalyLimit caps how many anomalies a report embeds.
	ReportAnomalyLimit = 5

	defaultMethod = "GET"
	noDataMessage = "No data available"
	reportIDStamp = "20060102150405"
)

// Tracker aggregates request records and derives windowed statistics from them.
// Records are append-only and kept for the lifetime of the tracker.
type Tracker struct {
	mu          sync.RWMutex
	window      time.Duration
	clock       Clock
	records     []domain.RequestRecord
	errorCounts map[string]int
}

// NewTracker builds a tracker whose read operations only see records newer
// than windowMinutes. A nil clock falls back to the system clock.
func NewTracker(windowMinutes float64, clock Clock) *Tracker {
	if windowMinutes < 0 {
		windowMinutes = 0
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Tracker{
		window:      time.Duration(windowMinutes * float64(time.Minute)),
		clock:       clock,
		errorCounts: make(map[string]int),
	}
}

// Window returns the configured trailing window.
func (t *Tracker) Window() time.Duration {
	return t.window
}

// Record appends an observation stamped with the current time.
// Inputs are stored as given; an empty method is recorded as GET.
func (t *Tracker) Record(path string, status int, responseTimeMs float64, method string) {
	if method == "" {
		method = defaultMethod
	}
	rec := domain.RequestRecord{
		Path:         path,
		Status:       status,
		ResponseTime: responseTimeMs,
		Method:       method,
		Timestamp:    t.clock.Now(),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, rec)
	if rec.IsError() {
		t.errorCounts[ErrorKey(status, path)]++
	}
}

// ErrorKey formats the composite key used by ErrorCounts.
func ErrorKey(status int, path string) string {
	return strconv.Itoa(status) + ":" + path
}

// ErrorCounts returns a copy of the per status/path error counters.
func (t *Tracker) ErrorCounts() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int, len(t.errorCounts))
	for k, v := range t.errorCounts {
		out[k] = v
	}
	return out
}

// Records returns a copy of every stored record in insertion order.
func (t *Tracker) Records() []domain.RequestRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.records)
}

// Len returns the number of stored records.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// ResponseTimes returns the response times of records inside the window,
// restricted to path unless path is empty.
func (t *Tracker) ResponseTimes(path string) []float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.responseTimes(path)
}

// Percentile is a convenience wrapper around the package-level Percentile.
func (t *Tracker) Percentile(values []float64, p int) (float64, bool) {
	return Percentile(values, p)
}

// DetectAnomalies scores every windowed record for path against the window's
// sample mean and standard deviation and returns those with |z| > zThreshold.
func (t *Tracker) DetectAnomalies(path string, zThreshold float64) []domain.Anomaly {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.detectAnomalies(path, zThreshold)
}

// GenerateReport summarises the window for path (all paths when empty).
func (t *Tracker) GenerateReport(path string) domain.Report {
	t.mu.RLock()
	defer t.mu.RUnlock()

	times := t.responseTimes(path)
	report := domain.Report{
		ReportID:      "rpt-" + t.clock.Now().Format(reportIDStamp),
		TotalRequests: len(times),
	}
	if len(times) == 0 {
		report.Message = noDataMessage
		return report
	}

	p50, _ := Percentile(times, 50)
	p90, _ := Percentile(times, 90)
	p95, _ := Percentile(times, 95)
	p99, _ := Percentile(times, 99)

	// The all-time numerator over a windowed denominator is the observed
	// contract; WindowedErrorRate keeps both sides inside the window.
	totalErrors := 0
	for _, rec := range t.records {
		if rec.IsError() && matchesPath(rec, path) {
			totalErrors++
		}
	}
	windowedErrors := 0
	cutoff := t.cutoff()
	for _, rec := range t.records {
		if inWindow(rec, cutoff) && rec.IsError() && matchesPath(rec, path) {
			windowedErrors++
		}
	}

	anomalies := t.detectAnomalies(path, DefaultZThreshold)
	embedded := anomalies
	if len(embedded) > ReportAnomalyLimit {
		embedded = embedded[:ReportAnomalyLimit]
	}

	report.ReportStats = &domain.ReportStats{
		AvgResponseTime:   round(mean(times), 2),
		MinResponseTime:   slices.Min(times),
		MaxResponseTime:   slices.Max(times),
		P50:               p50,
		P90:               p90,
		P95:               p95,
		P99:               p99,
		ErrorRate:         round(float64(totalErrors)/float64(len(times)), 4),
		WindowedErrorRate: round(float64(windowedErrors)/float64(len(times)), 4),
		AnomalyCount:      len(anomalies),
		Anomalies:         slices.Clone(embedded),
	}
	return report
}

// responseTimes requires t.mu to be held.
func (t *Tracker) responseTimes(path string) []float64 {
	cutoff := t.cutoff()
	times := make([]float64, 0, len(t.records))
	for _, rec := range t.records {
		if inWindow(rec, cutoff) && matchesPath(rec, path) {
			times = append(times, rec.ResponseTime)
		}
	}
	return times
}

// detectAnomalies requires t.mu to be held.
func (t *Tracker) detectAnomalies(path string, zThreshold float64) []domain.Anomaly {
	anomalies := []domain.Anomaly{}

	times := t.responseTimes(path)
	if len(times) < MinAnomalySamples {
		return anomalies
	}

	avg := mean(times)
	sd := stdev(times, avg)
	if sd == 0 {
		return anomalies
	}

	// The window is re-evaluated against a fresh clock reading.
	cutoff := t.cutoff()
	for _, rec := range t.records {
		if !inWindow(rec, cutoff) || !matchesPath(rec, path) {
			continue
		}
		z := (rec.ResponseTime - avg) / sd
		if math.Abs(z) > zThreshold {
			anomalies = append(anomalies, domain.Anomaly{
				Path:         rec.Path,
				ResponseTime: rec.ResponseTime,
				ZScore:       round(z, 2),
				Method:       rec.Method,
				Status:       rec.Status,
			})
		}
	}
	return anomalies
}

func (t *Tracker) cutoff() time.Time {
	return t.clock.Now().Add(-t.window)
}

func inWindow(rec domain.RequestRecord, cutoff time.Time) bool {
	return !rec.Timestamp.Before(cutoff)
}

func matchesPath(rec domain.RequestRecord, path string) bool {
	return path == "" || rec.Path == path
}
