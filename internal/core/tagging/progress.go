package tagging

import "time"

// ScannerStatus is a point-in-time snapshot of the background scanner.
type ScannerStatus struct {
	Running            bool   `json:"running"`
	Paused             bool   `json:"paused"`
	ProcessingBatch    bool   `json:"processing_batch"`
	QueueSize          int    `json:"queue_size"`
	ScannedCount       int    `json:"scanned_count"`
	TotalToScan        int    `json:"total_to_scan"`
	CurrentSessionID   string `json:"current_session_id,omitempty"`
	LastError          string `json:"last_error,omitempty"`
	RateLimitEnabled   bool   `json:"rate_limit_enabled"`
	RateLimitRemaining int    `json:"rate_limit_remaining"`
}

// Progress is a derived view of how far the current run has come.
type Progress struct {
	Scanned          int           `json:"scanned"`
	Total            int           `json:"total"`
	QueueSize        int           `json:"queue_size"`
	CurrentSessionID string        `json:"current_session_id,omitempty"`
	EstimatedTime    time.Duration `json:"estimated_time"`
}

// Percent returns completion in [0,100]. A run with nothing to do is complete.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 100
	}
	pct := float64(p.Scanned) / float64(p.Total) * 100
	if pct > 100 {
		return 100
	}
	return pct
}
