package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/colonyops/goodvibes/internal/core/tagging"
	"github.com/colonyops/goodvibes/internal/printer"
)

func writeJSON(w io.Writer, v any) error {
	bits, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(bits))
	return err
}

func printSuggestions(p *printer.Printer, suggestions []tagging.Suggestion) {
	rows := make([][]string, 0, len(suggestions))
	for _, s := range suggestions {
		rows = append(rows, []string{
			s.ID,
			s.SessionID,
			s.Name,
			strconv.FormatFloat(s.Confidence, 'f', 2, 64),
			s.Category,
			string(s.Status),
			s.Reasoning,
		})
	}
	p.Table([]string{"ID", "SESSION", "TAG", "CONF", "CATEGORY", "STATUS", "REASONING"}, rows)
}

func printStatus(p *printer.Printer, st tagging.ScannerStatus) {
	state := "stopped"
	switch {
	case st.Paused:
		state = "paused"
	case st.ProcessingBatch:
		state = "scanning"
	case st.Running:
		state = "idle"
	}

	p.Printf("state:       %s", state)
	p.Printf("queued:      %d", st.QueueSize)
	p.Printf("scanned:     %d / %d", st.ScannedCount, st.TotalToScan)
	if st.RateLimitEnabled {
		p.Printf("rate limit:  %d tokens left", st.RateLimitRemaining)
	} else {
		p.Printf("rate limit:  %s", p.Muted("disabled"))
	}
	if st.CurrentSessionID != "" {
		p.Printf("current:     %s", st.CurrentSessionID)
	}
	if st.LastError != "" {
		p.Errorf("last error: %s", st.LastError)
	}
}

func formatProgress(pr tagging.Progress) string {
	eta := "-"
	if pr.EstimatedTime > 0 {
		eta = pr.EstimatedTime.Round(time.Second).String()
	}
	return fmt.Sprintf("%d/%d scanned (%.0f%%), %d queued, eta %s", pr.Scanned, pr.Total, pr.Percent(), pr.QueueSize, eta)
}
