package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/lk479o000/twitter-crawler-app/internal/domain"
)

// CountsWriter streams batch count results to CSV one row at a time, so a
// partially completed run still leaves usable output behind.
type CountsWriter struct {
	cw *csv.Writer
}

// NewCountsWriter writes the header and returns a streaming writer.
func NewCountsWriter(w io.Writer) (*CountsWriter, error) {
	cw := csv.NewWriter(w)
	header := []string{"company", "username", "date", "status", "count_day", "count_window", "error"}
	if err := cw.Write(header); err != nil {
		return nil, fmt.Errorf("write counts header: %w", err)
	}
	cw.Flush()
	return &CountsWriter{cw: cw}, nil
}

// Write appends one row result and flushes immediately.
func (w *CountsWriter) Write(res domain.RowResult) error {
	rec := []string{
		res.Row.Company,
		res.Row.Target.Value,
		anchorString(res),
		string(res.Status),
		strconv.Itoa(res.DayCount),
		strconv.Itoa(res.Count),
		errString(res.Err),
	}
	if err := w.cw.Write(rec); err != nil {
		return fmt.Errorf("write counts row %s: %w", res.Row.Company, err)
	}
	w.cw.Flush()
	return w.cw.Error()
}

// ContentsWriter streams batch content results: one CSV row per retrieved
// post, plus a single status row for rows that produced no posts.
type ContentsWriter struct {
	cw *csv.Writer
}

// NewContentsWriter writes the header and returns a streaming writer.
func NewContentsWriter(w io.Writer) (*ContentsWriter, error) {
	cw := csv.NewWriter(w)
	header := []string{"company", "username", "status", "post_id", "created_at", "sentiment", "text", "error"}
	if err := cw.Write(header); err != nil {
		return nil, fmt.Errorf("write contents header: %w", err)
	}
	cw.Flush()
	return &ContentsWriter{cw: cw}, nil
}

// Write appends the posts of one row result and flushes immediately.
func (w *ContentsWriter) Write(res domain.RowResult) error {
	if len(res.Posts) == 0 {
		rec := []string{
			res.Row.Company, res.Row.Target.Value, string(res.Status),
			"", "", "", "", errString(res.Err),
		}
		if err := w.cw.Write(rec); err != nil {
			return fmt.Errorf("write contents row %s: %w", res.Row.Company, err)
		}
		w.cw.Flush()
		return w.cw.Error()
	}

	for _, p := range res.Posts {
		sentiment := ""
		if p.Sentiment != nil {
			sentiment = strconv.FormatFloat(*p.Sentiment, 'f', 4, 64)
		}
		rec := []string{
			res.Row.Company,
			res.Row.Target.Value,
			string(res.Status),
			p.ID,
			p.CreatedAt.Format(time.RFC3339),
			sentiment,
			p.Text,
			errString(res.Err),
		}
		if err := w.cw.Write(rec); err != nil {
			return fmt.Errorf("write contents row %s: %w", res.Row.Company, err)
		}
	}
	w.cw.Flush()
	return w.cw.Error()
}

func anchorString(res domain.RowResult) string {
	if !res.Row.Anchor.IsZero() {
		return res.Row.Anchor.Format("2006-01-02")
	}
	if res.Interval.Start.IsZero() && res.Interval.End.IsZero() {
		return ""
	}
	return res.Interval.String()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
