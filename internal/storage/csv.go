// Package storage persists crawler data as CSV: company/anchor batch
// inputs, company-to-account mappings, and streamed batch results.
package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lk479o000/twitter-crawler-app/internal/accounts"
	"github.com/lk479o000/twitter-crawler-app/internal/domain"
)

var accountHeader = []string{"company_normalized", "account_id", "username", "name", "verified"}

// LoadBatchRows reads batch input: a header row, then one row per company
// with the company name in the first column and the anchor date in the
// second. Dates may be YYYY-MM-DD or RFC 3339. Blank company cells are
// skipped.
func LoadBatchRows(r io.Reader) ([]domain.BatchRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read batch input: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("batch input is empty")
	}

	var rows []domain.BatchRow
	for i, rec := range records[1:] {
		if len(rec) < 2 {
			return nil, fmt.Errorf("batch input row %d: want 2 columns (company, date), got %d", i+2, len(rec))
		}
		company := accounts.Normalize(rec[0])
		if company == "" {
			continue
		}
		anchor, err := parseDate(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("batch input row %d: %w", i+2, err)
		}
		rows = append(rows, domain.BatchRow{Company: company, Anchor: anchor})
	}
	return rows, nil
}

// SaveAccounts writes a company-to-account mapping CSV.
func SaveAccounts(w io.Writer, list []domain.Account) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(accountHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, a := range list {
		rec := []string{a.CompanyNormalized, a.AccountID, a.Username, a.Name, strconv.FormatBool(a.Verified)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write account %s: %w", a.CompanyNormalized, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadAccounts reads a mapping CSV written by SaveAccounts.
func LoadAccounts(r io.Reader) ([]domain.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(accountHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("accounts file is empty")
	}

	var list []domain.Account
	for _, rec := range records[1:] {
		verified, _ := strconv.ParseBool(rec[4])
		list = append(list, domain.Account{
			CompanyNormalized: rec[0],
			AccountID:         rec[1],
			Username:          rec[2],
			Name:              rec[3],
			Verified:          verified,
		})
	}
	return list, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}
