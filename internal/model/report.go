package model

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ReportRow is the flat output shape handed to every sink. Field and
// null-handling semantics are identical for the CSV and Sheets writers:
// absent values are empty strings, never omitted columns.
type ReportRow struct {
	FilingDate         time.Time
	InvestorName       string
	IPOCompany         string
	OwnershipPercent   string
	Shares             string
	EntityType         string
	CRMStatus          string
	FoundationContacts string
	SearchLink         string
	InCRM              bool
}

// RowFromRecord flattens a fully processed record into its output shape.
func RowFromRecord(r *StockholderRecord) ReportRow {
	row := ReportRow{
		InvestorName: r.RawName,
		IPOCompany:   r.FilingCompany,
		FilingDate:   r.FilingDate,
		EntityType:   string(r.EntityType),
		SearchLink:   SearchLink(r.RawName),
	}
	if r.OwnershipPercent != nil {
		row.OwnershipPercent = r.OwnershipPercent.String()
	}
	if r.ShareCount != nil {
		row.Shares = strconv.FormatInt(*r.ShareCount, 10)
	}
	if r.Match != nil && r.Match.Matched {
		row.InCRM = true
		row.CRMStatus = r.Match.ReferenceStatus
	}
	switch {
	case len(r.FoundationContacts) > 0:
		parts := make([]string, len(r.FoundationContacts))
		for i, c := range r.FoundationContacts {
			if c.Role != "" {
				parts[i] = c.Name + " (" + c.Role + ")"
			} else {
				parts[i] = c.Name
			}
		}
		row.FoundationContacts = strings.Join(parts, "; ")
	case r.ContactsProvenance == ContactsLookupUnavailable:
		// Keeps "lookup failed this run" distinguishable from "looked up,
		// none found" in the output.
		row.FoundationContacts = "lookup unavailable"
	}
	return row
}

// SearchLink builds a LinkedIn company-search URL for an investor name.
func SearchLink(name string) string {
	return "https://www.linkedin.com/search/results/companies/?keywords=" + url.QueryEscape(name)
}
