// Package enrich attaches officer contacts to foundation-classified records.
package enrich

import (
	"context"
	"errors"
	"log/slog"

	"github.com/capstreet/s1prospector/internal/common"
	"github.com/capstreet/s1prospector/internal/model"
	"github.com/capstreet/s1prospector/internal/service"
)

// Enricher joins roster lookups onto foundation records. Lookup failures
// are never fatal: the record proceeds with no contacts and a provenance
// flag distinguishing "looked up, none found" from "lookup unavailable".
type Enricher struct {
	lookup service.RosterLookup
	logger *slog.Logger
}

// New creates an Enricher. A nil lookup disables enrichment entirely;
// records then keep the not-attempted provenance.
func New(lookup service.RosterLookup, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{lookup: lookup, logger: logger}
}

// Enrich populates FoundationContacts and ContactsProvenance in place for a
// foundation-classified record. Non-foundation records are left untouched.
func (e *Enricher) Enrich(ctx context.Context, rec *model.StockholderRecord) {
	rec.ContactsProvenance = model.ContactsNotAttempted
	if rec.EntityType != model.EntityFoundation || e.lookup == nil {
		return
	}

	contacts, err := e.lookup.LookupOfficers(ctx, rec.RawName)
	if err != nil {
		if errors.Is(err, common.ErrLookupUnavailable) {
			e.logger.Warn("roster lookup unavailable",
				"foundation", rec.RawName,
				"error", err)
		} else {
			e.logger.Warn("roster lookup failed",
				"foundation", rec.RawName,
				"error", err)
		}
		rec.ContactsProvenance = model.ContactsLookupUnavailable
		return
	}

	if len(contacts) == 0 {
		rec.ContactsProvenance = model.ContactsNoneFound
		return
	}

	rec.FoundationContacts = contacts
	rec.ContactsProvenance = model.ContactsFound
}
