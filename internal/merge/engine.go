// Package merge reconciles raw investor records from both sources into a
// deduplicated canonical set. Merging is a pure function: deterministic for a
// given input order, idempotent, and side-effect free.
package merge

import (
	"investor-research/internal/models"
)

// Merge collapses the two raw sequences by identity key. Field conflicts
// resolve by source precedence (PRIMARY wins), ties between two SECONDARY
// records by first-seen order. Warm flags survive any merge order, tags and
// provenance are unioned.
func Merge(a, b []models.RawRecord) []models.CanonicalRecord {
	byKey := make(map[string]*models.CanonicalRecord)
	var order []string

	absorb := func(rec models.RawRecord) {
		key := IdentityKey(rec.Name, rec.Website)

		existing, ok := byKey[key]
		if !ok {
			byKey[key] = &models.CanonicalRecord{
				Key:        key,
				Name:       rec.Name,
				Website:    rec.Website,
				ProfileURL: rec.ProfileURL,
				Ticket:     rec.Ticket,
				Tags:       unionTags(nil, rec.Tags),
				Warm:       rec.Warm && rec.Source == models.SourcePrimary,
				Provenance: []models.Source{rec.Source},
			}
			order = append(order, key)
			return
		}

		// PRIMARY contributions overwrite SECONDARY-sourced fields; anything
		// else only fills gaps, so first-seen wins between equals.
		incomingWins := rec.Source == models.SourcePrimary && !hasSource(existing.Provenance, models.SourcePrimary)

		existing.Name = pickString(existing.Name, rec.Name, incomingWins)
		existing.Website = pickString(existing.Website, rec.Website, incomingWins)
		existing.ProfileURL = pickString(existing.ProfileURL, rec.ProfileURL, incomingWins)
		if existing.Ticket == nil || (incomingWins && rec.Ticket != nil) {
			if rec.Ticket != nil {
				existing.Ticket = rec.Ticket
			}
		}

		existing.Tags = unionTags(existing.Tags, rec.Tags)
		if rec.Warm && rec.Source == models.SourcePrimary {
			existing.Warm = true
		}
		if !hasSource(existing.Provenance, rec.Source) {
			existing.Provenance = append(existing.Provenance, rec.Source)
		}
	}

	for _, rec := range a {
		absorb(rec)
	}
	for _, rec := range b {
		absorb(rec)
	}

	out := make([]models.CanonicalRecord, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out
}

// FilterByTicket drops canonical records whose ticket range does not overlap
// the requested one. Records or requests without a range always pass.
func FilterByTicket(records []models.CanonicalRecord, want *models.TicketRange) []models.CanonicalRecord {
	if want == nil {
		return records
	}

	out := make([]models.CanonicalRecord, 0, len(records))
	for _, rec := range records {
		if rec.Ticket.Overlaps(want) {
			out = append(out, rec)
		}
	}
	return out
}

func pickString(existing, incoming string, incomingWins bool) string {
	if incoming == "" {
		return existing
	}
	if existing == "" || incomingWins {
		return incoming
	}
	return existing
}

func unionTags(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, lst := range [][]string{existing, incoming} {
		for _, tag := range lst {
			if tag == "" {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

func hasSource(provenance []models.Source, s models.Source) bool {
	for _, p := range provenance {
		if p == s {
			return true
		}
	}
	return false
}
