// Package lookup implements the metadata lookup service client used by the
// enrichment stage: title search, details by id, and season episode listings,
// plus the best-match selection rule (exact year, then rating, then first).
package lookup
