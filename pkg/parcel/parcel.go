// Package parcel holds the domain types shared by the BoxNow label pipeline:
// access tokens, parcel identifiers, listing pages, print options and the
// output modes the label files are written under.
package parcel

import (
	"fmt"
	"strconv"
	"strings"
)

// PageSize is the fixed number of parcels the provider returns per page.
const PageSize = 50

// AccessToken is an opaque bearer credential. It lives in memory for the
// duration of a run and is never persisted.
type AccessToken string

// String redacts the token so it cannot end up in logs by accident.
func (t AccessToken) String() string {
	if t == "" {
		return ""
	}
	return "[redacted]"
}

// Value returns the raw bearer credential.
func (t AccessToken) Value() string {
	return string(t)
}

// ID identifies a parcel awaiting label retrieval.
type ID string

// Page is one batch of the provider's parcel listing.
type Page struct {
	// Count is the total number of parcels matching the query, not the page length.
	Count int

	// IDs are the parcel identifiers on this page in provider order.
	IDs []ID

	// Next is the opaque continuation cursor; empty on the last page.
	Next string
}

// TotalPages returns ceil(count / PageSize).
func TotalPages(count int) int {
	if count <= 0 {
		return 0
	}
	pages := count / PageSize
	if count%PageSize != 0 {
		pages++
	}
	return pages
}

// PaperSize is the paper format requested for the label document.
type PaperSize string

const (
	PaperA4 PaperSize = "A4"
	PaperA6 PaperSize = "A6"
)

// FallbackPaperSize is the format the provider is known to accept.
const FallbackPaperSize = PaperA4

// PrintOptions controls how the provider lays out the merged label document.
// Legality of a combination is decided by the provider only.
type PrintOptions struct {
	PaperSize PaperSize
	PerPage   int
}

// DefaultPrintOptions returns A4 with one label per sheet.
func DefaultPrintOptions() PrintOptions {
	return PrintOptions{
		PaperSize: PaperA4,
		PerPage:   1,
	}
}

// ParsePrintOptions converts raw user input into PrintOptions. Empty values
// fall back to the defaults.
func ParsePrintOptions(paperSize, perPage string) (PrintOptions, error) {
	opts := DefaultPrintOptions()

	if p := strings.ToUpper(strings.TrimSpace(paperSize)); p != "" {
		opts.PaperSize = PaperSize(p)
	}

	if s := strings.TrimSpace(perPage); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return PrintOptions{}, &Error{
				Kind:    KindPrecondition,
				Message: fmt.Sprintf("per page must be a number, got %q", perPage),
				Err:     err,
			}
		}
		opts.PerPage = n
	}

	return opts, nil
}

// Mode describes where a run writes its label document.
type Mode struct {
	Name     string
	Folder   string
	Filename string
}

var (
	// ModeSelected writes labels for a user-chosen subset of pending parcels.
	ModeSelected = Mode{Name: "selected", Folder: "new_single", Filename: "single_new_labels.pdf"}

	// ModeBulk writes labels for every pending parcel.
	ModeBulk = Mode{Name: "bulk", Folder: "new", Filename: "all_new_labels.pdf"}
)

// Subset returns the selected IDs in selection order with duplicates removed.
// Every selected ID must appear in listed; unknown IDs are reported together.
func Subset(listed, selected []ID) ([]ID, error) {
	known := make(map[ID]struct{}, len(listed))
	for _, id := range listed {
		known[id] = struct{}{}
	}

	seen := make(map[ID]struct{}, len(selected))
	result := make([]ID, 0, len(selected))
	var unknown []string

	for _, id := range selected {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		if _, ok := known[id]; !ok {
			unknown = append(unknown, string(id))
			continue
		}
		result = append(result, id)
	}

	if len(unknown) > 0 {
		return nil, &Error{
			Kind:    KindPrecondition,
			Message: "parcels not in pending list: " + strings.Join(unknown, ", "),
		}
	}

	return result, nil
}

// Strings converts IDs to their string form for request payloads.
func Strings(ids []ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
