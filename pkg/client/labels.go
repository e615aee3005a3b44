package client

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/Sternrassler/boxnow-labels/pkg/parcel"
)

const labelsSearchPath = "/labels:search"

// formatKeywords mark a provider message as a rejection of the print options.
var formatKeywords = []string{"paper size", "unsupported", "not supported", "invalid"}

type labelsRequest struct {
	ParcelIDs []string         `json:"parcelIds"`
	PaperSize parcel.PaperSize `json:"paperSize"`
	PerPage   int              `json:"perPage"`
}

// RequestLabels asks the provider for one merged label document covering
// all ids. The body is read completely before returning, so a transfer cut
// short surfaces as an error and never as a partial document.
func (c *Client) RequestLabels(ctx context.Context, token parcel.AccessToken, ids []parcel.ID, opts parcel.PrintOptions) ([]byte, error) {
	if len(ids) == 0 {
		return nil, parcel.ErrEmptySelection
	}

	req, err := c.newRequest(ctx, http.MethodPost, labelsSearchPath, nil, labelsRequest{
		ParcelIDs: parcel.Strings(ids),
		PaperSize: opts.PaperSize,
		PerPage:   opts.PerPage,
	}, token)
	if err != nil {
		return nil, transportError(parcel.KindDownload, "build request", err)
	}
	req.Header.Set("Accept", "application/pdf, application/json")

	resp, err := c.Do(req)
	if err != nil {
		return nil, transportError(parcel.KindDownload, "send request", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyLabelError(resp, opts)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &parcel.Error{
			Kind:       parcel.KindDownload,
			StatusCode: resp.StatusCode,
			Message:    "read label document",
			Err:        err,
		}
	}

	c.logger.Info().
		Int("parcels", len(ids)).
		Str("paper_size", string(opts.PaperSize)).
		Int("per_page", opts.PerPage).
		Int("bytes", len(data)).
		Msg("Label document received")

	return data, nil
}

// classifyLabelError maps a failed label response to either a format
// rejection or a generic download failure.
func classifyLabelError(resp *http.Response, opts parcel.PrintOptions) *parcel.Error {
	msg := readProviderMessage(resp)

	if isFormatRejection(msg) {
		e := &parcel.Error{
			Kind:       parcel.KindUnsupportedFormat,
			StatusCode: resp.StatusCode,
			PaperSize:  opts.PaperSize,
			Message:    msg,
		}
		if opts.PaperSize != parcel.FallbackPaperSize {
			e.Fallback = parcel.FallbackPaperSize
		}
		return e
	}

	return &parcel.Error{
		Kind:       parcel.KindDownload,
		StatusCode: resp.StatusCode,
		Message:    msg,
	}
}

func isFormatRejection(msg string) bool {
	msg = strings.ToLower(msg)
	for _, kw := range formatKeywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}
