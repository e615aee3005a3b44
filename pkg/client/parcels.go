package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Sternrassler/boxnow-labels/pkg/parcel"
)

const parcelsPath = "/parcels"

// StateNew is the parcel state whose labels have not been fetched yet.
const StateNew = "new"

type parcelsResponse struct {
	Count      flexInt      `json:"count"`
	Data       []parcelItem `json:"data"`
	Pagination struct {
		Next *string `json:"next"`
	} `json:"pagination"`
}

type parcelItem struct {
	ID flexString `json:"id"`
}

// FetchParcelPage requests one page of pending parcels. An empty pageToken
// requests the first page.
func (c *Client) FetchParcelPage(ctx context.Context, token parcel.AccessToken, pageToken string) (*parcel.Page, error) {
	query := url.Values{}
	query.Set("state", StateNew)
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	req, err := c.newRequest(ctx, http.MethodGet, parcelsPath, query, nil, token)
	if err != nil {
		return nil, transportError(parcel.KindListing, "build request", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, transportError(parcel.KindListing, "send request", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(parcel.KindListing, resp)
	}

	var body parcelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &parcel.Error{
			Kind:       parcel.KindListing,
			StatusCode: resp.StatusCode,
			Message:    "decode response",
			Err:        err,
		}
	}

	page := &parcel.Page{
		Count: int(body.Count),
		IDs:   make([]parcel.ID, 0, len(body.Data)),
	}
	for i, item := range body.Data {
		if item.ID == "" {
			return nil, &parcel.Error{
				Kind:       parcel.KindListing,
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("decode response: parcel %d has no id", i),
			}
		}
		page.IDs = append(page.IDs, parcel.ID(item.ID))
	}
	if body.Pagination.Next != nil {
		page.Next = *body.Pagination.Next
	}

	return page, nil
}

// flexInt accepts a JSON number or a numeric string.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("count %q is not a number", s)
		}
		*f = flexInt(n)
		return nil
	}

	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// flexString accepts a JSON string or number and keeps its text form.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("id must not be null")
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}
