package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/boxnow-labels/internal/testutil"
	"github.com/Sternrassler/boxnow-labels/pkg/parcel"
)

func TestFetchParcelPage_FirstPage(t *testing.T) {
	mock := testutil.NewMockBoxNow()
	defer mock.Close()
	mock.SetParcels(70)

	c := newTestClient(t, mock)

	page, err := c.FetchParcelPage(context.Background(), parcel.AccessToken(mock.Token), "")
	require.NoError(t, err)

	assert.Equal(t, 70, page.Count)
	assert.Len(t, page.IDs, 50)
	assert.Equal(t, parcel.ID("P100000"), page.IDs[0])
	assert.NotEmpty(t, page.Next)
	assert.Equal(t, []string{""}, mock.PageTokens())
}

func TestFetchParcelPage_FollowsCursor(t *testing.T) {
	mock := testutil.NewMockBoxNow()
	defer mock.Close()
	mock.SetParcels(70)

	c := newTestClient(t, mock)
	tok := parcel.AccessToken(mock.Token)

	first, err := c.FetchParcelPage(context.Background(), tok, "")
	require.NoError(t, err)

	second, err := c.FetchParcelPage(context.Background(), tok, first.Next)
	require.NoError(t, err)

	assert.Len(t, second.IDs, 20)
	assert.Equal(t, parcel.ID("P100050"), second.IDs[0])
	assert.Empty(t, second.Next)
	assert.Equal(t, []string{"", first.Next}, mock.PageTokens())
}

func TestFetchParcelPage_Errors(t *testing.T) {
	mock := testutil.NewMockBoxNow()
	defer mock.Close()
	mock.SetParcels(10)
	mock.PageStatus[1] = http.StatusBadGateway

	c := newTestClient(t, mock)

	_, err := c.FetchParcelPage(context.Background(), parcel.AccessToken(mock.Token), "")
	require.Error(t, err)
	assert.True(t, parcel.IsKind(err, parcel.KindListing))

	var perr *parcel.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusBadGateway, perr.StatusCode)
	assert.Equal(t, "forced failure", perr.Message)
}

func TestFetchParcelPage_ExpiredToken(t *testing.T) {
	mock := testutil.NewMockBoxNow()
	defer mock.Close()

	c := newTestClient(t, mock)

	_, err := c.FetchParcelPage(context.Background(), "stale", "")
	require.Error(t, err)
	assert.True(t, parcel.IsKind(err, parcel.KindListing))
	assert.True(t, parcel.IsUnauthorized(err))
}

func TestParcelsResponse_FlexibleTypes(t *testing.T) {
	raw := `{"count":"3","data":[{"id":"a1"},{"id":42},{"id":7.0}],"pagination":{"next":null}}`

	var body parcelsResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &body))

	assert.Equal(t, flexInt(3), body.Count)
	require.Len(t, body.Data, 3)
	assert.Equal(t, flexString("a1"), body.Data[0].ID)
	assert.Equal(t, flexString("42"), body.Data[1].ID)
	assert.Equal(t, flexString("7.0"), body.Data[2].ID)
	assert.Nil(t, body.Pagination.Next)
}

func TestFlexInt_Invalid(t *testing.T) {
	var n flexInt
	assert.Error(t, json.Unmarshal([]byte(`"many"`), &n))
	assert.NoError(t, json.Unmarshal([]byte(`null`), &n))
	assert.Equal(t, flexInt(0), n)
}

func TestFlexString_RejectsNull(t *testing.T) {
	var s flexString
	assert.Error(t, json.Unmarshal([]byte(`null`), &s))
}

func TestFetchParcelPage_RejectsMissingIDs(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "null id", body: `{"count":2,"data":[{"id":"a1"},{"id":null}],"pagination":{}}`},
		{name: "empty id", body: `{"count":1,"data":[{"id":""}],"pagination":{}}`},
		{name: "missing id", body: `{"count":1,"data":[{"state":"new"}],"pagination":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			cfg := DefaultConfig()
			cfg.BaseURL = srv.URL
			c, err := New(cfg)
			require.NoError(t, err)

			page, err := c.FetchParcelPage(context.Background(), "tok", "")
			require.Error(t, err)
			assert.Nil(t, page)
			assert.True(t, parcel.IsKind(err, parcel.KindListing))
		})
	}
}
