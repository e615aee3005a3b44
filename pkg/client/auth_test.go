package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/boxnow-labels/internal/testutil"
	"github.com/Sternrassler/boxnow-labels/pkg/parcel"
)

func TestAuthenticate_Success(t *testing.T) {
	mock := testutil.NewMockBoxNow()
	defer mock.Close()

	c := newTestClient(t, mock)

	token, err := c.Authenticate(context.Background(), "  "+mock.ClientID+" ", mock.ClientSecret)
	require.NoError(t, err)
	assert.Equal(t, parcel.AccessToken(mock.Token), token)
	assert.NotEmpty(t, token.Value())
	assert.Equal(t, 1, mock.RequestCount(testutil.PathAuth))
}

func TestAuthenticate_Failures(t *testing.T) {
	tests := []struct {
		name       string
		clientID   string
		secret     string
		authStatus int
		wantKind   parcel.Kind
		wantStatus int
		wantCalls  int
	}{
		{
			name:       "wrong secret",
			clientID:   "test-client",
			secret:     "nope",
			wantKind:   parcel.KindAuthentication,
			wantStatus: http.StatusUnauthorized,
			wantCalls:  1,
		},
		{
			name:       "provider error",
			clientID:   "test-client",
			secret:     "test-secret",
			authStatus: http.StatusInternalServerError,
			wantKind:   parcel.KindAuthentication,
			wantStatus: http.StatusInternalServerError,
			wantCalls:  1,
		},
		{
			name:      "blank credentials",
			clientID:  "  ",
			secret:    "test-secret",
			wantKind:  parcel.KindPrecondition,
			wantCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockBoxNow()
			defer mock.Close()
			mock.AuthStatus = tt.authStatus

			c := newTestClient(t, mock)

			token, err := c.Authenticate(context.Background(), tt.clientID, tt.secret)
			require.Error(t, err)
			assert.Empty(t, token)
			assert.Equal(t, tt.wantKind, parcel.KindOf(err))
			assert.Equal(t, tt.wantCalls, mock.RequestCount(testutil.PathAuth))

			if tt.wantStatus != 0 {
				var perr *parcel.Error
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, tt.wantStatus, perr.StatusCode)
			}
		})
	}
}

func TestAuthenticate_MissingToken(t *testing.T) {
	mock := testutil.NewMockBoxNow()
	defer mock.Close()
	mock.Token = ""

	c := newTestClient(t, mock)

	_, err := c.Authenticate(context.Background(), mock.ClientID, mock.ClientSecret)
	require.Error(t, err)
	assert.True(t, parcel.IsKind(err, parcel.KindAuthentication))
	assert.Contains(t, err.Error(), "no access token")
}

func TestAuthenticate_Unreachable(t *testing.T) {
	mock := testutil.NewMockBoxNow()
	c := newTestClient(t, mock)
	mock.Close()

	_, err := c.Authenticate(context.Background(), "id", "secret")
	require.Error(t, err)
	assert.True(t, parcel.IsKind(err, parcel.KindAuthentication))
}

func TestRedactID(t *testing.T) {
	assert.Equal(t, "****", redactID("abc"))
	assert.Equal(t, "abcd****", redactID("abcdefgh"))
}
