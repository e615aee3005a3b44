// Package testutil provides testing utilities for the BoxNow label client.
package testutil

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Paths served by the mock, relative to URL().
const (
	PathAuth    = "/auth-sessions"
	PathParcels = "/parcels"
	PathLabels  = "/labels:search"
)

// LabelsRequest is the decoded body of the last labels:search call.
type LabelsRequest struct {
	ParcelIDs []string `json:"parcelIds"`
	PaperSize string   `json:"paperSize"`
	PerPage   int      `json:"perPage"`
}

// MockBoxNow is a configurable mock BoxNow API for testing.
type MockBoxNow struct {
	server *httptest.Server
	mu     sync.RWMutex

	// Credentials accepted by /auth-sessions and the token it hands out.
	ClientID     string
	ClientSecret string
	Token        string

	// Parcels is the full pending list served page by page.
	Parcels []string

	// PageSize defaults to 50.
	PageSize int

	// Count overrides the reported total when non-nil.
	Count *int

	// DropCursorOnPage omits pagination.next on that 1-based page.
	DropCursorOnPage int

	// PageStatus forces a status code for a 1-based page.
	PageStatus map[int]int

	// AuthStatus forces a status code for /auth-sessions when non-zero.
	AuthStatus int

	// LabelStatus and LabelMessage shape a failing labels:search response.
	LabelStatus  int
	LabelMessage string

	// LabelBody is returned on success.
	LabelBody []byte

	// TruncateLabels declares a longer Content-Length than is written.
	TruncateLabels bool

	// Delay is applied before every response.
	Delay time.Duration

	// Tracking
	requests         map[string]int
	lastLabelRequest *LabelsRequest
	pageTokens       []string
}

// NewMockBoxNow creates a mock with one valid credential pair.
func NewMockBoxNow() *MockBoxNow {
	mock := &MockBoxNow{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		Token:        "test-token",
		PageSize:     50,
		PageStatus:   map[int]int{},
		LabelBody:    []byte("%PDF-1.7\nmock label document\n%%EOF\n"),
		requests:     map[string]int{},
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requests[r.URL.Path]++
		delay := mock.Delay
		mock.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}

		switch r.URL.Path {
		case PathAuth:
			mock.handleAuth(w, r)
		case PathParcels:
			mock.handleParcels(w, r)
		case PathLabels:
			mock.handleLabels(w, r)
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		}
	}))

	return mock
}

// URL returns the mock API root.
func (m *MockBoxNow) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockBoxNow) Close() {
	m.server.Close()
}

// SetParcels replaces the pending list with n generated ids.
func (m *MockBoxNow) SetParcels(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Parcels = make([]string, n)
	for i := range m.Parcels {
		m.Parcels[i] = "P" + strconv.Itoa(100000+i)
	}
}

// RequestCount returns the number of requests made to path.
func (m *MockBoxNow) RequestCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests[path]
}

// LastLabelsRequest returns the body of the most recent labels:search call.
func (m *MockBoxNow) LastLabelsRequest() *LabelsRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastLabelRequest
}

// PageTokens returns the pageToken values received, in order; the first
// page is recorded as "".
func (m *MockBoxNow) PageTokens() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.pageTokens...)
}

func (m *MockBoxNow) authorized(r *http.Request) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return r.Header.Get("Authorization") == "Bearer "+m.Token
}

func (m *MockBoxNow) handleAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
		return
	}

	var body struct {
		GrantType    string `json:"grant_type"`
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.AuthStatus != 0 {
		writeJSON(w, m.AuthStatus, map[string]string{"message": "forced failure"})
		return
	}

	if body.GrantType != "client_credentials" || body.ClientID != m.ClientID || body.ClientSecret != m.ClientSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid client credentials"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": m.Token,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (m *MockBoxNow) handleParcels(w http.ResponseWriter, r *http.Request) {
	if !m.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
		return
	}
	if r.URL.Query().Get("state") != "new" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "state filter missing"})
		return
	}

	pageToken := r.URL.Query().Get("pageToken")

	m.mu.Lock()
	m.pageTokens = append(m.pageTokens, pageToken)
	m.mu.Unlock()

	offset, ok := decodeCursor(pageToken)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid page token"})
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	pageNum := offset/m.PageSize + 1
	if status, ok := m.PageStatus[pageNum]; ok {
		writeJSON(w, status, map[string]string{"message": "forced failure"})
		return
	}

	end := offset + m.PageSize
	if end > len(m.Parcels) {
		end = len(m.Parcels)
	}
	if offset > end {
		offset = end
	}

	data := make([]map[string]any, 0, end-offset)
	for _, id := range m.Parcels[offset:end] {
		data = append(data, map[string]any{"id": id, "state": "new"})
	}

	count := len(m.Parcels)
	if m.Count != nil {
		count = *m.Count
	}

	pagination := map[string]any{}
	if end < len(m.Parcels) && pageNum != m.DropCursorOnPage {
		pagination["next"] = encodeCursor(end)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":      count,
		"data":       data,
		"pagination": pagination,
	})
}

func (m *MockBoxNow) handleLabels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
		return
	}
	if !m.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
		return
	}

	var body LabelsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	m.mu.Lock()
	m.lastLabelRequest = &body
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.LabelStatus != 0 && m.LabelStatus != http.StatusOK {
		writeJSON(w, m.LabelStatus, map[string]string{"message": m.LabelMessage})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	if m.TruncateLabels {
		w.Header().Set("Content-Length", strconv.Itoa(len(m.LabelBody)+1024))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(m.LabelBody)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Cursors are opaque to clients; here they wrap the next offset.
func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte("offset:" + strconv.Itoa(offset)))
}

func decodeCursor(token string) (int, bool) {
	if token == "" {
		return 0, true
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(string(raw), "offset:"))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
