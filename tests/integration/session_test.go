package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/railbird/chipsettle/internal/adapter/http/dto"
	"github.com/railbird/chipsettle/internal/domain"
	"github.com/railbird/chipsettle/tests/testutil"
)

func TestSessionLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	stack := newTestStack(t, testDB)

	var sessionID string

	t.Run("create session", func(t *testing.T) {
		req := dto.CreateSessionRequest{Name: "friday night game", Currency: "USD"}
		body, _ := json.Marshal(req)

		r := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		stack.Router.ServeHTTP(w, r)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
		}

		var resp dto.SessionResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}

		if resp.Name != req.Name {
			t.Errorf("expected name %q, got %q", req.Name, resp.Name)
		}
		if resp.Status != string(domain.SessionStatusCreated) {
			t.Errorf("expected status created, got %s", resp.Status)
		}
		if !resp.TotalPot.IsZero() {
			t.Errorf("expected zero pot, got %s", resp.TotalPot)
		}

		sessionID = resp.ID
	})

	t.Run("create session with invalid currency", func(t *testing.T) {
		body, _ := json.Marshal(dto.CreateSessionRequest{Name: "bad", Currency: "DOLLARS"})

		r := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewReader(body))
		w := httptest.NewRecorder()

		stack.Router.ServeHTTP(w, r)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("get session by ID", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+sessionID, nil)
		w := httptest.NewRecorder()

		stack.Router.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var resp dto.SessionResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp.ID != sessionID {
			t.Errorf("expected ID %q, got %q", sessionID, resp.ID)
		}
	})

	t.Run("get non-existent session returns 404", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/non-existent-id", nil)
		w := httptest.NewRecorder()

		stack.Router.ServeHTTP(w, r)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})

	t.Run("add players", func(t *testing.T) {
		for _, name := range []string{"Alice", "Bob"} {
			body, _ := json.Marshal(dto.AddPlayerRequest{Name: name})

			r := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+sessionID+"/players", bytes.NewReader(body))
			w := httptest.NewRecorder()

			stack.Router.ServeHTTP(w, r)

			if w.Code != http.StatusCreated {
				t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
			}
		}
	})

	t.Run("list players", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+sessionID+"/players", nil)
		w := httptest.NewRecorder()

		stack.Router.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var resp dto.ListPlayersResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if len(resp.Players) != 2 {
			t.Errorf("expected 2 players, got %d", len(resp.Players))
		}
	})

	t.Run("list sessions", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/sessions?limit=10&offset=0", nil)
		w := httptest.NewRecorder()

		stack.Router.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var resp dto.ListSessionsResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if len(resp.Sessions) != 1 {
			t.Errorf("expected 1 session, got %d", len(resp.Sessions))
		}
	})
}
