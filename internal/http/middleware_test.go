package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/space-booking/internal/application"
)

func TestRequireSession(t *testing.T) {
	t.Parallel()

	t.Run("rejects requests without valid session tokens", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name           string
			cookie         *http.Cookie
			header         string
			validator      fakeSessionValidator
			expectedStatus int
			expectedCode   string
		}{
			{
				name:           "missing credentials",
				expectedStatus: http.StatusUnauthorized,
			},
			{
				name:           "unknown token",
				header:         "Bearer bogus",
				validator:      fakeSessionValidator{err: application.ErrUnauthorized},
				expectedStatus: http.StatusUnauthorized,
			},
			{
				name:           "expired session",
				cookie:         &http.Cookie{Name: "session_token", Value: "expired-token"},
				validator:      fakeSessionValidator{err: application.ErrSessionExpired},
				expectedStatus: http.StatusUnauthorized,
				expectedCode:   "AUTH_SESSION_EXPIRED",
			},
			{
				name:           "revoked session",
				cookie:         &http.Cookie{Name: "session_token", Value: "revoked-token"},
				validator:      fakeSessionValidator{err: application.ErrSessionRevoked},
				expectedStatus: http.StatusUnauthorized,
				expectedCode:   "AUTH_SESSION_REVOKED",
			},
		}

		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				req := httptest.NewRequest(http.MethodGet, "/protected", nil)
				if tc.cookie != nil {
					req.AddCookie(tc.cookie)
				}
				if tc.header != "" {
					req.Header.Set("Authorization", tc.header)
				}

				recorder := httptest.NewRecorder()
				handler := RequireSession(tc.validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					t.Fatal("next handler should not be called when authentication fails")
				}))
				handler.ServeHTTP(recorder, req)

				if recorder.Code != tc.expectedStatus {
					t.Fatalf("expected status %d, got %d", tc.expectedStatus, recorder.Code)
				}
				if tc.expectedCode != "" {
					var body errorResponse
					if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
						t.Fatalf("failed to decode error response: %v", err)
					}
					if body.ErrorCode != tc.expectedCode {
						t.Fatalf("expected error code %q, got %q", tc.expectedCode, body.ErrorCode)
					}
				}
			})
		}
	})

	t.Run("attaches authenticated principal to request context", func(t *testing.T) {
		t.Parallel()

		principal := application.Principal{UserID: "usr-123", IsAdmin: true}

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "session_token", Value: "valid-token"})
		recorder := httptest.NewRecorder()

		var captured application.Principal
		handler := RequireSession(fakeSessionValidator{principal: principal}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				t.Fatal("expected principal in request context")
			}
			captured = p
			w.WriteHeader(http.StatusOK)
		}))
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		if captured != principal {
			t.Fatalf("expected principal %+v, got %+v", principal, captured)
		}
	})
}

func TestOptionalSession(t *testing.T) {
	t.Parallel()

	t.Run("admits anonymous callers without a principal", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
		recorder := httptest.NewRecorder()

		handler := OptionalSession(fakeSessionValidator{err: application.ErrUnauthorized}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFromContext(r.Context()); ok {
				t.Fatal("anonymous request should carry no principal")
			}
			w.WriteHeader(http.StatusOK)
		}))
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
	})

	t.Run("resolves a presented token", func(t *testing.T) {
		t.Parallel()

		principal := application.Principal{UserID: "usr-9"}

		req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		recorder := httptest.NewRecorder()

		handler := OptionalSession(fakeSessionValidator{principal: principal}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok || p != principal {
				t.Fatalf("expected principal %+v in context, got %+v (present=%v)", principal, p, ok)
			}
			w.WriteHeader(http.StatusOK)
		}))
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
	})

	t.Run("rejects a presented but invalid token", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
		req.Header.Set("Authorization", "Bearer stale-token")
		recorder := httptest.NewRecorder()

		handler := OptionalSession(fakeSessionValidator{err: application.ErrSessionExpired}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler should not run with an invalid token")
		}))
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", recorder.Code)
		}
	})
}

type fakeSessionValidator struct {
	principal application.Principal
	err       error
}

func (f fakeSessionValidator) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	return f.principal, f.err
}
