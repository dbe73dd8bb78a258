package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth     *AuthHandler
	Bookings *BookingHandler
	Spaces   *SpaceHandler
	Users    *UserHandler
	Reports  *ReportHandler

	// RequireSession gates authenticated routes. OptionalSession resolves a
	// token when one is presented but admits anonymous callers; it covers the
	// public booking request and space browsing endpoints.
	RequireSession  func(http.Handler) http.Handler
	OptionalSession func(http.Handler) http.Handler

	// Middleware wraps the whole router, first entry outermost.
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	require := wrapWith(cfg.RequireSession)
	optional := wrapWith(cfg.OptionalSession)

	if cfg.Auth != nil {
		mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.CreateSession(w, r)
		})
		mux.HandleFunc("/sessions/current", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Auth.DeleteCurrentSession(w, r)
		})
		mux.HandleFunc("/sessions/", func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.URL.Path, "/sessions/")
			if token == "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			require(func(w http.ResponseWriter, r *http.Request) {
				cfg.Auth.DeleteSession(w, r, token)
			})(w, r)
		})
	}

	if cfg.Bookings != nil {
		mux.HandleFunc("/bookings", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				require(cfg.Bookings.List)(w, r)
			case http.MethodPost:
				optional(cfg.Bookings.Create)(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/bookings/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/bookings/")
			if rest == "" {
				http.NotFound(w, r)
				return
			}

			id, tail, _ := strings.Cut(rest, "/")
			ctx := ContextWithBookingID(r.Context(), id)
			r = r.WithContext(ctx)

			if tail == "status" {
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				require(cfg.Bookings.Transition)(w, r)
				return
			}
			if tail != "" {
				http.NotFound(w, r)
				return
			}

			switch r.Method {
			case http.MethodGet:
				require(cfg.Bookings.Get)(w, r)
			case http.MethodPatch:
				require(cfg.Bookings.Update)(w, r)
			case http.MethodDelete:
				require(cfg.Bookings.Delete)(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
			}
		})
		mux.HandleFunc("/agenda", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			require(cfg.Bookings.Agenda)(w, r)
		})
	}

	if cfg.Spaces != nil {
		mux.HandleFunc("/spaces", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				optional(cfg.Spaces.List)(w, r)
			case http.MethodPost:
				require(cfg.Spaces.Create)(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/spaces/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/spaces/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithSpaceID(r.Context(), id)
			r = r.WithContext(ctx)
			switch r.Method {
			case http.MethodGet:
				optional(cfg.Spaces.Get)(w, r)
			case http.MethodPut:
				require(cfg.Spaces.Update)(w, r)
			case http.MethodDelete:
				require(cfg.Spaces.Delete)(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Users != nil {
		mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				require(cfg.Users.List)(w, r)
			case http.MethodPost:
				require(cfg.Users.Create)(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/users/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithUserID(r.Context(), id)
			r = r.WithContext(ctx)
			switch r.Method {
			case http.MethodPut:
				require(cfg.Users.Update)(w, r)
			case http.MethodDelete:
				require(cfg.Users.Delete)(w, r)
			default:
				methodNotAllowed(w, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Reports != nil {
		mux.HandleFunc("/reports/summary", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			require(cfg.Reports.Summary)(w, r)
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

// wrapWith lifts a middleware into a per-route decorator. A nil middleware
// passes the handler through unchanged.
func wrapWith(mw func(http.Handler) http.Handler) func(http.HandlerFunc) http.HandlerFunc {
	return func(h http.HandlerFunc) http.HandlerFunc {
		if mw == nil {
			return h
		}
		wrapped := mw(h)
		return wrapped.ServeHTTP
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
