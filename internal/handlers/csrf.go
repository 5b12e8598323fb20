package handlers

import (
	"net/http"

	"github.com/chepyr/go-forum/internal/logging"
	"github.com/gorilla/csrf"
)

const (
	csrfCookie = "csrftoken"
	csrfField  = "csrfmiddlewaretoken"
)

// csrfProtect guards every form page. The token travels in a hidden
// csrfmiddlewaretoken field and is checked against the csrftoken cookie.
func (h *Handler) csrfProtect() func(http.Handler) http.Handler {
	protect := csrf.Protect(h.CSRFKey,
		csrf.CookieName(csrfCookie),
		csrf.FieldName(csrfField),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.Secure(h.SecureCookies),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(h.csrfFailure)),
	)
	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// without TLS the Referer check has nothing to compare against
			if r.TLS == nil {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) csrfFailure(w http.ResponseWriter, r *http.Request) {
	logging.Warnf("csrf check failed for %s %s: %v", r.Method, r.URL.Path, csrf.FailureReason(r))
	h.render(w, r, http.StatusForbidden, "forbidden.html", &pageData{
		Title:   "Forbidden",
		Message: "CSRF verification failed. Request aborted.",
	})
}
