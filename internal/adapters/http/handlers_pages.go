package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/csrf"

	"celltracker/internal/adapters/http/middleware"
	"celltracker/internal/application/orchestrators"
)

// DefaultLanding is where a successful login goes when no next page was requested.
const DefaultLanding = "/enter-totals"

//go:embed templates/login.html
var templateFS embed.FS

var loginTemplate = template.Must(template.ParseFS(templateFS, "templates/login.html"))

// handlePage serves the static page shell <static_dir>/pages/<name>.html.
func (s *server) handlePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(s.staticDir(), "pages", name+".html"))
	}
}

func (s *server) staticDir() string {
	if s.opts.StaticDir == "" {
		return "static"
	}
	return s.opts.StaticDir
}

// renderLogin writes the login form.
func renderLogin(w http.ResponseWriter, r *http.Request, status int, next, errMsg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	err := loginTemplate.Execute(w, map[string]any{
		"CSRFField": csrf.TemplateField(r),
		"Next":      next,
		"Error":     errMsg,
	})
	if err != nil {
		slog.Error("template_error", "template", "login.html", "error", err.Error())
	}
}

// safeNext returns next when it is a local path, otherwise fallback.
func safeNext(next, fallback string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

// handleLogin handles GET (form) and POST (authenticate) for /login
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if middleware.IsLoggedIn(r.Context()) {
			http.Redirect(w, r, safeNext(r.URL.Query().Get("next"), "/"), http.StatusSeeOther)
			return
		}
		renderLogin(w, r, http.StatusOK, r.URL.Query().Get("next"), "")
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	next := r.FormValue("next")
	if next == "" {
		next = r.URL.Query().Get("next")
	}

	err := orchestrators.ExecuteLogin(orchestrators.LoginInput{
		Password:   r.FormValue("password"),
		RemoteAddr: r.RemoteAddr,
	}, orchestrators.LoginDeps{
		Password:     s.opts.AdminPassword,
		PasswordHash: s.opts.AdminPasswordHash,
	})
	if err != nil {
		renderLogin(w, r, http.StatusOK, next, "Invalid password")
		return
	}

	token, err := s.sessions.Create()
	if err != nil {
		internalError(w, r, err)
		return
	}
	middleware.SetSessionCookie(w, token, s.sessions.TTL(), s.opts.SecureCookies)
	http.Redirect(w, r, safeNext(next, DefaultLanding), http.StatusSeeOther)
}

// handleLogout handles GET and POST /logout
func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		s.sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w, s.opts.SecureCookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
