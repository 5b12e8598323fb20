package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/chepyr/go-forum/internal/forms"
	"github.com/chepyr/go-forum/internal/logging"
	"github.com/chepyr/go-forum/internal/models"
	"github.com/chepyr/go-forum/internal/pagination"
	"github.com/gorilla/csrf"
)

//go:embed templates/*.html
var templateFS embed.FS

type pageData struct {
	Title       string
	Message     string
	CSRFToken   string
	CurrentUser *models.User
	Errors      forms.Errors
	Form        interface{}
	Next        string
	HelpText    string

	Board  *models.Board
	Boards []*models.Board
	Topic  *models.Topic
	Topics []*models.Topic
	Post   *models.Post
	Posts  []*models.Post
	Page   pagination.Page
}

var functions = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006, 15:04")
	},
	"fieldError": func(errs forms.Errors, field string) string {
		return errs.Get(field)
	},
	"nonFieldErrors": func(errs forms.Errors) []string {
		return errs[forms.NonFieldErrors]
	},
	"add": func(a, b int) int { return a + b },
}

var pages = parsePages(
	"home.html",
	"signup.html",
	"login.html",
	"board_topics.html",
	"new_topic.html",
	"topic_posts.html",
	"reply_topic.html",
	"edit_post.html",
	"not_found.html",
	"forbidden.html",
)

func parsePages(names ...string) map[string]*template.Template {
	parsed := make(map[string]*template.Template, len(names))
	for _, name := range names {
		ts := template.Must(template.New(name).Funcs(functions).ParseFS(
			templateFS, "templates/base.html", "templates/"+name))
		parsed[name] = ts
	}
	return parsed
}

// render executes a page into a buffer first so a template error never
// leaves a half-written response.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data *pageData) {
	if data == nil {
		data = &pageData{}
	}
	if data.CurrentUser == nil {
		data.CurrentUser = userFrom(r.Context())
	}
	if data.Errors == nil {
		data.Errors = forms.Errors{}
	}
	data.CSRFToken = csrf.Token(r)

	ts, ok := pages[page]
	if !ok {
		h.serverError(w, fmt.Errorf("template %s does not exist", page))
		return
	}

	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", data); err != nil {
		h.serverError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	logging.Errorf("internal error: %v", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "not_found.html", &pageData{Title: "Page not found"})
}

func (h *Handler) forbidden(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusForbidden, "forbidden.html", &pageData{Title: "Forbidden"})
}
