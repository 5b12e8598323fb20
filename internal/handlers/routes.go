package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzhttp"
)

// Routes builds the forum router. Pages and API responses are gzipped;
// the websocket endpoint sits outside the compressor so it can hijack
// the connection. Only the HTML pages carry CSRF tokens; the API
// authenticates with bearer tokens instead of cookies.
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(LogRequests, h.LoadUser)
	r.NotFoundHandler = LogRequests(h.LoadUser(http.HandlerFunc(h.notFound)))

	r.HandleFunc("/ws/topics/{topic_id}", h.TopicSocket).Methods(http.MethodGet)

	compressed := r.PathPrefix("/").Subrouter()
	compressed.Use(func(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) })

	api := compressed.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login", h.APILogin).Methods(http.MethodPost)
	api.HandleFunc("/boards", h.APIListBoards).Methods(http.MethodGet)
	api.HandleFunc("/boards/{board_id}/topics", h.APIListTopics).Methods(http.MethodGet)
	api.HandleFunc("/topics/{topic_id}/posts", h.APIListPosts).Methods(http.MethodGet)
	api.HandleFunc("/topics/{topic_id}/posts", h.AuthMiddleware(h.APICreatePost)).Methods(http.MethodPost)

	pages := compressed.NewRoute().Subrouter()
	pages.Use(h.csrfProtect())

	pages.HandleFunc("/", h.Home).Methods(http.MethodGet)
	pages.HandleFunc("/signup", h.SignUp).Methods(http.MethodGet, http.MethodPost)
	pages.HandleFunc("/login", h.Login).Methods(http.MethodGet, http.MethodPost)
	pages.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	pages.HandleFunc("/boards/{board_id}", h.BoardTopics).Methods(http.MethodGet)
	pages.HandleFunc("/boards/{board_id}/new", h.RequireLogin(h.NewTopic)).Methods(http.MethodGet, http.MethodPost)
	pages.HandleFunc("/boards/{board_id}/topics/{topic_id}", h.TopicPosts).Methods(http.MethodGet)
	pages.HandleFunc("/boards/{board_id}/topics/{topic_id}/reply", h.RequireLogin(h.ReplyTopic)).Methods(http.MethodGet, http.MethodPost)
	pages.HandleFunc("/boards/{board_id}/topics/{topic_id}/posts/{post_id}/edit", h.RequireLogin(h.EditPost)).Methods(http.MethodGet, http.MethodPost)

	return r
}
