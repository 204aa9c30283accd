package parish

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

type handler struct {
	site *Site
	log  zerolog.Logger
}

/*
NewHandler serves the cached site content as JSON:

	GET  /content          home page content
	GET  /mass-times       weekly schedule
	GET  /churches/{id}    one church
	POST /invalidate       ?key=... (repeatable); no key clears everything
	GET  /healthz          liveness and cached keys
*/
func NewHandler(site *Site, log zerolog.Logger) http.Handler {
	h := &handler{site: site, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /content", h.content)
	mux.HandleFunc("GET /mass-times", h.massTimes)
	mux.HandleFunc("GET /churches/{id}", h.church)
	mux.HandleFunc("POST /invalidate", h.invalidate)
	mux.HandleFunc("GET /healthz", h.healthz)
	return mux
}

func (h *handler) content(w http.ResponseWriter, r *http.Request) {
	v, err := h.site.LoadContent(r.Context())
	h.respond(w, r, v, err)
}

func (h *handler) massTimes(w http.ResponseWriter, r *http.Request) {
	v, err := h.site.LoadMassTimes(r.Context())
	h.respond(w, r, v, err)
}

func (h *handler) church(w http.ResponseWriter, r *http.Request) {
	v, err := h.site.LoadChurch(r.Context(), r.PathValue("id"))
	h.respond(w, r, v, err)
}

func (h *handler) invalidate(w http.ResponseWriter, r *http.Request) {
	keys := r.URL.Query()["key"]
	if err := h.site.Invalidate(keys...); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	h.log.Info().Strs("keys", keys).Msg("cache invalidated")
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	keys := h.site.Keys()
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "cached": keys})
}

func (h *handler) respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, v)
		return
	}

	status := http.StatusBadGateway
	if errors.Is(err, ErrNotFound) {
		status = http.StatusNotFound
	} else {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("content unavailable")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
