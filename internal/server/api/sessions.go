package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/repsense/internal/pose"
	"github.com/ayusman/repsense/internal/rep"
	"github.com/ayusman/repsense/internal/session"
	"github.com/ayusman/repsense/internal/store"
)

// SessionHandler handles HTTP requests for live sessions.
type SessionHandler struct {
	sessions *session.Manager
	store    *store.Store
	logger   *slog.Logger
	stream   http.Handler
}

// NewSessionHandler creates a SessionHandler. The store is only needed to
// resolve profile_id on create and may be nil.
func NewSessionHandler(sessions *session.Manager, s *store.Store, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{sessions: sessions, store: s, logger: logger}
}

// WithStream mounts h at /{id}/ws.
func (h *SessionHandler) WithStream(stream http.Handler) *SessionHandler {
	h.stream = stream
	return h
}

// Routes returns the session routes, relative to their mount point.
func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Delete("/", h.delete)
		r.Post("/frames", h.frames)
		r.Post("/reset", h.reset)
		r.Get("/summary", h.summary)
		if h.stream != nil {
			r.Get("/ws", h.stream.ServeHTTP)
		}
	})
	return r
}

type createSessionRequest struct {
	Exercise  string `json:"exercise"`
	Side      string `json:"side"`
	ProfileID string `json:"profile_id"`
}

type sessionResponse struct {
	ID        string      `json:"id"`
	Exercise  string      `json:"exercise"`
	Side      string      `json:"side"`
	ProfileID string      `json:"profile_id,omitempty"`
	Phase     string      `json:"phase"`
	RepCount  int         `json:"rep_count"`
	Frames    int         `json:"frames"`
	Config    rep.Config  `json:"config"`
	Last      *rep.Output `json:"last_output,omitempty"`
	CreatedAt string      `json:"created_at"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

func toSessionResponse(s *session.Session) sessionResponse {
	info := s.Info()
	resp := sessionResponse{
		ID:        info.ID,
		Exercise:  string(info.Exercise),
		Side:      string(info.Side),
		ProfileID: info.ProfileID,
		Phase:     string(info.Phase),
		RepCount:  info.RepCount,
		Frames:    info.Frames,
		Config:    info.Config,
		CreatedAt: formatTime(info.CreatedAt),
	}
	if out, ok := s.LastOutput(); ok {
		resp.Last = &out
	}
	return resp
}

// list handles GET /api/sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	list := h.sessions.List()
	response := listSessionsResponse{Sessions: make([]sessionResponse, 0, len(list))}
	for _, s := range list {
		response.Sessions = append(response.Sessions, toSessionResponse(s))
	}
	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/sessions.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var opts session.Options
	if req.ProfileID != "" {
		if h.store == nil {
			writeError(w, http.StatusBadRequest, "profiles are not available")
			return
		}
		p, err := h.store.Profiles().GetByID(req.ProfileID)
		if err != nil {
			h.writeErr(w, "load profile", err)
			return
		}
		cfg := p.Config
		if req.Side != "" {
			side, err := rep.ParseSide(req.Side)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			cfg.Side = side
		}
		opts = session.Options{Config: &cfg, ProfileID: p.ID}
	} else {
		exercise, err := rep.ParseExercise(req.Exercise)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		side, err := rep.ParseSide(req.Side)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts = session.Options{Exercise: exercise, Side: side}
	}

	s, err := h.sessions.Create(opts)
	if err != nil {
		h.writeErr(w, "create session", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(s))
}

// get handles GET /api/sessions/{id}.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

// delete handles DELETE /api/sessions/{id} and returns the final summary.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sessions.Delete(chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, "delete session", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// frames handles POST /api/sessions/{id}/frames.
func (h *SessionHandler) frames(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "frame too large")
		return
	}
	frame, err := pose.DecodeFrame(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.Feed(frame)
	if err != nil {
		h.writeErr(w, "feed frame", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// reset handles POST /api/sessions/{id}/reset?scope=phase|all.
func (h *SessionHandler) reset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := s.Reset(session.Scope(r.URL.Query().Get("scope"))); err != nil {
		h.writeErr(w, "reset session", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

// summary handles GET /api/sessions/{id}/summary.
func (h *SessionHandler) summary(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Summary())
}

func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, "get session", err)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) writeErr(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(op, "error", err)
		writeError(w, status, "failed to "+op)
		return
	}
	writeError(w, status, err.Error())
}
