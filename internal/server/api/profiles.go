package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ayusman/repsense/internal/rep"
	"github.com/ayusman/repsense/internal/store"
)

// ProfileHandler handles HTTP requests for tuning profiles.
type ProfileHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler with the given store.
func NewProfileHandler(s *store.Store, logger *slog.Logger) *ProfileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileHandler{store: s, logger: logger}
}

// Routes returns the profile routes, relative to their mount point.
func (h *ProfileHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	return r
}

// profileRequest carries a profile body. Unset tuning fields take the
// stock value for the exercise on create and keep the stored value on update.
type profileRequest struct {
	Name             string   `json:"name"`
	Exercise         string   `json:"exercise"`
	Side             string   `json:"side"`
	DownThreshold    *float64 `json:"down_threshold"`
	BottomThreshold  *float64 `json:"bottom_threshold"`
	UpThreshold      *float64 `json:"up_threshold"`
	Hysteresis       *float64 `json:"hysteresis"`
	ROMTarget        *float64 `json:"rom_target"`
	Alpha            *float64 `json:"alpha"`
	MinRepDurationMs *int64   `json:"min_rep_duration_ms"`
	MinVisibility    *float64 `json:"min_visibility"`
}

func (req *profileRequest) applyTo(c *rep.Config) {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.DownThreshold, req.DownThreshold)
	set(&c.BottomThreshold, req.BottomThreshold)
	set(&c.UpThreshold, req.UpThreshold)
	set(&c.Hysteresis, req.Hysteresis)
	set(&c.ROMTarget, req.ROMTarget)
	set(&c.Alpha, req.Alpha)
	set(&c.MinVisibility, req.MinVisibility)
	if req.MinRepDurationMs != nil {
		c.MinRepDurationMs = *req.MinRepDurationMs
	}
}

type profileResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Config    rep.Config `json:"config"`
	CreatedAt string     `json:"created_at"`
	UpdatedAt string     `json:"updated_at"`
}

type listProfilesResponse struct {
	Profiles []profileResponse `json:"profiles"`
}

func toProfileResponse(p *store.Profile) profileResponse {
	return profileResponse{
		ID:        p.ID,
		Name:      p.Name,
		Config:    p.Config,
		CreatedAt: formatTime(p.CreatedAt),
		UpdatedAt: formatTime(p.UpdatedAt),
	}
}

// list handles GET /api/profiles[?exercise=...].
func (h *ProfileHandler) list(w http.ResponseWriter, r *http.Request) {
	var exercise rep.Exercise
	if q := r.URL.Query().Get("exercise"); q != "" {
		ex, err := rep.ParseExercise(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		exercise = ex
	}

	profiles, err := h.store.Profiles().List(exercise)
	if err != nil {
		h.logger.Error("list profiles", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list profiles")
		return
	}

	response := listProfilesResponse{Profiles: make([]profileResponse, 0, len(profiles))}
	for _, p := range profiles {
		response.Profiles = append(response.Profiles, toProfileResponse(p))
	}
	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/profiles.
func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

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
	cfg, err := rep.DefaultConfig(exercise, side)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.applyTo(&cfg)

	p := &store.Profile{
		ID:     uuid.New().String(),
		Name:   req.Name,
		Config: cfg,
	}
	if err := h.store.Profiles().Create(p); err != nil {
		h.writeStoreError(w, "create profile", err)
		return
	}

	h.logger.Info("profile created", "id", p.ID, "name", p.Name, "exercise", cfg.Exercise)
	writeJSON(w, http.StatusCreated, toProfileResponse(p))
}

// get handles GET /api/profiles/{id}.
func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Profiles().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeStoreError(w, "get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

// update handles PUT /api/profiles/{id}.
func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Profiles().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeStoreError(w, "get profile", err)
		return
	}

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Exercise != "" {
		exercise, err := rep.ParseExercise(req.Exercise)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if exercise != p.Config.Exercise {
			// Thresholds only make sense for the exercise they were tuned for.
			cfg, err := rep.DefaultConfig(exercise, p.Config.Side)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			p.Config = cfg
		}
	}
	if req.Side != "" {
		side, err := rep.ParseSide(req.Side)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		p.Config.Side = side
	}
	req.applyTo(&p.Config)

	if err := h.store.Profiles().Update(p); err != nil {
		h.writeStoreError(w, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

// delete handles DELETE /api/profiles/{id}.
func (h *ProfileHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Profiles().Delete(chi.URLParam(r, "id")); err != nil {
		h.writeStoreError(w, "delete profile", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfileHandler) writeStoreError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(op, "error", err)
		writeError(w, status, "failed to "+op)
		return
	}
	writeError(w, status, err.Error())
}
