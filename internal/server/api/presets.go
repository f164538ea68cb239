package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/puppet/internal/store"
)

// PresetApplier poses the live avatar with a stored preset.
type PresetApplier interface {
	ApplyPreset(name string) (int, error)
}

// PresetHandler handles HTTP requests for pose presets.
type PresetHandler struct {
	store   *store.Store
	applier PresetApplier
}

// NewPresetHandler creates a PresetHandler. A nil applier disables the
// apply endpoint.
func NewPresetHandler(s *store.Store, applier PresetApplier) *PresetHandler {
	return &PresetHandler{store: s, applier: applier}
}

// ServeHTTP routes /api/presets, /api/presets/{name} and
// /api/presets/{name}/apply.
func (h *PresetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/presets")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if name, ok := strings.CutSuffix(path, "/apply"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.apply(w, r, name)
		return
	}

	name := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, name)
	case http.MethodPut:
		h.update(w, r, name)
	case http.MethodDelete:
		h.delete(w, r, name)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type presetRequest struct {
	Name  string                `json:"name"`
	Bones map[string][3]float64 `json:"bones"`
}

type listPresetsResponse struct {
	Presets []*store.Preset `json:"presets"`
}

type applyResponse struct {
	Name    string `json:"name"`
	Applied int    `json:"applied"`
}

func (h *PresetHandler) list(w http.ResponseWriter, r *http.Request) {
	presets, err := h.store.Presets().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list presets")
		return
	}
	if presets == nil {
		presets = []*store.Preset{}
	}
	writeJSON(w, http.StatusOK, listPresetsResponse{Presets: presets})
}

func (h *PresetHandler) get(w http.ResponseWriter, r *http.Request, name string) {
	p, err := h.store.Presets().GetByName(name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Preset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get preset")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PresetHandler) create(w http.ResponseWriter, r *http.Request) {
	var req presetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if strings.Contains(req.Name, "/") {
		writeError(w, http.StatusBadRequest, "Name must not contain '/'")
		return
	}

	if _, err := h.store.Presets().GetByName(req.Name); err == nil {
		writeError(w, http.StatusConflict, "Preset already exists")
		return
	}

	p := &store.Preset{Name: req.Name, Bones: req.Bones}
	if err := h.store.Presets().Create(p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create preset")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PresetHandler) update(w http.ResponseWriter, r *http.Request, name string) {
	p, err := h.store.Presets().GetByName(name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Preset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get preset")
		return
	}

	var req presetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	p.Bones = req.Bones
	if err := h.store.Presets().Update(p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update preset")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PresetHandler) delete(w http.ResponseWriter, r *http.Request, name string) {
	if err := h.store.Presets().Delete(name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Preset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete preset")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PresetHandler) apply(w http.ResponseWriter, r *http.Request, name string) {
	if h.applier == nil {
		writeError(w, http.StatusServiceUnavailable, "No avatar to pose")
		return
	}
	n, err := h.applier.ApplyPreset(name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Preset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to apply preset")
		return
	}
	writeJSON(w, http.StatusOK, applyResponse{Name: name, Applied: n})
}
