package www

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"missioncore/points"
	"missioncore/workflow"
)

func (h *Handlers) apiListMissions(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("active") == "true" {
		h.jsonOK(w, h.engine.Missions().ListActive())
		return
	}
	h.jsonOK(w, h.engine.Missions().List())
}

func (h *Handlers) apiMissionStatus(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		h.jsonError(w, "missing id", http.StatusBadRequest)
		return
	}
	snap, err := h.engine.Missions().Snapshot(id)
	if err != nil {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	h.jsonOK(w, snap)
}

func (h *Handlers) apiMissionHistory(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("id"); id != "" {
		entries, err := h.engine.DB().ListMissionHistory(id)
		if err != nil {
			h.jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.jsonOK(w, entries)
		return
	}
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := h.engine.DB().ListRecentHistory(limit)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, entries)
}

func (h *Handlers) apiCreateMission(w http.ResponseWriter, r *http.Request) {
	var req workflow.TransportRequest
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := h.engine.Builder().CreateTransport(&req)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	if !res.Success {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(res)
		return
	}
	h.jsonOK(w, res)
}

func (h *Handlers) apiCancelMissions(w http.ResponseWriter, r *http.Request) {
	ids := h.engine.Builder().CancelActive()
	h.engine.DB().AppendAudit("mission", "", "cancel_requested", fmt.Sprintf("%d cancelled", len(ids)), h.getUsername(r))
	h.jsonOK(w, map[string]any{"cancelled": ids})
}

func (h *Handlers) apiListPoints(w http.ResponseWriter, r *http.Request) {
	pts, err := h.engine.Resolver().ListAll()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	if cat := r.URL.Query().Get("category"); cat != "" {
		filtered := pts[:0]
		for _, p := range pts {
			if p.Category.String() == cat {
				filtered = append(filtered, p)
			}
		}
		pts = filtered
	}
	h.jsonOK(w, pts)
}

func (h *Handlers) apiResolvePoint(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		h.jsonError(w, "missing id", http.StatusBadRequest)
		return
	}
	p, err := h.engine.Resolver().Resolve(id)
	if err != nil {
		if points.IsNotFound(err) {
			h.jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		h.jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.jsonOK(w, p)
}

func (h *Handlers) apiRefreshPoints(w http.ResponseWriter, r *http.Request) {
	h.engine.Resolver().Invalidate()
	h.jsonOK(w, map[string]string{"status": "refreshing"})
}

func (h *Handlers) apiRobotStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.engine.StatusCache().Get()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.jsonOK(w, status)
}

func (h *Handlers) apiBinState(w http.ResponseWriter, r *http.Request) {
	point := r.URL.Query().Get("point")
	if point == "" {
		h.jsonError(w, "missing point", http.StatusBadRequest)
		return
	}
	bin, err := h.engine.Robot().GetBinState(point)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.jsonOK(w, bin)
}

func (h *Handlers) apiAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := h.engine.DB().ListAuditLog(limit)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, entries)
}

func (h *Handlers) apiHealthCheck(w http.ResponseWriter, r *http.Request) {
	robotOK := false
	if _, err := h.engine.Robot().Ping(); err == nil {
		robotOK = true
	}
	msgOK := false
	if mc := h.engine.MsgClient(); mc != nil {
		msgOK = mc.IsConnected()
	}
	h.jsonOK(w, map[string]any{
		"status":    "ok",
		"robot":     robotOK,
		"messaging": msgOK,
	})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handlers) jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
