package http

import (
	"net/http"

	"accountbook/internal/core"
)

// settingsResponse carries the resolved settings with the choices a client
// can offer and the resulting amount labels.
type settingsResponse struct {
	Settings    core.Settings     `json:"settings"`
	Labels      core.Labels       `json:"labels"`
	Currencies  []core.Currency   `json:"currencies"`
	DateFormats []core.DateFormat `json:"date_formats"`
}

func newSettingsResponse(st core.Settings) settingsResponse {
	return settingsResponse{
		Settings:    st,
		Labels:      st.Labels(),
		Currencies:  core.Currencies(),
		DateFormats: core.DateFormats(),
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Settings.Resolve(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newSettingsResponse(st))
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var u core.SettingsUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := s.deps.Settings.Update(r.Context(), u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newSettingsResponse(st))
}
