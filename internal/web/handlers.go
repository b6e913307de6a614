package web

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/outbound-caller/cli/cmd/config"
	"github.com/outbound-caller/cli/cmd/dispatch"
	"github.com/outbound-caller/cli/cmd/history"
	"github.com/outbound-caller/cli/cmd/liveness"
	"github.com/outbound-caller/cli/cmd/operator"
	"github.com/outbound-caller/cli/cmd/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("page.html").Funcs(template.FuncMap{
	"display": config.DisplayValue,
	"clock":   func(t time.Time) string { return t.Local().Format("Jan 02 15:04") },
}).ParseFS(templateFS, "templates/page.html"))

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			utils.LogDebug("failed to encode response: " + err.Error())
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Agent        liveness.Verdict   `json:"agent"`
	Environment  config.Environment `json:"environment"`
	StartCommand string             `json:"start_command"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, StatusResponse{
		Agent:        s.backend.CheckAgent(r.Context()),
		Environment:  s.backend.Environment(),
		StartCommand: s.backend.StartCommand(),
	})
}

func (s *Server) handleListCalls(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	calls, err := s.backend.RecentCalls(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if calls == nil {
		calls = []history.Record{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"calls": calls})
}

// CreateCallRequest is the body of POST /api/calls.
type CreateCallRequest struct {
	PhoneNumber string `json:"phone_number"`
	TransferTo  string `json:"transfer_to,omitempty"`
	Force       bool   `json:"force,omitempty"`
}

// handleCreateCall answers 200 whenever the dispatcher ran, with success in
// the body, 409 when the agent is down, 400 for an empty number and 502 when
// the dispatcher could not be started.
func (s *Server) handleCreateCall(w http.ResponseWriter, r *http.Request) {
	var req CreateCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	out, err := s.backend.PlaceCall(r.Context(), dispatch.Request{PhoneNumber: req.PhoneNumber, TransferTo: req.TransferTo}, req.Force)
	switch {
	case errors.Is(err, dispatch.ErrEmptyPhoneNumber):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, operator.ErrAgentNotRunning):
		respondError(w, http.StatusConflict, s.backend.NotRunningMessage())
	case err != nil:
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": out.Result.Success,
			"message": out.Message(),
			"warning": out.Result.Warning,
			"call":    out.Record,
		})
	}
}

type pageData struct {
	Agent        liveness.Verdict
	Env          config.Environment
	StartCommand string
	Calls        []history.Record
	HowItWorks   []string
	Phone        string
	TransferTo   string
	Message      string
	MessageError bool
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, data pageData) {
	data.Agent = s.backend.CheckAgent(r.Context())
	data.Env = s.backend.Environment()
	data.StartCommand = s.backend.StartCommand()
	data.HowItWorks = []string{
		"Start the agent with " + data.StartCommand + ".",
		"Enter the phone number to call, with country code.",
		"Optionally enter a transfer number; it defaults to the number being called.",
		"Place Call asks the LiveKit dispatcher to send the agent into a new room, and the agent dials out.",
	}
	calls, err := s.backend.RecentCalls(r.Context(), s.config.RecentCalls)
	if err != nil {
		utils.LogDebug("failed to load call history: " + err.Error())
	}
	data.Calls = calls

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		utils.LogDebug("failed to render page: " + err.Error())
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, pageData{})
}

func (s *Server) handleFormCall(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	data := pageData{
		Phone:      r.PostFormValue("phone_number"),
		TransferTo: r.PostFormValue("transfer_to"),
	}

	out, err := s.backend.PlaceCall(r.Context(), dispatch.Request{PhoneNumber: data.Phone, TransferTo: data.TransferTo}, false)
	switch {
	case errors.Is(err, operator.ErrAgentNotRunning):
		data.Message, data.MessageError = s.backend.NotRunningMessage(), true
	case err != nil:
		data.Message, data.MessageError = "Error: "+err.Error(), true
	default:
		data.Message, data.MessageError = out.Message(), !out.Result.Success
	}
	s.renderPage(w, r, data)
}
