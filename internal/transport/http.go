package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Services contains the domain services exposed over HTTP.
type Services struct {
	Calls         CallService
	Transfers     TransferService
	Conversations ConversationService
}

// Server wires HTTP handlers.
type Server struct {
	services Services
	logger   *slog.Logger
}

// NewServer creates the API router. The MCP handler, when non-nil, is mounted
// at /mcp behind the same auth middleware.
func NewServer(services Services, authMiddleware func(http.Handler) http.Handler, mcpHandler http.Handler, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	srv := &Server{services: services, logger: logger}

	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		r.Route("/api", func(r chi.Router) {
			r.Post("/calls", srv.handleInitiateCall)
			r.Route("/calls/{callID}", func(r chi.Router) {
				r.Get("/", srv.handleGetCall)
				r.Delete("/", srv.handleCloseCall)
				r.Post("/agents", srv.handleConnectAgent)
				r.Post("/conversation", srv.handleAppendUtterance)
				r.Get("/conversation", srv.handleReadConversation)
				r.Post("/transfer", srv.handleRequestTransfer)
			})
			r.Route("/transfers/{transferID}", func(r chi.Router) {
				r.Get("/", srv.handleGetTransfer)
				r.Post("/complete", srv.handleCompleteTransfer)
				r.Post("/cancel", srv.handleCancelTransfer)
			})
		})

		if mcpHandler != nil {
			r.Handle("/mcp", mcpHandler)
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type initiateCallRequest struct {
	CallerIdentity string `json:"caller_identity"`
}

func (s *Server) handleInitiateCall(w http.ResponseWriter, r *http.Request) {
	var req initiateCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := s.services.Calls.InitiateCall(r.Context(), req.CallerIdentity)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleGetCall(w http.ResponseWriter, r *http.Request) {
	c, err := s.services.Calls.Get(r.Context(), chi.URLParam(r, "callID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCloseCall(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Calls.CloseCall(r.Context(), chi.URLParam(r, "callID")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

type connectAgentRequest struct {
	AgentIdentity string `json:"agent_identity"`
}

func (s *Server) handleConnectAgent(w http.ResponseWriter, r *http.Request) {
	var req connectAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	agentGrant, err := s.services.Calls.ConnectAgent(r.Context(), chi.URLParam(r, "callID"), req.AgentIdentity)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, agentGrant)
}

type appendUtteranceRequest struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type appendUtteranceResponse struct {
	Seq int64 `json:"seq"`
}

func (s *Server) handleAppendUtterance(w http.ResponseWriter, r *http.Request) {
	var req appendUtteranceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	seq, err := s.services.Conversations.Append(r.Context(), chi.URLParam(r, "callID"), req.Speaker, req.Text)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, appendUtteranceResponse{Seq: seq})
}

func (s *Server) handleReadConversation(w http.ResponseWriter, r *http.Request) {
	entries, err := s.services.Conversations.Read(r.Context(), chi.URLParam(r, "callID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type requestTransferRequest struct {
	AgentBIdentity string `json:"agent_b_identity"`
}

func (s *Server) handleRequestTransfer(w http.ResponseWriter, r *http.Request) {
	var req requestTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := s.services.Transfers.RequestTransfer(r.Context(), chi.URLParam(r, "callID"), req.AgentBIdentity)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleGetTransfer(w http.ResponseWriter, r *http.Request) {
	t, err := s.services.Transfers.Get(r.Context(), chi.URLParam(r, "transferID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCompleteTransfer(w http.ResponseWriter, r *http.Request) {
	result, err := s.services.Transfers.CompleteTransfer(r.Context(), chi.URLParam(r, "transferID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCancelTransfer(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Transfers.CancelTransfer(r.Context(), chi.URLParam(r, "transferID")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
