package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/evanmoss/chatstream/internal/chat"
	"github.com/evanmoss/chatstream/internal/config"
	"github.com/evanmoss/chatstream/internal/logging"
)

// Server handles completion requests from chat clients.
type Server struct {
	cfg      config.ServeConfig
	backends *Backends
	aliases  *Aliases
	defModel string
	log      logging.Logger
}

// NewServer wires a relay server from config.
func NewServer(cfg *config.Config, log logging.Logger) (*Server, error) {
	backends, err := NewBackends(cfg)
	if err != nil {
		return nil, err
	}
	aliases, err := LoadAliases(cfg.Serve.Aliases)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Server{
		cfg:      cfg.Serve,
		backends: backends,
		aliases:  aliases,
		defModel: cfg.DefaultModel,
		log:      log,
	}, nil
}

// Handler returns the HTTP handler for the relay endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.cors(s.auth(s.handleChat)))
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe runs the relay on the configured address.
func (s *Server) ListenAndServe() error {
	s.log.Infof("relay listening on %s", s.cfg.Listen)
	return http.ListenAndServe(s.cfg.Listen, s.Handler())
}

// cors adds the browser headers and answers preflight requests.
func (s *Server) cors(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "authorization, content-type")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

func (s *Server) authorized(r *http.Request) bool {
	token := strings.TrimSpace(s.cfg.Token)
	if token == "" {
		return true
	}
	value := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(value, prefix) {
		return false
	}
	return strings.TrimSpace(strings.TrimPrefix(value, prefix)) == token
}

type chatRequest struct {
	Messages []chat.Turn `json:"messages"`
	Model    string      `json:"model"`
	Stream   bool        `json:"stream"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "messages required"})
		return
	}

	model := req.Model
	if model == "" {
		model = s.defModel
	}
	model = s.aliases.Resolve(model)

	backend, err := s.backends.For(model)
	if err != nil {
		s.log.Errorf("no backend for model %s: %v", model, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	creq := Request{Turns: req.Messages, Model: model}
	if req.Stream {
		s.streamChat(w, r, backend, creq)
		return
	}

	content, err := backend.Complete(r.Context(), creq)
	if err != nil {
		s.log.Errorf("completion failed: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

// streamChat relays backend deltas as event-stream frames. The first delta
// commits the response status, so backend errors raised before it still
// produce a JSON error.
func (s *Server) streamChat(w http.ResponseWriter, r *http.Request, backend Backend, req Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	started := false
	emit := func(delta string) error {
		if !started {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		frame, err := json.Marshal(map[string]any{
			"choices": []map[string]any{{"delta": map[string]string{"content": delta}}},
		})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n", frame); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := backend.Stream(r.Context(), req, emit); err != nil {
		s.log.Errorf("stream failed: %v", err)
		if !started {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		}
		// Mid-stream failures leave the stream unterminated; the client's
		// decoder treats the missing [DONE] as a dropped connection.
		return
	}

	if !started {
		// Zero-delta streams still need a well-formed termination.
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
	}
	fmt.Fprint(w, "data: [DONE]\n")
	flusher.Flush()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
