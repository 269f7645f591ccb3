package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/habiliai/aurora/engine"
	"github.com/habiliai/aurora/entity"
	"github.com/habiliai/aurora/errors"
	"github.com/habiliai/aurora/history"
	"github.com/habiliai/aurora/internal/mylog"
	"github.com/habiliai/aurora/memory"
	"github.com/mokiat/gog"
)

const defaultMessageLimit = 30

type (
	Turns interface {
		Run(ctx context.Context, text string) (*engine.TurnResult, error)
		ClearHistory(ctx context.Context) error
	}

	Memories interface {
		ListRecords(ctx context.Context) ([]*memory.Record, error)
		GetCriticalMemories(ctx context.Context) ([]string, error)
		SearchMemory(ctx context.Context, query string, opts ...memory.SearchOption) ([]memory.Record, error)
		DeleteRecord(ctx context.Context, id string) error
	}

	TurnRequest struct {
		Text string `json:"text"`
	}

	TurnResponse struct {
		TurnID   string `json:"turn_id"`
		Answer   string `json:"answer"`
		Mood     string `json:"mood"`
		FollowUp bool   `json:"follow_up"`
		Failed   bool   `json:"failed"`
	}

	Message struct {
		ID        uint      `json:"id"`
		Role      string    `json:"role"`
		Content   string    `json:"content"`
		Mood      string    `json:"mood,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}

	Record struct {
		ID         string    `json:"id"`
		Text       string    `json:"text"`
		Category   string    `json:"category"`
		Importance string    `json:"importance"`
		CreatedAt  time.Time `json:"created_at"`
	}

	SearchRequest struct {
		Query string `json:"query"`
		K     int    `json:"k,omitempty"`
	}

	server struct {
		turns    Turns
		history  history.Store
		memories Memories
		logger   *slog.Logger
	}
)

// NewHandler serves the chat and memory endpoints. Turns are serialized by
// the engine, so concurrent POST /turns requests queue.
func NewHandler(turns Turns, hist history.Store, memories Memories, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = mylog.Discard()
	}
	s := &server{turns: turns, history: hist, memories: memories, logger: logger}

	router := mux.NewRouter()
	router.HandleFunc("/turns", s.postTurn).Methods(http.MethodPost)
	router.HandleFunc("/messages", s.getMessages).Methods(http.MethodGet)
	router.HandleFunc("/messages", s.deleteMessages).Methods(http.MethodDelete)
	router.HandleFunc("/memories", s.getMemories).Methods(http.MethodGet)
	router.HandleFunc("/memories/critical", s.getCriticalMemories).Methods(http.MethodGet)
	router.HandleFunc("/memories/search", s.searchMemories).Methods(http.MethodPost)
	router.HandleFunc("/memories/{id}", s.deleteMemory).Methods(http.MethodDelete)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.PrintRecoveryStack(true),
		handlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
	)

	return cors(recovery(router))
}

func (s *server) postTurn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrapf(errors.ErrInvalidParams, "invalid body: %v", err))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, errors.Wrapf(errors.ErrInvalidParams, "text is required"))
		return
	}

	// a dispatched turn always finishes, even if the client goes away
	res, err := s.turns.Run(context.WithoutCancel(r.Context()), req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, TurnResponse{
		TurnID:   res.TurnID,
		Answer:   res.Answer,
		Mood:     string(res.Mood),
		FollowUp: res.FollowUp,
		Failed:   res.Failed,
	})
}

func (s *server) getMessages(w http.ResponseWriter, r *http.Request) {
	limit := defaultMessageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, errors.Wrapf(errors.ErrInvalidParams, "invalid limit %q", v))
			return
		}
		limit = n
	}

	messages, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, gog.Map(messages, func(m entity.Message) Message {
		return Message{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			Mood:      m.Mood,
			CreatedAt: m.CreatedAt,
		}
	}))
}

func (s *server) deleteMessages(w http.ResponseWriter, r *http.Request) {
	if err := s.turns.ClearHistory(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) getMemories(w http.ResponseWriter, r *http.Request) {
	records, err := s.memories.ListRecords(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, gog.Map(records, func(r *memory.Record) Record {
		return toRecord(*r)
	}))
}

func (s *server) getCriticalMemories(w http.ResponseWriter, r *http.Request) {
	critical, err := s.memories.GetCriticalMemories(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if critical == nil {
		critical = []string{}
	}
	s.writeJSON(w, http.StatusOK, critical)
}

func (s *server) searchMemories(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrapf(errors.ErrInvalidParams, "invalid body: %v", err))
		return
	}

	var opts []memory.SearchOption
	if req.K > 0 {
		opts = append(opts, memory.WithLimit(req.K))
	}
	records, err := s.memories.SearchMemory(r.Context(), req.Query, opts...)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, gog.Map(records, toRecord))
}

func (s *server) deleteMemory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.memories.DeleteRecord(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toRecord(r memory.Record) Record {
	return Record{
		ID:         r.ID,
		Text:       r.Text,
		Category:   string(r.Category),
		Importance: string(r.Importance),
		CreatedAt:  r.CreatedAt,
	}
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", mylog.Err(err))
	}
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrInvalidParams):
		status = http.StatusBadRequest
	case errors.Is(err, errors.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", mylog.Err(err))
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
