package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"image-converter-go/internal/converter"
	"image-converter-go/internal/formats"
	"image-converter-go/internal/history"
	"image-converter-go/internal/preferences"
	"image-converter-go/internal/session"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// HistoryReader is the read side of the run history.
type HistoryReader interface {
	Recent(limit int) ([]history.Run, error)
	Get(id string) (*history.Run, error)
}

type Server struct {
	session    *session.Session
	history    HistoryReader
	log        *logrus.Logger
	router     *mux.Router
	httpServer *http.Server
	wsUpgrader websocket.Upgrader
	wsClients  map[*websocket.Conn]bool
	wsMutex    sync.RWMutex

	resultMutex sync.RWMutex
	lastResult  *session.Result
	converting  atomic.Bool
	batches     sync.WaitGroup
}

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type CandidatesRequest struct {
	Paths []string `json:"paths"`
}

type RuleRequest struct {
	Destination string `json:"destination"`
}

type PreferencesRequest struct {
	OutputDir *string `json:"output_dir,omitempty"`
	Quality   *int    `json:"quality,omitempty"`
}

type FormatInfo struct {
	Source       string   `json:"source"`
	Destinations []string `json:"destinations"`
}

type OutcomeInfo struct {
	SourcePath      string `json:"source_path"`
	DestinationPath string `json:"destination_path,omitempty"`
	Encoder         string `json:"encoder"`
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
	Warning         string `json:"warning,omitempty"`
	BytesWritten    int64  `json:"bytes_written"`
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// NewServer returns a Server driving sess. hist may be nil when history is disabled.
func NewServer(sess *session.Session, hist HistoryReader, log *logrus.Logger) *Server {
	s := &Server{
		session:   sess,
		history:   hist,
		log:       log,
		router:    mux.NewRouter(),
		wsClients: make(map[*websocket.Conn]bool),
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/formats", s.handleFormats).Methods("GET")
	api.HandleFunc("/preferences", s.handleGetPreferences).Methods("GET")
	api.HandleFunc("/preferences", s.handleUpdatePreferences).Methods("PUT")
	api.HandleFunc("/rules", s.handleListRules).Methods("GET")
	api.HandleFunc("/rules/{source}", s.handleSetRule).Methods("PUT")
	api.HandleFunc("/rules/{source}", s.handleRemoveRule).Methods("DELETE")
	api.HandleFunc("/candidates", s.handleListCandidates).Methods("GET")
	api.HandleFunc("/candidates", s.handleAddCandidates).Methods("POST")
	api.HandleFunc("/candidates", s.handleClearCandidates).Methods("DELETE")
	api.HandleFunc("/convert", s.handleConvert).Methods("POST")
	api.HandleFunc("/history", s.handleListHistory).Methods("GET")
	api.HandleFunc("/history/{id}", s.handleGetHistory).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
}

func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.log.Infof("Starting web server on http://localhost%s", addr)
	return s.httpServer.ListenAndServe()
}

// Stop shuts the HTTP server down and waits for a running batch to finish.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.batches.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.resultMutex.RLock()
	result := s.lastResult
	s.resultMutex.RUnlock()

	var last interface{}
	if result != nil {
		last = map[string]interface{}{
			"run_id":    result.RunID,
			"message":   result.Message,
			"total":     len(result.Outcomes),
			"converted": result.Succeeded(),
			"failed":    result.Failed(),
			"summary":   result.Statistics.GetSummary(),
		}
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"running":    s.converting.Load() || s.session.Running(),
			"last_batch": last,
		},
	})
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	var catalog []FormatInfo
	for _, src := range formats.CatalogSources() {
		catalog = append(catalog, FormatInfo{
			Source:       src,
			Destinations: formats.AllowedDestinations(src),
		})
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"catalog":             catalog,
			"supported_sources":   formats.SourceExtensions(),
			"default_destination": formats.DefaultDestination,
		},
	})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, APIResponse{Success: true, Data: s.session.Preferences()})
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req PreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Quality != nil {
		if err := s.session.OnQualityCommitted(*req.Quality); err != nil {
			s.writeCommandError(w, err)
			return
		}
	}
	if req.OutputDir != nil {
		if err := s.session.OnOutputDirChosen(*req.OutputDir); err != nil {
			s.writeCommandError(w, err)
			return
		}
	}

	s.writeJSON(w, APIResponse{Success: true, Data: s.session.Preferences()})
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, APIResponse{Success: true, Data: s.session.Preferences().Rules.Entries()})
}

func (s *Server) handleSetRule(w http.ResponseWriter, r *http.Request) {
	var req RuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	changed, err := s.session.OnRuleAdded(mux.Vars(r)["source"], req.Destination)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}

	message := "Rule saved"
	if !changed {
		message = "Empty rule ignored"
	}
	s.writeJSON(w, APIResponse{Success: true, Message: message, Data: s.session.Preferences().Rules.Entries()})
}

func (s *Server) handleRemoveRule(w http.ResponseWriter, r *http.Request) {
	removed, err := s.session.OnRuleRemoved(mux.Vars(r)["source"])
	if err != nil {
		s.writeCommandError(w, err)
		return
	}

	message := "Rule removed"
	if !removed {
		message = "No rule for that format"
	}
	s.writeJSON(w, APIResponse{Success: true, Message: message, Data: s.session.Preferences().Rules.Entries()})
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, APIResponse{Success: true, Data: s.session.Candidates()})
}

func (s *Server) handleAddCandidates(w http.ResponseWriter, r *http.Request) {
	var req CandidatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	added, rejected, err := s.session.AddCandidates(req.Paths...)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"added":    added,
			"rejected": rejected,
		},
	})
}

func (s *Server) handleClearCandidates(w http.ResponseWriter, r *http.Request) {
	if err := s.session.ClearCandidates(); err != nil {
		s.writeCommandError(w, err)
		return
	}
	s.writeJSON(w, APIResponse{Success: true, Message: "Candidates cleared"})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if !s.converting.CompareAndSwap(false, true) {
		s.writeCommandError(w, session.ErrBusy)
		return
	}
	if err := s.session.Ready(); err != nil {
		s.converting.Store(false)
		s.writeCommandError(w, err)
		return
	}

	s.batches.Add(1)
	go s.runConvertAsync()

	s.writeJSON(w, APIResponse{
		Success: true,
		Message: "Conversion started",
	})
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, "History is disabled", http.StatusNotFound)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.history.Recent(limit)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, APIResponse{Success: true, Data: runs})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, "History is disabled", http.StatusNotFound)
		return
	}

	run, err := s.history.Get(mux.Vars(r)["id"])
	if errors.Is(err, history.ErrRunNotFound) {
		s.writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, APIResponse{Success: true, Data: run})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s.wsMutex.Lock()
	s.wsClients[conn] = true
	s.wsMutex.Unlock()

	s.log.Debug("WebSocket client connected")

	defer func() {
		s.wsMutex.Lock()
		delete(s.wsClients, conn)
		s.wsMutex.Unlock()
		s.log.Debug("WebSocket client disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) runConvertAsync() {
	defer s.batches.Done()
	defer s.converting.Store(false)

	s.broadcastWSMessage("convert_started", map[string]interface{}{
		"files": len(s.session.Candidates()),
	})

	result, err := s.session.Convert(func(done, total int, o converter.Outcome) {
		s.broadcastWSMessage("convert_progress", map[string]interface{}{
			"done":    done,
			"total":   total,
			"outcome": toOutcomeInfo(o),
		})
	})
	if err != nil {
		s.broadcastWSMessage("convert_error", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	s.resultMutex.Lock()
	s.lastResult = result
	s.resultMutex.Unlock()

	s.broadcastWSMessage("convert_completed", map[string]interface{}{
		"run_id":  result.RunID,
		"message": result.Message,
	})
}

func toOutcomeInfo(o converter.Outcome) OutcomeInfo {
	return OutcomeInfo{
		SourcePath:      o.SourcePath,
		DestinationPath: o.DestinationPath,
		Encoder:         o.EncoderName,
		Success:         o.Success,
		Error:           o.Error,
		Warning:         o.Warning,
		BytesWritten:    o.BytesWritten,
	}
}

func (s *Server) broadcastWSMessage(messageType string, data interface{}) {
	message := WSMessage{
		Type: messageType,
		Data: data,
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		s.log.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	// Writes are exclusive: gorilla connections allow one concurrent writer.
	s.wsMutex.Lock()
	defer s.wsMutex.Unlock()

	for conn := range s.wsClients {
		if err := conn.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
			s.log.Errorf("Failed to write WebSocket message: %v", err)
			delete(s.wsClients, conn)
			conn.Close()
		}
	}
}

// writeCommandError maps session and preference errors to status codes.
func (s *Server) writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrBusy):
		s.writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, session.ErrNoImages),
		errors.Is(err, session.ErrNoOutputDir),
		errors.Is(err, preferences.ErrQualityOutOfRange):
		s.writeError(w, err.Error(), http.StatusBadRequest)
	default:
		s.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error:   message,
	})
}
