package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// ExecuteTaskResponse reports how a delivered batch settled
// @Description Batch settlement counts
type ExecuteTaskResponse struct {
	Succeeded int `json:"succeeded" example:"9"`
	Failed    int `json:"failed" example:"1"`
}

// ChatBody is the chat request payload
// @Description Chat request: full message history as held by the widget
type ChatBody struct {
	Messages []domain.ChatMessage `json:"messages"`
}

// Header names used by the widget and the task queue
const (
	headerChatbotID       = "X-Chatbot-Id"
	headerConversationRef = "X-Conversation-Ref"
	headerTaskSignature   = "X-Task-Signature"
	headerTaskRetries     = "X-Task-Retries"
)

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns readiness, checking database and queue connections
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A dependency is unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "queue unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Chat

// handleChat godoc
// @Summary      Chat with a chatbot
// @Description  Streams the assistant reply as plain text chunks
// @Tags         Chat
// @Accept       json
// @Produce      plain
// @Param        X-Chatbot-Id        header  string    true   "Chatbot UUID"
// @Param        X-Conversation-Ref  header  string    false  "Client-held conversation reference"
// @Param        request             body    ChatBody  true   "Message history, latest question last"
// @Success      200  {string}  string  "Streamed reply"
// @Failure      400  {object}  ErrorResponse  "Invalid chatbot id or request body"
// @Failure      404  {object}  ErrorResponse  "Unknown chatbot"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /chat [post]
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	chatbotID := r.Header.Get(headerChatbotID)
	if _, err := uuid.Parse(chatbotID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid chatbot id")
		return
	}

	var body ChatBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := domain.ChatRequest{
		ChatbotID:   chatbotID,
		ReferenceID: r.Header.Get(headerConversationRef),
		Messages:    body.Messages,
	}

	sink := newStreamSink(w)
	if err := s.responder.Respond(r.Context(), req, sink); err != nil {
		if sink.wrote {
			// The stream already carried a 200; nothing to do but log
			return
		}
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "a question is required")
		case errors.Is(err, domain.ErrMissingConversationRef):
			writeError(w, http.StatusBadRequest, "conversation reference is required")
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "chatbot not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to generate response")
		}
	}
}

// Task queue callback

// handleExecuteTask godoc
// @Summary      Execute a crawl batch
// @Description  Task-queue callback: fetches, extracts and indexes one batch of links
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        X-Task-Signature  header  string               true   "Signed task token"
// @Param        X-Task-Retries    header  int                  false  "Delivery attempt count"
// @Param        request           body    domain.BatchRequest  true   "Batch of links"
// @Success      200  {object}  ExecuteTaskResponse
// @Failure      400  {object}  ErrorResponse  "Invalid request body"
// @Failure      403  {object}  ErrorResponse  "Bad or missing signature"
// @Failure      500  {object}  ErrorResponse  "Batch failed, redelivery requested"
// @Router       /tasks/execute [post]
func (s *Server) handleExecuteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.taskAuth.Verify(r.Header.Get(headerTaskSignature)); err != nil {
		writeError(w, http.StatusForbidden, "invalid task signature")
		return
	}

	retries := 0
	if v := r.Header.Get(headerTaskRetries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid retries header")
			return
		}
		retries = n
	}

	var req domain.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	disp := s.ingest.ProcessBatch(r.Context(), req, retries)
	if disp.Retry {
		writeError(w, http.StatusInternalServerError, "batch failed, retry requested")
		return
	}

	writeJSON(w, http.StatusOK, ExecuteTaskResponse{
		Succeeded: disp.Succeeded,
		Failed:    disp.Failed,
	})
}

// Crawl management

// handleStartCrawl godoc
// @Summary      Start a crawl
// @Description  Resolves the chatbot's sitemap and dispatches its links for ingestion
// @Tags         Crawls
// @Produce      json
// @Param        id  path  string  true  "Chatbot ID"
// @Success      202  {object}  domain.CrawlJob
// @Failure      404  {object}  ErrorResponse  "Unknown chatbot"
// @Failure      409  {object}  ErrorResponse  "A crawl is already running"
// @Failure      429  {object}  ErrorResponse  "Indexing quota exceeded"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /chatbots/{id}/crawl [post]
func (s *Server) handleStartCrawl(w http.ResponseWriter, r *http.Request) {
	job, err := s.crawlStarter.StartCrawl(r.Context(), r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "chatbot not found")
		case errors.Is(err, domain.ErrCrawlInProgress):
			writeError(w, http.StatusConflict, "a crawl is already running for this chatbot")
		case errors.Is(err, domain.ErrIndexingQuotaExceeded):
			writeError(w, http.StatusTooManyRequests, "indexing quota exceeded")
		default:
			writeError(w, http.StatusInternalServerError, "failed to start crawl")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// handleListJobs godoc
// @Summary      List crawl jobs
// @Description  Returns a chatbot's crawl jobs, newest first
// @Tags         Crawls
// @Produce      json
// @Param        id     path   string  true   "Chatbot ID"
// @Param        limit  query  int     false  "Maximum jobs to return"
// @Success      200  {array}   domain.CrawlJob
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /chatbots/{id}/jobs [get]
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.jobs.ListByChatbot(r.Context(), r.PathValue("id"), queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	if jobs == nil {
		jobs = []*domain.CrawlJob{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

// handleListDocuments godoc
// @Summary      List indexed documents
// @Description  Returns a chatbot's indexed documents, newest first
// @Tags         Documents
// @Produce      json
// @Param        id     path   string  true   "Chatbot ID"
// @Param        limit  query  int     false  "Maximum documents to return"
// @Success      200  {array}   domain.IndexedDocument
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /chatbots/{id}/documents [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.ListByChatbot(r.Context(), r.PathValue("id"), queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	if docs == nil {
		docs = []*domain.IndexedDocument{}
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleListConversation godoc
// @Summary      List conversation messages
// @Description  Returns the messages of one conversation, oldest first
// @Tags         Chat
// @Produce      json
// @Param        id   path  string  true  "Chatbot ID"
// @Param        ref  path  string  true  "Conversation reference"
// @Success      200  {array}   domain.ConversationMessage
// @Failure      404  {object}  ErrorResponse  "Unknown conversation"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /chatbots/{id}/conversations/{ref} [get]
func (s *Server) handleListConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.conversations.GetByReference(r.Context(), r.PathValue("id"), r.PathValue("ref"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	msgs, err := s.conversations.ListMessages(r.Context(), conv.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	if msgs == nil {
		msgs = []*domain.ConversationMessage{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// streamSink adapts the response writer to driving.ReplySink, flushing
// every chunk so tokens reach the widget as they are produced.
type streamSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
	wrote   bool
}

func newStreamSink(w http.ResponseWriter) *streamSink {
	flusher, _ := w.(http.Flusher)
	return &streamSink{w: w, flusher: flusher}
}

func (s *streamSink) Write(chunk string) error {
	if !s.wrote {
		s.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		s.w.Header().Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.wrote = true
	}
	if _, err := s.w.Write([]byte(chunk)); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// Helper functions

func queryLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
