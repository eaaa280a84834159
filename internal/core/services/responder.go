package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driving"
)

// Verify interface compliance
var _ driving.Responder = (*ResponderService)(nil)

const (
	// apologyReply is streamed when the fallback search finds nothing.
	apologyReply = "Sorry, I was not able to find an answer for you."

	// foundDocumentsPrefix heads the fallback citation list.
	foundDocumentsPrefix = "I found these documents that might help you:"

	// fakeStreamChunks is what the debug streamer emits.
	fakeStreamChunks = 25
)

// ResponderService answers chat turns with retrieval-augmented
// generation, falling back to a plain document-link search when the
// capability oracle denies generation. Every answered turn persists its
// (question, answer) pair.
type ResponderService struct {
	chatbots      driven.ChatbotStore
	conversations driven.ConversationStore
	index         driven.VectorIndex
	model         driven.ChatModel
	oracle        driven.CapabilityOracle
	logger        *slog.Logger

	retrieval driven.RetrievalOptions
	fallback  driven.RetrievalOptions

	production bool
	fakeStream bool
}

// ResponderConfig holds dependencies for ResponderService.
type ResponderConfig struct {
	Chatbots      driven.ChatbotStore
	Conversations driven.ConversationStore
	Index         driven.VectorIndex
	Model         driven.ChatModel
	Oracle        driven.CapabilityOracle
	Logger        *slog.Logger

	// Retrieval filters context documents for generated answers
	// (zero value: 2 documents above score 0.8).
	Retrieval driven.RetrievalOptions

	// Production requires a conversation reference id on every request.
	// In development a missing reference is tolerated best-effort.
	Production bool

	// FakeStream streams canned chunks instead of calling the model.
	// Debug aid; set at construction, never toggled at runtime.
	FakeStream bool
}

// NewResponderService creates the chat responder.
func NewResponderService(cfg ResponderConfig) *ResponderService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	retrieval := cfg.Retrieval
	if retrieval.MaxDocuments <= 0 {
		retrieval = driven.DefaultRetrievalOptions()
	}

	return &ResponderService{
		chatbots:      cfg.Chatbots,
		conversations: cfg.Conversations,
		index:         cfg.Index,
		model:         cfg.Model,
		oracle:        cfg.Oracle,
		logger:        logger,
		retrieval:     retrieval,
		fallback:      driven.RetrievalOptions{MaxDocuments: 4},
		production:    cfg.Production,
		fakeStream:    cfg.FakeStream,
	}
}

// Respond answers one chat turn, streaming the reply through sink.
func (s *ResponderService) Respond(ctx context.Context, req domain.ChatRequest, sink driving.ReplySink) error {
	if len(req.Messages) == 0 || strings.TrimSpace(req.Question()) == "" {
		return domain.ErrInvalidInput
	}

	logger := s.logger.With("chatbot_id", req.ChatbotID)

	if req.ReferenceID == "" {
		if s.production {
			return domain.ErrMissingConversationRef
		}
		logger.Warn("missing conversation reference id, continuing without persistence")
	}

	if s.fakeStream {
		return s.streamFake(ctx, sink)
	}

	// The first exchange of a reference-scoped conversation binds the
	// conversation record. The widget sends (greeting, question) first,
	// hence the <= 2 heuristic.
	if req.ReferenceID != "" && len(req.Messages) <= 2 {
		conv := &domain.Conversation{
			ID:          domain.GenerateID(),
			ChatbotID:   req.ChatbotID,
			ReferenceID: req.ReferenceID,
			CreatedAt:   time.Now(),
		}
		if err := s.conversations.CreateConversation(ctx, conv); err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}
	}

	canGenerate, err := s.oracle.CanGenerateResponse(ctx, req.ChatbotID)
	if err != nil {
		logger.Warn("capability check failed, falling back to search", "error", err)
		canGenerate = false
	}

	if !canGenerate {
		return s.respondWithSearch(ctx, req, sink)
	}

	return s.respondWithModel(ctx, req, sink, logger)
}

// respondWithSearch serves the non-generative path: retrieve matching
// documents and stream them as a citation list, or an apology when
// nothing matches.
func (s *ResponderService) respondWithSearch(ctx context.Context, req domain.ChatRequest, sink driving.ReplySink) error {
	docs, err := s.index.Retrieve(ctx, req.Question(), req.ChatbotID, s.fallback)
	if err != nil {
		return fmt.Errorf("retrieve documents: %w", err)
	}

	reply := apologyReply
	if len(docs) > 0 {
		var citations []string
		for _, doc := range docs {
			citations = append(citations, fmt.Sprintf(
				`<a target='_blank' class='document-link' href=%q>%s</a>`,
				doc.Metadata.URL, doc.Metadata.Title,
			))
		}
		reply = foundDocumentsPrefix + "\n\n" + strings.Join(citations, "\n\n")
	}

	if err := sink.Write(reply); err != nil {
		return err
	}

	s.persistExchange(ctx, req, reply, false)
	return nil
}

// respondWithModel serves the generative path: retrieve context, assemble
// the prompt with chat history, stream the model reply and persist the
// exchange. On client disconnect the partial answer is persisted marked
// truncated.
func (s *ResponderService) respondWithModel(ctx context.Context, req domain.ChatRequest, sink driving.ReplySink, logger *slog.Logger) error {
	bot, err := s.chatbots.Get(ctx, req.ChatbotID)
	if err != nil {
		return fmt.Errorf("load chatbot: %w", err)
	}

	docs, err := s.index.Retrieve(ctx, req.Question(), req.ChatbotID, s.retrieval)
	if err != nil {
		return fmt.Errorf("retrieve context: %w", err)
	}

	var contents []string
	for _, doc := range docs {
		contents = append(contents, doc.Content)
	}

	prompt := buildPrompt(bot.SiteName, strings.Join(contents, "\n\n"), formatChatHistory(req.History()), req.Question())

	stream, err := s.model.StreamCompletion(ctx, prompt)
	if err != nil {
		return fmt.Errorf("start completion: %w", err)
	}
	defer stream.Close()

	var answer strings.Builder
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info("client disconnected mid-stream, persisting partial answer")
				s.persistExchange(ctx, req, answer.String(), true)
				return nil
			}
			return fmt.Errorf("model stream: %w", err)
		}

		answer.WriteString(chunk)

		if werr := sink.Write(chunk); werr != nil {
			logger.Info("reply sink closed mid-stream, persisting partial answer", "error", werr)
			s.persistExchange(ctx, req, answer.String(), true)
			return nil
		}
	}

	s.persistExchange(ctx, req, answer.String(), false)
	return nil
}

// streamFake emits canned chunks without touching the model or the store.
func (s *ResponderService) streamFake(ctx context.Context, sink driving.ReplySink) error {
	for i := 0; i < fakeStreamChunks; i++ {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := sink.Write("TEXT "); err != nil {
			return nil
		}
	}
	return nil
}

// persistExchange writes the (question, answer) pair. Persistence is
// best-effort from the caller's perspective: the answer has already been
// streamed, so a storage failure is logged rather than surfaced.
func (s *ResponderService) persistExchange(ctx context.Context, req domain.ChatRequest, answer string, truncated bool) {
	if req.ReferenceID == "" || answer == "" {
		return
	}

	// The stream may have ended because the request context was
	// cancelled; persistence still has to run.
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
	}

	conv, err := s.conversations.GetByReference(ctx, req.ChatbotID, req.ReferenceID)
	if err != nil {
		s.logger.Warn("failed to load conversation for persistence",
			"chatbot_id", req.ChatbotID, "error", err)
		return
	}

	now := time.Now()
	msgs := []*domain.ConversationMessage{
		{
			ID:             domain.GenerateID(),
			ConversationID: conv.ID,
			ChatbotID:      req.ChatbotID,
			Role:           domain.RoleUser,
			Content:        req.Question(),
			CreatedAt:      now,
		},
		{
			ID:             domain.GenerateID(),
			ConversationID: conv.ID,
			ChatbotID:      req.ChatbotID,
			Role:           domain.RoleAssistant,
			Content:        answer,
			Truncated:      truncated,
			CreatedAt:      now,
		},
	}

	if err := s.conversations.SaveMessages(ctx, msgs); err != nil {
		s.logger.Warn("failed to persist exchange",
			"chatbot_id", req.ChatbotID, "error", err)
	}
}

// formatChatHistory pairs prior messages into (user, assistant) turns in
// original order and renders them as alternating Human:/AI: lines,
// oldest first.
func formatChatHistory(history []domain.ChatMessage) string {
	var turns []string
	for i := 0; i < len(history); i += 2 {
		human := history[i].Content
		if i+1 < len(history) {
			turns = append(turns, fmt.Sprintf("Human: %s\nAI: %s", human, history[i+1].Content))
		} else {
			turns = append(turns, "Human: "+human)
		}
	}
	return strings.Join(turns, "\n\n")
}

// buildPrompt assembles the persona prompt with retrieved context, the
// formatted history and the live question.
func buildPrompt(siteName, contextText, chatHistory, question string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful and polite customer support assistant working for %s. ", siteName)
	fmt.Fprintf(&b, "You will reply on behalf of %s and customers will refer to you as %s.\n", siteName, siteName)
	b.WriteString(`Use only CHAT HISTORY and the CONTEXT to answer in a helpful manner to the question. Do not make up answers, emails, links, not in CONTEXT. If you don't know the answer - reply "Sorry, I don't know how to help with that.".
Keep your replies short, compassionate and informative. Output in markdown.
----------------
CONTEXT: `)
	b.WriteString(contextText)
	b.WriteString("\n----------------\nCHAT HISTORY: ")
	b.WriteString(chatHistory)
	b.WriteString("\n----------------\nQUESTION: ")
	b.WriteString(question)
	b.WriteString("\n----------------\nResponse:")
	return b.String()
}
