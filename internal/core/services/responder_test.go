package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven/mocks"
)

// testSink collects written chunks; FailAfter > 0 makes writes fail once
// that many chunks were accepted, simulating a client disconnect.
type testSink struct {
	chunks    []string
	FailAfter int
}

func (s *testSink) Write(chunk string) error {
	if s.FailAfter > 0 && len(s.chunks) >= s.FailAfter {
		return errors.New("client gone")
	}
	s.chunks = append(s.chunks, chunk)
	return nil
}

func (s *testSink) Text() string { return strings.Join(s.chunks, "") }

type responderFixture struct {
	chatbots      *mocks.MockChatbotStore
	conversations *mocks.MockConversationStore
	index         *mocks.MockVectorIndex
	model         *mocks.MockChatModel
	oracle        *mocks.MockCapabilityOracle
	service       *ResponderService
}

func newResponderFixture(t *testing.T, production bool, chunks ...string) *responderFixture {
	t.Helper()

	f := &responderFixture{
		chatbots:      mocks.NewMockChatbotStore(),
		conversations: mocks.NewMockConversationStore(),
		index:         mocks.NewMockVectorIndex(),
		model:         mocks.NewMockChatModel(chunks...),
		oracle:        mocks.NewMockCapabilityOracle(),
	}
	require.NoError(t, f.chatbots.Save(context.Background(), &domain.Chatbot{
		ID:             "bot-1",
		OrganizationID: "org-1",
		SiteName:       "Acme Support",
		URL:            "https://acme.test",
	}))
	f.service = NewResponderService(ResponderConfig{
		Chatbots:      f.chatbots,
		Conversations: f.conversations,
		Index:         f.index,
		Model:         f.model,
		Oracle:        f.oracle,
		Production:    production,
	})
	return f
}

func chatRequest(ref string, contents ...string) domain.ChatRequest {
	req := domain.ChatRequest{ChatbotID: "bot-1", ReferenceID: ref}
	role := domain.RoleUser
	for _, c := range contents {
		req.Messages = append(req.Messages, domain.ChatMessage{Role: role, Content: c})
		if role == domain.RoleUser {
			role = domain.RoleAssistant
		} else {
			role = domain.RoleUser
		}
	}
	return req
}

func (f *responderFixture) savedMessages(t *testing.T, ref string) []*domain.ConversationMessage {
	t.Helper()
	conv, err := f.conversations.GetByReference(context.Background(), "bot-1", ref)
	require.NoError(t, err)
	return f.conversations.Messages(conv.ID)
}

func TestRespond_StreamsAndPersistsAnswer(t *testing.T) {
	f := newResponderFixture(t, true, "The answer ", "is 42.")
	sink := &testSink{}

	err := f.service.Respond(context.Background(), chatRequest("ref-1", "What is the answer?"), sink)
	require.NoError(t, err)

	assert.Equal(t, "The answer is 42.", sink.Text())
	assert.True(t, f.model.Stream.Closed())

	msgs := f.savedMessages(t, "ref-1")
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, "What is the answer?", msgs[0].Content)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "The answer is 42.", msgs[1].Content)
	assert.False(t, msgs[1].Truncated)
}

func TestRespond_PromptCarriesContextHistoryAndPersona(t *testing.T) {
	f := newResponderFixture(t, true, "ok")
	require.NoError(t, f.index.AddDocuments(context.Background(), []driven.IndexEntry{{
		Content:  "Our refund window is 30 days.",
		Metadata: domain.DocumentMetadata{ChatbotID: "bot-1", URL: "https://acme.test/refunds", Title: "Refunds"},
	}}))

	req := chatRequest("ref-1", "Hi", "Hello! How can I help?", "Tell me about the refund window")
	require.NoError(t, f.service.Respond(context.Background(), req, &testSink{}))

	prompts := f.model.Prompts()
	require.Len(t, prompts, 1)
	prompt := prompts[0]
	assert.Contains(t, prompt, "working for Acme Support")
	assert.Contains(t, prompt, "Our refund window is 30 days.")
	assert.Contains(t, prompt, "Human: Hi\nAI: Hello! How can I help?")
	assert.Contains(t, prompt, "QUESTION: Tell me about the refund window")
}

func TestRespond_FirstExchangeCreatesConversation(t *testing.T) {
	f := newResponderFixture(t, true, "hello")

	req := chatRequest("ref-1", "greeting", "first question")
	require.NoError(t, f.service.Respond(context.Background(), req, &testSink{}))

	assert.Equal(t, 1, f.conversations.ConversationCount())
	conv, err := f.conversations.GetByReference(context.Background(), "bot-1", "ref-1")
	require.NoError(t, err)
	assert.Equal(t, "bot-1", conv.ChatbotID)
}

func TestRespond_LaterExchangeDoesNotCreateConversation(t *testing.T) {
	f := newResponderFixture(t, true, "hello")
	require.NoError(t, f.conversations.CreateConversation(context.Background(), &domain.Conversation{
		ID: "conv-1", ChatbotID: "bot-1", ReferenceID: "ref-1", CreatedAt: time.Now(),
	}))

	req := chatRequest("ref-1", "q1", "a1", "q2")
	require.NoError(t, f.service.Respond(context.Background(), req, &testSink{}))

	assert.Equal(t, 1, f.conversations.ConversationCount())
}

func TestRespond_MissingReferenceInProduction(t *testing.T) {
	f := newResponderFixture(t, true, "hello")

	err := f.service.Respond(context.Background(), chatRequest("", "question"), &testSink{})
	assert.ErrorIs(t, err, domain.ErrMissingConversationRef)
}

func TestRespond_MissingReferenceToleratedInDevelopment(t *testing.T) {
	f := newResponderFixture(t, false, "hello")
	sink := &testSink{}

	err := f.service.Respond(context.Background(), chatRequest("", "question"), sink)
	require.NoError(t, err)
	assert.Equal(t, "hello", sink.Text())
	assert.Equal(t, 0, f.conversations.ConversationCount())
}

func TestRespond_EmptyQuestionRejected(t *testing.T) {
	f := newResponderFixture(t, true, "hello")

	err := f.service.Respond(context.Background(), chatRequest("ref-1"), &testSink{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = f.service.Respond(context.Background(), chatRequest("ref-1", "   "), &testSink{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRespond_FallbackSearchStreamsCitations(t *testing.T) {
	f := newResponderFixture(t, true, "never used")
	f.oracle.AllowGenerate = false
	require.NoError(t, f.index.AddDocuments(context.Background(), []driven.IndexEntry{{
		Content:  "refund policy details",
		Metadata: domain.DocumentMetadata{ChatbotID: "bot-1", URL: "https://acme.test/refunds", Title: "Refund Policy"},
	}}))

	sink := &testSink{}
	require.NoError(t, f.service.Respond(context.Background(), chatRequest("ref-1", "greeting", "refund"), sink))

	require.Len(t, sink.chunks, 1, "fallback reply is written in one chunk")
	assert.Contains(t, sink.Text(), "I found these documents that might help you:")
	assert.Contains(t, sink.Text(), `<a target='_blank' class='document-link' href="https://acme.test/refunds">Refund Policy</a>`)
	assert.Empty(t, f.model.Prompts())

	msgs := f.savedMessages(t, "ref-1")
	require.Len(t, msgs, 2)
	assert.Equal(t, sink.Text(), msgs[1].Content)
}

func TestRespond_FallbackSearchApologyWhenNothingFound(t *testing.T) {
	f := newResponderFixture(t, true, "never used")
	f.oracle.AllowGenerate = false

	sink := &testSink{}
	require.NoError(t, f.service.Respond(context.Background(), chatRequest("ref-1", "greeting", "refund"), sink))

	assert.Equal(t, "Sorry, I was not able to find an answer for you.", sink.Text())
}

func TestRespond_OracleErrorFallsBackToSearch(t *testing.T) {
	f := newResponderFixture(t, true, "never used")
	f.oracle.CanGenerateResponseFn = func(chatbotID string) (bool, error) {
		return false, errors.New("policy service down")
	}

	sink := &testSink{}
	require.NoError(t, f.service.Respond(context.Background(), chatRequest("ref-1", "greeting", "anything"), sink))
	assert.Equal(t, "Sorry, I was not able to find an answer for you.", sink.Text())
	assert.Empty(t, f.model.Prompts())
}

func TestRespond_SinkFailurePersistsTruncatedAnswer(t *testing.T) {
	f := newResponderFixture(t, true, "part one ", "part two ", "never delivered")
	sink := &testSink{FailAfter: 2}

	err := f.service.Respond(context.Background(), chatRequest("ref-1", "greeting", "question"), sink)
	require.NoError(t, err, "disconnects end the turn quietly")

	msgs := f.savedMessages(t, "ref-1")
	require.Len(t, msgs, 2)
	assert.True(t, msgs[1].Truncated)
	assert.Equal(t, "part one part two never delivered", msgs[1].Content,
		"everything received from the model before the failed write is kept")
}

func TestRespond_StreamCancellationPersistsTruncatedAnswer(t *testing.T) {
	f := newResponderFixture(t, true)
	f.model.Stream = &mocks.MockTokenStream{
		Chunks:   []string{"partial "},
		ErrAfter: 1,
		Err:      context.Canceled,
	}

	sink := &testSink{}
	err := f.service.Respond(context.Background(), chatRequest("ref-1", "greeting", "question"), sink)
	require.NoError(t, err)

	msgs := f.savedMessages(t, "ref-1")
	require.Len(t, msgs, 2)
	assert.True(t, msgs[1].Truncated)
	assert.Equal(t, "partial ", msgs[1].Content)
}

func TestRespond_ModelErrorSurfaces(t *testing.T) {
	f := newResponderFixture(t, true)
	modelErr := errors.New("model overloaded")
	f.model.Stream = &mocks.MockTokenStream{Err: modelErr}

	err := f.service.Respond(context.Background(), chatRequest("ref-1", "greeting", "question"), &testSink{})
	assert.ErrorIs(t, err, modelErr)
}

func TestRespond_FakeStreamSkipsModelAndStore(t *testing.T) {
	f := newResponderFixture(t, true, "never used")
	f.service = NewResponderService(ResponderConfig{
		Chatbots:      f.chatbots,
		Conversations: f.conversations,
		Index:         f.index,
		Model:         f.model,
		Oracle:        f.oracle,
		Production:    true,
		FakeStream:    true,
	})

	sink := &testSink{}
	require.NoError(t, f.service.Respond(context.Background(), chatRequest("ref-1", "question"), sink))

	assert.Len(t, sink.chunks, 25)
	assert.Equal(t, "TEXT ", sink.chunks[0])
	assert.Empty(t, f.model.Prompts())
	assert.Equal(t, 0, f.conversations.ConversationCount())
}

func TestFormatChatHistory(t *testing.T) {
	history := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
		{Role: domain.RoleUser, Content: "dangling"},
	}

	got := formatChatHistory(history)
	assert.Equal(t, "Human: hi\nAI: hello\n\nHuman: dangling", got)
	assert.Empty(t, formatChatHistory(nil))
}
