package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven"
)

// MockTokenStream replays a fixed chunk sequence, then io.EOF. Setting
// ErrAfter injects an error once that many chunks were delivered.
type MockTokenStream struct {
	Chunks   []string
	ErrAfter int
	Err      error

	mu     sync.Mutex
	pos    int
	closed bool
}

func (s *MockTokenStream) Recv() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil && s.pos >= s.ErrAfter {
		return "", s.Err
	}
	if s.pos >= len(s.Chunks) {
		return "", io.EOF
	}
	chunk := s.Chunks[s.pos]
	s.pos++
	return chunk, nil
}

func (s *MockTokenStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called (for test assertions).
func (s *MockTokenStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// MockChatModel is a ChatModel for testing.
type MockChatModel struct {
	mu      sync.Mutex
	prompts []string

	// Stream is handed out by StreamCompletion unless StreamFn is set.
	Stream *MockTokenStream

	// Custom behavior hooks (optional)
	StreamFn func(prompt string) (driven.TokenStream, error)
}

// NewMockChatModel creates a model that streams the given chunks.
func NewMockChatModel(chunks ...string) *MockChatModel {
	return &MockChatModel{Stream: &MockTokenStream{Chunks: chunks}}
}

func (m *MockChatModel) StreamCompletion(ctx context.Context, prompt string) (driven.TokenStream, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.StreamFn != nil {
		return m.StreamFn(prompt)
	}
	return m.Stream, nil
}

func (m *MockChatModel) Model() string {
	return "mock-chat-model"
}

func (m *MockChatModel) Ping(ctx context.Context) error {
	return nil
}

// Prompts returns every prompt passed to StreamCompletion.
func (m *MockChatModel) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// MockCapabilityOracle is a CapabilityOracle for testing.
type MockCapabilityOracle struct {
	AllowGenerate bool
	AllowIndex    bool

	// Custom behavior hooks (optional)
	CanGenerateResponseFn func(chatbotID string) (bool, error)
	CanIndexDocumentsFn   func(organizationID string, n int) (bool, error)
}

// NewMockCapabilityOracle creates an oracle permitting everything.
func NewMockCapabilityOracle() *MockCapabilityOracle {
	return &MockCapabilityOracle{AllowGenerate: true, AllowIndex: true}
}

func (m *MockCapabilityOracle) CanGenerateResponse(ctx context.Context, chatbotID string) (bool, error) {
	if m.CanGenerateResponseFn != nil {
		return m.CanGenerateResponseFn(chatbotID)
	}
	return m.AllowGenerate, nil
}

func (m *MockCapabilityOracle) CanIndexDocuments(ctx context.Context, organizationID string, n int) (bool, error) {
	if m.CanIndexDocumentsFn != nil {
		return m.CanIndexDocumentsFn(organizationID, n)
	}
	return m.AllowIndex, nil
}
