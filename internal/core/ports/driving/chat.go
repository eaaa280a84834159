package driving

import (
	"context"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
)

// ReplySink receives the streamed answer for one chat turn. The HTTP
// layer implements it over the response writer.
type ReplySink interface {
	// Write forwards one chunk of the answer to the caller.
	Write(chunk string) error
}

// Responder serves chat turns: retrieval, prompt assembly, streaming and
// persistence of the exchange.
type Responder interface {
	// Respond answers one chat turn, streaming the reply through sink.
	// The exchange is persisted before Respond returns; on client
	// disconnect the partial answer is persisted marked truncated.
	Respond(ctx context.Context, req domain.ChatRequest, sink ReplySink) error
}
