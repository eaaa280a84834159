package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"

	httpadapter "github.com/oriole-labs/sitebot-core/internal/adapters/driving/http"
	"github.com/oriole-labs/sitebot-core/internal/core/domain"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven/mocks"
	"github.com/oriole-labs/sitebot-core/internal/core/services"
)

const (
	chatbotID       = "3d6afb1e-5c34-4a8e-9f14-2b7c8d1e0a92"
	conversationRef = "visitor-1"
	browserAgent    = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
)

// world is the per-scenario fixture: the full service stack wired over
// in-memory adapters, fronted by a real HTTP server.
type world struct {
	chatbots      *mocks.MockChatbotStore
	jobs          *mocks.MockJobStore
	documents     *mocks.MockDocumentStore
	conversations *mocks.MockConversationStore
	index         *mocks.MockVectorIndex
	queue         *mocks.MockTaskQueue
	lock          *mocks.MockDistributedLock
	sitemap       *mocks.MockSitemapResolver
	fetcher       *mocks.MockPageFetcher
	oracle        *mocks.MockCapabilityOracle
	model         *mocks.MockChatModel
	auth          *mocks.MockTaskAuthenticator

	server *httptest.Server

	lastStatus int
	lastBody   string
	lastJob    *domain.CrawlJob
}

func newWorld() *world {
	w := &world{
		chatbots:      mocks.NewMockChatbotStore(),
		jobs:          mocks.NewMockJobStore(),
		documents:     mocks.NewMockDocumentStore(),
		conversations: mocks.NewMockConversationStore(),
		index:         mocks.NewMockVectorIndex(),
		queue:         mocks.NewMockTaskQueue(),
		lock:          mocks.NewMockDistributedLock(),
		sitemap:       &mocks.MockSitemapResolver{},
		fetcher:       mocks.NewMockPageFetcher(nil),
		oracle:        mocks.NewMockCapabilityOracle(),
		model:         mocks.NewMockChatModel(),
		auth:          &mocks.MockTaskAuthenticator{},
	}

	crawlService := services.NewCrawlService(services.CrawlConfig{
		Chatbots:     w.chatbots,
		Jobs:         w.jobs,
		Sitemap:      w.sitemap,
		Queue:        w.queue,
		Lock:         w.lock,
		Oracle:       w.oracle,
		DispatchSize: 2,
	})

	ingestionService := services.NewIngestionService(services.IngestionConfig{
		Jobs:        w.jobs,
		Documents:   w.documents,
		Index:       w.index,
		Fetcher:     w.fetcher,
		Extractor:   &mocks.MockContentExtractor{},
		Concurrency: 1,
		BatchDelay:  1, // effectively no pause
	})

	responderService := services.NewResponderService(services.ResponderConfig{
		Chatbots:      w.chatbots,
		Conversations: w.conversations,
		Index:         w.index,
		Model:         w.model,
		Oracle:        w.oracle,
	})

	server := httpadapter.NewServer(
		httpadapter.DefaultConfig(),
		responderService,
		ingestionService,
		crawlService,
		w.auth,
		w.jobs,
		w.documents,
		w.conversations,
		nil,
		nil,
	)
	w.server = httptest.NewServer(server.Handler())

	return w
}

// Step definitions

func (w *world) aChatbotForTheWebsite(url string) error {
	return w.chatbots.Save(context.Background(), &domain.Chatbot{
		ID:             chatbotID,
		OrganizationID: "org-1",
		Name:           "support bot",
		SiteName:       "Example",
		URL:            url,
	})
}

func (w *world) theSitemapLists(table *godog.Table) error {
	for _, row := range table.Rows {
		w.sitemap.Links = append(w.sitemap.Links, row.Cells[0].Value)
	}
	return nil
}

func (w *world) theSitemapIsUnavailable() error {
	w.sitemap.Err = domain.ErrSitemapUnavailable
	return nil
}

func (w *world) thePageHasContent(url, html string) error {
	w.fetcher.Pages[url] = html
	return nil
}

func (w *world) aCrawlIsAlreadyInProgress() error {
	w.lock.SetLockHeld("crawl:"+chatbotID, time.Minute)
	return nil
}

func (w *world) theIndexingQuotaIsExhausted() error {
	w.oracle.AllowIndex = false
	return nil
}

func (w *world) aCrawlIsStarted() error {
	resp, err := http.Post(w.server.URL+"/api/v1/chatbots/"+chatbotID+"/crawl", "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	w.lastStatus = resp.StatusCode
	w.lastBody = string(body)

	if resp.StatusCode == http.StatusAccepted {
		var job domain.CrawlJob
		if err := json.Unmarshal(body, &job); err != nil {
			return fmt.Errorf("decode crawl job: %w", err)
		}
		w.lastJob = &job
	}
	return nil
}

func (w *world) theCrawlIsAcceptedWithLinks(n int) error {
	if w.lastStatus != http.StatusAccepted {
		return fmt.Errorf("expected 202, got %d: %s", w.lastStatus, w.lastBody)
	}
	if w.lastJob == nil || w.lastJob.TasksCount != n {
		return fmt.Errorf("expected job with %d links, got %+v", n, w.lastJob)
	}
	return nil
}

func (w *world) theCrawlIsRejectedWithStatus(status int) error {
	if w.lastStatus != status {
		return fmt.Errorf("expected %d, got %d: %s", status, w.lastStatus, w.lastBody)
	}
	return nil
}

func (w *world) batchesAreQueued(n int) error {
	if got := len(w.queue.Pending()); got != n {
		return fmt.Errorf("expected %d queued batches, got %d", n, got)
	}
	return nil
}

// theQueuedBatchesAreExecuted drains the queue the way the worker does:
// each batch is POSTed back to the signed task endpoint, acked on 200
// and nacked on 500.
func (w *world) theQueuedBatchesAreExecuted() error {
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		task, err := w.queue.DequeueWithTimeout(ctx, 1)
		if err != nil {
			return err
		}
		if task == nil {
			return nil
		}

		sig, err := w.auth.Sign(task.Batch.JobID)
		if err != nil {
			return err
		}

		payload, err := json.Marshal(task.Batch)
		if err != nil {
			return err
		}
		req, err := http.NewRequest(http.MethodPost, w.server.URL+"/api/v1/tasks/execute", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("X-Task-Signature", sig)
		req.Header.Set("X-Task-Retries", strconv.Itoa(task.Attempts))

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			if err := w.queue.Ack(ctx, task.ID); err != nil {
				return err
			}
		} else {
			if err := w.queue.Nack(ctx, task.ID, "batch failed"); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("queue did not drain")
}

func (w *world) theJobFinishesWithStatus(status string) error {
	resp, err := http.Get(w.server.URL + "/api/v1/chatbots/" + chatbotID + "/jobs")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var jobs []domain.CrawlJob
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return err
	}
	if len(jobs) == 0 {
		return fmt.Errorf("no crawl jobs recorded")
	}
	if string(jobs[0].Status) != status {
		return fmt.Errorf("expected job status %q, got %q", status, jobs[0].Status)
	}
	return nil
}

func (w *world) documentsAreIndexed(n int) error {
	resp, err := http.Get(w.server.URL + "/api/v1/chatbots/" + chatbotID + "/documents")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var docs []domain.IndexedDocument
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		return err
	}
	if len(docs) != n {
		return fmt.Errorf("expected %d indexed documents, got %d", n, len(docs))
	}
	return nil
}

func (w *world) theModelRepliesWith(text string) error {
	w.model.Stream = &mocks.MockTokenStream{Chunks: []string{text}}
	return nil
}

func (w *world) answerGenerationIsNotPermitted() error {
	w.oracle.AllowGenerate = false
	return nil
}

func (w *world) theIndexContainsFromTitled(content, url, title string) error {
	return w.index.AddDocuments(context.Background(), []driven.IndexEntry{{
		Content: content,
		Metadata: domain.DocumentMetadata{
			URL:       url,
			Title:     title,
			ChatbotID: chatbotID,
		},
	}})
}

func (w *world) ask(question, userAgent string) error {
	payload, err := json.Marshal(map[string]any{
		"messages": []domain.ChatMessage{{Role: domain.RoleUser, Content: question}},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, w.server.URL+"/api/v1/chat", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Chatbot-Id", chatbotID)
	req.Header.Set("X-Conversation-Ref", conversationRef)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	w.lastStatus = resp.StatusCode
	w.lastBody = string(body)
	return nil
}

func (w *world) aVisitorAsks(question string) error {
	return w.ask(question, browserAgent)
}

func (w *world) aCrawlerAsks(question string) error {
	return w.ask(question, "Googlebot/2.1 (+http://www.google.com/bot.html)")
}

func (w *world) theStreamedReplyIs(text string) error {
	if w.lastStatus != http.StatusOK {
		return fmt.Errorf("expected 200, got %d: %s", w.lastStatus, w.lastBody)
	}
	if w.lastBody != text {
		return fmt.Errorf("expected reply %q, got %q", text, w.lastBody)
	}
	return nil
}

func (w *world) theReplyLinksTo(url string) error {
	if w.lastStatus != http.StatusOK {
		return fmt.Errorf("expected 200, got %d: %s", w.lastStatus, w.lastBody)
	}
	if !strings.Contains(w.lastBody, `href="`+url+`"`) {
		return fmt.Errorf("expected a link to %s in %q", url, w.lastBody)
	}
	return nil
}

func (w *world) theChatIsRejectedWithStatus(status int) error {
	if w.lastStatus != status {
		return fmt.Errorf("expected %d, got %d: %s", status, w.lastStatus, w.lastBody)
	}
	return nil
}

func (w *world) theConversationHoldsMessages(n int) error {
	resp, err := http.Get(w.server.URL + "/api/v1/chatbots/" + chatbotID + "/conversations/" + conversationRef)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var msgs []domain.ConversationMessage
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		return err
	}
	if len(msgs) != n {
		return fmt.Errorf("expected %d stored messages, got %d", n, len(msgs))
	}
	return nil
}

func InitializeScenario(sc *godog.ScenarioContext) {
	var w *world

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		w = newWorld()
		return ctx, nil
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		w.server.Close()
		return ctx, nil
	})

	sc.Step(`^a chatbot for the website "([^"]*)"$`, func(url string) error { return w.aChatbotForTheWebsite(url) })
	sc.Step(`^the sitemap lists:$`, func(table *godog.Table) error { return w.theSitemapLists(table) })
	sc.Step(`^the sitemap is unavailable$`, func() error { return w.theSitemapIsUnavailable() })
	sc.Step(`^the page "([^"]*)" has content "([^"]*)"$`, func(url, html string) error { return w.thePageHasContent(url, html) })
	sc.Step(`^a crawl is already in progress$`, func() error { return w.aCrawlIsAlreadyInProgress() })
	sc.Step(`^the indexing quota is exhausted$`, func() error { return w.theIndexingQuotaIsExhausted() })
	sc.Step(`^a crawl is started$`, func() error { return w.aCrawlIsStarted() })
	sc.Step(`^the crawl is accepted with (\d+) links?$`, func(n int) error { return w.theCrawlIsAcceptedWithLinks(n) })
	sc.Step(`^the crawl is rejected with status (\d+)$`, func(status int) error { return w.theCrawlIsRejectedWithStatus(status) })
	sc.Step(`^(\d+) batch(?:es)? (?:is|are) queued$`, func(n int) error { return w.batchesAreQueued(n) })
	sc.Step(`^the queued batches are executed$`, func() error { return w.theQueuedBatchesAreExecuted() })
	sc.Step(`^the job finishes with status "([^"]*)"$`, func(status string) error { return w.theJobFinishesWithStatus(status) })
	sc.Step(`^(\d+) documents? (?:is|are) indexed$`, func(n int) error { return w.documentsAreIndexed(n) })

	sc.Step(`^the model replies with "([^"]*)"$`, func(text string) error { return w.theModelRepliesWith(text) })
	sc.Step(`^answer generation is not permitted$`, func() error { return w.answerGenerationIsNotPermitted() })
	sc.Step(`^the index contains "([^"]*)" from "([^"]*)" titled "([^"]*)"$`,
		func(content, url, title string) error { return w.theIndexContainsFromTitled(content, url, title) })
	sc.Step(`^a visitor asks "([^"]*)"$`, func(q string) error { return w.aVisitorAsks(q) })
	sc.Step(`^a crawler pretending to be a visitor asks "([^"]*)"$`, func(q string) error { return w.aCrawlerAsks(q) })
	sc.Step(`^the streamed reply is "([^"]*)"$`, func(text string) error { return w.theStreamedReplyIs(text) })
	sc.Step(`^the reply links to "([^"]*)"$`, func(url string) error { return w.theReplyLinksTo(url) })
	sc.Step(`^the chat is rejected with status (\d+)$`, func(status int) error { return w.theChatIsRejectedWithStatus(status) })
	sc.Step(`^the conversation holds (\d+) messages$`, func(n int) error { return w.theConversationHoldsMessages(n) })
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
