package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/Paradorn657/RAG-AI/app/agent"
	"github.com/Paradorn657/RAG-AI/types"
)

type stubEmbedder struct {
	vec []float64
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return s.vec, s.err
}

type stubStore struct {
	scored []types.ScoredEntry
}

func (s *stubStore) Search(ctx context.Context, queryVec []float64, k int, minScore float64) ([]types.ScoredEntry, error) {
	return s.scored, nil
}

func (s *stubStore) ProcessedKeys(ctx context.Context) (map[types.SourceKey]struct{}, error) {
	return nil, nil
}

func (s *stubStore) AppendEntries(ctx context.Context, entries []types.Entry) error {
	return nil
}

type spySynthesizer struct {
	called  bool
	answer  string
	err     error
	gotCtx  string
	gotText string
}

func (s *spySynthesizer) Generate(ctx context.Context, contextBlock, question string) (string, error) {
	s.called = true
	s.gotCtx = contextBlock
	s.gotText = question
	return s.answer, s.err
}

func newTestApp(h *AskHandler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/ask", h.HandleAsk)
	return app
}

func askRequest(t *testing.T, app *fiber.App, body string) (*http.Response, types.AskResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	var out types.AskResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatal(err)
		}
	}
	return resp, out
}

func testConfig() types.Config {
	return types.Config{TopK: 3, MinScore: 0.3}
}

func TestHandleAskReturnsAnswer(t *testing.T) {
	spy := &spySynthesizer{answer: "นโยบายกำหนดให้ทบทวนทุกปี"}
	h := NewAskHandler(
		&stubStore{scored: []types.ScoredEntry{
			{Entry: types.Entry{Content: "Policy X requires annual review."}, Score: 1.0},
		}},
		&stubEmbedder{vec: []float64{1, 0, 0}},
		spy,
		testConfig(),
	)

	resp, out := askRequest(t, newTestApp(h), `{"question":"นโยบายทบทวนเมื่อไหร่"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if out.Answer != spy.answer {
		t.Fatalf("expected the synthesized answer, got %q", out.Answer)
	}
	if !spy.called {
		t.Fatal("expected the synthesizer to be called")
	}
	if spy.gotCtx != "Policy X requires annual review." {
		t.Fatalf("unexpected context handed to synthesizer: %q", spy.gotCtx)
	}
}

// Empty knowledge base: the fixed no-information message comes back and the
// synthesizer is never invoked.
func TestHandleAskEmptyRetrievalSkipsSynthesis(t *testing.T) {
	spy := &spySynthesizer{answer: "should never be seen"}
	h := NewAskHandler(&stubStore{}, &stubEmbedder{vec: []float64{1, 0, 0}}, spy, testConfig())

	resp, out := askRequest(t, newTestApp(h), `{"question":"anything"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if out.Answer != agent.MsgNoContext {
		t.Fatalf("expected the fixed no-information message, got %q", out.Answer)
	}
	if spy.called {
		t.Fatal("synthesizer must not be called when retrieval is empty")
	}
}

func TestHandleAskEmbeddingFailure(t *testing.T) {
	spy := &spySynthesizer{}
	h := NewAskHandler(&stubStore{}, &stubEmbedder{err: errors.New("model down")}, spy, testConfig())

	resp, out := askRequest(t, newTestApp(h), `{"question":"anything"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if out.Answer != agent.MsgUnavailable {
		t.Fatalf("expected the fixed apology, got %q", out.Answer)
	}
	if spy.called {
		t.Fatal("synthesizer must not be called without a query embedding")
	}
}

func TestHandleAskSynthesisFailureReturnsApology(t *testing.T) {
	spy := &spySynthesizer{err: &agent.SynthesisError{}}
	h := NewAskHandler(
		&stubStore{scored: []types.ScoredEntry{
			{Entry: types.Entry{Content: "some context"}, Score: 0.9},
		}},
		&stubEmbedder{vec: []float64{1, 0, 0}},
		spy,
		testConfig(),
	)

	resp, out := askRequest(t, newTestApp(h), `{"question":"anything"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if out.Answer != agent.MsgUnavailable {
		t.Fatalf("expected the fixed apology, got %q", out.Answer)
	}
}

func TestHandleAskValidation(t *testing.T) {
	h := NewAskHandler(&stubStore{}, &stubEmbedder{vec: []float64{1}}, &spySynthesizer{}, testConfig())
	app := newTestApp(h)

	resp, _ := askRequest(t, app, `{"question":""}`)
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing question, got %d", resp.StatusCode)
	}

	resp, _ = askRequest(t, app, `not json`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", resp.StatusCode)
	}
}
