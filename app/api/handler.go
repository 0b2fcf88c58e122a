package api

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/Paradorn657/RAG-AI/app/agent"
	"github.com/Paradorn657/RAG-AI/model"
	"github.com/Paradorn657/RAG-AI/store"
	"github.com/Paradorn657/RAG-AI/types"
)

type AskHandler struct {
	contextStore store.KnowledgeStore
	embedder     model.Embedder
	synthesizer  agent.Synthesizer
	cfg          types.Config
}

func NewAskHandler(contextStore store.KnowledgeStore, embedder model.Embedder, synthesizer agent.Synthesizer, cfg types.Config) *AskHandler {
	return &AskHandler{
		contextStore: contextStore,
		embedder:     embedder,
		synthesizer:  synthesizer,
		cfg:          cfg,
	}
}

// HandleAsk serves POST /ask. The two failure modes a user can see are the
// fixed no-information and system-unavailable strings; raw errors stay in
// the log.
func (h *AskHandler) HandleAsk(c *fiber.Ctx) error {
	var params types.QueryParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	ctx := c.Context()

	queryVec, err := h.embedder.Embed(ctx, params.Question)
	if err != nil {
		// No embedding means no retrieval and no answer.
		log.Printf("[ASK] failed to embed question: %v", err)
		return c.JSON(types.AskResponse{Answer: agent.MsgUnavailable})
	}

	scored, err := h.contextStore.Search(ctx, queryVec, h.cfg.TopK, h.cfg.MinScore)
	if err != nil {
		log.Printf("[ASK] retrieval failed: %v", err)
		return c.JSON(types.AskResponse{Answer: agent.MsgUnavailable})
	}

	contextBlock := store.JoinContext(scored)
	if contextBlock == "" {
		log.Printf("[ASK] no entry above threshold %.2f, answering without synthesis", h.cfg.MinScore)
		return c.JSON(types.AskResponse{Answer: agent.MsgNoContext})
	}

	answer, err := h.synthesizer.Generate(ctx, contextBlock, params.Question)
	if err != nil {
		log.Printf("[ASK] synthesis failed: %v", err)
		return c.JSON(types.AskResponse{Answer: agent.MsgUnavailable})
	}

	return c.JSON(types.AskResponse{Answer: answer})
}
