package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"clothshop/internal/domain"
	"clothshop/internal/log"
	"clothshop/internal/services"
	"clothshop/internal/validate"
)

// AssistantHandler serves the owner's AI agent, the salesperson chatbot and
// demand forecasts.
type AssistantHandler struct {
	*Base
}

func (h *AssistantHandler) svc(c *fiber.Ctx) *services.AssistantService {
	return &services.AssistantService{API: h.api(c)}
}

type chatPage struct {
	title  string
	action string
	path   string
	send   func(*services.AssistantService, context.Context, services.Conversation, string) (services.Conversation, error)
}

var (
	agentPage = chatPage{title: "AI Agent", action: "ai.chat", path: "/ai-agent", send: (*services.AssistantService).Chat}
	botPage   = chatPage{title: "Chatbot", action: "chatbot.ask", path: "/chatbot", send: (*services.AssistantService).Ask}
)

func (h *AssistantHandler) show(c *fiber.Ctx, p chatPage, conv services.Conversation, draft string) error {
	return render(c, "chat", fiber.Map{
		"Title":   p.title,
		"Action":  p.path,
		"History": conv,
		"Encoded": conv.Encode(),
		"Draft":   draft,
	})
}

func (h *AssistantHandler) exchange(c *fiber.Ctx, p chatPage) error {
	history := services.DecodeConversation(c.FormValue("history"))
	msg := c.FormValue("message")
	conv, err := p.send(h.svc(c), c.UserContext(), history, msg)
	if err != nil {
		return formError(c, p.action, err, func(c *fiber.Ctx) error { return h.show(c, p, history, msg) })
	}
	log.Info(c, p.action, map[string]any{"turns": len(conv) / 2})
	return h.show(c, p, conv, "")
}

// GET /ai-agent
func (h *AssistantHandler) Agent(c *fiber.Ctx) error { return h.show(c, agentPage, nil, "") }

// POST /ai-agent
func (h *AssistantHandler) AgentSend(c *fiber.Ctx) error { return h.exchange(c, agentPage) }

// GET /chatbot
func (h *AssistantHandler) Chatbot(c *fiber.Ctx) error { return h.show(c, botPage, nil, "") }

// POST /chatbot
func (h *AssistantHandler) ChatbotSend(c *fiber.Ctx) error { return h.exchange(c, botPage) }

// GET /forecasts?days=N
func (h *AssistantHandler) Forecasts(c *fiber.Ctx) error {
	days := validate.Days(c.Query("days"), 30)
	rows, err := h.svc(c).Forecast(c.UserContext(), days)
	if err != nil {
		return pageError(c, "forecast.load", err)
	}
	var reorder []domain.DemandForecast
	for _, r := range rows {
		if r.RecommendedOrder > 0 {
			reorder = append(reorder, r)
		}
	}
	return render(c, "forecasts", fiber.Map{
		"Rows":    rows,
		"Reorder": reorder,
		"Days":    strconv.Itoa(days),
	})
}
