package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"conicore/internal/config"
	"conicore/internal/domain"
	"conicore/internal/engine"
	"conicore/internal/extract"
	"conicore/internal/port"
)

// ChatContext summarizes the caller's current dashboard state for the
// system prompt.
type ChatContext struct {
	InvoiceCount      int     `json:"invoiceCount"`
	OutstandingAmount float64 `json:"outstandingAmount"`
	CustomerCount     int     `json:"customerCount"`
	TodayRevenue      float64 `json:"todayRevenue"`
	OverdueCount      int     `json:"overdueCount"`
}

// ChatResult is a chatbot answer plus its provenance.
type ChatResult struct {
	Reply  domain.ChatReply
	Result *domain.EngineResult
}

// FollowUpRequest describes one payment reminder generation.
type FollowUpRequest struct {
	Customer      domain.Customer        `json:"customer"`
	Invoice       domain.InvoiceRef      `json:"invoice"`
	History       *domain.CustomerHistory `json:"customerHistory"`
	Prompt        string                 `json:"prompt"`
	BusinessName  string                 `json:"businessName"`
	BusinessTone  string                 `json:"businessTone"`
	DeliverEmail  bool                   `json:"deliverEmail"`
	ForceProvider string                 `json:"forceProvider"`
}

// FollowUpResult is a generated reminder plus its provenance.
type FollowUpResult struct {
	Message   string
	Result    *domain.EngineResult
	Delivered bool
}

// AssistService runs the text-generation endpoints through the fallback
// chain with deterministic producers as the floor.
type AssistService struct {
	orch     *engine.Orchestrator
	email    port.EmailSender
	business config.BusinessConfig
}

// NewAssistService wires the assist service. email may be nil when no
// delivery channel is configured.
func NewAssistService(orch *engine.Orchestrator, email port.EmailSender, business config.BusinessConfig) *AssistService {
	return &AssistService{orch: orch, email: email, business: business}
}

// Chat answers a conversational query about the invoice system. When every
// provider fails, a pattern-matching producer answers instead.
func (s *AssistService) Chat(ctx context.Context, message string, chatCtx *ChatContext, history []domain.ChatMessage) *ChatResult {
	messages := make([]domain.ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, domain.ChatMessage{Role: "user", Content: message})

	task := engine.Task{
		Kind:         domain.TaskGeneration,
		Intent:       domain.IntentChat,
		SystemPrompt: s.chatSystemPrompt(chatCtx),
		Messages:     messages,
		MaxTokens:    500,
		Temperature:  0.7,
	}

	result := s.orch.Run(ctx, task, func(engine.Task) *domain.EngineResult {
		return &domain.EngineResult{RawText: fallbackChatReply(message, chatCtx)}
	})

	reply := domain.ChatReply{Message: result.RawText}
	if !result.Fallback {
		var parsed domain.ChatReply
		if extract.JSONInto(result.RawText, &parsed) && parsed.Message != "" {
			reply = parsed
		}
	}
	return &ChatResult{Reply: reply, Result: result}
}

func (s *AssistService) chatSystemPrompt(chatCtx *ChatContext) string {
	systemState := ""
	if chatCtx != nil {
		systemState = fmt.Sprintf(`
Current System State:
- Total Invoices: %d
- Outstanding Amount: R%.0f
- Total Customers: %d
- Today's Revenue: R%.0f
- Overdue Invoices: %d
`, chatCtx.InvoiceCount, chatCtx.OutstandingAmount, chatCtx.CustomerCount, chatCtx.TodayRevenue, chatCtx.OverdueCount)
	}

	return fmt.Sprintf(`You are an intelligent assistant for an invoice management system (%s Invoice System).

You can help with:
1. **Creating invoices**: "Create invoice for Beach Bums" - guide user through process
2. **Checking status**: "What's my revenue this month?" - analyze and report
3. **Finding data**: "Show me all overdue invoices" - search and display
4. **Sending reminders**: "Send follow-ups to overdue customers" - initiate action
5. **Product recommendations**: "What should I suggest to this customer?" - analyze history
6. **Business insights**: "How's my cash flow?" - analyze trends
7. **Customer queries**: "Who's my top customer?" - rank and report
8. **General help**: "How do I scan a price list?" - provide instructions

%s

Be conversational, helpful, and action-oriented. When user wants to do something:
1. Confirm what they want
2. Suggest the action in JSON format
3. Provide friendly explanation

Return responses in this format:
{
  "message": "Your conversational response here",
  "action": "create_invoice|send_followup|show_invoices|analyze_data|scan_document|null",
  "actionData": { "any": "relevant data" },
  "suggestions": ["Quick action 1", "Quick action 2"]
}`, s.business.Name, systemState)
}

// fallbackChatReply pattern-matches common queries when no provider is
// reachable.
func fallbackChatReply(message string, chatCtx *ChatContext) string {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "create") && strings.Contains(lower, "invoice"):
		return "Let's create an invoice! Click the 'Create Invoice' button at the top, select a customer, add products, and save. Need help with a specific step?"
	case strings.Contains(lower, "revenue") || strings.Contains(lower, "sales"):
		revenue := 0.0
		if chatCtx != nil {
			revenue = chatCtx.TodayRevenue
		}
		return fmt.Sprintf("Today's revenue is R%.0f. Check the dashboard for detailed analytics!", revenue)
	case strings.Contains(lower, "overdue") || strings.Contains(lower, "follow"):
		overdue := 0
		if chatCtx != nil {
			overdue = chatCtx.OverdueCount
		}
		return fmt.Sprintf("You have %d overdue invoices. Go to AI Insights and click 'Send Follow-ups' to send automated reminders!", overdue)
	case strings.Contains(lower, "customer") || strings.Contains(lower, "client"):
		return "You can view all customers in the Customers tab. Click on any customer to see their history, edit details, or create a new invoice for them."
	case strings.Contains(lower, "scan") || strings.Contains(lower, "ocr"):
		return "You can scan:\n- Supplier invoices (Suppliers tab, Scan Invoice)\n- Price lists (Suppliers tab, Scan Price List)\n- Business cards (Customers tab, Scan Card)\n\nJust take a photo and the AI will extract the data!"
	case strings.Contains(lower, "help") || strings.Contains(lower, "how"):
		return "I can help you with:\n- Creating invoices\n- Checking revenue and analytics\n- Sending payment reminders\n- Scanning documents\n- Finding customers or products\n\nWhat do you need help with?"
	}
	return "I'm here to help! Ask me about creating invoices, checking revenue, sending reminders, scanning documents, or anything else about your invoice system."
}

// FollowUp generates a payment reminder for an overdue invoice. The
// template producer guarantees a message even with every provider down;
// delivery through the email channel is optional and best-effort.
func (s *AssistService) FollowUp(ctx context.Context, req FollowUpRequest) *FollowUpResult {
	businessName := req.BusinessName
	if businessName == "" {
		businessName = s.business.Name
	}
	tone := req.BusinessTone
	if tone == "" {
		tone = s.business.Tone
	}

	task := engine.Task{
		Kind:          domain.TaskGeneration,
		Intent:        domain.IntentFollowup,
		ForceProvider: req.ForceProvider,
		SystemPrompt: fmt.Sprintf("You are a payment reminder assistant for %s. Use a %s. Be professional but warm. Keep messages concise and personalized based on customer history.",
			businessName, tone),
		Prompt:      followUpPrompt(req),
		MaxTokens:   200,
		Temperature: 0.7,
	}

	result := s.orch.Run(ctx, task, func(engine.Task) *domain.EngineResult {
		return &domain.EngineResult{RawText: templateReminder(req.Customer, req.Invoice)}
	})

	out := &FollowUpResult{Message: result.RawText, Result: result}

	if req.DeliverEmail && s.email != nil && req.Customer.Email != "" {
		subject := fmt.Sprintf("Payment reminder: invoice %s", req.Invoice.Number)
		if err := s.email.SendFollowUp(ctx, req.Customer.Email, req.Customer.ContactPerson, subject, out.Message); err != nil {
			log.Printf("follow-up email to %s failed: %v", req.Customer.Email, err)
		} else {
			out.Delivered = true
		}
	}
	return out
}

func followUpPrompt(req FollowUpRequest) string {
	customerContext := ""
	if h := req.History; h != nil {
		note := "Needs gentle encouragement"
		if h.PaymentRate > 90 {
			note = "Excellent payment history!"
		} else if h.PaymentRate > 70 {
			note = "Generally reliable payer"
		}
		tier := h.Tier
		if tier == "" {
			tier = "retail"
		}
		customerContext = fmt.Sprintf("\n\nCustomer Profile:\n- %s tier customer\n- %d previous orders\n- R%.0f total spent\n- %.0f%% on-time payment rate\n- %s",
			strings.ToUpper(tier), h.InvoiceCount, h.TotalSpent, h.PaymentRate, note)
	}

	instructions := req.Prompt
	if instructions == "" {
		instructions = "Keep it friendly but firm. Acknowledge their history if they're a good customer."
	}

	name := req.Customer.ContactPerson
	if name == "" {
		name = req.Customer.CompanyName
	}

	return fmt.Sprintf(`Generate a payment reminder message:

Customer: %s
Invoice: %s
Amount: R%.2f
Due Date: %s
Days Overdue: %d%s

Custom Instructions: %s`,
		name, req.Invoice.Number, req.Invoice.Total, req.Invoice.DueDate, req.Invoice.DaysOverdue, customerContext, instructions)
}

// templateReminder is the deterministic reminder used when every provider
// fails.
func templateReminder(customer domain.Customer, invoice domain.InvoiceRef) string {
	name := customer.ContactPerson
	if name == "" {
		name = customer.CompanyName
	}
	return fmt.Sprintf(`🏄‍♂️ Howzit %s!

Just a friendly reminder about invoice %s for R%.2f.

It's been %d days past the due date.

Can you help us out with payment? 🙏

Reply if you need any help or have questions!

Thanks boet! 🌊`, name, invoice.Number, invoice.Total, invoice.DaysOverdue)
}
