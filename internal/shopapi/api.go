package shopapi

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"clothshop/internal/domain"
)

// API groups the repositories a signed-in page can use. Build one per
// request; it holds no state beyond the client.
type API struct {
	Varieties       *Resource[domain.Variety]
	Suppliers       *Resource[domain.Supplier]
	Inventory       *Resource[domain.SupplierInventory]
	Returns         *Resource[domain.SupplierReturn]
	Sales           *Resource[domain.Sale]
	Loans           *Loans
	Expenses        *Resource[domain.Expense]
	ShopkeeperStock *Resource[domain.ShopkeeperStockRecord]
	AI              *AI
	Voice           *Voice
}

func New(api Doer) *API {
	return &API{
		Varieties:       NewResource[domain.Variety](api, "/varieties/", "variety"),
		Suppliers:       NewResource[domain.Supplier](api, "/suppliers/", "supplier"),
		Inventory:       NewResource[domain.SupplierInventory](api, "/supplier/inventory", "supplier lot"),
		Returns:         NewResource[domain.SupplierReturn](api, "/supplier/returns", "supplier return"),
		Sales:           NewResource[domain.Sale](api, "/sales/", "sale"),
		Loans:           &Loans{Resource: NewResource[domain.Loan](api, "/loans/", "loan"), api: api},
		Expenses:        NewResource[domain.Expense](api, "/expenses/", "expense"),
		ShopkeeperStock: NewResource[domain.ShopkeeperStockRecord](api, "/shopkeeper-stock/", "stock record"),
		AI:              &AI{api: api},
		Voice:           &Voice{api: api},
	}
}

type Loans struct {
	*Resource[domain.Loan]
	api Doer
}

func (l *Loans) Payments(ctx context.Context, loanID int64) ([]domain.LoanPayment, error) {
	var out []domain.LoanPayment
	if err := l.api.Get(ctx, paymentsPath(loanID), nil, &out); err != nil {
		return nil, fmt.Errorf("list payments for loan %d: %w", loanID, err)
	}
	return out, nil
}

func (l *Loans) AddPayment(ctx context.Context, loanID int64, p domain.LoanPayment) (domain.LoanPayment, error) {
	var out domain.LoanPayment
	if err := l.api.Post(ctx, paymentsPath(loanID), p, &out); err != nil {
		return out, fmt.Errorf("add payment to loan %d: %w", loanID, err)
	}
	return out, nil
}

func paymentsPath(loanID int64) string {
	return "/loans/" + strconv.FormatInt(loanID, 10) + "/payments"
}

type AI struct{ api Doer }

// Chat talks to the owner's analysis agent.
func (a *AI) Chat(ctx context.Context, req domain.ChatRequest) (domain.ChatReply, error) {
	var out domain.ChatReply
	if err := a.api.Post(ctx, "/ai-agent/chat", req, &out); err != nil {
		return out, fmt.Errorf("ai agent: %w", err)
	}
	return out, nil
}

// Ask talks to the salesperson help bot.
func (a *AI) Ask(ctx context.Context, req domain.ChatRequest) (domain.ChatReply, error) {
	var out domain.ChatReply
	if err := a.api.Post(ctx, "/chatbot/ask", req, &out); err != nil {
		return out, fmt.Errorf("chatbot: %w", err)
	}
	return out, nil
}

func (a *AI) DemandForecast(ctx context.Context, days int) ([]domain.DemandForecast, error) {
	var q url.Values
	if days > 0 {
		q = url.Values{"days": {strconv.Itoa(days)}}
	}
	var out []domain.DemandForecast
	if err := a.api.Get(ctx, "/predictions/demand", q, &out); err != nil {
		return nil, fmt.Errorf("demand forecast: %w", err)
	}
	return out, nil
}

type Voice struct{ api Doer }

func (v *Voice) Transcribe(ctx context.Context, filename string, audio io.Reader) (domain.Transcript, error) {
	var out domain.Transcript
	if err := v.api.Upload(ctx, "/sales/voice/transcribe", "audio", filename, audio, &out); err != nil {
		return out, fmt.Errorf("transcribe: %w", err)
	}
	return out, nil
}

func (v *Voice) Validate(ctx context.Context, text string) (domain.SaleDraft, error) {
	var out domain.SaleDraft
	if err := v.api.Post(ctx, "/sales/voice/validate", domain.Transcript{Text: text}, &out); err != nil {
		return out, fmt.Errorf("validate transcript: %w", err)
	}
	return out, nil
}
