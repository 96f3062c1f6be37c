package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"clothshop/internal/domain"
	"clothshop/internal/shopapi"
)

type LoanService struct {
	API *shopapi.API
	Now func() time.Time
}

func NewLoanService(api *shopapi.API) *LoanService {
	return &LoanService{API: api}
}

type LoansPage struct {
	Loans       []domain.Loan
	Outstanding float64
	Open        int
}

func (s *LoanService) Page(ctx context.Context) (LoansPage, error) {
	loans, err := s.API.Loans.List(ctx, nil)
	if err != nil {
		return LoansPage{}, err
	}
	// open loans first, then newest
	sort.SliceStable(loans, func(i, j int) bool {
		oi, oj := loans[i].Outstanding() > 0, loans[j].Outstanding() > 0
		if oi != oj {
			return oi
		}
		return loans[i].LoanDate.After(loans[j].LoanDate.Time)
	})
	p := LoansPage{Loans: loans}
	for _, l := range loans {
		if due := l.Outstanding(); due > 0 {
			p.Outstanding += due
			p.Open++
		}
	}
	return p, nil
}

type LoanInput struct {
	CustomerName  string
	CustomerPhone string
	SaleID        int64
	Amount        float64
	Notes         string
	LoanDate      domain.Date
}

func (s *LoanService) Create(ctx context.Context, in LoanInput) (domain.Loan, error) {
	if strings.TrimSpace(in.CustomerName) == "" {
		return domain.Loan{}, ErrCustomerRequired
	}
	if in.Amount <= 0 {
		return domain.Loan{}, fmt.Errorf("%w: loan amount must be positive", ErrInvalidInput)
	}
	if in.LoanDate.IsZero() {
		in.LoanDate = domain.Date{Time: nowOr(s.Now)}
	}
	return s.API.Loans.Create(ctx, domain.Loan{
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerPhone: in.CustomerPhone,
		SaleID:        in.SaleID,
		Amount:        in.Amount,
		Status:        string(domain.PaymentUnpaid),
		Notes:         in.Notes,
		LoanDate:      in.LoanDate,
	})
}

// LoanDetail is one loan with its payment history.
type LoanDetail struct {
	Loan     domain.Loan
	Payments []domain.LoanPayment
}

func (s *LoanService) Detail(ctx context.Context, id int64) (LoanDetail, error) {
	var d LoanDetail
	err := fetchAll(ctx,
		func(ctx context.Context) (err error) { d.Loan, err = s.API.Loans.Get(ctx, id); return },
		func(ctx context.Context) (err error) { d.Payments, err = s.API.Loans.Payments(ctx, id); return },
	)
	return d, err
}

// Pay records a repayment after checking it against the freshly fetched balance.
func (s *LoanService) Pay(ctx context.Context, loanID int64, amount float64, note string) (domain.LoanPayment, error) {
	if amount <= 0 {
		return domain.LoanPayment{}, fmt.Errorf("%w: payment must be positive", ErrInvalidInput)
	}
	loan, err := s.API.Loans.Get(ctx, loanID)
	if err != nil {
		return domain.LoanPayment{}, err
	}
	if amount > loan.Outstanding()+1e-9 {
		return domain.LoanPayment{}, fmt.Errorf("%w: %g due", ErrOverpayment, loan.Outstanding())
	}
	return s.API.Loans.AddPayment(ctx, loanID, domain.LoanPayment{
		Amount:      amount,
		Note:        note,
		PaymentDate: domain.Date{Time: nowOr(s.Now)},
	})
}

func (s *LoanService) Delete(ctx context.Context, id int64) error {
	return s.API.Loans.Delete(ctx, id)
}
