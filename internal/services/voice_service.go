package services

import (
	"context"
	"io"

	"clothshop/internal/domain"
	"clothshop/internal/shopapi"
)

type VoiceService struct {
	API   *shopapi.API
	Sales *SalesService
}

func NewVoiceService(api *shopapi.API, sales *SalesService) *VoiceService {
	return &VoiceService{API: api, Sales: sales}
}

// VoiceResult is what the voice page shows after an attempt. Transcript
// survives a failed validation so it can be corrected and resubmitted.
type VoiceResult struct {
	Transcript string
	Draft      *domain.SaleDraft
	Err        error
}

// Transcribe runs upload then validation. A transcription failure is returned
// as the error; a validation failure is reported inside the result.
func (s *VoiceService) Transcribe(ctx context.Context, filename string, audio io.Reader) (VoiceResult, error) {
	tr, err := s.API.Voice.Transcribe(ctx, filename, audio)
	if err != nil {
		return VoiceResult{}, err
	}
	return s.Validate(ctx, tr.Text), nil
}

// Validate re-runs only the second step on an edited transcript.
func (s *VoiceService) Validate(ctx context.Context, text string) VoiceResult {
	res := VoiceResult{Transcript: text}
	draft, err := s.API.Voice.Validate(ctx, text)
	if err != nil {
		res.Err = err
		return res
	}
	res.Draft = &draft
	return res
}

// Confirm saves a reviewed draft as a sale through the normal sale checks.
func (s *VoiceService) Confirm(ctx context.Context, in SaleInput) (domain.Sale, error) {
	return s.Sales.Record(ctx, in)
}
