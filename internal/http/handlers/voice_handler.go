package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"clothshop/internal/apiclient"
	"clothshop/internal/log"
	"clothshop/internal/services"
	"clothshop/internal/session"
)

// maxAudioBytes bounds an uploaded voice note.
const maxAudioBytes = 10 << 20

type VoiceHandler struct {
	*Base
}

func (h *VoiceHandler) svc(c *fiber.Ctx) *services.VoiceService {
	api := h.api(c)
	return &services.VoiceService{API: api, Sales: &services.SalesService{API: api, Now: h.Now}}
}

func (h *VoiceHandler) show(c *fiber.Ctx, res services.VoiceResult) error {
	if errors.Is(res.Err, session.ErrSessionEnded) {
		return formError(c, "voice.validate", res.Err, h.Page)
	}
	data := fiber.Map{
		"Transcript": res.Transcript,
		"Draft":      res.Draft,
		"Prefs":      formPrefs(c),
	}
	if res.Err != nil {
		data["ValidateErr"] = apiclient.Detail(res.Err)
	}
	return render(c, "voice", data)
}

// GET /voice
func (h *VoiceHandler) Page(c *fiber.Ctx) error {
	return h.show(c, services.VoiceResult{Transcript: c.FormValue("transcript")})
}

// POST /voice/upload (multipart field "audio")
func (h *VoiceHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("audio")
	if err != nil {
		return formError(c, "voice.transcribe", invalid("choose an audio recording"), h.Page)
	}
	if fh.Size == 0 || fh.Size > maxAudioBytes {
		return formError(c, "voice.transcribe", invalid("recording must be between 1 byte and 10 MB"), h.Page)
	}
	f, err := fh.Open()
	if err != nil {
		return formError(c, "voice.transcribe", err, h.Page)
	}
	defer f.Close()

	res, err := h.svc(c).Transcribe(c.UserContext(), fh.Filename, f)
	if err != nil {
		return formError(c, "voice.transcribe", err, h.Page)
	}
	if res.Err != nil {
		log.Info(c, "voice.validate.fail", map[string]any{"reason": res.Err.Error()})
		return h.show(c.Status(fiber.StatusUnprocessableEntity), res)
	}
	log.Info(c, "voice.transcribe", map[string]any{"bytes": fh.Size})
	return h.show(c, res)
}

// POST /voice/validate re-checks an edited transcript.
func (h *VoiceHandler) Validate(c *fiber.Ctx) error {
	text := c.FormValue("transcript")
	if text == "" {
		return formError(c, "voice.validate", invalid("transcript is empty"), h.Page)
	}
	res := h.svc(c).Validate(c.UserContext(), text)
	if res.Err != nil {
		log.Info(c, "voice.validate.fail", map[string]any{"reason": res.Err.Error()})
		return h.show(c.Status(fiber.StatusUnprocessableEntity), res)
	}
	return h.show(c, res)
}

// POST /voice/confirm saves the reviewed draft.
func (h *VoiceHandler) Confirm(c *fiber.Ctx) error {
	in, err := parseSale(c, h.Base)
	if err != nil {
		return formError(c, "voice.confirm", err, h.Page)
	}
	sale, err := h.svc(c).Confirm(c.UserContext(), in)
	if err != nil {
		return formError(c, "voice.confirm", err, h.Page)
	}
	rememberPrefs(c, in.Salesperson, in.StockType, in.PaymentStatus)
	log.Audit(c, "sale.create", map[string]any{"sale_id": sale.ID, "variety_id": sale.VarietyID, "qty": sale.Quantity, "source": "voice"})
	return done(c, "/sales", "Sale recorded from voice entry")
}
