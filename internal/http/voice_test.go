package handlers_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clothshop/internal/backendfake"
	"clothshop/internal/domain"
)

func upload(t *testing.T, env *testEnv, sid string, audio []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("audio", "note.webm")
	require.NoError(t, err)
	_, err = fw.Write(audio)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/voice/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestVoiceUploadShowsDraft(t *testing.T) {
	env := newTestApp(t)
	sid := env.signIn(t, salesEmail)

	resp := upload(t, env, sid, []byte("fake-audio"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "sold 3 meters of lawn at 450")
	assert.Contains(t, page, `action="/voice/confirm"`)
	assert.Contains(t, page, `name="variety_id" value="1"`)
}

func TestVoiceValidationFailureKeepsTranscript(t *testing.T) {
	env := newTestApp(t)
	sid := env.signIn(t, salesEmail)
	env.backend.ValidateErr = true

	resp := upload(t, env, sid, []byte("fake-audio"))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "sold 3 meters of lawn at 450", "transcript stays for editing")
	assert.Contains(t, page, "Validation timed out")
	assert.NotContains(t, page, `action="/voice/confirm"`)
	assert.Equal(t, 1, env.backend.CountRequests("POST /sales/voice/validate"), "no automatic retry")

	// the edited text goes through validation alone
	env.backend.ValidateErr = false
	resp = post(t, env.app, "/voice/validate", sid, url.Values{"transcript": {"sold 2 meters of lawn"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), `action="/voice/confirm"`)
	assert.Equal(t, 1, env.backend.CountRequests("POST /sales/voice/transcribe"))
}

func TestVoiceUploadWithoutFile(t *testing.T) {
	env := newTestApp(t)
	sid := env.signIn(t, salesEmail)

	resp := post(t, env.app, "/voice/upload", sid, url.Values{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body(t, resp), "choose an audio recording")
	assert.Zero(t, env.backend.CountRequests("POST /sales/voice"))
}

func TestVoiceConfirmRecordsSale(t *testing.T) {
	env := newTestApp(t)
	sid := env.signIn(t, salesEmail)

	resp := post(t, env.app, "/voice/confirm", sid, url.Values{
		"variety_id":       {"1"},
		"quantity":         {"3"},
		"selling_price":    {"450"},
		"stock_type":       {"old"},
		"payment_status":   {"paid"},
		"salesperson_name": {"Bilal"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/sales", resp.Header.Get("Location"))

	var sales []domain.Sale
	require.NoError(t, env.backend.Records(backendfake.Sales, &sales))
	require.Len(t, sales, 1)
	assert.Equal(t, 3.0, sales[0].Quantity)
}

func TestVoiceValidationShowsBackendDetailOnly(t *testing.T) {
	env := newTestApp(t)
	sid := env.signIn(t, salesEmail)
	env.backend.ValidateErr = true

	resp := post(t, env.app, "/voice/validate", sid, url.Values{"transcript": {"sold 2 meters of lawn"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "Could not understand the sale: Validation timed out.")
	assert.NotContains(t, page, "validate transcript:")
}
