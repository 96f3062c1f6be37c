package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "clothshop/internal/log"
)

// captureLog collects log lines for the test and restores stdout afterwards.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	applog.SetOutput(&buf)
	t.Cleanup(func() { applog.SetOutput(os.Stdout) })
	return &buf
}

func findAction(t *testing.T, buf *bytes.Buffer, action string) map[string]any {
	t.Helper()
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]any
		if json.Unmarshal([]byte(line), &m) != nil {
			continue
		}
		if m["action"] == action {
			return m
		}
	}
	return nil
}

func TestLoginIsLogged(t *testing.T) {
	env := newTestApp(t)
	buf := captureLog(t)

	post(t, env.app, "/login", newSID(), url.Values{"email": {ownerEmail}, "password": {"S3cretGuess"}})
	fail := findAction(t, buf, "auth.login.fail")
	require.NotNil(t, fail, "failed login logged: %s", buf.String())
	assert.Equal(t, "warn", fail["level"])
	assert.NotContains(t, buf.String(), "S3cretGuess", "passwords never reach the log")

	env.signIn(t, ownerEmail)
	ok := findAction(t, buf, "auth.login.success")
	require.NotNil(t, ok, "successful login logged: %s", buf.String())
	assert.Equal(t, "audit", ok["level"])
	assert.NotContains(t, buf.String(), "access-", "tokens never reach the log")
}
