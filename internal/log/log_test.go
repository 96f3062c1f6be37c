package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestWriteJSONLines(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Audit(nil, "sale.create", map[string]any{"sale_id": "s-1"})
	Error(nil, "session.refresh.fail", errors.New("backend down"), nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 lines, got %d: %q", len(lines), buf.String())
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if first["level"] != "audit" || first["action"] != "sale.create" {
		t.Fatalf("unexpected audit line: %v", first)
	}
	if _, ok := first["ts"]; !ok {
		t.Fatalf("timestamp missing: %v", first)
	}
	fields, _ := first["fields"].(map[string]any)
	if fields["sale_id"] != "s-1" {
		t.Fatalf("fields not carried: %v", first)
	}

	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if second["level"] != "error" || second["err"] != "backend down" {
		t.Fatalf("unexpected error line: %v", second)
	}
}
