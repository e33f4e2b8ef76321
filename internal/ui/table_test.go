package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "ID", "STATUS")
	tbl.Row("a", "ok")
	tbl.Row("longer-id", 3)
	if err := tbl.Flush(); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), buf.String())
	}
	// Columns are aligned: STATUS starts where "ok" and "3" start.
	col := strings.Index(lines[0], "STATUS")
	if strings.Index(lines[1], "ok") != col || strings.Index(lines[2], "3") != col {
		t.Errorf("columns not aligned:\n%s", buf.String())
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("buffer is not a terminal")
	}
	f, err := os.CreateTemp(t.TempDir(), "x")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if IsTerminal(f) {
		t.Error("regular file is not a terminal")
	}
}

func TestShortAndFirstLine(t *testing.T) {
	if got := Short("0123456789abcdef"); got != "0123456789ab" {
		t.Errorf("Short = %q", got)
	}
	if got := Short("abc"); got != "abc" {
		t.Errorf("Short = %q", got)
	}
	if got := FirstLine("\n subject \n\nbody"); got != "subject" {
		t.Errorf("FirstLine = %q", got)
	}
}
