package report_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sw965/actorcritic/report"
)

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := report.Write(&buf, "CartPole-v1 training",
		report.IntSeries("episode length", []int{12, 30, 41}),
		report.Series{Name: "running reward", Values: []float64{10.02, 10.2978, 10.6048}},
	)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	html := buf.String()
	for _, want := range []string{"<html", "CartPole-v1 training", "episode length", "running reward", "10.6048"} {
		if !strings.Contains(html, want) {
			t.Errorf("expected the page to contain %q", want)
		}
	}
}

func TestWriteNoSeries(t *testing.T) {
	var buf bytes.Buffer
	if err := report.Write(&buf, "empty"); !errors.Is(err, report.ErrNoSeries) {
		t.Errorf("expected ErrNoSeries, got %v", err)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "history.html")
	if err := report.WriteFile(path, "history", report.IntSeries("length", []int{1, 2})); err != nil {
		t.Fatalf("write file: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Contains(b, []byte("length")) {
		t.Errorf("expected the series name in %s", path)
	}
}
