package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSectionsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "k.htm")
	doc := `<html><body><p>Item 1 Business</p><p>We make widgets for every market.</p>
<p>Item 1A Risk Factors</p><p>Supply chain volatility could hurt margins.</p>
<p>Item 7 MD&amp;A</p><p>Revenue grew on higher unit volume this year.</p><p>Item 8</p></body></html>`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := sectionsCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--file", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("sections: %v", err)
	}
	for _, want := range []string{"[business] 0-", "[risk_factors]", "[mda]", "Revenue grew"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestSectionsNeedsInput(t *testing.T) {
	cmd := sectionsCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err == nil {
		t.Error("expected an error without ticker or --file")
	}
}

func TestAnalyzeRejectsUnknownForm(t *testing.T) {
	cmd := analyzeCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"FAKE", "--form", "8-K"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "10-K or 10-Q") {
		t.Errorf("err = %v", err)
	}
}
