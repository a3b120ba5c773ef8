package prompt

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRegistry_LoadDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "insight"), 0755); err != nil {
		t.Fatal(err)
	}
	body := `{"name":"Section","system_prompt":"sys","user_prompt_template":"Form: {{.Form}}\nSection: {{.Section}}"}`
	if err := os.WriteFile(filepath.Join(dir, "insight", "section_analysis.json"), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	if err := r.LoadDirectory(dir); err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	if r.Count() != 1 {
		t.Fatalf("Count = %d, want 1", r.Count())
	}

	pt, err := r.GetPrompt(PromptIDs.SectionAnalysis)
	if err != nil {
		t.Fatalf("GetPrompt: %v", err)
	}
	if pt.Category != "insight" {
		t.Errorf("Category = %q, want insight", pt.Category)
	}

	out, err := RenderUserPrompt(pt, NewContext().Set("Form", "10-K").Set("Section", "mda"))
	if err != nil {
		t.Fatalf("RenderUserPrompt: %v", err)
	}
	if out != "Form: 10-K\nSection: mda" {
		t.Errorf("rendered = %q", out)
	}
}

func TestRegistry_LoadDirectoryMissing(t *testing.T) {
	if err := NewRegistry().LoadDirectory(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestRegistry_RegisterRequiresID(t *testing.T) {
	if err := NewRegistry().Register(&PromptTemplate{}); err == nil {
		t.Error("expected error for empty ID")
	}
}
