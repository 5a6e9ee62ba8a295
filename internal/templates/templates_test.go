package templates

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	if len(c.All()) < 3 {
		t.Fatalf("default catalog has %d templates", len(c.All()))
	}
	bp, ok := c.Get("blog-post")
	if !ok {
		t.Fatal("blog-post template missing")
	}
	if bp.Name != "Blog Post" || bp.Category != "General" || bp.UsageCount != 45 {
		t.Errorf("blog-post = %+v", bp)
	}
}

func TestRecommendations(t *testing.T) {
	recs := Default().Recommendations(3)
	want := []string{"blog-post", "tutorial", "review"}
	if len(recs) != len(want) {
		t.Fatalf("recommendations = %d, want %d", len(recs), len(want))
	}
	for i, r := range recs {
		if r.ID != want[i] {
			t.Errorf("recs[%d] = %s, want %s", i, r.ID, want[i])
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "templates: []"},
		{"missing_id", "templates:\n  - name: x\n    prompt: p"},
		{"missing_prompt", "templates:\n  - id: x"},
		{"duplicate", "templates:\n  - id: x\n    prompt: p\n  - id: x\n    prompt: q"},
		{"bad_yaml", "templates: [unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
	if _, err := Parse([]byte("templates: []")); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("err = %v, want ErrEmptyCatalog", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	data := "templates:\n  - id: recipe\n    name: Recipe\n    usage_count: 3\n    prompt: |\n      Write a recipe.\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r, ok := c.Get("recipe")
	if !ok || r.Prompt != "Write a recipe." {
		t.Errorf("recipe = %+v, %v", r, ok)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
