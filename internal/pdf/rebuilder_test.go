package pdf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
)

// TestFitFontSize tests the shrink-to-fit policy
func TestFitFontSize(t *testing.T) {
	t.Run("fitting text keeps its size", func(t *testing.T) {
		// "Hi" at 12pt is ~12pt wide, well inside 200pt
		if got := FitFontSize("Hi", 12, 200); got != 12 {
			t.Errorf("FitFontSize() = %f, want 12", got)
		}
	})

	t.Run("overflowing text scales down linearly", func(t *testing.T) {
		text := strings.Repeat("a", 40) // ~240pt at 12pt
		got := FitFontSize(text, 12, 120)
		if got >= 12 {
			t.Errorf("FitFontSize() = %f, want < 12", got)
		}
		// Scaled size must make the text fit
		if width := EstimateTextWidth(text, got); width > 120+0.001 {
			t.Errorf("scaled text still overflows: %f > 120", width)
		}
	})

	t.Run("never shrinks below the readable floor", func(t *testing.T) {
		text := strings.Repeat("a", 1000)
		if got := FitFontSize(text, 12, 50); got != MinFontSize {
			t.Errorf("FitFontSize() = %f, want %f", got, MinFontSize)
		}
	})

	t.Run("degenerate bounds leave the size alone", func(t *testing.T) {
		if got := FitFontSize("text", 12, 0); got != 12 {
			t.Errorf("FitFontSize(width=0) = %f, want 12", got)
		}
		if got := FitFontSize("text", 0, 100); got != 0 {
			t.Errorf("FitFontSize(size=0) = %f, want 0", got)
		}
	})
}

// TestEstimateTextWidth tests the character width heuristics
func TestEstimateTextWidth(t *testing.T) {
	tests := []struct {
		name string
		text string
		size float64
		want float64
	}{
		{"latin", "abcd", 10, 4 * 0.5 * 10},
		{"spaces", "    ", 10, 4 * 0.25 * 10},
		{"cjk", "世界", 10, 2 * 1.0 * 10},
		{"mixed", "a 世", 10, 0.5*10 + 0.25*10 + 1.0*10},
		{"empty", "", 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateTextWidth(tt.text, tt.size); got != tt.want {
				t.Errorf("EstimateTextWidth(%q) = %f, want %f", tt.text, got, tt.want)
			}
		})
	}
}

// TestPrepareOverlayText tests overlay text sanitization
func TestPrepareOverlayText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  hello  ", "hello"},
		{"line1\nline2", "line1 line2"},
		{"a\r\nb", "a b"},
		{"f(x)", "f\\(x\\)"},
		{`back\slash`, `back\\slash`},
		{"", ""},
	}

	for _, tt := range tests {
		if got := prepareOverlayText(tt.in); got != tt.want {
			t.Errorf("prepareOverlayText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestRebuild tests the full overlay path against a sample PDF
func TestRebuild(t *testing.T) {
	original := writeSamplePDF(t, []fixtureText{
		{Text: "Hello world", X: 72, Y: 720, Size: 12},
	})
	output := filepath.Join(t.TempDir(), "out.pdf")

	segments := []TranslatedSegment{
		{
			TextSegment: TextSegment{
				ID: "seg_1", Page: 1, Text: "Hello world",
				X: 72, Y: 720, Width: 80, Height: 14.4, FontSize: 12,
			},
			TranslatedText: "Hola mundo",
		},
	}

	rebuilder := NewRebuilder()
	if err := rebuilder.Rebuild(original, segments, output); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	info, err := os.Stat(output)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("output is empty")
	}

	// Output must still be extractable and carry the translation
	extractor := NewExtractor()
	outSegments, err := extractor.Extract(output)
	if err != nil {
		t.Fatalf("Extract(output) error = %v", err)
	}
	var combined strings.Builder
	for _, seg := range outSegments {
		combined.WriteString(seg.Text)
		combined.WriteString(" ")
	}
	if !strings.Contains(combined.String(), "Hola") {
		t.Errorf("rebuilt PDF text %q missing the translation", combined.String())
	}
}

// TestRebuildPreservesLayout tests that rebuilding with pass-through
// translations keeps the page count and leaves every extracted line on its
// original page
func TestRebuildPreservesLayout(t *testing.T) {
	original := writeSamplePDF(t, []fixtureText{
		{Text: "First line", X: 72, Y: 700, Size: 12},
		{Text: "Second line", X: 72, Y: 500, Size: 12},
		{Text: "Third line", X: 72, Y: 300, Size: 12},
	})
	output := filepath.Join(t.TempDir(), "out.pdf")

	extractor := NewExtractor()
	origSegments, err := extractor.Extract(original)
	if err != nil {
		t.Fatalf("Extract(original) error = %v", err)
	}
	if len(origSegments) == 0 {
		t.Fatal("Extract(original) returned no segments")
	}

	translated := make([]TranslatedSegment, len(origSegments))
	for i, seg := range origSegments {
		translated[i] = TranslatedSegment{TextSegment: seg, TranslatedText: seg.Text}
	}

	if err := NewRebuilder().Rebuild(original, translated, output); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	origFile, origReader, err := pdf.Open(original)
	if err != nil {
		t.Fatalf("Open(original) error = %v", err)
	}
	defer origFile.Close()
	outFile, outReader, err := pdf.Open(output)
	if err != nil {
		t.Fatalf("Open(output) error = %v", err)
	}
	defer outFile.Close()

	if outReader.NumPage() != origReader.NumPage() {
		t.Errorf("page count = %d, want %d", outReader.NumPage(), origReader.NumPage())
	}

	outSegments, err := extractor.Extract(output)
	if err != nil {
		t.Fatalf("Extract(output) error = %v", err)
	}

	// Every line must still be extractable on its original page
	perPage := map[int]int{}
	matched := map[int]int{}
	for _, orig := range origSegments {
		perPage[orig.Page]++
		for _, out := range outSegments {
			if out.Page == orig.Page && strings.Contains(out.Text, orig.Text) {
				matched[orig.Page]++
				break
			}
		}
	}
	for page, want := range perPage {
		if matched[page] != want {
			t.Errorf("page %d kept %d of %d lines after rebuild", page, matched[page], want)
		}
	}

	// No line migrates onto a page that had no text
	for _, out := range outSegments {
		if perPage[out.Page] == 0 {
			t.Errorf("page %d gained text %q after rebuild", out.Page, out.Text)
		}
	}
}

// TestRebuildSkipsEmptyTranslations tests that blank translations do not
// produce overlays or errors
func TestRebuildSkipsEmptyTranslations(t *testing.T) {
	original := writeSamplePDF(t, []fixtureText{
		{Text: "Hello world", X: 72, Y: 720, Size: 12},
	})
	output := filepath.Join(t.TempDir(), "out.pdf")

	segments := []TranslatedSegment{
		{
			TextSegment:    TextSegment{ID: "seg_1", Page: 1, Text: "   ", X: 72, Y: 720, Width: 40, Height: 14, FontSize: 12},
			TranslatedText: "   ",
		},
	}

	rebuilder := NewRebuilder()
	if err := rebuilder.Rebuild(original, segments, output); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("output missing: %v", err)
	}
}

// TestRebuild_MissingOriginal tests the unopenable-input error path
func TestRebuild_MissingOriginal(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.pdf")

	rebuilder := NewRebuilder()
	err := rebuilder.Rebuild("/non/existent/file.pdf", nil, output)
	if err == nil {
		t.Fatal("Rebuild() expected error, got nil")
	}

	pdfErr, ok := err.(*PDFError)
	if !ok {
		t.Fatalf("Expected PDFError, got %T", err)
	}
	if pdfErr.Code != ErrRebuild {
		t.Errorf("error code = %s, want %s", pdfErr.Code, ErrRebuild)
	}
}
