package pdf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"pdf-translator/internal/logger"
)

const (
	// MinFontSize is the smallest size translated text is ever rendered at
	MinFontSize = 6.0
	// DefaultFontName is the overlay font
	DefaultFontName = "Helvetica"
)

// Rebuilder writes translated text back onto a copy of the original PDF,
// covering each source region with a white rectangle and stamping the
// translation at the captured position.
type Rebuilder struct {
	conf *model.Configuration
}

// NewRebuilder creates a new Rebuilder
func NewRebuilder() *Rebuilder {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Rebuilder{conf: conf}
}

// Rebuild copies the PDF at originalPath to outputPath and overlays every
// translated segment at its original position. Text wider than its source
// region is shrunk to fit, never truncated.
func (r *Rebuilder) Rebuild(originalPath string, segments []TranslatedSegment, outputPath string) error {
	logger.Info("rebuilding PDF",
		logger.String("original", filepath.Base(originalPath)),
		logger.String("output", filepath.Base(outputPath)),
		logger.Int("segments", len(segments)))

	if err := copyFile(originalPath, outputPath); err != nil {
		return NewPDFError(ErrRebuild, "cannot copy original PDF", err)
	}

	applied := 0
	for _, seg := range segments {
		text := prepareOverlayText(seg.TranslatedText)
		if text == "" {
			continue
		}

		if err := r.overlaySegment(outputPath, seg, text); err != nil {
			os.Remove(outputPath)
			return err
		}
		applied++
	}

	if err := r.validateOutput(outputPath); err != nil {
		os.Remove(outputPath)
		return err
	}

	logger.Info("PDF rebuilt", logger.Int("applied", applied))
	return nil
}

// overlaySegment covers one source region and stamps its translation
func (r *Rebuilder) overlaySegment(path string, seg TranslatedSegment, text string) error {
	fontSize := seg.FontSize
	if fontSize <= 0 {
		fontSize = 10
	}
	fontSize = FitFontSize(text, fontSize, seg.Width)

	if err := r.coverRegion(path, seg.Page, seg.X, seg.Y, seg.Width, seg.Height); err != nil {
		return err
	}

	wm := &model.Watermark{
		Mode:           model.WMText,
		TextString:     text,
		FontName:       DefaultFontName,
		FontSize:       int(fontSize),
		ScaledFontSize: int(fontSize),
		Color:          color.Black,
		Opacity:        1.0,
		OnTop:          true,
		Update:         false,
		Pos:            types.BottomLeft,
		Dx:             seg.X,
		Dy:             seg.Y,
	}
	if seg.Width > 0 && seg.Height > 0 {
		wm.Width = int(seg.Width)
		wm.Height = int(seg.Height)
	}

	selectedPages := []string{fmt.Sprintf("%d", seg.Page)}
	if err := api.AddWatermarksFile(path, "", selectedPages, wm, r.conf); err != nil {
		return NewPDFErrorWithPage(ErrRebuild, "cannot stamp translated text", seg.Page, err)
	}

	return nil
}

// coverRegion paints a white rectangle over the original text area
func (r *Rebuilder) coverRegion(path string, page int, x, y, width, height float64) error {
	bgColor := color.White
	wm := &model.Watermark{
		Mode:       model.WMText,
		TextString: " ",
		BgColor:    &bgColor,
		Opacity:    1.0,
		OnTop:      true,
		Pos:        types.BottomLeft,
		Dx:         x,
		Dy:         y,
		Width:      int(width),
		Height:     int(height),
	}

	selectedPages := []string{fmt.Sprintf("%d", page)}
	if err := api.AddWatermarksFile(path, "", selectedPages, wm, r.conf); err != nil {
		return NewPDFErrorWithPage(ErrRebuild, "cannot cover original text", page, err)
	}

	return nil
}

// validateOutput checks that the rebuilt file is a non-empty, valid PDF
func (r *Rebuilder) validateOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return NewPDFError(ErrRebuild, "rebuilt PDF is missing", err)
	}
	if info.Size() == 0 {
		return NewPDFError(ErrRebuild, "rebuilt PDF is empty", nil)
	}

	if err := api.ValidateFile(path, r.conf); err != nil {
		return NewPDFError(ErrRebuild, "rebuilt PDF failed validation", err)
	}

	return nil
}

// FitFontSize returns the largest size not exceeding fontSize at which text
// fits within maxWidth, clamped at MinFontSize
func FitFontSize(text string, fontSize, maxWidth float64) float64 {
	if maxWidth <= 0 || fontSize <= 0 {
		return fontSize
	}

	estimated := EstimateTextWidth(text, fontSize)
	if estimated <= maxWidth {
		return fontSize
	}

	adjusted := fontSize * maxWidth / estimated
	if adjusted < MinFontSize {
		adjusted = MinFontSize
	}
	return adjusted
}

// EstimateTextWidth approximates the rendered width of text at the given
// font size. CJK glyphs are roughly square, Latin glyphs about half as
// wide, spaces a quarter.
func EstimateTextWidth(text string, fontSize float64) float64 {
	width := 0.0
	for _, r := range text {
		switch {
		case isCJK(r):
			width += 1.0 * fontSize
		case r == ' ' || r == '\t':
			width += 0.25 * fontSize
		default:
			width += 0.5 * fontSize
		}
	}
	return width
}

// isCJK reports whether a rune is a CJK ideograph or symbol
func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x3000 && r <= 0x303F)
}

// prepareOverlayText flattens a translation into a single overlay line and
// escapes characters that would break the PDF text operator
func prepareOverlayText(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, "(", "\\(")
	text = strings.ReplaceAll(text, ")", "\\)")
	return text
}

// copyFile copies src to dst, creating parent directories as needed
func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
