package pdf

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"pdf-translator/internal/logger"
)

// yTolerance groups rows whose baselines differ by less than this many
// points onto the same visual line
const yTolerance = 5.0

// Extractor pulls positioned text segments out of a PDF file
type Extractor struct{}

// NewExtractor creates a new Extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads every page of the PDF at path and returns its text segments
// in reading order: pages ascending, then top to bottom, then left to right.
// A readable PDF with no extractable text yields an empty slice and no error.
func (e *Extractor) Extract(path string) (segments []TextSegment, err error) {
	// The extraction library panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			segments = nil
			err = NewPDFError(ErrUnreadable, "PDF parsing aborted", fmt.Errorf("%v", r))
		}
	}()

	if _, statErr := os.Stat(path); statErr != nil {
		return nil, NewPDFError(ErrUnreadable, "cannot access PDF file", statErr)
	}

	f, r, openErr := pdf.Open(path)
	if openErr != nil {
		return nil, classifyOpenError(openErr)
	}
	defer f.Close()

	totalPages := r.NumPage()
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		if page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}

		rows, rowErr := page.GetTextByRow()
		if rowErr != nil {
			logger.Warn("skipping unreadable page",
				logger.Int("page", pageNum), logger.Err(rowErr))
			continue
		}

		for _, row := range rows {
			if seg, ok := mergeRow(pageNum, row); ok {
				segments = append(segments, seg)
			}
		}
	}

	sortSegments(segments)

	// Re-assign IDs after sorting so they follow reading order
	for i := range segments {
		segments[i].ID = fmt.Sprintf("seg_%d", i+1)
	}

	logger.Debug("text extraction complete",
		logger.Int("pages", totalPages),
		logger.Int("segments", len(segments)))

	return segments, nil
}

// mergeRow collapses one extracted row into a single segment with position
// bounds and an averaged font size
func mergeRow(pageNum int, row *pdf.Row) (TextSegment, bool) {
	if len(row.Content) == 0 {
		return TextSegment{}, false
	}

	var textBuilder strings.Builder
	var minX, maxX, minY, maxY float64
	var totalFontSize float64
	var fontName string
	first := true
	counted := 0

	for _, text := range row.Content {
		if text.S == "" {
			continue
		}
		counted++

		textBuilder.WriteString(text.S)

		if first {
			minX, maxX = text.X, text.X
			minY, maxY = text.Y, text.Y
			fontName = text.Font
			first = false
		} else {
			if text.X < minX {
				minX = text.X
			}
			if text.X > maxX {
				maxX = text.X
			}
			if text.Y < minY {
				minY = text.Y
			}
			if text.Y > maxY {
				maxY = text.Y
			}
		}

		totalFontSize += text.FontSize
	}

	text := strings.TrimSpace(textBuilder.String())
	if text == "" || hasExcessiveNonPrintable(text) {
		return TextSegment{}, false
	}

	// Average over the items that contributed text; empty runs carry no
	// font size and must not drag the average down
	avgFontSize := totalFontSize / float64(counted)
	if avgFontSize <= 0 {
		avgFontSize = 10.0
	}

	// Width is an approximation; actual width depends on font metrics
	estimatedWidth := float64(len(text)) * avgFontSize * 0.5
	if maxX > minX {
		actualWidth := maxX - minX + avgFontSize
		if actualWidth > estimatedWidth {
			estimatedWidth = actualWidth
		}
	}

	estimatedHeight := avgFontSize * 1.2
	if spanned := maxY - minY + avgFontSize*1.2; spanned > estimatedHeight {
		estimatedHeight = spanned
	}

	return TextSegment{
		Page:     pageNum,
		Text:     text,
		X:        minX,
		Y:        minY,
		Width:    estimatedWidth,
		Height:   estimatedHeight,
		FontSize: avgFontSize,
		FontName: fontName,
	}, true
}

// sortSegments orders segments by page, then top to bottom, then left to
// right. Higher Y means higher on the page in PDF coordinates.
func sortSegments(segments []TextSegment) {
	sort.Slice(segments, func(i, j int) bool {
		if segments[i].Page != segments[j].Page {
			return segments[i].Page < segments[j].Page
		}
		if abs(segments[i].Y-segments[j].Y) < yTolerance {
			// Same line, left to right
			return segments[i].X < segments[j].X
		}
		return segments[i].Y > segments[j].Y
	})
}

// classifyOpenError maps a library open failure onto the error taxonomy
func classifyOpenError(err error) *PDFError {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "encrypt") || strings.Contains(msg, "password") {
		return NewPDFError(ErrEncrypted, "PDF is password protected", err)
	}
	return NewPDFError(ErrUnreadable, "cannot open PDF file", err)
}

// hasExcessiveNonPrintable reports whether more than 10% of the text is
// control characters, which marks extraction garbage rather than content
func hasExcessiveNonPrintable(text string) bool {
	nonPrintable := 0
	total := 0
	for _, r := range text {
		total++
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			nonPrintable++
		}
		if r >= 0x7F && r <= 0x9F {
			nonPrintable++
		}
	}
	if total == 0 {
		return false
	}
	return float64(nonPrintable)/float64(total) > 0.1
}

// HasText reports whether any segment contains non-whitespace content
func HasText(segments []TextSegment) bool {
	for _, seg := range segments {
		for _, r := range seg.Text {
			if !unicode.IsSpace(r) {
				return true
			}
		}
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
