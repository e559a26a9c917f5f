package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fixtureText is one positioned string for the sample PDF
type fixtureText struct {
	Text string
	X    float64
	Y    float64
	Size float64
}

// writeSamplePDF writes a minimal single-page PDF containing the given
// positioned strings and returns its path. Offsets in the xref table are
// computed so the file is structurally valid.
func writeSamplePDF(t *testing.T, texts []fixtureText) string {
	t.Helper()

	var content strings.Builder
	for _, ft := range texts {
		size := ft.Size
		if size <= 0 {
			size = 12
		}
		fmt.Fprintf(&content, "BT /F1 %.0f Tf %.2f %.2f Td (%s) Tj ET\n",
			size, ft.X, ft.Y, ft.Text)
	}
	stream := content.String()

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
			"/Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream),
	}

	var buf strings.Builder
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects)+1)
	for i, obj := range objects {
		offsets[i+1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objects); i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xrefOffset)

	path := filepath.Join(t.TempDir(), "sample.pdf")
	if err := os.WriteFile(path, []byte(buf.String()), 0644); err != nil {
		t.Fatalf("failed to write sample PDF: %v", err)
	}
	return path
}
