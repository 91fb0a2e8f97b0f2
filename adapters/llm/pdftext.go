package llm

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

var whitespaceRun = regexp.MustCompile(`[ \t]+`)

// pdfPlainText extracts the text layer of a PDF. Scanned documents without a
// text layer yield an error rather than an empty prompt.
func pdfPlainText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	rs, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rs); err != nil {
		return "", fmt.Errorf("copy pdf text: %w", err)
	}

	text := strings.TrimSpace(whitespaceRun.ReplaceAllString(buf.String(), " "))
	if text == "" {
		return "", fmt.Errorf("pdf has no text layer")
	}
	return text, nil
}
