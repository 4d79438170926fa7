// Package extract turns uploaded documents into plain text.
package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/atlantislabs/atlantis/internal/domain"
)

// ContentKind identifies the source document format.
type ContentKind string

const (
	KindPDF       ContentKind = "application/pdf"
	KindPlainText ContentKind = "text/plain"
)

// Result holds the extracted text and how many segments (PDF pages or text
// blocks) produced it.
type Result struct {
	Text     string
	Segments int
}

// Text extracts plain text from content of the given kind. Unsupported
// kinds, undecodable input, and documents with no extractable text are
// rejected with domain errors.
func Text(content []byte, kind ContentKind) (*Result, error) {
	if len(content) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	switch kind {
	case KindPDF:
		return pdfText(content)
	case KindPlainText:
		return plainText(content)
	}
	return nil, domain.ErrUnsupportedDocument
}

func pdfText(content []byte) (*Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "encrypt") {
			return nil, domain.ErrEncryptedDocument
		}
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnreadableDocument, "failed to open PDF", err)
	}

	var buf bytes.Buffer
	pages := 0
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnreadableDocument, "failed to extract PDF text", err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		if pages > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(text)
		pages++
	}

	if pages == 0 {
		return nil, domain.ErrNoExtractableText
	}
	return &Result{Text: buf.String(), Segments: pages}, nil
}

func plainText(content []byte) (*Result, error) {
	if !utf8.Valid(content) {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "text file must be UTF-8")
	}

	text := string(content)
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrNoExtractableText
	}
	return &Result{Text: text, Segments: 1}, nil
}
