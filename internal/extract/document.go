package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

var (
	// ErrUnsupportedDocument is returned for file types the extractor cannot read
	ErrUnsupportedDocument = errors.New("unsupported document type")
	// ErrDocumentTooLarge is returned when a document exceeds the decoder limit
	ErrDocumentTooLarge = errors.New("document too large")
)

// DefaultMaxDocumentBytes bounds the size of a decoded upload
const DefaultMaxDocumentBytes = 10 << 20

// docxExpansion bounds how far a docx body may inflate relative to MaxBytes
const docxExpansion = 10

// Kind identifies how a document is turned into text
type Kind string

const (
	KindText Kind = "text"
	KindHTML Kind = "html"
	KindDOCX Kind = "docx"
	KindPDF  Kind = "pdf"
	KindDOC  Kind = "doc"
)

// Decoder validates uploads and decodes them to plain text
type Decoder struct {
	MaxBytes int
}

// NewDecoder creates a decoder with the given size limit (0 means default)
func NewDecoder(maxBytes int) *Decoder {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDocumentBytes
	}
	return &Decoder{MaxBytes: maxBytes}
}

// SupportedExtensions lists the file extensions DetectKind recognises
func SupportedExtensions() []string {
	return []string{".txt", ".md", ".text", ".html", ".htm", ".docx", ".pdf", ".doc"}
}

// DetectKind picks the decoding strategy from the file name and MIME type
func DetectKind(name, mimeType string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".text":
		return KindText, nil
	case ".html", ".htm":
		return KindHTML, nil
	case ".docx":
		return KindDOCX, nil
	case ".pdf":
		return KindPDF, nil
	case ".doc":
		return KindDOC, nil
	}

	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	switch mimeType {
	case "text/plain", "text/markdown":
		return KindText, nil
	case "text/html":
		return KindHTML, nil
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return KindDOCX, nil
	case "application/pdf":
		return KindPDF, nil
	case "application/msword":
		return KindDOC, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedDocument, name)
}

// Decode returns the text content of an uploaded document. PDF and legacy
// Word files are decoded naively as bytes, which often produces little
// usable text; that degraded result is expected.
func (d *Decoder) Decode(name, mimeType string, data []byte) (string, error) {
	if len(data) > d.MaxBytes {
		return "", fmt.Errorf("%w: %d bytes (limit %d)", ErrDocumentTooLarge, len(data), d.MaxBytes)
	}

	kind, err := DetectKind(name, mimeType)
	if err != nil {
		return "", err
	}

	switch kind {
	case KindHTML:
		return decodeHTML(name, data)
	case KindDOCX:
		return decodeDOCX(data, int64(d.MaxBytes)*docxExpansion)
	default:
		return strings.ToValidUTF8(string(data), "�"), nil
	}
}

// DecodeDocument decodes data with the default size limit
func DecodeDocument(name, mimeType string, data []byte) (string, error) {
	return NewDecoder(0).Decode(name, mimeType, data)
}

func decodeHTML(name string, data []byte) (string, error) {
	pageURL := &url.URL{Scheme: "file", Path: "/" + filepath.Base(name)}
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to read html: %w", err)
	}
	return article.TextContent, nil
}

// decodeDOCX pulls the text runs out of word/document.xml, keeping
// paragraph and line breaks so line-anchored rules still work.
// The decompressed body is capped at limit bytes.
func decodeDOCX(data []byte, limit int64) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("failed to open docx: word/document.xml missing")
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open docx body: %w", err)
	}
	defer rc.Close()

	lr := &io.LimitedReader{R: rc, N: limit + 1}
	var sb strings.Builder
	dec := xml.NewDecoder(lr)
	inText := false
	for {
		tok, err := dec.Token()
		if lr.N <= 0 {
			return "", fmt.Errorf("%w: docx body exceeds %d bytes", ErrDocumentTooLarge, limit)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse docx body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
