package extract

import (
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/mkaravas/intake/constants"
	"github.com/mkaravas/intake/internal/common"
	"github.com/mkaravas/intake/internal/entity"
)

// Default classification heuristics. An email mentioning an invoice number
// together with amount figures is an invoice notification; everything else
// is an inquiry. Both patterns are construction-time knobs, not hard-coded
// inside the classifier.
var (
	defaultAmountPattern  = regexp.MustCompile(`€\s*\d|(?i)\d+[.,]\d{2}\s*(?:€|EUR)`)
	defaultInvoiceKeyword = []string{"τιμολόγιο", "τιμολογιο", "invoice"}
)

// EmailExtractor parses one .eml message.
type EmailExtractor struct {
	invoicePattern *regexp.Regexp
	amountPattern  *regexp.Regexp
	keywords       []string
	decoder        mime.WordDecoder
}

func NewEmailExtractor() *EmailExtractor {
	e := &EmailExtractor{
		invoicePattern: invoiceNumberPattern,
		amountPattern:  defaultAmountPattern,
		keywords:       defaultInvoiceKeyword,
	}
	e.decoder.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		return charset.NewReaderLabel(label, input)
	}
	return e
}

func (e *EmailExtractor) SourceType() constants.SourceType { return constants.SourceEmail }

// Extract reads an RFC 5322 message into a unified record. Encoded headers
// are decoded losslessly; when plain-text and HTML alternative bodies are
// both present the plain-text part wins and the HTML part is ignored.
func (e *EmailExtractor) Extract(path, sourceName string) (*entity.UnifiedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewParseError(sourceName, "read email", err)
	}
	defer f.Close()

	msg, err := mail.ReadMessage(f)
	if err != nil {
		return nil, common.NewParseError(sourceName, "parse email headers", err)
	}

	rec := entity.NewRecord(constants.SourceEmail, sourceName)
	sender := e.decodeHeader(msg.Header.Get("From"))
	subject := e.decodeHeader(msg.Header.Get("Subject"))
	rec.SetField(constants.FieldSender, sender)
	rec.SetField(constants.FieldSubject, subject)

	if raw := msg.Header.Get("Date"); raw != "" {
		normalized, _ := NormalizeDate(raw)
		rec.SetField(constants.FieldDate, normalized)
	}

	body, err := e.extractBody(msg)
	if err != nil {
		return nil, common.NewParseError(sourceName, "decode email body", err)
	}
	body = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\r", "\n"))
	rec.SetField(constants.FieldBody, body)

	rec.SetField(constants.FieldMessageKind, string(e.classify(subject, body)))
	return rec, nil
}

// decodeHeader applies RFC 2047 decoding, falling back to the raw header
// when decoding fails so no source text is ever lost.
func (e *EmailExtractor) decodeHeader(raw string) string {
	if raw == "" {
		return ""
	}
	decoded, err := e.decoder.DecodeHeader(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// classify decides inquiry vs invoice_notification. An invoice-number
// match (or an invoice keyword in the subject) plus amount figures is a
// notification; anything else is an inquiry.
func (e *EmailExtractor) classify(subject, body string) constants.MessageKind {
	text := subject + "\n" + body
	hasAmount := e.amountPattern.MatchString(text)
	if !hasAmount {
		return constants.KindInquiry
	}
	if e.invoicePattern.MatchString(text) {
		return constants.KindInvoiceNotification
	}
	lowSubject := strings.ToLower(subject)
	for _, kw := range e.keywords {
		if strings.Contains(lowSubject, kw) {
			return constants.KindInvoiceNotification
		}
	}
	return constants.KindInquiry
}

// extractBody walks the MIME structure and returns the preferred body text.
func (e *EmailExtractor) extractBody(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}
	return e.partBody(msg.Body, contentType, msg.Header.Get("Content-Transfer-Encoding"))
}

func (e *EmailExtractor) partBody(r io.Reader, contentType, transferEncoding string) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return e.multipartBody(r, params["boundary"])
	}

	text, err := readTextPart(r, transferEncoding, params["charset"])
	if err != nil {
		return "", err
	}
	if mediaType == "text/html" {
		return flattenHTMLString(text), nil
	}
	return text, nil
}

// multipartBody prefers the first text/plain part; an HTML part is used
// only when no plain alternative exists, flattened to text.
func (e *EmailExtractor) multipartBody(r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		data, err := io.ReadAll(r)
		return string(data), err
	}

	var htmlFallback string
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		partType, partParams, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		cte := part.Header.Get("Content-Transfer-Encoding")
		switch {
		case strings.HasPrefix(partType, "multipart/"):
			if nested, err := e.multipartBody(part, partParams["boundary"]); err == nil && nested != "" {
				return nested, nil
			}
		case partType == "" || partType == "text/plain":
			text, err := readTextPart(part, cte, partParams["charset"])
			if err == nil && strings.TrimSpace(text) != "" {
				return text, nil
			}
		case partType == "text/html":
			if htmlFallback == "" {
				if text, err := readTextPart(part, cte, partParams["charset"]); err == nil {
					htmlFallback = flattenHTMLString(text)
				}
			}
		}
	}
	return htmlFallback, nil
}

// readTextPart decodes the transfer encoding and charset of one MIME part.
func readTextPart(r io.Reader, transferEncoding, charsetLabel string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	}
	if charsetLabel != "" && !strings.EqualFold(charsetLabel, "utf-8") && !strings.EqualFold(charsetLabel, "us-ascii") {
		converted, err := charset.NewReaderLabel(charsetLabel, r)
		if err == nil {
			r = converted
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
