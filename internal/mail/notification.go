// Package mail cross-checks UPI transactions against payment notification emails.
package mail

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

// Fields extracted from a notification body.
const (
	FieldRecipient = "recipient"
	FieldRefNo     = "ref_no"
)

var (
	subjectPattern = regexp.MustCompile(`Sent\s+₹\s*(?P<amount>\d+)\s+to\s+(?P<merchant>.+)`)

	bodyPattern = regexp.MustCompile(`(?s)Paid to\s+(?P<recipient>[A-Z\s]+)\s+₹\s*(?P<amount>\d+).*?` +
		`Bank Ref\. No\.\s*:\s*(?P<ref_no>\d+).*?` +
		`Message\s*:\s*(?P<message>\S.*?)?(?:\s+[A-Z][a-z]+|$)`)
)

// ParseSubject extracts the amount and merchant from a payment notification
// subject such as "Sent ₹ 500 to AMAZON". It returns an empty set when the
// subject does not match.
func ParseSubject(subject string) model.FieldSet {
	return search(subjectPattern, subject)
}

// ParseBody extracts recipient, amount, bank reference and the payer's note
// from the HTML body of a payment notification.
func ParseBody(html string) (model.FieldSet, error) {
	text, err := HTMLText(html)
	if err != nil {
		return nil, err
	}
	return search(bodyPattern, text), nil
}

// HTMLText returns the text content of an HTML document.
func HTMLText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse notification html: %w", err)
	}
	doc.Find("script, style").Remove()
	return doc.Text(), nil
}

func search(re *regexp.Regexp, text string) model.FieldSet {
	captures, ok := common.SubmatchMap(re, text)
	if !ok {
		return model.FieldSet{}
	}
	fields := make(model.FieldSet, len(captures))
	for name, value := range captures {
		fields[name] = strings.TrimSpace(value)
	}
	return fields
}
