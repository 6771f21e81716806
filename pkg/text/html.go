package text

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// ExtractHTML returns the visible text of an HTML document, with script and
// style content removed and whitespace collapsed.
func ExtractHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", errors.Wrap(err, "parse document")
	}

	doc.Find("script, style, noscript").Remove()

	body := doc.Find("body")
	var raw string
	if body.Length() > 0 {
		raw = body.Text()
	} else {
		raw = doc.Text()
	}

	return strings.Join(strings.Fields(raw), " "), nil
}
