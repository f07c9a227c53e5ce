package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/licitawatch/internal/domain"
)

// Labels appearing inside FIEP notice articles. The label text is stripped
// from the extracted value.
const (
	fiepOrgLabel  = "Empresa Contratante"
	fiepDateLabel = "Data da abertura da proposta:"
)

// FIEPEditais extracts notices from the FIEP procurement portal, which
// renders each notice as an <article class="edital"> card with the first
// attached document as the notice link.
type FIEPEditais struct{}

// Parse implements Parser.
func (p *FIEPEditais) Parse(html, baseURL string) ([]domain.Notice, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var notices []domain.Notice
	doc.Find("article.edital").Each(func(_ int, card *goquery.Selection) {
		title := clean(card.Find("h3").First().Text())

		org := clean(card.Find("div.empresas").First().Text())
		if org == "" {
			org = labeledText(card, fiepOrgLabel)
		}

		published := labeledText(card, fiepDateLabel)

		href, _ := card.Find("ul.documentos li a[href]").First().Attr("href")
		noticeURL := resolveURL(baseURL, href)
		if title == "" || noticeURL == "" {
			return
		}

		notices = append(notices, domain.Notice{
			Title:        title,
			Organization: org,
			URL:          noticeURL,
			Published:    published,
		})
	})

	return notices, nil
}

// labeledText finds the <p> containing the label and returns its text with
// the label removed.
func labeledText(card *goquery.Selection, label string) string {
	var value string
	card.Find("p").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		text := el.Text()
		if strings.Contains(text, label) {
			value = clean(strings.ReplaceAll(text, label, ""))
			return false
		}
		return true
	})
	return value
}
