package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/licitawatch/internal/domain"
)

// DivList extracts notices from card-style listings where each record is a
// container element holding a title link plus labeled child elements.
type DivList struct {
	// RowSelector selects one record container. Defaults to
	// "div.licitacao-row".
	RowSelector string
}

// Parse implements Parser.
func (p *DivList) Parse(html, baseURL string) ([]domain.Notice, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	rowSelector := p.RowSelector
	if rowSelector == "" {
		rowSelector = "div.licitacao-row"
	}

	var notices []domain.Notice
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		titleEl := row.Find("a, .title").First()

		title := clean(titleEl.Text())
		href, _ := titleEl.Attr("href")
		noticeURL := resolveURL(baseURL, href)
		if title == "" || noticeURL == "" {
			return
		}

		notices = append(notices, domain.Notice{
			Title:        title,
			Organization: clean(row.Find(".org").First().Text()),
			URL:          noticeURL,
			Published:    clean(row.Find(".date").First().Text()),
		})
	})

	return notices, nil
}
