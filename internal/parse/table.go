package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/licitawatch/internal/domain"
)

// defaultTableMinColumns is the minimum data-cell count for a generic table
// row to be treated as a data row. Header, footer, and pager rows routinely
// carry fewer cells and are skipped without comment.
const defaultTableMinColumns = 3

// GenericTable extracts notices from a conventional listing table: the title
// link in the first column, organization in the second, published date in
// the third.
type GenericTable struct {
	// RowSelector overrides the default "table tbody tr".
	RowSelector string
	// MinColumns overrides the default minimum cell count.
	MinColumns int
}

// Parse implements Parser.
func (p *GenericTable) Parse(html, baseURL string) ([]domain.Notice, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	rowSelector := p.RowSelector
	if rowSelector == "" {
		rowSelector = "table tbody tr"
	}
	minColumns := p.MinColumns
	if minColumns <= 0 {
		minColumns = defaultTableMinColumns
	}

	var notices []domain.Notice
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < minColumns {
			return
		}

		titleCell := cols.Eq(0)
		link := titleCell.Find("a").First()

		title := clean(link.Text())
		if title == "" {
			title = clean(titleCell.Text())
		}

		href, _ := link.Attr("href")
		noticeURL := resolveURL(baseURL, href)
		if title == "" || noticeURL == "" {
			return
		}

		notices = append(notices, domain.Notice{
			Title:        title,
			Organization: clean(cols.Eq(1).Text()),
			URL:          noticeURL,
			Published:    clean(cols.Eq(2).Text()),
		})
	})

	return notices, nil
}
