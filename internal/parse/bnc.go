package parse

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/licitawatch/internal/domain"
)

// bncMinColumns is the column count of a data row in the BNC process table.
const bncMinColumns = 8

// bncLinkSelector locates the detail link in the first column.
const bncLinkSelector = `a[title='Informações do Processo']`

// Element ids on the BNC detail page holding the fields worth enriching.
const (
	bncDetailObject = "ProductOrService"
	bncDetailOrg    = "Organization"
	bncDetailNumber = "Number"
	bncDetailStatus = "Status"
)

// BNCProcess extracts notices from the BNC Compras process table. Each row
// optionally gets a secondary detail-page fetch that enriches the object
// description; a failed detail fetch leaves the table-level summary in
// place and never fails the parse.
type BNCProcess struct {
	// Client performs the per-row detail fetches. Nil disables enrichment.
	Client *http.Client
}

// Parse implements Parser.
func (p *BNCProcess) Parse(html, baseURL string) ([]domain.Notice, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var notices []domain.Notice
	doc.Find("tbody#tableProcessDataBody tr").Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < bncMinColumns {
			return
		}

		href, _ := cols.Eq(0).Find(bncLinkSelector).First().Attr("href")
		noticeURL := resolveURL(baseURL, href)
		title := clean(cols.Eq(2).Text())
		if title == "" || noticeURL == "" {
			return
		}

		notice := domain.Notice{
			Title:        title,
			Organization: clean(cols.Eq(1).Text()),
			URL:          noticeURL,
			// Column 3 is the process modality; it stands in for the
			// object until the detail page supplies the real one.
			ObjectDescription: clean(cols.Eq(3).Text()),
			Published:         clean(cols.Eq(6).Text()),
		}

		p.enrich(&notice)
		notices = append(notices, notice)
	})

	return notices, nil
}

// enrich replaces the summary fields with the detail page's values when the
// detail fetch succeeds. Any failure leaves the notice as parsed.
func (p *BNCProcess) enrich(notice *domain.Notice) {
	if p.Client == nil {
		return
	}

	detail, err := p.fetchDetail(notice.URL)
	if err != nil {
		return
	}

	if object := detail[bncDetailObject]; object != "" {
		notice.ObjectDescription = object
	}
	if org := detail[bncDetailOrg]; org != "" {
		notice.Organization = org
	}
}

// fetchDetail loads the detail page and reads the form fields by element id.
// The BNC detail page renders its data into input values and textareas.
func (p *BNCProcess) fetchDetail(detailURL string) (map[string]string, error) {
	resp, err := p.Client.Get(detailURL)
	if err != nil {
		return nil, fmt.Errorf("fetch detail page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detail page status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse detail page: %w", err)
	}

	fields := make(map[string]string)
	for _, id := range []string{bncDetailObject, bncDetailOrg, bncDetailNumber, bncDetailStatus} {
		fields[id] = detailField(doc, id)
	}
	return fields, nil
}

// detailField reads one field by element id, checking inputs first and
// falling back to textareas.
func detailField(doc *goquery.Document, id string) string {
	if value, ok := doc.Find("input#" + id).First().Attr("value"); ok {
		return clean(value)
	}
	return clean(doc.Find("textarea#" + id).First().Text())
}
