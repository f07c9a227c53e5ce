package parse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/licitawatch/internal/domain"
)

// muralMinColumns is the column count of a data row in the FIESC/FIEMS
// mural tables. Shorter rows are grid chrome.
const muralMinColumns = 8

// MuralTable extracts notices from the ASP.NET "Mural" grids used by the
// FIESC and FIEMS procurement portals. The grids have no row links; the
// process id is buried in a postback onclick handler, from which the detail
// URL is reconstructed.
type MuralTable struct {
	// RowSelector selects the data rows.
	RowSelector string
	// ClickPattern captures the process id from the onclick attribute.
	ClickPattern *regexp.Regexp
	// ClickSelector locates the element carrying the onclick attribute
	// inside the click column; empty means the cell itself.
	ClickSelector string
	// Column indexes for the extracted fields. ObjectCol < 0 disables the
	// object column.
	TitleCol  int
	OrgCol    int
	ObjectCol int
	DateCol   int
	ClickCol  int
	// DetailPath is the detail URL path with a %s placeholder for the id.
	DetailPath string
}

// NewFIESCMural returns the parser for the FIESC mural grid.
func NewFIESCMural() *MuralTable {
	return &MuralTable{
		RowSelector:   "tbody#trListaMuralProcesso tr",
		ClickPattern:  regexp.MustCompile(`trListaMuralResumoEdital_Click\((\d+),`),
		ClickSelector: "span.areaClique",
		TitleCol:      3,
		OrgCol:        2,
		ObjectCol:     -1,
		DateCol:       6,
		ClickCol:      7,
		DetailPath:    "/Detalhe.aspx?id=%s",
	}
}

// NewFIEMSMural returns the parser for the FIEMS mural grid.
func NewFIEMSMural() *MuralTable {
	return &MuralTable{
		RowSelector:  "tbody#trListaMuralProcesso tr",
		ClickPattern: regexp.MustCompile(`trListaMuralProcesso_Click\((\d+),`),
		TitleCol:     1,
		OrgCol:       2,
		ObjectCol:    3,
		DateCol:      6,
		ClickCol:     1,
		DetailPath:   "/Portal/Detalhe.aspx?id=%s",
	}
}

// Parse implements Parser.
func (p *MuralTable) Parse(html, baseURL string) ([]domain.Notice, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var notices []domain.Notice
	doc.Find(p.RowSelector).Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < muralMinColumns {
			return
		}

		title := clean(cols.Eq(p.TitleCol).Text())
		noticeURL := p.detailURL(baseURL, cols.Eq(p.ClickCol))
		if title == "" || noticeURL == "" {
			return
		}

		notice := domain.Notice{
			Title:        title,
			Organization: clean(cols.Eq(p.OrgCol).Text()),
			URL:          noticeURL,
			Published:    clean(cols.Eq(p.DateCol).Text()),
		}
		if p.ObjectCol >= 0 {
			notice.ObjectDescription = clean(cols.Eq(p.ObjectCol).Text())
		}

		notices = append(notices, notice)
	})

	return notices, nil
}

// detailURL reconstructs the absolute detail URL from the postback handler
// in the click cell. Returns "" when the handler or the id is missing.
func (p *MuralTable) detailURL(baseURL string, cell *goquery.Selection) string {
	target := cell
	if p.ClickSelector != "" {
		target = cell.Find(p.ClickSelector).First()
	}

	onclick, _ := target.Attr("onclick")
	match := p.ClickPattern.FindStringSubmatch(onclick)
	if match == nil {
		return ""
	}

	return resolveURL(baseURL, fmt.Sprintf(p.DetailPath, match[1]))
}
