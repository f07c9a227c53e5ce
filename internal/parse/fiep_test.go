package parse_test

import (
	"testing"

	"github.com/jonesrussell/licitawatch/internal/domain"
	"github.com/jonesrussell/licitawatch/internal/parse"
)

const fiepHTML = `<html><body>
<article class="edital">
  <h3>Edital de Pregão 15/2025</h3>
  <div class="empresas">SESI - Serviço Social da Indústria</div>
  <p>Data da abertura da proposta: 22/09/2025 09:00</p>
  <ul class="documentos">
    <li><a href="/docs/edital-15-2025.pdf">Edital completo</a></li>
    <li><a href="/docs/anexo-1.pdf">Anexo I</a></li>
  </ul>
</article>
<article class="edital">
  <h3>Concorrência 03/2025</h3>
  <p>Empresa Contratante SENAI/PR</p>
  <p>Data da abertura da proposta: 30/09/2025</p>
  <ul class="documentos">
    <li><a href="https://cdn.fiepr.org.br/edital-03.pdf">Edital</a></li>
  </ul>
</article>
<article class="edital">
  <h3>Sem documentos</h3>
  <div class="empresas">IEL</div>
</article>
</body></html>`

func TestFIEPEditais_Parse(t *testing.T) {
	t.Parallel()

	notices := mustParse(t, &parse.FIEPEditais{}, fiepHTML)

	if len(notices) != 2 {
		t.Fatalf("got %d notices, want 2 (card without documents skipped)", len(notices))
	}

	assertNotice(t, notices[0], domain.Notice{
		Title:        "Edital de Pregão 15/2025",
		Organization: "SESI - Serviço Social da Indústria",
		URL:          "https://portal.example.com/docs/edital-15-2025.pdf",
		Published:    "22/09/2025 09:00",
	})

	// Organization falls back to the labeled paragraph when the dedicated
	// element is absent.
	assertNotice(t, notices[1], domain.Notice{
		Title:        "Concorrência 03/2025",
		Organization: "SENAI/PR",
		URL:          "https://cdn.fiepr.org.br/edital-03.pdf",
		Published:    "30/09/2025",
	})
}

func TestFIEPEditais_FirstDocumentWins(t *testing.T) {
	t.Parallel()

	notices := mustParse(t, &parse.FIEPEditais{}, fiepHTML)

	if notices[0].URL != "https://portal.example.com/docs/edital-15-2025.pdf" {
		t.Errorf("URL = %q, want the first attached document", notices[0].URL)
	}
}
