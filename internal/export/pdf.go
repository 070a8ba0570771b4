// internal/export/pdf.go
package export

import (
	"alcyxob/trainerscribe/internal/domain"
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

const fontFamily = "Helvetica"

var (
	ErrCustomerUnresolved = errors.New("protocol customer could not be resolved")
	ErrRenderFailed       = errors.New("failed to render protocol document")
)

// Output is a rendered protocol document.
type Output struct {
	FileName string
	Data     []byte
	Pages    int
}

// Exporter turns protocols into PDF documents. It holds no per-render state
// and is safe for concurrent use.
type Exporter struct {
	logger *zap.Logger
	clock  func() time.Time
}

// NewExporter builds an Exporter. A nil logger or clock falls back to a no-op
// logger and time.Now.
func NewExporter(logger *zap.Logger, clock func() time.Time) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Exporter{logger: logger, clock: clock}
}

// Render lays out protocol for customer and paints it as a PDF. A nil customer
// fails with ErrCustomerUnresolved. Nothing is returned unless the whole
// document rendered.
func (e *Exporter) Render(protocol domain.Protocol, customer *domain.Customer) (out *Output, err error) {
	const op = "Exporter.Render"

	if customer == nil {
		return nil, fmt.Errorf("%s: %w: customer %q", op, ErrCustomerUnresolved, protocol.CustomerID)
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%s: %w: %v", op, ErrRenderFailed, r)
		}
	}()

	now := e.clock()
	pdf := newPDF()
	doc := Layout(protocol, *customer, now, &fpdfMeasurer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")})

	data, err := paint(pdf, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrRenderFailed, err)
	}

	out = &Output{
		FileName: FileName(*customer, now),
		Data:     data,
		Pages:    len(doc.Pages),
	}
	e.logger.Debug("protocol rendered",
		zap.String("protocol_id", protocol.ID),
		zap.String("file_name", out.FileName),
		zap.Int("pages", out.Pages),
		zap.Int("bytes", len(out.Data)),
	)
	return out, nil
}

func newPDF() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCreator("TrainerScribe", false)
	pdf.SetTitle("TrainerScribe Protocol", false)
	return pdf
}

// paint draws doc onto pdf page by page and returns the encoded file.
func paint(pdf *fpdf.Fpdf, doc *Document) ([]byte, error) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, op := range page.Ops {
			pdf.SetFont(fontFamily, op.Style.Emphasis, op.Style.Size)
			pdf.Text(op.X, op.Y, tr(op.Text))
		}
		if err := pdf.Error(); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fpdfMeasurer measures with the same core-font metrics used for painting.
type fpdfMeasurer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (m *fpdfMeasurer) Width(text string, style Style) float64 {
	m.pdf.SetFont(fontFamily, style.Emphasis, style.Size)
	return m.pdf.GetStringWidth(m.tr(text))
}
