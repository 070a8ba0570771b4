// internal/export/layout.go
package export

import (
	"alcyxob/trainerscribe/internal/domain"
	"fmt"
	"time"
)

// Page geometry in millimetres on an A4 portrait sheet.
const (
	MarginLeft   = 20.0
	IndentLeft   = 25.0
	MarginTop    = 20.0
	ContentLimit = 270.0 // a block starting below this goes to a new page
	SectionLimit = 240.0 // a section heading starting below this goes to a new page
	WrapWidth    = 170.0
	FooterY      = 290.0
)

const displayDate = "January 2, 2006"

// Style selects the Helvetica variant and size of a text run.
// Emphasis uses the fpdf style letters: "" regular, "B" bold, "I" italic.
type Style struct {
	Size     float64
	Emphasis string
}

var (
	styleTitle    = Style{Size: 20, Emphasis: "B"}
	styleSubtitle = Style{Size: 12}
	styleHeading  = Style{Size: 16, Emphasis: "B"}
	styleItem     = Style{Size: 13, Emphasis: "B"}
	styleBody     = Style{Size: 11}
	styleBodyBold = Style{Size: 11, Emphasis: "B"}
	styleFooter   = Style{Size: 10, Emphasis: "I"}
)

// TextOp draws Text with its baseline at (X, Y).
type TextOp struct {
	X, Y  float64
	Text  string
	Style Style
}

// Page is the ordered list of text runs of one sheet.
type Page struct {
	Ops []TextOp
}

// Document is a laid-out protocol, ready to be painted.
type Document struct {
	Pages []Page
}

// Texts returns the text of every run on the page in drawing order.
func (p Page) Texts() []string {
	out := make([]string, len(p.Ops))
	for i, op := range p.Ops {
		out[i] = op.Text
	}
	return out
}

// Measurer reports the rendered width of text in millimetres.
type Measurer interface {
	Width(text string, style Style) float64
}

// layout carries the running cursor while content flows into pages.
type layout struct {
	doc      *Document
	measurer Measurer
	y        float64
}

func (l *layout) page() *Page {
	return &l.doc.Pages[len(l.doc.Pages)-1]
}

func (l *layout) newPage() {
	l.doc.Pages = append(l.doc.Pages, Page{})
	l.y = MarginTop
}

func (l *layout) text(x float64, text string, style Style) {
	l.textAt(x, l.y, text, style)
}

func (l *layout) textAt(x, y float64, text string, style Style) {
	p := l.page()
	p.Ops = append(p.Ops, TextOp{X: x, Y: y, Text: text, Style: style})
}

func (l *layout) breakIfNeeded() {
	if l.y > ContentLimit {
		l.newPage()
	}
}

// section starts a new top-level heading, moving to a new page when little
// room is left and otherwise leaving a gap after the previous block.
func (l *layout) section(title string) {
	if l.y > SectionLimit {
		l.newPage()
	} else {
		l.y += 10
	}
	l.text(MarginLeft, title, styleHeading)
	l.y += 10
}

// Layout flows protocol and its customer into pages. generatedAt is printed
// in the header.
func Layout(p domain.Protocol, c domain.Customer, generatedAt time.Time, m Measurer) *Document {
	l := &layout{doc: &Document{}, measurer: m}
	l.newPage()

	l.header(p, c, generatedAt)
	l.diet(p.Diet)
	l.workouts(p.Workouts)
	if len(p.Supplements) > 0 {
		l.supplements(p.Supplements)
	}
	l.footers()
	return l.doc
}

func (l *layout) header(p domain.Protocol, c domain.Customer, generatedAt time.Time) {
	l.textAt(MarginLeft, 20, "TrainerScribe Protocol", styleTitle)
	l.textAt(MarginLeft, 30, "Generated on: "+generatedAt.Format(displayDate), styleSubtitle)

	l.textAt(MarginLeft, 45, "Client Information", styleHeading)
	l.textAt(MarginLeft, 55, "Name: "+c.FullName(), styleBody)
	l.textAt(MarginLeft, 65, fmt.Sprintf("Contact: %s | %s", c.Email, c.Phone), styleBody)
	l.textAt(MarginLeft, 70, fmt.Sprintf("Address: %s, %s, %s, %s", c.Address, c.City, c.UF, c.Country), styleBody)

	l.textAt(MarginLeft, 85, "Protocol Duration", styleHeading)
	l.textAt(MarginLeft, 95, "Start Date: "+p.StartDate.Format(displayDate), styleBody)
	l.textAt(MarginLeft, 100, "End Date: "+p.EndDate.Format(displayDate), styleBody)
	l.textAt(MarginLeft, 105, fmt.Sprintf("Duration: %d days", p.DurationDays), styleBody)
}

func (l *layout) diet(d domain.Diet) {
	l.y = 120
	l.text(MarginLeft, "Diet Plan", styleHeading)
	l.y += 10

	width := func(s string) float64 { return l.measurer.Width(s, styleBody) }
	for _, meal := range d.Meals {
		l.breakIfNeeded()
		l.text(MarginLeft, meal.Name, styleItem)
		l.y += 5

		for _, line := range WrapText(meal.Description, WrapWidth, width) {
			l.breakIfNeeded()
			l.text(MarginLeft, line, styleBody)
			l.y += 5
		}
		l.y += 5
	}
}

func (l *layout) workouts(workouts []domain.Workout) {
	l.section("Workout Plan")

	for _, w := range workouts {
		l.breakIfNeeded()
		l.text(MarginLeft, w.Name, styleItem)
		l.y += 8

		for i, ex := range w.Exercises {
			l.breakIfNeeded()
			l.text(IndentLeft, fmt.Sprintf("%d. %s: %d sets x %d reps", i+1, ex.Name, ex.Sets, ex.Reps), styleBody)
			if ex.Notes != "" {
				l.y += 5
				l.text(IndentLeft, "   Notes: "+ex.Notes, styleBody)
			}
			l.y += 7
		}
		l.y += 5
	}
}

func (l *layout) supplements(supplements []domain.Supplement) {
	l.section("Supplementation")

	for i, s := range supplements {
		l.breakIfNeeded()
		l.text(MarginLeft, fmt.Sprintf("%d. %s", i+1, s.Name), styleBodyBold)
		l.y += 5
		l.text(IndentLeft, "Dosage: "+s.Dosage, styleBody)
		l.y += 5
		l.text(IndentLeft, "Frequency: "+s.Frequency, styleBody)
		l.y += 5
		if s.Notes != "" {
			l.text(IndentLeft, "Notes: "+s.Notes, styleBody)
			l.y += 5
		}
		l.y += 3
	}
}

// footers stamps every page once the final page count is known.
func (l *layout) footers() {
	total := len(l.doc.Pages)
	for i := range l.doc.Pages {
		p := &l.doc.Pages[i]
		p.Ops = append(p.Ops, TextOp{
			X:     MarginLeft,
			Y:     FooterY,
			Text:  fmt.Sprintf("TrainerScribe - Professional Protocol - Page %d of %d", i+1, total),
			Style: styleFooter,
		})
	}
}
