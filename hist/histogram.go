package hist

import (
	"go-hep.org/x/hep/hbook"
)

// Histogram is a leaf built by a Factory.
type Histogram interface {
	Name() string
	Title() string
	// Fill takes the coordinates of the kind, optionally followed by a weight.
	Fill(values ...float64)
	Entries() int64
}

// H1 wraps a 1-dim hbook histogram.
type H1 struct {
	H     *hbook.H1D
	name  string
	title string
}

func newH1(name, title string, h *hbook.H1D) *H1 {
	annotate(h.Ann, name, title)
	return &H1{H: h, name: name, title: title}
}

func (h *H1) Name() string { return h.name }
func (h *H1) Title() string { return h.title }
func (h *H1) Entries() int64 { return h.H.Entries() }

func (h *H1) Fill(values ...float64) {
	if len(values) == 0 {
		return
	}
	h.H.Fill(values[0], weight(values, 1))
}

// H2 wraps a 2-dim hbook histogram.
type H2 struct {
	H     *hbook.H2D
	name  string
	title string
}

func newH2(name, title string, h *hbook.H2D) *H2 {
	annotate(h.Ann, name, title)
	return &H2{H: h, name: name, title: title}
}

func (h *H2) Name() string { return h.name }
func (h *H2) Title() string { return h.title }
func (h *H2) Entries() int64 { return h.H.Entries() }

func (h *H2) Fill(values ...float64) {
	if len(values) < 2 {
		return
	}
	h.H.Fill(values[0], values[1], weight(values, 2))
}

// P1 wraps a 1-dim hbook profile.
type P1 struct {
	P     *hbook.P1D
	name  string
	title string
}

func newP1(name, title string, p *hbook.P1D) *P1 {
	annotate(p.Annotation(), name, title)
	return &P1{P: p, name: name, title: title}
}

func (p *P1) Name() string { return p.name }
func (p *P1) Title() string { return p.title }
func (p *P1) Entries() int64 { return p.P.Entries() }

func (p *P1) Fill(values ...float64) {
	if len(values) < 2 {
		return
	}
	p.P.Fill(values[0], values[1], weight(values, 2))
}

func weight(values []float64, i int) float64 {
	if len(values) > i {
		return values[i]
	}
	return 1
}

func annotate(ann hbook.Annotation, name, title string) {
	if ann == nil {
		return
	}
	if name != "" {
		ann["name"] = name
	}
	if title != "" {
		ann["title"] = title
	}
}
