package models

import "encoding/json"

// Figure is a plotly.js figure description. The browser hands it to Plotly.newPlot unchanged.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// PlotAreas counts the stacked plot areas (one per y-axis).
func (f Figure) PlotAreas() int {
	n := 0
	if f.Layout.YAxis != nil {
		n++
	}
	if f.Layout.YAxis2 != nil {
		n++
	}
	return n
}

type Trace struct {
	Type       string      `json:"type"`
	Name       string      `json:"name,omitempty"`
	Mode       string      `json:"mode,omitempty"`
	X          []string    `json:"x"`
	Y          []float64   `json:"y,omitempty"`
	Open       []float64   `json:"open,omitempty"`
	High       []float64   `json:"high,omitempty"`
	Low        []float64   `json:"low,omitempty"`
	Close      []float64   `json:"close,omitempty"`
	XAxis      string      `json:"xaxis,omitempty"`
	YAxis      string      `json:"yaxis,omitempty"`
	Fill       string      `json:"fill,omitempty"`
	Increasing *CandleSide `json:"increasing,omitempty"`
	Decreasing *CandleSide `json:"decreasing,omitempty"`
	Marker     *Marker     `json:"marker,omitempty"`
	Line       *Line       `json:"line,omitempty"`
}

type CandleSide struct {
	Line Line `json:"line"`
}

type Line struct {
	Color string `json:"color,omitempty"`
	Dash  string `json:"dash,omitempty"`
	Width int    `json:"width,omitempty"`
}

// Marker colours are either one colour for the trace or one per point.
type Marker struct {
	Color  string   `json:"-"`
	Colors []string `json:"-"`
	Size   int      `json:"size,omitempty"`
}

func (m Marker) MarshalJSON() ([]byte, error) {
	type out struct {
		Color any `json:"color,omitempty"`
		Size  int `json:"size,omitempty"`
	}
	o := out{Size: m.Size}
	switch {
	case m.Colors != nil:
		o.Color = m.Colors
	case m.Color != "":
		o.Color = m.Color
	}
	return json.Marshal(o)
}

type Layout struct {
	Title      Title  `json:"title"`
	XAxis      *Axis  `json:"xaxis,omitempty"`
	YAxis      *Axis  `json:"yaxis,omitempty"`
	YAxis2     *Axis  `json:"yaxis2,omitempty"`
	ShowLegend bool   `json:"showlegend"`
	Height     int    `json:"height,omitempty"`
	HoverMode  string `json:"hovermode,omitempty"`
}

type Title struct {
	Text string `json:"text"`
}

type Axis struct {
	Title       Title        `json:"title"`
	Domain      []float64    `json:"domain,omitempty"`
	Anchor      string       `json:"anchor,omitempty"`
	Type        string       `json:"type,omitempty"`
	RangeSlider *RangeSlider `json:"rangeslider,omitempty"`
}

type RangeSlider struct {
	Visible bool `json:"visible"`
}
