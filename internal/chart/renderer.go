// Package chart renders the salary breakdown bar chart.
package chart

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"salaryreport/internal/core"
)

const (
	DefaultWidth  = 1000
	DefaultHeight = 600
	DefaultTitle  = "Salary Breakdown"
	yAxisName     = "Amount ($)"
)

// Bar colors, in drawing order.
var (
	IncomeColor   = drawing.Color{R: 0, G: 128, B: 0, A: 255}
	ExpensesColor = drawing.Color{R: 255, G: 0, B: 0, A: 255}
	SavingsColor  = drawing.Color{R: 0, G: 0, B: 255, A: 255}
)

// Result is either a PNG image or the reason rendering failed.
type Result struct {
	Data []byte
	Err  error
}

// OK reports whether an image was produced.
func (r Result) OK() bool {
	return r.Err == nil && len(r.Data) > 0
}

// Base64 returns the image as standard base64, or "" on failure.
func (r Result) Base64() string {
	if !r.OK() {
		return ""
	}
	return base64.StdEncoding.EncodeToString(r.Data)
}

// Renderer draws the Income, Expenses and Savings bars of a report as a PNG.
// The zero value is not usable; use NewRenderer.
type Renderer struct {
	Width  int
	Height int
	Title  string
}

func NewRenderer() *Renderer {
	return &Renderer{Width: DefaultWidth, Height: DefaultHeight, Title: DefaultTitle}
}

// Render never panics. Any failure comes back as a Result carrying a
// *core.RenderError.
func (r *Renderer) Render(report core.SalaryReport) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = Result{Err: &core.RenderError{Cause: fmt.Errorf("panic: %v", p)}}
		}
	}()

	values := []float64{report.TotalIncome, report.TotalExpenses, report.NetSavings}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Result{Err: &core.RenderError{Cause: errors.New("bar values must be finite")}}
		}
	}
	if r.Width <= 0 || r.Height <= 0 {
		return Result{Err: &core.RenderError{Cause: fmt.Errorf("invalid canvas size %dx%d", r.Width, r.Height)}}
	}

	bc := gochart.BarChart{
		Title:  r.Title,
		Width:  r.Width,
		Height: r.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		BarWidth:     120,
		UseBaseValue: true,
		BaseValue:    0,
		YAxis: gochart.YAxis{
			Name:  yAxisName,
			Range: axisRange(values),
		},
		Bars: []gochart.Value{
			bar("Income", report.TotalIncome, IncomeColor),
			bar("Expenses", report.TotalExpenses, ExpensesColor),
			bar("Savings", report.NetSavings, SavingsColor),
		},
	}

	var buf bytes.Buffer
	if err := bc.Render(gochart.PNG, &buf); err != nil {
		return Result{Err: &core.RenderError{Cause: err}}
	}
	return Result{Data: buf.Bytes()}
}

func bar(label string, value float64, color drawing.Color) gochart.Value {
	return gochart.Value{
		Label: label,
		Value: value,
		Style: gochart.Style{
			FillColor:   color,
			StrokeColor: color,
			StrokeWidth: 1,
		},
	}
}

// axisRange always includes zero so that every bar has a visible height.
func axisRange(values []float64) *gochart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == 0 && hi == 0 {
		hi = 1
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}
