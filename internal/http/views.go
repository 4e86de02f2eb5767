package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"kakeibo/internal/core"
	"kakeibo/internal/log"
	"kakeibo/internal/services"
)

var templateFuncs = template.FuncMap{
	"yen":  func(y core.Yen) string { return y.String() },
	"pct":  func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) },
	"add1": func(i int) int { return i + 1 },
}

// page carries the fields every template reads.
type page struct {
	Title  string
	User   string
	Nav    string
	Notice string
	Flash  string
}

type loginPage struct {
	page
	Usernames    []string
	Selected     string
	ConfigError  string
	ResetEnabled bool
}

type scopeOption struct {
	Value    string
	Label    string
	Selected bool
}

type dashboardPage struct {
	page
	Scopes    []scopeOption
	Dashboard core.Dashboard
	Chart     chart
}

type gridRow struct {
	Index int
	TransactionForm
	Delete bool
	Kinds  []string
}

type recordsPage struct {
	page
	Kinds        []core.AccountKind
	Owners       core.OwnerSet
	AccountNames []string
	Form         TransactionForm
	Rows         []gridRow
}

type passwordPage struct {
	page
}

// render executes the named template into a buffer first so a failing
// template never leaves a half-written page.
func (s *Server) render(ctx context.Context, w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Template execution failed",
			log.FieldOperation, log.OpRender,
			"template", name,
			log.FieldError, err)
		InternalServerError("The page could not be rendered.").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func scopeOptions(view services.LedgerView) []scopeOption {
	opts := []scopeOption{{Value: core.ScopeAllAllowed.Value(), Label: "All", Selected: view.Scope.All()}}
	for _, o := range view.Allowed {
		opts = append(opts, scopeOption{
			Value:    string(o),
			Label:    string(o),
			Selected: !view.Scope.All() && view.Scope.Owner() == o,
		})
	}
	return opts
}

func formFromTransaction(t core.Transaction) TransactionForm {
	return TransactionForm{
		Date:        t.Date.String(),
		AccountName: t.AccountName,
		AccountKind: string(t.AccountKind),
		Owner:       string(t.Owner),
		Amount:      t.Amount.Plain(),
		Memo:        t.Memo,
	}
}

// kindChoices lists the known kinds, plus current when a hand-edited sheet
// holds a kind outside the list.
func kindChoices(current string) []string {
	out := make([]string, 0, len(core.AccountKinds)+1)
	known := false
	for _, k := range core.AccountKinds {
		out = append(out, string(k))
		known = known || string(k) == current
	}
	if !known && current != "" {
		out = append(out, current)
	}
	return out
}

func gridFromEdits(rows []core.EditedRow) []gridRow {
	out := make([]gridRow, 0, len(rows))
	for i, r := range rows {
		f := formFromTransaction(r.Transaction)
		out = append(out, gridRow{Index: i, TransactionForm: f, Delete: r.Delete, Kinds: kindChoices(f.AccountKind)})
	}
	return out
}

// gridFromForm echoes a rejected grid submission back as typed.
func gridFromForm(values url.Values) []gridRow {
	indexes := gridIndexes(values)
	out := make([]gridRow, 0, len(indexes))
	for _, i := range indexes {
		prefix := gridPrefix + strconv.Itoa(i) + "."
		f := readFields(func(name string) string { return values.Get(prefix + name) })
		out = append(out, gridRow{
			Index:           i,
			TransactionForm: f,
			Delete:          isChecked(values.Get(prefix + fieldDelete)),
			Kinds:           kindChoices(f.AccountKind),
		})
	}
	return out
}

const (
	chartWidth  = 640
	chartHeight = 200
	chartPad    = 12
)

type chartDot struct {
	X, Y  string
	Label string
}

// chart is the daily-total line drawn as inline SVG.
type chart struct {
	Width, Height int
	Points        string
	Dots          []chartDot
	First, Last   string
	Max           core.Yen
}

func buildChart(daily []core.DailyTotal) chart {
	c := chart{Width: chartWidth, Height: chartHeight}
	if len(daily) == 0 {
		return c
	}
	for _, d := range daily {
		c.Max = max(c.Max, d.Total)
	}
	c.First = daily[0].Date.String()
	c.Last = daily[len(daily)-1].Date.String()

	plotW := float64(chartWidth - 2*chartPad)
	plotH := float64(chartHeight - 2*chartPad)
	points := make([]string, 0, len(daily))
	for i, d := range daily {
		x := float64(chartPad) + plotW/2
		if len(daily) > 1 {
			x = float64(chartPad) + plotW*float64(i)/float64(len(daily)-1)
		}
		y := float64(chartPad) + plotH
		if c.Max > 0 {
			y -= plotH * float64(d.Total) / float64(c.Max)
		}
		xs, ys := strconv.FormatFloat(x, 'f', 1, 64), strconv.FormatFloat(y, 'f', 1, 64)
		points = append(points, xs+","+ys)
		c.Dots = append(c.Dots, chartDot{X: xs, Y: ys, Label: fmt.Sprintf("%s %s", d.Date, d.Total)})
	}
	c.Points = strings.Join(points, " ")
	return c
}
