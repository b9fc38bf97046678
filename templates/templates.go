package templates

import (
	"embed"
	"html/template"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

//go:embed html/*.html
var files embed.FS

// TimeLayout is how transaction times are shown.
const TimeLayout = "01/02/2006 - 15:04:05"

// USD formats an amount as US dollars, e.g. $1,234.50.
func USD(amount decimal.Decimal) string {
	cur := money.GetCurrency(money.USD)
	cents := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}

// Funcs are the helpers available to every page.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"usd": USD,
		"stamp": func(t time.Time) string {
			return t.Local().Format(TimeLayout)
		},
	}
}

// Parse loads every embedded page.
func Parse() *template.Template {
	return template.Must(template.New("").Funcs(Funcs()).ParseFS(files, "html/*.html"))
}
