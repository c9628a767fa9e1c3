package receipts

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const printWidth = 42

// RenderText produces the plain-text printout of a receipt, the format sent
// to the thermal printer in the shop.
func RenderText(rec Receipt) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	center(&b, "BATIK & THREAD")
	center(&b, "Receipt "+rec.ReceiptNumber)
	center(&b, rec.Date.Format("2 Jan 2006"))
	rule(&b)

	fmt.Fprintf(&b, "%s\n", rec.CustomerName)
	if rec.CustomerPhone != "" {
		fmt.Fprintf(&b, "%s\n", rec.CustomerPhone)
	}
	if rec.CustomerAddress != "" {
		fmt.Fprintf(&b, "%s\n", rec.CustomerAddress)
	}
	rule(&b)

	for _, item := range rec.Items {
		fmt.Fprintf(&b, "%s\n", item.Description)
		amountLine(&b, p, p.Sprintf("  %d x %.2f", item.Quantity, item.UnitPrice), item.LineTotal)
	}
	rule(&b)

	amountLine(&b, p, "Subtotal", rec.Subtotal)
	amountLine(&b, p, p.Sprintf("Tax (%.1f%%)", rec.TaxPercent), rec.TaxAmount)
	amountLine(&b, p, "Shipping", rec.Shipping)
	amountLine(&b, p, "TOTAL", rec.GrandTotal)
	rule(&b)

	center(&b, "Thank you for your order")
	return b.String()
}

func amountLine(b *strings.Builder, p *message.Printer, label string, amount float64) {
	value := p.Sprintf("%.2f", amount)
	pad := printWidth - len(label) - len(value)
	if pad < 1 {
		pad = 1
	}
	b.WriteString(label + strings.Repeat(" ", pad) + value + "\n")
}

func center(b *strings.Builder, s string) {
	pad := (printWidth - len(s)) / 2
	if pad < 0 {
		pad = 0
	}
	b.WriteString(strings.Repeat(" ", pad) + s + "\n")
}

func rule(b *strings.Builder) {
	b.WriteString(strings.Repeat("-", printWidth) + "\n")
}
