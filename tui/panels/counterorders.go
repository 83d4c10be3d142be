package panels

import (
	"fmt"
	"strings"

	"github.com/zappabad/stockdesk/internal/market"
	"github.com/zappabad/stockdesk/tui/styles"
)

// renderCounterOrders lists outstanding orders on the other side of the book
// as "N shares at $P".
func renderCounterOrders(side market.Side, orders []market.CounterOrder, loading bool, maxRows int) string {
	var content strings.Builder

	heading := "Available sellers"
	if side == market.SideSell {
		heading = "Available buyers"
	}
	content.WriteString(styles.HeaderStyle.Render(heading))
	content.WriteString("\n")

	switch {
	case loading:
		content.WriteString(styles.MutedStyle.Render("Loading..."))
		return content.String()
	case len(orders) == 0:
		content.WriteString(styles.MutedStyle.Render("No matching orders"))
		return content.String()
	}

	if maxRows < 1 {
		maxRows = 1
	}
	shown := orders
	if len(shown) > maxRows {
		shown = shown[:maxRows]
	}

	rowStyle := styles.SellStyle
	if side == market.SideSell {
		rowStyle = styles.BuyStyle
	}
	for i, o := range shown {
		content.WriteString(rowStyle.Render(FormatCounterOrder(o)))
		if i < len(shown)-1 {
			content.WriteString("\n")
		}
	}
	if rest := len(orders) - len(shown); rest > 0 {
		content.WriteString("\n")
		content.WriteString(styles.MutedStyle.Render(fmt.Sprintf("+%d more", rest)))
	}
	return content.String()
}

// FormatCounterOrder renders one counter-order, e.g. "5 shares at $12.50".
func FormatCounterOrder(o market.CounterOrder) string {
	unit := "shares"
	if o.Quantity == 1 {
		unit = "share"
	}
	return fmt.Sprintf("%d %s at %s", o.Quantity, unit, market.FormatPrice(o.Price))
}
