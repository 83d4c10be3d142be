package panels

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zappabad/stockdesk/internal/market"
	"github.com/zappabad/stockdesk/internal/portfolio"
	portfolioservice "github.com/zappabad/stockdesk/internal/portfolio/service"
	"github.com/zappabad/stockdesk/tui/styles"
)

// PortfolioPanel shows the account summary and positions. Each half renders
// independently; one failing does not hide the other.
type PortfolioPanel struct {
	snap    portfolioservice.Snapshot
	loaded  bool
	focused bool
	width   int
	height  int
}

// NewPortfolioPanel creates a new portfolio panel.
func NewPortfolioPanel() *PortfolioPanel {
	return &PortfolioPanel{}
}

// Init initializes the panel.
func (p *PortfolioPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *PortfolioPanel) Update(msg tea.Msg) (*PortfolioPanel, tea.Cmd) {
	return p, nil
}

// View renders the panel.
func (p *PortfolioPanel) View() string {
	var content strings.Builder

	if !p.loaded {
		content.WriteString(styles.MutedStyle.Render("Loading portfolio..."))
		return styles.Panel("Portfolio", content.String(), p.focused, p.width, p.height)
	}

	content.WriteString(styles.HeaderStyle.Render("Account"))
	content.WriteString("\n")
	switch {
	case p.snap.ProfileErr != nil:
		content.WriteString(styles.ErrorStyle.Render(ErrorText(p.snap.ProfileErr)))
	case p.snap.Profile != nil:
		content.WriteString(fmt.Sprintf("%s %s\n", styles.LabelStyle.Render(fmt.Sprintf("%-16s", "Cash balance")),
			styles.PriceStyle.Render(market.FormatPrice(p.snap.Profile.Balance))))
		content.WriteString(fmt.Sprintf("%s %s", styles.LabelStyle.Render(fmt.Sprintf("%-16s", "Portfolio value")),
			styles.PriceStyle.Render(market.FormatPrice(p.snap.Profile.TotalPortfolioValue))))
	}
	content.WriteString("\n\n")

	content.WriteString(styles.HeaderStyle.Render("Holdings"))
	content.WriteString("\n")
	switch {
	case p.snap.HoldingsErr != nil:
		content.WriteString(styles.ErrorStyle.Render(ErrorText(p.snap.HoldingsErr)))
	case len(p.snap.Holdings) == 0:
		content.WriteString(styles.MutedStyle.Render("You do not own any stocks yet"))
	default:
		header := fmt.Sprintf("%-8s %-20s %8s %12s %14s", "Symbol", "Name", "Qty", "Price", "Value")
		content.WriteString(styles.HeaderStyle.Render(header))
		for _, h := range p.snap.Holdings {
			name := h.StockName
			if len(name) > 20 {
				name = name[:17] + "..."
			}
			content.WriteString("\n")
			content.WriteString(styles.RowStyle.Render(fmt.Sprintf("%-8s %-20s %8d %12s %14s",
				h.StockSymbol, name, h.Quantity,
				market.FormatPrice(h.CurrentPrice), market.FormatPrice(h.TotalValue))))
		}
	}

	return styles.Panel("Portfolio", content.String(), p.focused, p.width, p.height)
}

// SetSnapshot replaces the rendered portfolio.
func (p *PortfolioPanel) SetSnapshot(snap portfolioservice.Snapshot) {
	p.snap = snap
	p.loaded = true
}

// SetHoldings replaces the positions half.
func (p *PortfolioPanel) SetHoldings(h []portfolio.Holding, err error) {
	p.snap.Holdings, p.snap.HoldingsErr = h, err
	p.loaded = true
}

// SetProfile replaces the account half. A failed fetch hides stale figures.
func (p *PortfolioPanel) SetProfile(profile portfolio.Profile, err error) {
	p.snap.ProfileErr = err
	p.snap.Profile = nil
	if err == nil {
		p.snap.Profile = &profile
	}
	p.loaded = true
}

// SetFocus sets the focus state of the panel.
func (p *PortfolioPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *PortfolioPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}
