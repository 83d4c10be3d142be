package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/stockdesk/internal/market"
	"github.com/zappabad/stockdesk/tui/styles"
)

// MarketPanel shows one card per instrument.
type MarketPanel struct {
	stocks        []market.Stock
	selectedIndex int
	scrollOffset  int
	loaded        bool
	focused       bool
	width         int
	height        int
}

// NewMarketPanel creates a new market panel.
func NewMarketPanel() *MarketPanel {
	return &MarketPanel{}
}

// Init initializes the panel.
func (p *MarketPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *MarketPanel) Update(msg tea.Msg) (*MarketPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.selectedIndex > 0 {
				p.selectedIndex--
				if p.selectedIndex < p.scrollOffset {
					p.scrollOffset = p.selectedIndex
				}
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.selectedIndex < len(p.stocks)-1 {
				p.selectedIndex++
				if visible := p.visibleCards(); p.selectedIndex >= p.scrollOffset+visible {
					p.scrollOffset = p.selectedIndex - visible + 1
				}
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("b"))):
			return p, p.open(market.SideBuy)
		case key.Matches(msg, key.NewBinding(key.WithKeys("s"))):
			return p, p.open(market.SideSell)
		}
	}
	return p, nil
}

func (p *MarketPanel) open(side market.Side) tea.Cmd {
	st, ok := p.Selected()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		return OpenOrderMsg{Stock: st, Side: side}
	}
}

// cards are three lines each
func (p *MarketPanel) visibleCards() int {
	n := (p.height - 4) / 3
	if n < 1 {
		n = 1
	}
	return n
}

// View renders the panel.
func (p *MarketPanel) View() string {
	var content strings.Builder

	switch {
	case !p.loaded:
		content.WriteString(styles.MutedStyle.Render("Loading instruments..."))
	case len(p.stocks) == 0:
		content.WriteString(styles.MutedStyle.Render("No instruments listed"))
	default:
		end := p.scrollOffset + p.visibleCards()
		if end > len(p.stocks) {
			end = len(p.stocks)
		}
		for i := p.scrollOffset; i < end; i++ {
			content.WriteString(p.renderCard(p.stocks[i], i == p.selectedIndex && p.focused))
			if i < end-1 {
				content.WriteString("\n")
			}
		}
	}

	return styles.Panel("Market", content.String(), p.focused, p.width, p.height)
}

// RenderCard draws a single instrument card.
func (p *MarketPanel) renderCard(st market.Stock, selected bool) string {
	name := styles.RowStyle.Bold(true).Render(st.Name)
	symbol := styles.MutedStyle.Render(st.Symbol)
	price := styles.PriceStyle.Render(market.FormatPrice(st.CurrentPrice))
	change := styles.RenderChange(st.PriceChange)

	line1 := fmt.Sprintf("%s  %s", name, symbol)
	line2 := fmt.Sprintf("%s  %s", price, change)
	card := lipgloss.JoinVertical(lipgloss.Left, line1, line2)

	marker := "  "
	if selected {
		marker = styles.StatusBarKeyStyle.Render("▶ ")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, marker, card) + "\n"
}

// SetStocks replaces the instrument list.
func (p *MarketPanel) SetStocks(stocks []market.Stock) {
	p.stocks = stocks
	p.loaded = true
	if p.selectedIndex >= len(stocks) {
		p.selectedIndex = 0
		p.scrollOffset = 0
	}
}

// Selected returns the highlighted instrument.
func (p *MarketPanel) Selected() (market.Stock, bool) {
	if p.selectedIndex >= 0 && p.selectedIndex < len(p.stocks) {
		return p.stocks[p.selectedIndex], true
	}
	return market.Stock{}, false
}

// SetFocus sets the focus state of the panel.
func (p *MarketPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *MarketPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// OpenOrderMsg asks for the order dialog on a stock and side.
type OpenOrderMsg struct {
	Stock market.Stock
	Side  market.Side
}
