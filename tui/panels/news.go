package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zappabad/stockdesk/internal/news"
	"github.com/zappabad/stockdesk/tui/styles"
)

type newsField int

const (
	newsFieldTitle newsField = iota
	newsFieldContent
)

// NewsPanel lists announcements newest first. Admins get a compose form.
type NewsPanel struct {
	news          []news.NewsItem
	selectedIndex int
	scrollOffset  int

	admin        bool
	composing    bool
	titleInput   textinput.Model
	contentInput textinput.Model
	field        newsField
	errMsg       string
	infoMsg      string

	focused bool
	width   int
	height  int
}

// NewNewsPanel creates a new news panel.
func NewNewsPanel() *NewsPanel {
	titleInput := textinput.New()
	titleInput.Placeholder = "Headline"
	titleInput.CharLimit = 120
	titleInput.Width = 40

	contentInput := textinput.New()
	contentInput.Placeholder = "Announcement text"
	contentInput.CharLimit = 1000
	contentInput.Width = 40

	return &NewsPanel{
		titleInput:   titleInput,
		contentInput: contentInput,
	}
}

// Init initializes the panel.
func (p *NewsPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *NewsPanel) Update(msg tea.Msg) (*NewsPanel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || !p.focused {
		return p, nil
	}
	if p.composing {
		return p.updateForm(km)
	}

	switch {
	case key.Matches(km, key.NewBinding(key.WithKeys("up", "k"))):
		if p.selectedIndex > 0 {
			p.selectedIndex--
			if p.selectedIndex < p.scrollOffset {
				p.scrollOffset = p.selectedIndex
			}
		}
	case key.Matches(km, key.NewBinding(key.WithKeys("down", "j"))):
		if p.selectedIndex < len(p.news)-1 {
			p.selectedIndex++
			if visible := p.visibleItems(); p.selectedIndex >= p.scrollOffset+visible {
				p.scrollOffset = p.selectedIndex - visible + 1
			}
		}
	case key.Matches(km, key.NewBinding(key.WithKeys("n"))):
		if p.admin {
			p.openForm()
		}
	}
	return p, nil
}

func (p *NewsPanel) updateForm(km tea.KeyMsg) (*NewsPanel, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case key.Matches(km, key.NewBinding(key.WithKeys("esc"))):
		p.closeForm()
		return p, nil
	case key.Matches(km, key.NewBinding(key.WithKeys("tab", "shift+tab", "up", "down"))):
		if p.field == newsFieldTitle {
			p.field = newsFieldContent
		} else {
			p.field = newsFieldTitle
		}
		p.focusField()
		return p, nil
	case key.Matches(km, key.NewBinding(key.WithKeys("enter"))):
		if p.field == newsFieldTitle {
			p.field = newsFieldContent
			p.focusField()
			return p, nil
		}
		draft := news.Draft{Title: p.titleInput.Value(), Content: p.contentInput.Value()}
		return p, func() tea.Msg { return NewsPublishMsg{Draft: draft} }
	}

	if p.field == newsFieldTitle {
		p.titleInput, cmd = p.titleInput.Update(km)
	} else {
		p.contentInput, cmd = p.contentInput.Update(km)
	}
	return p, cmd
}

func (p *NewsPanel) openForm() {
	p.composing = true
	p.errMsg = ""
	p.infoMsg = ""
	p.field = newsFieldTitle
	p.focusField()
}

func (p *NewsPanel) closeForm() {
	p.composing = false
	p.titleInput.SetValue("")
	p.contentInput.SetValue("")
	p.titleInput.Blur()
	p.contentInput.Blur()
}

func (p *NewsPanel) focusField() {
	p.titleInput.Blur()
	p.contentInput.Blur()
	if p.field == newsFieldTitle {
		p.titleInput.Focus()
	} else {
		p.contentInput.Focus()
	}
}

func (p *NewsPanel) visibleItems() int {
	n := (p.height - 4) / 2
	if p.composing {
		n -= 4
	}
	if n < 1 {
		n = 1
	}
	return n
}

// View renders the panel.
func (p *NewsPanel) View() string {
	var content strings.Builder

	if p.composing {
		content.WriteString(styles.HeaderStyle.Render("New announcement"))
		content.WriteString("\n")
		content.WriteString(p.renderInput("Title", newsFieldTitle, p.titleInput.View()))
		content.WriteString("\n")
		content.WriteString(p.renderInput("Content", newsFieldContent, p.contentInput.View()))
		content.WriteString("\n")
		content.WriteString(styles.MutedStyle.Render("enter: publish  esc: cancel"))
		content.WriteString("\n\n")
	}
	if p.errMsg != "" {
		content.WriteString(styles.ErrorStyle.Render(p.errMsg))
		content.WriteString("\n")
	}
	if p.infoMsg != "" {
		content.WriteString(styles.SuccessStyle.Render(p.infoMsg))
		content.WriteString("\n")
	}

	if len(p.news) == 0 {
		content.WriteString(styles.MutedStyle.Render("No news available"))
	} else {
		visible := p.visibleItems()
		end := p.scrollOffset + visible
		if end > len(p.news) {
			end = len(p.news)
		}
		for i := p.scrollOffset; i < end; i++ {
			item := p.news[i]
			line := fmt.Sprintf("%s %s", styles.TimeStyle.Render(item.CreatedAt.Date()), styles.NewsTitleStyle.Render(item.Title))
			if i == p.selectedIndex && p.focused && !p.composing {
				line = styles.SelectedRowStyle.Render(line)
			}
			content.WriteString(line)
			content.WriteString("\n")
			content.WriteString("  " + styles.RowStyle.Render(p.truncate(item.Content)))
			if i < end-1 {
				content.WriteString("\n")
			}
		}
		if len(p.news) > visible {
			content.WriteString("\n")
			content.WriteString(styles.MutedStyle.Render(fmt.Sprintf(" (%d/%d)", p.selectedIndex+1, len(p.news))))
		}
	}

	if p.admin && !p.composing {
		content.WriteString("\n\n")
		content.WriteString(styles.MutedStyle.Render("n: new announcement"))
	}

	return styles.Panel("News", content.String(), p.focused, p.width, p.height)
}

func (p *NewsPanel) renderInput(label string, field newsField, view string) string {
	labelStyle := styles.LabelStyle
	inputStyle := styles.InputStyle
	if p.field == field {
		labelStyle = labelStyle.Foreground(styles.PrimaryColor)
		inputStyle = styles.FocusedInputStyle
	}
	return labelStyle.Render(fmt.Sprintf("%-9s", label)) + inputStyle.Render(view)
}

func (p *NewsPanel) truncate(s string) string {
	limit := p.width - 8
	if limit < 10 || len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}

// SetNews replaces the news items.
func (p *NewsPanel) SetNews(items []news.NewsItem) {
	p.news = items
	if p.selectedIndex >= len(p.news) {
		p.selectedIndex = len(p.news) - 1
		if p.selectedIndex < 0 {
			p.selectedIndex = 0
		}
	}
	if p.scrollOffset > p.selectedIndex {
		p.scrollOffset = p.selectedIndex
	}
}

// SetAdmin shows or hides the compose form.
func (p *NewsPanel) SetAdmin(admin bool) {
	p.admin = admin
	if !admin && p.composing {
		p.closeForm()
	}
}

// Published closes the form after a successful publish.
func (p *NewsPanel) Published(message string) {
	p.closeForm()
	p.errMsg = ""
	p.infoMsg = message
}

// SetError shows an error above the list.
func (p *NewsPanel) SetError(msg string) {
	p.errMsg = msg
	p.infoMsg = ""
}

// Capturing reports whether keystrokes go to a text input.
func (p *NewsPanel) Capturing() bool {
	return p.composing
}

// SetFocus sets the focus state of the panel.
func (p *NewsPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *NewsPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// NewsPublishMsg is sent when an admin submits an announcement.
type NewsPublishMsg struct {
	Draft news.Draft
}
