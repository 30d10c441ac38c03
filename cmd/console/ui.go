package main

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/taleforge/engine/pkg/chat"
	"github.com/taleforge/engine/pkg/state"
)

const (
	AgentName       = "Narrator"
	PlaceHolderText = "What do you do?"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	gameState    *state.GameState
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// World selection state
	showWorldModal bool
	worlds         []string
	worldMap       map[string]string
	selectedWorld  int
	loadingWorlds  bool

	// Quit confirmation state
	showQuitModal bool

	// Transient status line (saved, copied, undone)
	statusNote string

	// Progress bar state
	progressTick int
}

type turnResponseMsg struct {
	response *chat.TurnResponse
	err      error
}

type gameStateMsg struct {
	gameState *state.GameState
	err       error
}

type worldsLoadedMsg struct {
	worlds   []string
	worldMap map[string]string
	err      error
}

type gameStateCreatedMsg struct {
	gameState *state.GameState
	err       error
}

type actionDoneMsg struct {
	action string
	err    error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	suggestionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178")) // gold

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:         cfg,
		client:         client,
		textarea:       ta,
		chatViewport:   chatVp,
		metaViewport:   metaVp,
		ready:          false,
		showWorldModal: true,
		loadingWorlds:  true,
		selectedWorld:  0,
	}
}

func writeMetadata(gs *state.GameState) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("TALEFORGE") + "\n\n")

	content.WriteString("Game ID:\n")
	content.WriteString(gs.ID.String()[:8] + "...\n\n")

	content.WriteString("World:\n")
	content.WriteString(gs.WorldName + "\n\n")

	content.WriteString("Time:\n")
	content.WriteString(fmt.Sprintf("Y%d M%d D%d %02d:%02d\n", gs.WorldTime.Year, gs.WorldTime.Month, gs.WorldTime.Day, gs.WorldTime.Hour, gs.WorldTime.Minute))
	if gs.Season != "" {
		content.WriteString(fmt.Sprintf("%s, %s\n", gs.Season, gs.Weather))
	}
	content.WriteString("\n")

	if len(gs.ReputationTiers) > 0 {
		content.WriteString("Reputation:\n")
		content.WriteString(fmt.Sprintf("%s (%d)\n\n", gs.Reputation.Tier, gs.Reputation.Score))
	}

	if len(gs.Character.Stats) > 0 {
		content.WriteString("Stats:\n")
		keys := make([]string, 0, len(gs.Character.Stats))
		for k := range gs.Character.Stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			s := gs.Character.Stats[k]
			if s.HasLimit {
				content.WriteString(fmt.Sprintf("• %s: %d/%d\n", s.Name, s.Value, s.MaxValue))
			} else {
				content.WriteString(fmt.Sprintf("• %s: %d\n", s.Name, s.Value))
			}
		}
		content.WriteString("\n")
	}

	if len(gs.Inventory) > 0 {
		content.WriteString("Inventory:\n")
		keys := make([]string, 0, len(gs.Inventory))
		for k := range gs.Inventory {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			item := gs.Inventory[k]
			if item.Quantity > 1 {
				content.WriteString(fmt.Sprintf("• %s x%d\n", item.Name, item.Quantity))
			} else {
				content.WriteString(fmt.Sprintf("• %s\n", item.Name))
			}
		}
		content.WriteString("\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /1 /2 /3: Suggestion\n")
	content.WriteString("• /save /undo\n")
	content.WriteString("• /copy: Copy last\n")
	content.WriteString("• /help: Help\n")

	return content.String()
}

// writeChatContent builds the chat content from game state for the current viewport width
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render("TALEFORGE") + "\n\n")
	content.WriteString("Type your actions below to shape the story.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 1))) + "\n\n")

	if m.gameState != nil {
		for _, turn := range m.gameState.History {
			switch turn.Role {
			case state.TurnNarration:
				formatted := narratorStyle.Render(AgentName+": ") + wordwrap.String(turn.Content, chatWidth-len(AgentName)-2)
				content.WriteString(formatted + "\n\n")
			case state.TurnAction:
				content.WriteString(userStyle.Render("You: ") + wordwrap.String(turn.Content, chatWidth-6) + "\n\n")
			}
		}

		if !m.loading && len(m.gameState.Suggestions) > 0 {
			for i, s := range m.gameState.Suggestions {
				content.WriteString(suggestionStyle.Render(fmt.Sprintf("  %d. %s", i+1, s)) + "\n")
			}
			content.WriteString("\n")
		}
	}

	if m.statusNote != "" {
		content.WriteString(promptStyle.Render(m.statusNote) + "\n\n")
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showWorldModal {
		return m.loadWorlds()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle world modal first
	if m.showWorldModal {
		return m.updateWorldModal(msg)
	}

	// Handle quit modal second
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizePanels()
		m.writeChatContent()
		if m.gameState != nil {
			m.metaViewport.SetContent(writeMetadata(m.gameState))
		}
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			return m.submitAction(input)
		}

	case turnResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.writeChatContent()
			currentContent := m.chatViewport.View()
			errorMsg := errorStyle.Render("Error: "+msg.err.Error()) + "\n\n"
			m.chatViewport.SetContent(currentContent + errorMsg)
			m.chatViewport.GotoBottom()
			return m, m.refreshGameState()
		}
		// Pull the authoritative post-turn state from the API
		return m, m.refreshGameState()

	case gameStateMsg:
		if msg.err == nil && msg.gameState != nil {
			m.gameState = msg.gameState
			m.writeChatContent()
			m.metaViewport.SetContent(writeMetadata(m.gameState))
		}

	case actionDoneMsg:
		m.loading = false
		if msg.err != nil {
			m.statusNote = "Error: " + msg.err.Error()
		} else {
			m.statusNote = msg.action + " done."
		}
		return m, m.refreshGameState()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resizePanels() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m ConsoleUI) submitAction(input string) (tea.Model, tea.Cmd) {
	m.textarea.Reset()
	m.loading = true
	m.statusNote = ""
	m.progressTick = 0

	// Show the pending action immediately
	m.gameState.History = append(m.gameState.History, state.Turn{
		Role:    state.TurnAction,
		Content: input,
	})
	m.writeChatContent()

	return m, tea.Batch(m.sendTurnCmd(input), progressTick())
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))
	m.textarea.Reset()
	m.statusNote = ""

	// /1 /2 /3 pick a suggested action
	if n, err := strconv.Atoi(strings.TrimPrefix(cmd, "/")); err == nil {
		if m.gameState != nil && n >= 1 && n <= len(m.gameState.Suggestions) {
			return m.submitAction(m.gameState.Suggestions[n-1])
		}
		m.statusNote = "No such suggestion."
		m.writeChatContent()
		return m, nil
	}

	if name, ok := strings.CutPrefix(cmd, "/discard "); ok {
		m.loading = true
		return m, tea.Batch(m.deleteEntityCmd(strings.TrimSpace(name), false), progressTick())
	}
	if name, ok := strings.CutPrefix(cmd, "/forget "); ok {
		m.loading = true
		return m, tea.Batch(m.deleteEntityCmd(strings.TrimSpace(name), true), progressTick())
	}

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /1 /2 /3 - Take a suggested action
• /save - Write a manual save
• /undo - Undo the last turn
• /restart - Restart from the opening
• /discard <name> - Drop an item, quest or record entirely
• /forget <name> - Drop only the reference entry
• /copy - Copy last narration to clipboard
• /help - Show this help
• Ctrl+C - Quit game

How to play:
• Type your actions and press Enter
• The narrator will respond to guide the story
• Be descriptive for better responses
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()
		return m, nil

	case "/save":
		m.loading = true
		return m, tea.Batch(m.postActionCmd("save"), progressTick())

	case "/undo":
		m.loading = true
		return m, tea.Batch(m.postActionCmd("undo"), progressTick())

	case "/restart":
		m.loading = true
		return m, tea.Batch(m.postActionCmd("restart"), progressTick())

	case "/copy":
		if m.gameState != nil {
			for i := len(m.gameState.History) - 1; i >= 0; i-- {
				if m.gameState.History[i].Role == state.TurnNarration {
					if err := clipboard.WriteAll(m.gameState.History[i].Content); err != nil {
						m.statusNote = "Clipboard unavailable: " + err.Error()
					} else {
						m.statusNote = "Narration copied."
					}
					break
				}
			}
		}
		m.writeChatContent()
		return m, nil

	default:
		m.statusNote = "Unknown command. Try /help."
		m.writeChatContent()
		return m, nil
	}
}

func (m ConsoleUI) sendTurnCmd(action string) tea.Cmd {
	return func() tea.Msg {
		resp, err := sendTurn(m.client, m.config.APIBaseURL, m.gameState.ID, action)
		return turnResponseMsg{resp, err}
	}
}

func (m ConsoleUI) deleteEntityCmd(name string, referenceOnly bool) tea.Cmd {
	return func() tea.Msg {
		err := deleteEntity(m.client, m.config.APIBaseURL, m.gameState.ID, name, referenceOnly)
		return actionDoneMsg{"discard", err}
	}
}

func (m ConsoleUI) postActionCmd(action string) tea.Cmd {
	return func() tea.Msg {
		err := postAction(m.client, m.config.APIBaseURL, m.gameState.ID, action)
		return actionDoneMsg{action, err}
	}
}

func (m ConsoleUI) refreshGameState() tea.Cmd {
	return func() tea.Msg {
		gs, err := getGameState(m.client, m.config.APIBaseURL, m.gameState.ID)
		return gameStateMsg{gs, err}
	}
}

func (m ConsoleUI) loadWorlds() tea.Cmd {
	return func() tea.Msg {
		orderedNames, worldMap, err := listWorlds(m.client, m.config.APIBaseURL)
		return worldsLoadedMsg{orderedNames, worldMap, err}
	}
}

func (m ConsoleUI) createGameStateFromWorld(worldName string) tea.Cmd {
	return func() tea.Msg {
		gs, err := createGameState(m.client, m.config.APIBaseURL, worldName)
		return gameStateCreatedMsg{gs, err}
	}
}

func (m ConsoleUI) updateWorldModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case worldsLoadedMsg:
		m.loadingWorlds = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.worlds = msg.worlds
			m.worldMap = msg.worldMap
		}

	case gameStateCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.gameState = msg.gameState
			m.showWorldModal = false
			if m.width > 0 && m.height > 0 {
				m.resizePanels()
			}
			m.writeChatContent()
			m.metaViewport.SetContent(writeMetadata(m.gameState))
			m.textarea.Focus()
			m.ready = true
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingWorlds {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		if m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedWorld > 0 {
				m.selectedWorld--
			}
		case tea.KeyDown:
			if m.selectedWorld < len(m.worlds)-1 {
				m.selectedWorld++
			}
		case tea.KeyEnter:
			if len(m.worlds) > 0 {
				m.loading = true
				return m, m.createGameStateFromWorld(m.worlds[m.selectedWorld])
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if m.showWorldModal {
					return m, nil
				}
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to quit your adventure?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderWorldModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingWorlds {
		content.WriteString(modalTitleStyle.Render("Loading Worlds..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Please wait while we fetch available worlds..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load worlds: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Creating Game..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Setting up your adventure..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Select a World"))
		content.WriteString("\n\n")

		for i, w := range m.worlds {
			if i == m.selectedWorld {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", w)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", w)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showWorldModal {
		return m.renderWorldModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
