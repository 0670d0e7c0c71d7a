package tui

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clerky/igdm/internal/api"
	"github.com/clerky/igdm/internal/buildinfo"
	"github.com/clerky/igdm/internal/logging"
	"github.com/clerky/igdm/internal/poller"
	"github.com/clerky/igdm/internal/view"
)

// Notice texts for the send flow.
const (
	noticeIncomplete = "Fill in all fields"
	noticeSent       = "Message sent!"
	noticeSendFailed = "Error sending message"
)

// Service is the part of the backend the UI talks to. api.Client
// implements it.
type Service interface {
	ListAccounts(ctx context.Context) ([]api.Account, error)
	ListMessages(ctx context.Context, accountID int64) ([]api.Message, error)
	SendMessage(ctx context.Context, in api.SendMessageInput) error
	ConnectURL() (string, error)
}

type Options struct {
	Service      Service
	Logger       *slog.Logger
	PollInterval time.Duration

	// Shown in the header.
	APIURL     string
	UserID     int64
	ReturnAddr string

	// Initial is the return signal passed on the command line, if any.
	Initial view.ReturnSignal
	// Returns delivers signals from the return listener.
	Returns <-chan view.ReturnSignal

	OpenBrowser func(string) error
	// CopyText is tried when the browser cannot be opened. Nil uses the
	// system clipboard.
	CopyText func(string) error
}

type paneFocus int

const (
	focusAccounts paneFocus = iota
	focusMessages
	focusRecipient
	focusText
)

type accountsLoadedMsg struct {
	accounts []api.Account
	err      error
}

type messagesLoadedMsg struct {
	accountID int64
	messages  []api.Message
	err       error
}

type sendResultMsg struct {
	accountID int64
	err       error
}

type pollTickMsg struct{ tick poller.Tick }

type returnMsg struct{ signal view.ReturnSignal }

type connectStartedMsg struct {
	url    string
	err    error
	copied bool
}

type Model struct {
	ctx      context.Context
	svc      Service
	log      *slog.Logger
	opts     Options
	store    *view.Store
	poller   *poller.Poller
	dispatch *dispatcher

	width  int
	height int

	focus     paneFocus
	cursor    int
	recipient textinput.Model
	text      textinput.Model
	messages  viewport.Model
	spinner   spinner.Model
	help      help.Model
	keys      keyMap

	notice *view.Notice
	info   string
	bgErr  string
}

func NewModel(ctx context.Context, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	d := &dispatcher{}

	recipient := textinput.New()
	recipient.Placeholder = "Instagram user id"
	recipient.Prompt = "› "
	recipient.CharLimit = 64

	text := textinput.New()
	text.Placeholder = "Type your reply…"
	text.Prompt = "› "
	text.CharLimit = 1000

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(igAccent)

	m := Model{
		ctx:       ctx,
		svc:       opts.Service,
		log:       logger,
		opts:      opts,
		store:     view.NewStore(),
		dispatch:  d,
		recipient: recipient,
		text:      text,
		messages:  viewport.New(0, 0),
		spinner:   sp,
		help:      help.New(),
		keys:      defaultKeyMap(),
	}
	m.poller = poller.New(opts.PollInterval, func(t poller.Tick) {
		d.Send(pollTickMsg{tick: t})
	}, logger)

	if n, ok := opts.Initial.Notice(); ok {
		m.notice = &n
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadAccountsCmd(), m.waitReturnCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case accountsLoadedMsg:
		if msg.err != nil {
			m.log.Warn("load accounts failed", "error", msg.err)
			m.bgErr = "Could not load accounts"
			return m, nil
		}
		m.bgErr = ""
		change, cleared := m.store.SetAccounts(msg.accounts)
		if cleared {
			m.poller.Stop()
			if m.focus != focusAccounts {
				m.setFocus(focusAccounts)
			}
		}
		m.apply(change)
		return m, nil

	case messagesLoadedMsg:
		if id, ok := m.store.SelectedID(); !ok || id != msg.accountID {
			m.log.Debug("discarded messages for unselected account", "account_id", msg.accountID, "error", msg.err)
			return m, nil
		}
		if msg.err != nil {
			m.log.Warn("load messages failed", "account_id", msg.accountID, "error", msg.err)
			m.bgErr = "Could not load messages"
			return m, nil
		}
		if m.store.SetMessages(msg.accountID, msg.messages) {
			m.bgErr = ""
			m.apply(view.ChangeMessages)
		}
		return m, nil

	case pollTickMsg:
		if !m.poller.Accept(msg.tick) {
			return m, nil
		}
		return m, m.loadMessagesCmd(msg.tick.AccountID)

	case sendResultMsg:
		m.apply(m.store.EndSend(msg.err))
		if msg.err != nil {
			m.log.Warn("send message failed", "account_id", msg.accountID, "error", msg.err)
			m.showNotice(view.NoticeFailure, sendFailureText(msg.err))
			return m, nil
		}
		m.showNotice(view.NoticeSuccess, noticeSent)
		if id, ok := m.store.SelectedID(); ok {
			return m, m.loadMessagesCmd(id)
		}
		return m, nil

	case returnMsg:
		cmds := []tea.Cmd{m.waitReturnCmd()}
		if n, ok := msg.signal.Notice(); ok {
			m.notice = &n
		}
		if msg.signal.Kind == view.ReturnConnected {
			cmds = append(cmds, m.loadAccountsCmd())
		}
		return m, tea.Batch(cmds...)

	case connectStartedMsg:
		if msg.err != nil {
			m.log.Warn("open browser failed", "error", msg.err)
			text := "Could not open the browser."
			if msg.url != "" {
				text += " Open this URL to connect: " + msg.url
			}
			if msg.copied {
				text += " (copied to clipboard)"
			}
			m.showNotice(view.NoticeFailure, text)
			return m, nil
		}
		m.info = "Continue the Instagram login in your browser…"
		return m, nil

	case spinner.TickMsg:
		if !m.store.Sending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if m.notice != nil {
		switch msg.String() {
		case "enter", "esc":
			m.notice = nil
		}
		return m, nil
	}

	inInput := m.focus == focusRecipient || m.focus == focusText
	switch {
	case key.Matches(msg, m.keys.Focus):
		m.setFocus(m.nextFocus(1))
		return m, nil
	case key.Matches(msg, m.keys.Back):
		m.setFocus(m.nextFocus(-1))
		return m, nil
	}

	if inInput {
		return m.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		return m, m.loadAccountsCmd()
	case key.Matches(msg, m.keys.Refresh):
		if id, ok := m.store.SelectedID(); ok {
			return m, m.loadMessagesCmd(id)
		}
		return m, nil
	case key.Matches(msg, m.keys.Connect):
		return m, m.connectCmd()
	}

	if m.focus == focusMessages {
		var cmd tea.Cmd
		m.messages, cmd = m.messages.Update(translateNavKeys(msg))
		return m, cmd
	}

	switch {
	case key.Matches(translateNavKeys(msg), m.keys.Up):
		m.cursor = clampCursor(m.cursor-1, len(m.store.Accounts()))
	case key.Matches(translateNavKeys(msg), m.keys.Down):
		m.cursor = clampCursor(m.cursor+1, len(m.store.Accounts()))
	case key.Matches(msg, m.keys.Enter):
		return m.selectAtCursor()
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		if m.focus == focusRecipient {
			m.setFocus(focusText)
			return m, nil
		}
		return m.submit()
	}

	var cmd tea.Cmd
	if m.focus == focusRecipient {
		m.recipient, cmd = m.recipient.Update(msg)
		m.apply(m.store.SetRecipient(m.recipient.Value()))
	} else {
		m.text, cmd = m.text.Update(msg)
		m.apply(m.store.SetText(m.text.Value()))
	}
	return m, cmd
}

func (m Model) selectAtCursor() (tea.Model, tea.Cmd) {
	accounts := m.store.Accounts()
	if len(accounts) == 0 {
		return m, nil
	}
	acc, ok, change := m.store.SelectAccount(accounts[m.cursor].ID)
	m.apply(change)
	if !ok {
		m.poller.Stop()
		return m, nil
	}
	m.poller.Start(acc.ID)
	m.messages.GotoTop()
	m.log.Info("account selected", "account_id", acc.ID, "username", acc.Username)
	return m, m.loadMessagesCmd(acc.ID)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	req, err := m.store.BeginSend()
	switch {
	case errors.Is(err, view.ErrIncompleteDraft):
		m.showNotice(view.NoticeFailure, noticeIncomplete)
		return m, nil
	case errors.Is(err, view.ErrSendInFlight):
		return m, nil
	case err != nil:
		m.showNotice(view.NoticeFailure, err.Error())
		return m, nil
	}
	return m, tea.Batch(m.sendCmd(req), m.spinner.Tick)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.poller.Stop()
	return m, tea.Quit
}

func (m *Model) showNotice(kind view.NoticeKind, text string) {
	m.notice = &view.Notice{Kind: kind, Text: text}
}

// sendFailureText maps a send error to the user-facing notice.
func sendFailureText(err error) string {
	var af *api.ApplicationFault
	if errors.As(err, &af) {
		return "Error: " + af.Reason()
	}
	return noticeSendFailed
}

func (m Model) nextFocus(step int) paneFocus {
	if m.store.Selected() == nil {
		return focusAccounts
	}
	n := int(focusText) + 1
	return paneFocus(((int(m.focus)+step)%n + n) % n)
}

func (m *Model) setFocus(f paneFocus) {
	m.focus = f
	m.recipient.Blur()
	m.text.Blur()
	switch f {
	case focusRecipient:
		m.recipient.Focus()
	case focusText:
		m.text.Focus()
	}
}

func clampCursor(c, n int) int {
	if n <= 0 || c < 0 {
		return 0
	}
	if c >= n {
		return n - 1
	}
	return c
}

// --- Commands ----------------------------------------------------------------

func (m Model) loadAccountsCmd() tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		accounts, err := svc.ListAccounts(ctx)
		return accountsLoadedMsg{accounts: accounts, err: err}
	}
}

func (m Model) loadMessagesCmd(accountID int64) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		msgs, err := svc.ListMessages(ctx, accountID)
		return messagesLoadedMsg{accountID: accountID, messages: msgs, err: err}
	}
}

func (m Model) sendCmd(req view.SendRequest) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		err := svc.SendMessage(ctx, api.SendMessageInput{
			AccountID:   req.AccountID,
			RecipientID: req.RecipientID,
			Message:     req.Text,
		})
		return sendResultMsg{accountID: req.AccountID, err: err}
	}
}

func (m Model) connectCmd() tea.Cmd {
	svc, open, copyText, log := m.svc, m.opts.OpenBrowser, m.opts.CopyText, m.log
	if copyText == nil {
		copyText = copyToClipboard
	}
	return func() tea.Msg {
		u, err := svc.ConnectURL()
		if err != nil {
			return connectStartedMsg{err: err}
		}
		if open == nil {
			err = errors.New("no browser configured")
		} else {
			err = open(u)
		}
		if err == nil {
			return connectStartedMsg{url: u}
		}
		msg := connectStartedMsg{url: u, err: err}
		if cerr := copyText(u); cerr != nil {
			log.Debug("copy connect url failed", "error", cerr)
		} else {
			msg.copied = true
		}
		return msg
	}
}

// waitReturnCmd blocks on the next return signal. It is re-armed after each
// delivery.
func (m Model) waitReturnCmd() tea.Cmd {
	ch, ctx := m.opts.Returns, m.ctx
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case sig, ok := <-ch:
			if !ok {
				return nil
			}
			return returnMsg{signal: sig}
		case <-ctx.Done():
			return nil
		}
	}
}

// --- Layout / view -----------------------------------------------------------

const accountsPaneWidth = 38

func (m *Model) layout() {
	bodyH := maxInt(5, m.height-m.headerHeight()-m.footerHeight())
	rightW := m.rightWidth()
	composeH := 11
	m.messages.Width = maxInt(10, rightW-4)
	m.messages.Height = maxInt(3, bodyH-composeH-2)
	inputW := maxInt(10, rightW-8)
	m.recipient.Width = inputW
	m.text.Width = inputW
	m.refreshMessages()
}

func (m Model) rightWidth() int {
	if m.width <= 0 {
		return 80
	}
	if m.stacked() {
		return m.width
	}
	return maxInt(30, m.width-accountsPaneWidth)
}

func (m Model) stacked() bool { return m.width > 0 && m.width < 90 }

// apply brings the widgets in line with the parts of the store a mutation
// touched.
func (m *Model) apply(c view.Change) {
	_, selected := m.store.SelectedID()
	if c.Has(view.ChangeAccounts) {
		m.cursor = clampCursor(m.cursor, len(m.store.Accounts()))
	}
	// The messages title names the selected account.
	if c.Has(view.ChangeMessages) || (c.Has(view.ChangeAccounts) && selected) {
		m.refreshMessages()
	}
	if c.Has(view.ChangeCompose) {
		if v := m.store.Recipient(); m.recipient.Value() != v {
			m.recipient.SetValue(v)
		}
		if v := m.store.Text(); m.text.Value() != v {
			m.text.SetValue(v)
		}
	}
}

func (m *Model) refreshMessages() {
	m.messages.SetContent(renderMessages(m.store.Selected(), m.store.Messages(), m.messages.Width))
}

func (m Model) headerHeight() int { return 3 }

func (m Model) footerHeight() int {
	if m.help.ShowAll {
		return 6
	}
	return 2
}

func (m Model) View() string {
	if m.notice != nil && m.width > 0 {
		return renderNotice(*m.notice, m.width, m.height)
	}
	parts := []string{m.renderHeader(), m.renderBody(), m.renderFooter()}
	if m.notice != nil {
		parts = append(parts, renderNotice(*m.notice, 0, 0))
	}
	return strings.Join(parts, "\n")
}

func (m Model) renderHeader() string {
	left := titleStyle().Render("igdm") + " " + mutedStyle().Render(buildinfo.Inline())
	meta := []string{"API " + cmpOrDash(m.opts.APIURL)}
	if m.opts.UserID > 0 {
		meta = append(meta, "user "+strconv.FormatInt(m.opts.UserID, 10))
	}
	if m.opts.ReturnAddr != "" {
		meta = append(meta, "listening on "+m.opts.ReturnAddr)
	}
	status := mutedStyle().Render(m.info)
	if m.bgErr != "" {
		status = lipgloss.NewStyle().Foreground(igDanger).Render(m.bgErr)
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	return left + "  " + mutedStyle().Render(strings.Join(meta, " · ")) + "\n" + status + "\n" + rule(width)
}

func (m Model) renderBody() string {
	selID, hasSel := m.store.SelectedID()
	leftW := accountsPaneWidth - 4
	if m.stacked() {
		leftW = maxInt(20, m.width-4)
	}
	left := paneStyle(m.focus == focusAccounts).Width(leftW).Render(
		renderAccounts(m.store.Accounts(), selID, hasSel, m.cursor, m.focus == focusAccounts, leftW))

	if !hasSel {
		return left
	}

	rightW := m.rightWidth() - 4
	msgs := paneStyle(m.focus == focusMessages).Width(rightW).Render(m.messages.View())
	compose := paneStyle(m.focus == focusRecipient || m.focus == focusText).Width(rightW).Render(
		renderCompose(m.recipient.View(), m.text.View(), m.store.Sending(), m.spinner.View()))
	right := lipgloss.JoinVertical(lipgloss.Left, msgs, compose)

	if m.stacked() {
		return lipgloss.JoinVertical(lipgloss.Left, left, right)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m Model) renderFooter() string {
	return footerStyle().Render(m.help.View(m.keys))
}
