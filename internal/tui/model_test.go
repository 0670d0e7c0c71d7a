package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/clerky/igdm/internal/api"
	"github.com/clerky/igdm/internal/poller"
	"github.com/clerky/igdm/internal/view"
)

type fakeService struct {
	mu           sync.Mutex
	accounts     []api.Account
	messages     map[int64][]api.Message
	accountCalls int
	messageCalls []int64
	sends        []api.SendMessageInput
	sendErr      error
}

func (f *fakeService) ListAccounts(context.Context) ([]api.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accountCalls++
	return append([]api.Account(nil), f.accounts...), nil
}

func (f *fakeService) ListMessages(_ context.Context, accountID int64) ([]api.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messageCalls = append(f.messageCalls, accountID)
	return f.messages[accountID], nil
}

func (f *fakeService) SendMessage(_ context.Context, in api.SendMessageInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, in)
	return f.sendErr
}

func (f *fakeService) ConnectURL() (string, error) {
	return "http://localhost:3000/api/instagram/auth", nil
}

func newFakeService() *fakeService {
	hi := "hi"
	return &fakeService{
		accounts: []api.Account{
			{ID: 1, Username: "shop", InstagramAccountID: "1784"},
			{ID: 2, Username: "cafe", InstagramAccountID: "1785"},
		},
		messages: map[int64][]api.Message{
			1: {{ID: "m1", SenderID: "909", Text: &hi, Timestamp: api.TimestampFromMillis(1700000000000)}},
			2: {},
		},
	}
}

func newTestModel(t *testing.T, svc *fakeService) Model {
	t.Helper()
	m := NewModel(context.Background(), Options{Service: svc, PollInterval: time.Hour})
	t.Cleanup(m.poller.Close)
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	nm, cmd := m.Update(msg)
	out, ok := nm.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", nm)
	}
	return out, cmd
}

// run executes cmd and flattens batches.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// feed runs cmd and feeds every resulting message back into m.
func feed(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range run(cmd) {
		m, _ = update(t, m, msg)
	}
	return m
}

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func loaded(t *testing.T, svc *fakeService) Model {
	t.Helper()
	m := newTestModel(t, svc)
	return feed(t, m, m.loadAccountsCmd())
}

func selectFirst(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := update(t, m, keyEnter)
	return feed(t, m, cmd)
}

func TestModel_InitLoadsAccounts(t *testing.T) {
	svc := newFakeService()
	m := newTestModel(t, svc)
	m = feed(t, m, m.Init())
	if len(m.store.Accounts()) != 2 || svc.accountCalls != 1 {
		t.Fatalf("expected accounts loaded once, got %d accounts, %d calls", len(m.store.Accounts()), svc.accountCalls)
	}
}

func TestModel_SelectLoadsMessagesAndStartsPolling(t *testing.T) {
	svc := newFakeService()
	m := selectFirst(t, loaded(t, svc))

	if id, ok := m.store.SelectedID(); !ok || id != 1 {
		t.Fatalf("expected account 1 selected, got %d %v", id, ok)
	}
	if len(svc.messageCalls) != 1 || svc.messageCalls[0] != 1 {
		t.Fatalf("expected one load for account 1, got %v", svc.messageCalls)
	}
	if got := m.store.Messages(); len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("unexpected messages: %#v", got)
	}
	if id, ok := m.poller.Current(); !ok || id != 1 {
		t.Fatalf("expected poller on account 1, got %d %v", id, ok)
	}
}

func TestModel_LateResponseForPreviousAccountIsIgnored(t *testing.T) {
	svc := newFakeService()
	m := loaded(t, svc)

	m, _ = update(t, m, keyEnter) // select 1, response not delivered yet
	m, _ = update(t, m, keyDown)
	m, cmd := update(t, m, keyEnter) // select 2
	m = feed(t, m, cmd)

	late := []api.Message{{ID: "late"}}
	m, _ = update(t, m, messagesLoadedMsg{accountID: 1, messages: late})

	if id, _ := m.store.SelectedID(); id != 2 {
		t.Fatalf("expected account 2 selected, got %d", id)
	}
	if len(m.store.Messages()) != 0 {
		t.Fatalf("stale response was applied: %#v", m.store.Messages())
	}
	if got := renderMessages(m.store.Selected(), m.store.Messages(), 80); !strings.Contains(got, messagesEmptyText) {
		t.Fatalf("expected empty state, got %q", got)
	}
}

func TestModel_PollTicksFromPreviousTimerAreDropped(t *testing.T) {
	svc := newFakeService()
	m := loaded(t, svc)
	m, _ = update(t, m, keyEnter)
	m, _ = update(t, m, keyDown)
	m, _ = update(t, m, keyEnter)

	// First Start is generation 1 (account 1), second is 2 (account 2).
	if _, cmd := update(t, m, pollTickMsg{tick: poller.Tick{AccountID: 1, Generation: 1}}); cmd != nil {
		t.Fatalf("expected tick for cancelled timer to be dropped")
	}
	_, cmd := update(t, m, pollTickMsg{tick: poller.Tick{AccountID: 2, Generation: 2}})
	if cmd == nil {
		t.Fatalf("expected live tick to load messages")
	}
	before := len(svc.messageCalls)
	run(cmd)
	if len(svc.messageCalls) != before+1 || svc.messageCalls[len(svc.messageCalls)-1] != 2 {
		t.Fatalf("expected a load for account 2, got %v", svc.messageCalls)
	}
}

func TestModel_EmptyDraftShowsNoticeWithoutRequest(t *testing.T) {
	svc := newFakeService()
	m := selectFirst(t, loaded(t, svc))
	for i := 0; i < 3; i++ {
		m, _ = update(t, m, keyTab)
	}
	if m.focus != focusText {
		t.Fatalf("expected text focus, got %d", m.focus)
	}

	m, cmd := update(t, m, keyEnter)
	if cmd != nil {
		t.Fatalf("expected no command for an incomplete draft")
	}
	if m.notice == nil || m.notice.Text != noticeIncomplete {
		t.Fatalf("expected %q notice, got %+v", noticeIncomplete, m.notice)
	}
	if len(svc.sends) != 0 || m.store.Sending() {
		t.Fatalf("expected no send, got %d sends sending=%v", len(svc.sends), m.store.Sending())
	}
}

func composeDraft(t *testing.T, m Model, recipient, text string) Model {
	t.Helper()
	m, _ = update(t, m, keyTab)
	m, _ = update(t, m, keyTab)
	m, _ = update(t, m, keyRunes(recipient))
	m, _ = update(t, m, keyEnter)
	m, _ = update(t, m, keyRunes(text))
	return m
}

func TestModel_SendSuccessClearsTextAndRefreshes(t *testing.T) {
	svc := newFakeService()
	m := selectFirst(t, loaded(t, svc))
	m = composeDraft(t, m, "909", "hello")

	m, cmd := update(t, m, keyEnter)
	if !m.store.Sending() {
		t.Fatalf("expected sending state")
	}
	var result *sendResultMsg
	for _, msg := range run(cmd) {
		if r, ok := msg.(sendResultMsg); ok {
			result = &r
		}
	}
	if result == nil {
		t.Fatalf("expected a send result")
	}
	want := api.SendMessageInput{AccountID: 1, RecipientID: "909", Message: "hello"}
	if len(svc.sends) != 1 || svc.sends[0] != want {
		t.Fatalf("unexpected sends: %#v", svc.sends)
	}

	loadsBefore := len(svc.messageCalls)
	m, cmd = update(t, m, *result)
	if m.notice == nil || m.notice.Text != noticeSent || m.notice.Kind != view.NoticeSuccess {
		t.Fatalf("unexpected notice: %+v", m.notice)
	}
	if m.text.Value() != "" || m.store.Text() != "" {
		t.Fatalf("expected text cleared, got %q", m.text.Value())
	}
	if m.recipient.Value() != "909" {
		t.Fatalf("expected recipient kept, got %q", m.recipient.Value())
	}
	run(cmd)
	if len(svc.messageCalls) != loadsBefore+1 {
		t.Fatalf("expected messages reloaded after send")
	}
}

func TestModel_SendFailureNotices(t *testing.T) {
	svc := newFakeService()
	m := selectFirst(t, loaded(t, svc))
	m = composeDraft(t, m, "909", "hello")
	m, _ = update(t, m, keyEnter)

	m, _ = update(t, m, sendResultMsg{accountID: 1, err: &api.ApplicationFault{Op: "send message", Status: 400, Message: "Invalid recipient"}})
	if m.notice == nil || m.notice.Text != "Error: Invalid recipient" {
		t.Fatalf("unexpected notice: %+v", m.notice)
	}
	if m.store.Text() != "hello" || m.store.Sending() {
		t.Fatalf("expected draft kept and not sending")
	}

	m, _ = update(t, m, keyEnter) // dismiss
	m, _ = update(t, m, keyEnter) // send again
	m, _ = update(t, m, sendResultMsg{accountID: 1, err: &api.NetworkFault{Op: "send message", Err: errors.New("refused")}})
	if m.notice == nil || m.notice.Text != noticeSendFailed {
		t.Fatalf("unexpected notice: %+v", m.notice)
	}
}

func TestModel_ReturnSignalShowsNoticeOnceAndReloadsAccounts(t *testing.T) {
	svc := newFakeService()
	m := loaded(t, svc)

	m, cmd := update(t, m, returnMsg{signal: view.ReturnSignal{Kind: view.ReturnConnected}})
	if m.notice == nil || m.notice.Kind != view.NoticeSuccess {
		t.Fatalf("expected success notice, got %+v", m.notice)
	}
	run(cmd)
	if svc.accountCalls != 2 {
		t.Fatalf("expected accounts reloaded, got %d calls", svc.accountCalls)
	}

	m, _ = update(t, m, keyEsc)
	if m.notice != nil {
		t.Fatalf("expected notice dismissed")
	}
}

func TestModel_InitialSignalNotice(t *testing.T) {
	m := NewModel(context.Background(), Options{
		Service: newFakeService(),
		Initial: view.ReturnSignal{Kind: view.ReturnFailed, Message: "Foo"},
	})
	defer m.poller.Close()
	if m.notice == nil || m.notice.Text != "Failed to connect account: Foo" {
		t.Fatalf("unexpected notice: %+v", m.notice)
	}
}

func TestModel_NoticeSwallowsKeys(t *testing.T) {
	svc := newFakeService()
	m := selectFirst(t, loaded(t, svc))
	m.showNotice(view.NoticeInfo, "hello")
	if _, cmd := update(t, m, keyRunes("r")); cmd != nil {
		t.Fatalf("expected keys to be ignored while a notice is open")
	}
}

func TestModel_QuitOnlyOutsideInputs(t *testing.T) {
	svc := newFakeService()
	m := selectFirst(t, loaded(t, svc))

	_, cmd := update(t, m, keyRunes("q"))
	if msgs := run(cmd); len(msgs) != 1 {
		t.Fatalf("expected quit, got %#v", msgs)
	} else if _, ok := msgs[0].(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg, got %T", msgs[0])
	}

	for i := 0; i < 3; i++ {
		m, _ = update(t, m, keyTab)
	}
	m, _ = update(t, m, keyRunes("q"))
	if m.text.Value() != "q" {
		t.Fatalf("expected q typed into the text field, got %q", m.text.Value())
	}
}

func TestModel_AccountsReloadDropsVanishedSelection(t *testing.T) {
	svc := newFakeService()
	m := selectFirst(t, loaded(t, svc))

	m, _ = update(t, m, accountsLoadedMsg{accounts: []api.Account{{ID: 2, Username: "cafe"}}})
	if m.store.Selected() != nil {
		t.Fatalf("expected selection cleared")
	}
	if _, ok := m.poller.Current(); ok {
		t.Fatalf("expected poller stopped")
	}
}

func TestModel_BackgroundFaultKeepsState(t *testing.T) {
	svc := newFakeService()
	m := selectFirst(t, loaded(t, svc))

	m, _ = update(t, m, messagesLoadedMsg{accountID: 1, err: &api.NetworkFault{Op: "list messages", Err: errors.New("down")}})
	if len(m.store.Messages()) != 1 {
		t.Fatalf("expected messages kept after a failed poll")
	}
	if m.notice != nil {
		t.Fatalf("background faults must not open a notice")
	}
	if m.bgErr == "" {
		t.Fatalf("expected header error line")
	}
}

func TestModel_ConnectFallsBackToClipboard(t *testing.T) {
	var copied string
	m := NewModel(context.Background(), Options{
		Service:      newFakeService(),
		PollInterval: time.Hour,
		OpenBrowser:  func(string) error { return errors.New("no display") },
		CopyText:     func(s string) error { copied = s; return nil },
	})
	t.Cleanup(m.poller.Close)

	msg := m.connectCmd()()
	m, _ = update(t, m, msg)
	if copied != "http://localhost:3000/api/instagram/auth" {
		t.Fatalf("expected connect url on clipboard, got %q", copied)
	}
	if m.notice == nil || !strings.Contains(m.notice.Text, "(copied to clipboard)") {
		t.Fatalf("unexpected notice: %#v", m.notice)
	}
}

func TestModel_ConnectOpensBrowser(t *testing.T) {
	var opened string
	m := NewModel(context.Background(), Options{
		Service:      newFakeService(),
		PollInterval: time.Hour,
		OpenBrowser:  func(u string) error { opened = u; return nil },
		CopyText:     func(string) error { t.Fatalf("clipboard should not be used"); return nil },
	})
	t.Cleanup(m.poller.Close)

	m, _ = update(t, m, m.connectCmd()())
	if opened == "" || m.notice != nil {
		t.Fatalf("expected browser open without notice, opened=%q notice=%#v", opened, m.notice)
	}
}

func TestModel_FailedLoadForLeftAccountKeepsHeaderClean(t *testing.T) {
	svc := newFakeService()
	m := loaded(t, svc)
	m, _ = update(t, m, keyEnter)
	m, _ = update(t, m, keyDown)
	m, cmd := update(t, m, keyEnter)
	m = feed(t, m, cmd)

	m, _ = update(t, m, messagesLoadedMsg{accountID: 1, err: &api.NetworkFault{Op: "list messages", Err: errors.New("down")}})
	if m.bgErr != "" {
		t.Fatalf("expected no header error for a left account, got %q", m.bgErr)
	}
}

func TestModel_ApplyRerendersOnlyTouchedParts(t *testing.T) {
	m := newTestModel(t, newFakeService())
	m.messages.SetContent("a\nb\nc\nd\ne")

	m.store.SetText("draft")
	m.apply(view.ChangeCompose)
	if m.text.Value() != "draft" {
		t.Fatalf("expected text input synced from the store, got %q", m.text.Value())
	}
	if got := m.messages.TotalLineCount(); got != 5 {
		t.Fatalf("compose change must not rebuild the messages pane, got %d lines", got)
	}

	m.apply(view.ChangeAccounts)
	if got := m.messages.TotalLineCount(); got != 5 {
		t.Fatalf("accounts change without a selection must not rebuild the messages pane, got %d lines", got)
	}

	m.apply(view.ChangeMessages)
	if got := m.messages.TotalLineCount(); got == 5 {
		t.Fatalf("expected messages pane rebuilt")
	}
}

func TestModel_SendSuccessClearsTextInputThroughStore(t *testing.T) {
	svc := newFakeService()
	m := selectFirst(t, loaded(t, svc))
	m.apply(m.store.SetRecipient("909"))
	m.apply(m.store.SetText("hello"))
	if m.recipient.Value() != "909" || m.text.Value() != "hello" {
		t.Fatalf("inputs not synced: %q %q", m.recipient.Value(), m.text.Value())
	}
	if _, err := m.store.BeginSend(); err != nil {
		t.Fatalf("BeginSend: %v", err)
	}

	m, _ = update(t, m, sendResultMsg{accountID: 1})
	if m.text.Value() != "" || m.recipient.Value() != "909" {
		t.Fatalf("expected text cleared and recipient kept, got %q %q", m.text.Value(), m.recipient.Value())
	}
}
