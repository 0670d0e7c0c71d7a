// Package view holds the account/message view state and the named operations
// that mutate it. It performs no I/O; callers run the network calls and feed
// the results back in.
package view

import (
	"errors"
	"strings"

	"github.com/clerky/igdm/internal/api"
)

var (
	// ErrIncompleteDraft means there is no selected account, or the trimmed
	// recipient or text is empty.
	ErrIncompleteDraft = errors.New("fill in all fields")
	// ErrSendInFlight means a previous send has not completed yet.
	ErrSendInFlight = errors.New("a message is already being sent")
)

// Change tells the renderer which parts of the screen a mutation touched.
type Change uint8

const (
	ChangeAccounts Change = 1 << iota
	ChangeMessages
	ChangeCompose
	ChangeSending
)

func (c Change) Has(o Change) bool { return c&o != 0 }

// SendRequest is a validated draft ready to be posted.
type SendRequest struct {
	AccountID   int64
	RecipientID string
	Text        string
}

// Store is the single view state of a session. It is not safe for concurrent
// use; the UI loop owns it.
type Store struct {
	accounts []api.Account
	selected *api.Account

	messages []api.Message

	recipient string
	text      string
	sending   bool
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Accounts() []api.Account { return s.accounts }

// Selected returns the selected account, or nil.
func (s *Store) Selected() *api.Account { return s.selected }

// SelectedID returns the selected account id and whether one is selected.
func (s *Store) SelectedID() (int64, bool) {
	if s.selected == nil {
		return 0, false
	}
	return s.selected.ID, true
}

func (s *Store) Messages() []api.Message { return s.messages }
func (s *Store) Recipient() string       { return s.recipient }
func (s *Store) Text() string            { return s.text }
func (s *Store) Sending() bool           { return s.sending }

// SetAccounts replaces the account list. If the selected account is missing
// from the new list the selection and messages are cleared and
// selectionCleared is true; otherwise the selection is re-pointed at the fresh
// record with the same id.
func (s *Store) SetAccounts(list []api.Account) (change Change, selectionCleared bool) {
	s.accounts = list
	change = ChangeAccounts
	if s.selected == nil {
		return change, false
	}
	if acc := s.find(s.selected.ID); acc != nil {
		s.selected = acc
		return change, false
	}
	s.selected = nil
	s.messages = nil
	return change | ChangeMessages, true
}

// SelectAccount selects the account with the given id and drops the current
// message list. ok is false (and nothing is selected) when the id is unknown.
// The compose draft is left untouched.
func (s *Store) SelectAccount(id int64) (acc api.Account, ok bool, change Change) {
	s.selected = s.find(id)
	s.messages = []api.Message{}
	change = ChangeAccounts | ChangeMessages
	if s.selected == nil {
		return api.Account{}, false, change
	}
	return *s.selected, true, change
}

// SetMessages replaces the message list with a response loaded for
// accountID. A response for an account that is no longer selected is
// discarded and the call returns false.
func (s *Store) SetMessages(accountID int64, list []api.Message) bool {
	if s.selected == nil || s.selected.ID != accountID {
		return false
	}
	if list == nil {
		list = []api.Message{}
	}
	s.messages = list
	return true
}

func (s *Store) SetRecipient(v string) Change {
	s.recipient = v
	return ChangeCompose
}

func (s *Store) SetText(v string) Change {
	s.text = v
	return ChangeCompose
}

// BeginSend validates the draft and marks a send as in flight.
func (s *Store) BeginSend() (SendRequest, error) {
	recipient := strings.TrimSpace(s.recipient)
	text := strings.TrimSpace(s.text)
	if s.selected == nil || recipient == "" || text == "" {
		return SendRequest{}, ErrIncompleteDraft
	}
	if s.sending {
		return SendRequest{}, ErrSendInFlight
	}
	s.sending = true
	return SendRequest{AccountID: s.selected.ID, RecipientID: recipient, Text: text}, nil
}

// EndSend completes the in-flight send. On success the text is cleared; the
// recipient stays so follow-ups go to the same person.
func (s *Store) EndSend(err error) Change {
	s.sending = false
	if err != nil {
		return ChangeSending
	}
	s.text = ""
	return ChangeSending | ChangeCompose
}

func (s *Store) find(id int64) *api.Account {
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			return &s.accounts[i]
		}
	}
	return nil
}
