package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/clerky/igdm/internal/api"
	"github.com/clerky/igdm/internal/view"
)

const (
	accountsEmptyText = "No connected accounts. Press c to connect Instagram."
	messagesEmptyText = "No messages received yet."
	noPageText        = "No page"
	noTextText        = "(no text)"
	submitLabel       = "Send message"
	sendingLabel      = "Sending…"
)

// renderAccounts draws one card per account. cursor marks the keyboard
// position; selectedID (when hasSelection) gets the active highlight.
func renderAccounts(accounts []api.Account, selectedID int64, hasSelection bool, cursor int, focused bool, width int) string {
	title := titleStyle().Render("Instagram accounts")
	if len(accounts) == 0 {
		return title + "\n\n" + mutedStyle().Render(accountsEmptyText)
	}

	cardW := maxInt(20, width-2)
	cards := make([]string, 0, len(accounts))
	for i, acc := range accounts {
		active := hasSelection && acc.ID == selectedID
		pointer := "  "
		if focused && i == cursor {
			pointer = "> "
		}
		page := noPageText
		if acc.PageName != nil && strings.TrimSpace(*acc.PageName) != "" {
			page = *acc.PageName
		}
		lines := []string{
			pointer + truncateRunes("@"+acc.Username, cardW-4) + "  " + badgeStyle().Render("Active"),
			"  " + mutedStyle().Render(truncateRunes(page, cardW-4)),
			"  " + mutedStyle().Render(truncateRunes("ID: "+acc.InstagramAccountID, cardW-4)),
		}
		cards = append(cards, cardStyle(active).Width(cardW).Render(strings.Join(lines, "\n")))
	}
	return title + "\n\n" + lipgloss.JoinVertical(lipgloss.Left, cards...)
}

// renderMessages draws the message list for acc. It renders nothing when no
// account is selected.
func renderMessages(acc *api.Account, msgs []api.Message, width int) string {
	if acc == nil {
		return ""
	}
	head := titleStyle().Render("Messages - @"+acc.Username) + "\n" +
		mutedStyle().Render(fmt.Sprintf("Received messages (%d)", len(msgs)))
	if len(msgs) == 0 {
		return head + "\n\n" + mutedStyle().Render(messagesEmptyText)
	}

	cardW := maxInt(20, width-2)
	cards := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		cards = append(cards, renderMessage(msg, cardW))
	}
	return head + "\n\n" + lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func renderMessage(msg api.Message, width int) string {
	from := "From: " + cmpOrDash(msg.SenderID)
	date := view.FormatDate(msg.Timestamp)
	gap := width - 2 - lenVisible(from) - lenVisible(date)
	header := titleStyle().Render(from) + padToRight(maxInt(1, gap)) + mutedStyle().Render(date)

	body := noTextText
	if msg.Text != nil && *msg.Text != "" {
		body = *msg.Text
	}
	lines := []string{header, lipgloss.NewStyle().Width(maxInt(10, width-2)).Render(body)}
	if msg.Replied {
		reply := ""
		if msg.ReplyText != nil {
			reply = *msg.ReplyText
		}
		lines = append(lines, badgeStyle().Render("✅ Replied: "+reply))
	}
	return cardStyle(false).Width(width).Render(strings.Join(lines, "\n"))
}

// renderCompose lays out the two inputs and the submit label.
func renderCompose(recipientInput, textInput string, sending bool, spin string) string {
	label := submitLabel
	if sending {
		label = spin + " " + sendingLabel
	}
	submit := lipgloss.NewStyle().Foreground(igAccent).Bold(!sending).Render("[ " + label + " ]")
	if sending {
		submit = mutedStyle().Render("[ " + label + " ]")
	}
	return strings.Join([]string{
		titleStyle().Render("Reply"),
		"",
		mutedStyle().Render("Recipient ID"),
		recipientInput,
		"",
		mutedStyle().Render("Message"),
		textInput,
		"",
		submit,
	}, "\n")
}

// renderNotice centers a dismissible box over a w by h area.
func renderNotice(n view.Notice, w, h int) string {
	if w <= 0 || h <= 0 {
		return n.Text
	}
	boxW := minInt(70, maxInt(30, w-6))
	body := lipgloss.NewStyle().Bold(true).Foreground(noticeColor(n.Kind)).Width(boxW - 4).Render(n.Text)
	hint := mutedStyle().Render("enter/esc to dismiss")
	panel := lipgloss.NewStyle().
		Width(boxW).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(noticeColor(n.Kind)).
		Padding(1, 1).
		Render(body + "\n\n" + hint)
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, panel)
}
