package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes a callback button; Unique routes it, Data is its payload.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// InlineButtons builds an inline keyboard with every button on its own row.
func InlineButtons(buttons []InlineBtn) *tele.ReplyMarkup {
	rows := make([][]InlineBtn, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []InlineBtn{b})
	}
	return InlineButtonsRows(rows...)
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = *markup.Data(btn.Text, btn.Unique, btn.Data).Inline()
		}
		inline[i] = r
	}
	markup.InlineKeyboard = inline
	return markup
}

// JoinPrompt offers the group invite link and a button to re-check membership.
func JoinPrompt(inviteURL, verifyUnique string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	if inviteURL != "" {
		rows = append(rows, markup.Row(markup.URL("👥 Join the group", inviteURL)))
	}
	rows = append(rows, markup.Row(markup.Data("✅ I've joined", verifyUnique)))
	markup.Inline(rows...)
	return markup
}
