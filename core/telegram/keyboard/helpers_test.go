package keyboard

import (
	"strings"
	"testing"
)

func TestInlineButtonsRowsLayout(t *testing.T) {
	m := InlineButtonsRows(
		[]InlineBtn{{Text: "Yes", Unique: "welcome_confirm"}, {Text: "No", Unique: "welcome_cancel"}},
		[]InlineBtn{{Text: "Delete", Unique: "sched_del", Data: "abc"}},
	)
	if len(m.InlineKeyboard) != 2 || len(m.InlineKeyboard[0]) != 2 {
		t.Fatalf("unexpected layout: %+v", m.InlineKeyboard)
	}
	if got := m.InlineKeyboard[0][1].Unique; got != "welcome_cancel" {
		t.Fatalf("unique = %q", got)
	}
	del := m.InlineKeyboard[1][0]
	if del.Unique != "sched_del" || !strings.HasSuffix(del.Data, "abc") {
		t.Fatalf("unexpected button: %+v", del)
	}
}

func TestInlineButtonsOnePerRow(t *testing.T) {
	m := InlineButtons([]InlineBtn{{Text: "a", Unique: "a"}, {Text: "b", Unique: "b"}})
	if len(m.InlineKeyboard) != 2 || len(m.InlineKeyboard[1]) != 1 {
		t.Fatalf("unexpected layout: %+v", m.InlineKeyboard)
	}
}

func TestJoinPromptWithoutInvite(t *testing.T) {
	m := JoinPrompt("", "verify_member")
	if len(m.InlineKeyboard) != 1 {
		t.Fatalf("rows = %d, want 1", len(m.InlineKeyboard))
	}
	m = JoinPrompt("https://t.me/+abc", "verify_member")
	if len(m.InlineKeyboard) != 2 || m.InlineKeyboard[0][0].URL != "https://t.me/+abc" {
		t.Fatalf("unexpected markup: %+v", m.InlineKeyboard)
	}
}
