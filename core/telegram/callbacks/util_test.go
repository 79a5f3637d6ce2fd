package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		cb            *tele.Callback
		unique, value string
	}{
		{nil, "", ""},
		{&tele.Callback{Data: "\fsched_del|1b4e28ba"}, "sched_del", "1b4e28ba"},
		{&tele.Callback{Data: "\fwelcome_confirm"}, "welcome_confirm", ""},
		{&tele.Callback{Data: "plain"}, "plain", ""},
		{&tele.Callback{Unique: "quiz_announce", Data: "x|y"}, "quiz_announce", "x|y"},
	}
	for _, tc := range cases {
		u, p := ParseCallbackData(tc.cb)
		if u != tc.unique || p != tc.value {
			t.Fatalf("ParseCallbackData(%+v) = %q,%q; want %q,%q", tc.cb, u, p, tc.unique, tc.value)
		}
	}
}
