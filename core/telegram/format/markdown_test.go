package format

import "testing"

func TestEscapeMarkdown(t *testing.T) {
	got, err := EscapeMarkdown("a_b *c* [d] `e`", MarkdownV1)
	if err != nil {
		t.Fatalf("v1: %v", err)
	}
	if want := "a\\_b \\*c\\* \\[d] \\`e\\`"; got != want {
		t.Fatalf("v1 = %q, want %q", got, want)
	}

	got, err = EscapeMarkdown("1.5 (x)!", MarkdownV2)
	if err != nil {
		t.Fatalf("v2: %v", err)
	}
	if want := "1\\.5 \\(x\\)\\!"; got != want {
		t.Fatalf("v2 = %q, want %q", got, want)
	}

	got, _ = EscapeMarkdown("a-b = 10+2", MarkdownV2)
	if want := "a\\-b \\= 10\\+2"; got != want {
		t.Fatalf("v2 = %q, want %q", got, want)
	}

	if _, err := EscapeMarkdown("x", 3); err == nil {
		t.Fatalf("expected error for unknown version")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Fatalf("short = %q", got)
	}
	if got := Truncate("hello world", 6); got != "hello…" {
		t.Fatalf("cut = %q", got)
	}
	if got := Truncate("привет", 3); got != "пр…" {
		t.Fatalf("runes = %q", got)
	}
}
