package main

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/m3rciful/groupbot/core/buildinfo"
	"github.com/m3rciful/groupbot/internal/config"

	tele "gopkg.in/telebot.v4"
)

var crashConfig atomic.Pointer[config.Config]

// reportFatal notifies the admin that the bot is exiting on err.
func reportFatal(err error) {
	cfg := crashConfig.Load()
	if cfg == nil {
		return
	}
	if sendErr := sendCrashReport(cfg, err, nil); sendErr != nil {
		log.Printf("crash report not sent: %v", sendErr)
	}
}

// notifyCrash tells the admin about a panic in the main goroutine, then re-panics.
func notifyCrash() {
	r := recover()
	if r == nil {
		return
	}
	if cfg := crashConfig.Load(); cfg != nil {
		if err := sendCrashReport(cfg, r, debug.Stack()); err != nil {
			log.Printf("crash report not sent: %v", err)
		}
	}
	panic(r)
}

func sendCrashReport(cfg *config.Config, r any, stack []byte) error {
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Telegram.Token,
		Offline: true,
		Client:  &http.Client{Timeout: 5 * time.Second},
	})
	if err != nil {
		return err
	}
	_, err = bot.Send(tele.ChatID(cfg.Telegram.AdminID), crashText(r, stack))
	return err
}

func crashText(r any, stack []byte) string {
	const maxStack = 3000
	if len(stack) > maxStack {
		stack = stack[:maxStack]
	}
	return fmt.Sprintf("🚨 Bot crashed\n\nVersion: %s\nTime: %s\nCause: %v\n\n%s",
		buildinfo.Summary(), time.Now().UTC().Format(time.RFC3339), r, stack)
}
