package app

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/m3rciful/groupbot/core/telegram/commands"
	"github.com/m3rciful/groupbot/core/telegram/format"
	"github.com/m3rciful/groupbot/internal/settings"
)

var quotes = []string{
	"💪 *Success is not final, failure is not fatal: it is the courage to continue that counts.* - Winston Churchill",
	"🌟 *The expert in anything was once a beginner.* - Helen Hayes",
	"🎯 *Don't watch the clock; do what it does. Keep going.* - Sam Levenson",
	"🚀 *The future belongs to those who believe in the beauty of their dreams.* - Eleanor Roosevelt",
	"📈 *Success is the sum of small efforts repeated day in and day out.* - Robert Collier",
	"🔥 *Your limitation is only your imagination.*",
	"⭐ *Great things never come from comfort zones.*",
	"💎 *Dream it. Wish it. Do it.*",
	"🎓 *Education is the most powerful weapon which you can use to change the world.* - Nelson Mandela",
	"🧠 *The more that you read, the more things you will know. The more that you learn, the more places you'll go.* - Dr. Seuss",
	"📚 *Learning never exhausts the mind.* - Leonardo da Vinci",
	"⚡ *The only way to do great work is to love what you do.* - Steve Jobs",
}

var studyTips = []string{
	"📚 *Study Tip:* Use the Pomodoro Technique. Study for 25 minutes, then take a 5-minute break!",
	"🎯 *Focus Tip:* Remove all distractions. Put your phone in airplane mode while studying.",
	"🧠 *Memory Tip:* Teach someone else what you learned. It helps with retention!",
	"⏰ *Timing Tip:* Study your most difficult subjects when your energy is highest.",
	"📝 *Note Tip:* Use active recall. Test yourself instead of just re-reading notes.",
	"🏃 *Health Tip:* Regular exercise improves brain function and memory!",
	"😴 *Sleep Tip:* Get 7-8 hours of quality sleep for better information retention.",
	"🥗 *Nutrition Tip:* Nuts, fish and berries make good study snacks.",
	"🎵 *Environment Tip:* Some people study better with instrumental music, others need silence. Find what works for you!",
	"📖 *Reading Tip:* Preview the chapter before reading. Look at headings and summaries first.",
	"✍️ *Writing Tip:* Handwriting notes can improve memory better than typing.",
	"🔄 *Review Tip:* Review your notes within 24 hours of learning something new.",
}

func pick(list []string) string {
	return list[rand.Intn(len(list))]
}

// helpText lists the commands visible to the caller's role.
func (a *App) helpText(admin bool) string {
	max := commands.AccessMember
	title := "🤖 Available commands:"
	if admin {
		max = commands.AccessAdmin
		title = "🤖 Admin commands:"
	}
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	for _, cmd := range a.registry.ListCommands(max) {
		fmt.Fprintf(&b, "/%s - %s\n", cmd.Text, cmd.Description)
	}
	b.WriteString("\nSend /cancel at any time to abort a pending step.")
	return b.String()
}

func todayQuizText(d settings.QuizDetails, firstName string) string {
	if !d.IsSet {
		return "😕 Sorry, today's quiz details haven't been set yet.\n\nPlease check back later or contact the admin."
	}
	greeting := ""
	if firstName != "" {
		greeting = "Hey " + format.MD(firstName) + "! 👋\n\n"
	}
	return greeting + "*Today's Quiz Details:*\n\n" + quizDetailLines(d) + "\n\nAll the best! Good luck! 🍀"
}

func quizAnnouncement(d settings.QuizDetails) string {
	return "📚 *Today's Quiz Details Available!*\n\n" + quizDetailLines(d) +
		"\n\nType /todayquiz to see these details anytime!"
}

func quizDetailLines(d settings.QuizDetails) string {
	return fmt.Sprintf("⏰ *Time:* %s\n📖 *Chapter:* %s\n📊 *Level:* %s",
		format.MD(d.Time), format.MD(d.Chapter), format.MD(d.Level))
}

func unknownText(admin bool, firstName string) string {
	if admin {
		return "🤔 Command not recognized, Admin.\n\nUse /help to see all available commands."
	}
	return "🤔 Sorry " + firstName + ", I didn't understand that.\n\n" +
		"Here's what you can do:\n" +
		"• /start to see the main menu\n" +
		"• /todayquiz to see today's quiz details\n" +
		"• /feedback followed by your message to reach the admin"
}

const joinPromptText = "❌ *Access Denied!*\n\nYou must be a member of our group to use this bot.\n\n" +
	"Please join the group and then press the button below or type /start."
