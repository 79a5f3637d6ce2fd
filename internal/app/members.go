package app

import (
	"context"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"
)

// GroupInfo is what /groupinfo reports about the managed group.
type GroupInfo struct {
	Title       string
	Type        string
	Username    string
	Description string
	Members     int
}

// botDirectory answers membership and group metadata lookups through the Bot API.
type botDirectory struct {
	bot     *tele.Bot
	groupID int64

	mu    sync.Mutex
	cache map[int64]membership
	ttl   time.Duration
}

type membership struct {
	member  bool
	checked time.Time
}

func newBotDirectory(bot *tele.Bot, groupID int64) *botDirectory {
	return &botDirectory{
		bot:     bot,
		groupID: groupID,
		cache:   make(map[int64]membership),
		ttl:     time.Minute,
	}
}

// IsMember reports whether userID is the creator, an administrator or a member
// of the group. Positive answers are cached briefly.
func (d *botDirectory) IsMember(_ context.Context, userID int64) (bool, error) {
	if d.cached(userID, time.Now()) {
		return true, nil
	}

	cm, err := d.bot.ChatMemberOf(&tele.Chat{ID: d.groupID}, &tele.User{ID: userID})
	if err != nil {
		return false, err
	}
	ok := isMemberRole(cm.Role)

	d.mu.Lock()
	if ok {
		d.cache[userID] = membership{member: true, checked: time.Now()}
	} else {
		delete(d.cache, userID)
	}
	d.mu.Unlock()
	return ok, nil
}

// cached reports a fresh positive answer for userID and drops a stale one.
func (d *botDirectory) cached(userID int64, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.cache[userID]
	if !ok {
		return false
	}
	if m.member && now.Sub(m.checked) < d.ttl {
		return true
	}
	delete(d.cache, userID)
	return false
}

// Forget drops a cached answer so the next lookup hits the API.
func (d *botDirectory) Forget(userID int64) {
	d.mu.Lock()
	delete(d.cache, userID)
	d.mu.Unlock()
}

func (d *botDirectory) Info(context.Context) (GroupInfo, error) {
	chat, err := d.bot.ChatByID(d.groupID)
	if err != nil {
		return GroupInfo{}, err
	}
	count, err := d.bot.Len(chat)
	if err != nil {
		return GroupInfo{}, err
	}
	return GroupInfo{
		Title:       chat.Title,
		Type:        string(chat.Type),
		Username:    chat.Username,
		Description: chat.Description,
		Members:     count,
	}, nil
}

func isMemberRole(role tele.MemberStatus) bool {
	switch role {
	case tele.Creator, tele.Administrator, tele.Member:
		return true
	}
	return false
}
