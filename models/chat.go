package models

import "strings"

// MaxAvatarStrip is how many participant pictures a chat header shows before
// collapsing the rest into a "+N" counter.
const MaxAvatarStrip = 3

// ChatSession is the metadata of one conversation
type ChatSession struct {
	ID          string `json:"_id" validate:"required"`
	ChatName    string `json:"chatName"`
	IsGroupChat bool   `json:"isGroupChat"`
	Users       []User `json:"users" validate:"dive"`
}

// ChatEnvelope is the body of GET /api/chats/:id
type ChatEnvelope struct {
	Chat *ChatSession `json:"chat"`
}

// OtherUsers returns the participants other than the viewer. A chat with a
// single participant is a chat with yourself, so that participant is kept.
func (c ChatSession) OtherUsers(viewerID string) []User {
	if len(c.Users) == 1 {
		return []User{c.Users[0]}
	}

	others := make([]User, 0, len(c.Users))
	for _, u := range c.Users {
		if u.ID != viewerID {
			others = append(others, u)
		}
	}
	return others
}

// DisplayName returns the explicit chat name, or the full names of the other
// participants joined with ", ".
func (c ChatSession) DisplayName(viewerID string) string {
	if c.ChatName != "" {
		return c.ChatName
	}

	others := c.OtherUsers(viewerID)
	names := make([]string, len(others))
	for i, u := range others {
		names[i] = u.FullName()
	}
	return strings.Join(names, ", ")
}

// AvatarStrip returns the participants whose pictures the header shows and
// how many more are hidden behind the counter. The viewer is never shown.
func (c ChatSession) AvatarStrip(viewerID string) ([]User, int) {
	others := make([]User, 0, len(c.Users))
	for _, u := range c.Users {
		if u.ID != viewerID {
			others = append(others, u)
		}
	}

	if len(others) <= MaxAvatarStrip {
		return others, 0
	}
	return others[:MaxAvatarStrip], len(others) - MaxAvatarStrip
}

// CanRename reports whether the chat name is user-editable; only group chats are
func (c ChatSession) CanRename() bool {
	return c.IsGroupChat
}
