package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Doxria/life-invader-frontend/chat"
	"github.com/Doxria/life-invader-frontend/models"
)

const avatarWidth = 4

func initials(u models.User) string {
	var b strings.Builder
	for _, part := range []string{u.FirstName, u.LastName} {
		if r := []rune(part); len(r) > 0 {
			b.WriteRune(r[0])
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return strings.ToUpper(b.String())
}

func renderHeader(v chat.View, viewerID string, width int, st styles) string {
	shown, extra := v.Session.AvatarStrip(viewerID)
	avatars := make([]string, 0, len(shown)+1)
	for _, u := range shown {
		avatars = append(avatars, st.Avatar.Render("("+initials(u)+")"))
	}
	if extra > 0 {
		avatars = append(avatars, st.Avatar.Render(fmt.Sprintf("+%d", extra)))
	}

	line := strings.Join(avatars, " ") + " " + st.Header.Render(v.DisplayName)
	if v.CanRename {
		line += " " + st.Hint.Render("ctrl+r reload name")
	}
	return lipgloss.NewStyle().Width(width).Render(line)
}

// renderMessages lays the list out with the run metadata: names at the start
// of partner runs in group chats, an avatar at the end of partner runs and a
// gap after every run.
func renderMessages(v chat.View, width int, st styles) string {
	if len(v.Messages) == 0 {
		if v.MessagesLoading {
			return st.Hint.Render("Loading messages...")
		}
		return st.Hint.Render("No messages yet. Say hi!")
	}

	bubbleWidth := width * 3 / 4
	if bubbleWidth < 10 {
		bubbleWidth = width
	}

	var b strings.Builder
	for i, msg := range v.Messages {
		g := v.Groups[i]

		if g.ShowName {
			b.WriteString(strings.Repeat(" ", avatarWidth))
			b.WriteString(st.Name.Render(msg.Sender.FullName()))
			b.WriteString("\n")
		}

		if g.IsOwn {
			bubble := st.Own.MaxWidth(bubbleWidth).Render(msg.Content)
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble))
		} else {
			gutter := strings.Repeat(" ", avatarWidth)
			if g.ShowAvatar {
				gutter = st.Avatar.Width(avatarWidth).Render(initials(msg.Sender))
			}
			bubble := st.Partner.MaxWidth(bubbleWidth).Render(msg.Content)
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Bottom, gutter, bubble))
		}

		if !g.IsVeryLast {
			b.WriteString("\n")
			if g.IsRunEnd {
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}
