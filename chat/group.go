package chat

import "github.com/Doxria/life-invader-frontend/models"

// DisplayGroup is the rendering metadata derived for one message.
type DisplayGroup struct {
	IsRunStart bool // previous message has another sender, or first message
	IsRunEnd   bool // next message has another sender, or last message
	IsOwn      bool
	ShowName   bool
	ShowAvatar bool
	IsVeryLast bool
}

// Group derives a DisplayGroup for every message from its immediate
// neighbours only. The result has the same length as msgs.
//
// Names are shown at the start of a partner's run in group chats; avatars at
// the end of a partner's run.
func Group(msgs []models.Message, viewerID string, isGroupChat bool) []DisplayGroup {
	out := make([]DisplayGroup, len(msgs))
	for i := range msgs {
		sender := msgs[i].Sender.ID
		start := i == 0 || msgs[i-1].Sender.ID != sender
		end := i == len(msgs)-1 || msgs[i+1].Sender.ID != sender
		own := sender == viewerID

		out[i] = DisplayGroup{
			IsRunStart: start,
			IsRunEnd:   end,
			IsOwn:      own,
			ShowName:   start && !own && isGroupChat,
			ShowAvatar: end && !own,
			IsVeryLast: i == len(msgs)-1,
		}
	}
	return out
}
