package bot

// Event is one inbound chat message, already converted from the gateway format.
type Event struct {
	ID              string
	MessageID       int
	AuthorID        string
	AuthorName      string
	AuthorIsBot     bool
	GuildID         string
	ChannelID       string
	IsDirectMessage bool
	Mentions        []Mention
	Command         string // bot command without the slash, "" for plain messages
	RawText         string
}

type Mention struct {
	ID       string
	Username string
	IsBot    bool
}

// Identity is the bot's own account as reported by the gateway.
type Identity struct {
	ID       string
	Username string
}

// Action is an outbound gateway call produced by the pipeline.
type Action interface {
	isAction()
}

type ActionSend struct {
	ChannelID string
	Text      string
}

type ActionReply struct {
	ChannelID string
	MessageID int
	Text      string
}

type ActionReact struct {
	ChannelID string
	MessageID int
	Emoji     string
}

// ActionSendImage carries PNG bytes. OnError, when set, is called by the
// gateway if the upload fails.
type ActionSendImage struct {
	ChannelID string
	Caption   string
	Image     []byte
	URL       string
	OnError   func(error)
}

func (ActionSend) isAction()      {}
func (ActionReply) isAction()     {}
func (ActionReact) isAction()     {}
func (ActionSendImage) isAction() {}
