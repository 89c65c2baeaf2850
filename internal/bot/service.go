package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Vovarama1992/relay_bot/internal/ai"
	"github.com/Vovarama1992/relay_bot/internal/featuretoken"
	"github.com/Vovarama1992/relay_bot/internal/history"
	"github.com/Vovarama1992/relay_bot/internal/paginate"
	"go.uber.org/zap"
)

const DefaultImageTag = "!image"

// commands answered with a one-word analysis of the conversation
var analyzeCommands = map[string]bool{
	"mood":      true,
	"sentiment": true,
	"tone":      true,
}

type Config struct {
	Self                  Identity
	KeyMode               history.KeyMode
	SystemPrompt          string
	AutoEngageProbability float64
	AutoEngageMinMessages int
	AutoReactProbability  float64
	ImageFeature          bool
	ImageTag              string
	PageLimit             int
}

// Service turns one inbound event into the gateway actions that answer it.
type Service struct {
	cfg      Config
	history  History
	tokens   Tokens
	ai       ai.Completer
	archive  ImageArchive
	notifier Notifier
	log      *zap.Logger
	rand     func() float64
	now      func() time.Time
}

type Option func(*Service)

func WithArchive(a ImageArchive) Option {
	return func(s *Service) { s.archive = a }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithRand replaces the source of the auto-engage and auto-react rolls.
func WithRand(fn func() float64) Option {
	return func(s *Service) { s.rand = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(cfg Config, h History, t Tokens, c ai.Completer, log *zap.Logger, opts ...Option) *Service {
	if cfg.ImageTag == "" {
		cfg.ImageTag = DefaultImageTag
	}
	if cfg.KeyMode == "" {
		cfg.KeyMode = history.KeyModeChannel
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		cfg:     cfg,
		history: h,
		tokens:  t,
		ai:      c,
		log:     log,
		rand:    rand.Float64,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleInbound runs the whole pipeline for ev. It never returns a raw
// provider error to the chat: failures become ErrorReply.
func (s *Service) HandleInbound(ctx context.Context, ev Event) []Action {
	kind := Classify(s.cfg.Self, ev)
	if kind == OwnMessage {
		return nil
	}

	key := s.cfg.KeyMode.ConversationKey(ev.GuildID, ev.ChannelID, ev.AuthorID)
	log := s.log.With(
		zap.String("event_id", ev.ID),
		zap.String("conversation", key),
		zap.Stringer("type", kind),
	)

	if analyzeCommands[ev.Command] {
		return s.analyze(ctx, log, ev, key, ev.Command)
	}

	text := CleanText(s.cfg.Self, ev)
	if text == "" {
		return nil
	}

	if _, err := s.history.Record(key, history.RoleUser, ev.AuthorName, text); err != nil {
		log.Error("record user turn", zap.Error(err))
	}

	switch kind {
	case AtMention, DirectMessage:
		if s.cfg.ImageFeature && strings.Contains(text, s.cfg.ImageTag) {
			return s.createImage(ctx, log, ev, text)
		}
		return s.answer(ctx, log, ev, kind, key)
	default:
		actions := s.maybeEngage(ctx, log, ev, key)
		return append(actions, s.maybeReact(ctx, log, ev, key)...)
	}
}

func (s *Service) answer(ctx context.Context, log *zap.Logger, ev Event, kind MessageType, key string) []Action {
	reply, err := s.complete(ctx, key, s.cfg.SystemPrompt)
	if err != nil {
		return s.fail(ctx, log, ev, "completion", err)
	}

	var actions []Action
	for _, page := range paginate.Paginate(reply, s.cfg.PageLimit) {
		if kind == DirectMessage {
			actions = append(actions, ActionSend{ChannelID: ev.ChannelID, Text: page})
			continue
		}
		actions = append(actions, ActionReply{ChannelID: ev.ChannelID, MessageID: ev.MessageID, Text: page})
	}
	log.Info("answered", zap.Int("pages", len(actions)))
	return actions
}

func (s *Service) maybeEngage(ctx context.Context, log *zap.Logger, ev Event, key string) []Action {
	if s.rand() >= s.cfg.AutoEngageProbability {
		return nil
	}
	if n := s.history.CountFor(key); n < s.cfg.AutoEngageMinMessages {
		log.Debug("auto-engage skipped", zap.Int("messages", n))
		return nil
	}

	reply, err := s.complete(ctx, key, s.cfg.SystemPrompt+engageSuffix)
	if err != nil {
		return s.fail(ctx, log, ev, "auto-engage", err)
	}

	var actions []Action
	for _, page := range paginate.Paginate(reply, s.cfg.PageLimit) {
		actions = append(actions, ActionSend{ChannelID: ev.ChannelID, Text: page})
	}
	log.Info("auto-engaged", zap.Int("pages", len(actions)))
	return actions
}

func (s *Service) maybeReact(ctx context.Context, log *zap.Logger, ev Event, key string) []Action {
	if s.rand() >= s.cfg.AutoReactProbability {
		return nil
	}

	payload := ai.AssemblePayload(s.history, key, s.cfg.SystemPrompt+reactSuffix)
	reply, err := s.ai.Complete(ctx, payload)
	if err != nil {
		log.Error("auto-react completion", zap.Error(err))
		return nil
	}

	emoji := firstEmoji(reply)
	if emoji == "" {
		log.Debug("auto-react got no emoji", zap.String("reply", reply))
		return nil
	}
	return []Action{ActionReact{ChannelID: ev.ChannelID, MessageID: ev.MessageID, Emoji: emoji}}
}

// complete asks for the next assistant turn of key and records it.
func (s *Service) complete(ctx context.Context, key, systemPrompt string) (string, error) {
	payload := ai.AssemblePayload(s.history, key, systemPrompt)
	reply, err := s.ai.Complete(ctx, payload)
	if err != nil {
		return "", err
	}
	if _, err := s.history.Record(key, history.RoleAssistant, "", reply); err != nil {
		s.log.Error("record assistant turn", zap.String("conversation", key), zap.Error(err))
	}
	return reply, nil
}

func (s *Service) createImage(ctx context.Context, log *zap.Logger, ev Event, text string) []Action {
	prompt := strings.TrimSpace(strings.ReplaceAll(text, s.cfg.ImageTag, ""))
	if prompt == "" {
		return []Action{ActionReply{
			ChannelID: ev.ChannelID,
			MessageID: ev.MessageID,
			Text:      fmt.Sprintf("Tell me what to draw after %s.", s.cfg.ImageTag),
		}}
	}

	// quota is per account, the display name is only shown
	userID, name := ev.AuthorID, ev.AuthorName
	if _, err := s.tokens.Spend(userID); err != nil {
		var maxErr *featuretoken.MaxUserTokensError
		if errors.As(err, &maxErr) {
			log.Info("image tokens exhausted",
				zap.String("user_id", userID),
				zap.Time("next_available", maxErr.NextAvailableAt),
			)
			text := outOfTokensReply(name, maxErr.NextAvailableAt, s.now())
			if maxErr.NextAvailableAt.IsZero() {
				text = imageUnavailableReply
			}
			return []Action{ActionSend{ChannelID: ev.ChannelID, Text: text}}
		}
		return s.fail(ctx, log, ev, "image token", err)
	}

	refund := func(err error) {
		s.tokens.RemoveNewestToken(userID)
		log.Error("image delivery failed, token refunded", zap.String("user_id", userID), zap.Error(err))
	}

	img, err := s.ai.GenerateImage(ctx, prompt)
	if err != nil {
		s.tokens.RemoveNewestToken(userID)
		return s.fail(ctx, log, ev, "image generation", err)
	}

	var url string
	if s.archive != nil {
		if url, err = s.archive.SaveImage(ctx, img); err != nil {
			log.Warn("archive image", zap.Error(err))
			url = ""
		}
	}

	next, _ := s.tokens.NextTokenAvailableAt(userID)
	caption := imageCaption(prompt, name, s.tokens.TokensRemaining(userID), next, s.now(), url)
	log.Info("image generated", zap.String("user_id", userID), zap.Int("bytes", len(img)))

	return []Action{ActionSendImage{
		ChannelID: ev.ChannelID,
		Caption:   caption,
		Image:     img,
		URL:       url,
		OnError:   refund,
	}}
}

func (s *Service) analyze(ctx context.Context, log *zap.Logger, ev Event, key, attribute string) []Action {
	var statements []string
	for _, m := range s.history.MessagesFor(key) {
		if m.Role == history.RoleUser {
			statements = append(statements, m.Text)
		}
	}
	if len(statements) == 0 {
		return []Action{ActionReply{ChannelID: ev.ChannelID, MessageID: ev.MessageID, Text: "Nothing to analyze yet."}}
	}

	word, err := s.ai.Analyze(ctx, strings.Join(statements, "\n"), attribute)
	if err != nil {
		return s.fail(ctx, log, ev, attribute+" analysis", err)
	}
	return []Action{ActionReply{
		ChannelID: ev.ChannelID,
		MessageID: ev.MessageID,
		Text:      fmt.Sprintf("%s: %s", attribute, word),
	}}
}

func (s *Service) fail(ctx context.Context, log *zap.Logger, ev Event, stage string, err error) []Action {
	fields := []zap.Field{zap.String("stage", stage), zap.Error(err)}
	var bad *ai.BadRequestError
	if errors.As(err, &bad) {
		fields = append(fields, zap.Int("status", bad.StatusCode), zap.String("body", bad.Body))
	}
	log.Error("request failed", fields...)

	if s.notifier != nil {
		s.notifier.Notify(ctx, err, fmt.Sprintf("%s failed\nchannel: %s\nuser: %s (%s)",
			stage, ev.ChannelID, ev.AuthorName, ev.AuthorID))
	}
	return []Action{ActionSend{ChannelID: ev.ChannelID, Text: ErrorReply}}
}
