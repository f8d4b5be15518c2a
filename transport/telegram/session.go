package telegram

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"channel-relay/markup"
	"channel-relay/models"
	"channel-relay/transport"
	"channel-relay/utils"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
)

// Session is a transport.Source backed by an MTProto user session. It only
// reports messages from the configured channels.
type Session struct {
	cfg        models.TelegramConfig
	channels   []string
	client     *telegram.Client
	api        *tg.Client
	dispatcher tg.UpdateDispatcher
	downloader *downloader.Downloader
	log        *utils.Logger
}

var _ transport.Source = (*Session)(nil)

// NewSession prepares a user session persisted at cfg.SessionFile. Nothing
// connects until Run.
func NewSession(cfg models.TelegramConfig, channels []string, log *utils.Logger) *Session {
	dispatcher := tg.NewUpdateDispatcher()
	client := telegram.NewClient(cfg.APIID, cfg.APIHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: cfg.SessionFile},
		UpdateHandler:  dispatcher,
	})
	return &Session{
		cfg:        cfg,
		channels:   channels,
		client:     client,
		api:        client.API(),
		dispatcher: dispatcher,
		downloader: downloader.NewDownloader(),
		log:        log,
	}
}

// Run logs in when needed and delivers new channel messages until ctx is done.
func (s *Session) Run(ctx context.Context, handler transport.SourceHandler) error {
	s.dispatcher.OnNewChannelMessage(func(_ context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
		msg, ok := u.Message.(*tg.Message)
		if !ok || msg.Out {
			return nil
		}
		peer, ok := msg.PeerID.(*tg.PeerChannel)
		if !ok {
			return nil
		}
		ch, ok := e.Channels[peer.ChannelID]
		if !ok {
			return nil
		}
		source := models.SourceChannel{ID: ch.ID, AccessHash: ch.AccessHash, Username: ch.Username, Title: ch.Title}
		if !watched(s.channels, source) {
			return nil
		}
		handler(ctx, models.SourceEvent{Channel: source, Message: convertMessage(msg)})
		return nil
	})

	return s.client.Run(ctx, func(ctx context.Context) error {
		flow := auth.NewFlow(
			auth.Constant(s.cfg.Phone, s.cfg.Password, auth.CodeAuthenticatorFunc(promptCode)),
			auth.SendCodeOptions{},
		)
		if err := s.client.Auth().IfNecessary(ctx, flow); err != nil {
			return fmt.Errorf("failed to authorize user session: %w", err)
		}
		s.log.Info("Session", "Login", fmt.Sprintf("watching %d channels", len(s.channels)))
		<-ctx.Done()
		return nil
	})
}

// RecentMessages returns up to limit newest messages of channel, newest first.
func (s *Session) RecentMessages(ctx context.Context, channel models.SourceChannel, limit int) ([]models.SourceMessage, error) {
	res, err := s.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:  &tg.InputPeerChannel{ChannelID: channel.ID, AccessHash: channel.AccessHash},
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history of %s: %w", channel.Name(), err)
	}

	var raw []tg.MessageClass
	switch r := res.(type) {
	case *tg.MessagesChannelMessages:
		raw = r.Messages
	case *tg.MessagesMessagesSlice:
		raw = r.Messages
	case *tg.MessagesMessages:
		raw = r.Messages
	}

	var out []models.SourceMessage
	for _, m := range raw {
		if msg, ok := m.(*tg.Message); ok {
			out = append(out, convertMessage(msg))
		}
	}
	return out, nil
}

// Download saves an attachment delivered by this session to path.
func (s *Session) Download(ctx context.Context, m *models.Media, path string) error {
	loc, err := fileLocation(m)
	if err != nil {
		return err
	}
	if _, err := s.downloader.Download(s.api, loc).ToPath(ctx, path); err != nil {
		return fmt.Errorf("failed to download to %s: %w", path, err)
	}
	return nil
}

func fileLocation(m *models.Media) (tg.InputFileLocationClass, error) {
	if m == nil {
		return nil, errors.New("message has no media")
	}
	switch h := m.Handle.(type) {
	case *tg.Photo:
		thumb := ""
		for _, size := range h.Sizes {
			switch sz := size.(type) {
			case *tg.PhotoSize:
				thumb = sz.Type
			case *tg.PhotoSizeProgressive:
				thumb = sz.Type
			}
		}
		if thumb == "" {
			return nil, errors.New("photo has no downloadable size")
		}
		return &tg.InputPhotoFileLocation{
			ID:            h.ID,
			AccessHash:    h.AccessHash,
			FileReference: h.FileReference,
			ThumbSize:     thumb,
		}, nil
	case *tg.Document:
		return h.AsInputDocumentFileLocation(), nil
	default:
		return nil, fmt.Errorf("unsupported media handle %T", m.Handle)
	}
}

func convertMessage(msg *tg.Message) models.SourceMessage {
	out := models.SourceMessage{
		ID:          int64(msg.ID),
		Text:        msg.Message,
		Annotations: convertEntities(msg.Entities),
		Media:       convertMedia(msg.Media),
	}
	if gid, ok := msg.GetGroupedID(); ok {
		out.GroupID = gid
	}
	return out
}

func convertEntities(entities []tg.MessageEntityClass) []markup.Annotation {
	anns := make([]markup.Annotation, 0, len(entities))
	for _, e := range entities {
		a := markup.Annotation{Offset: e.GetOffset(), Length: e.GetLength()}
		switch v := e.(type) {
		case *tg.MessageEntityTextURL:
			a.Kind, a.URL = markup.KindTextLink, v.URL
		case *tg.MessageEntityURL:
			a.Kind = markup.KindURL
		case *tg.MessageEntityBold:
			a.Kind = markup.KindBold
		case *tg.MessageEntityItalic:
			a.Kind = markup.KindItalic
		case *tg.MessageEntityCode:
			a.Kind = markup.KindCode
		case *tg.MessageEntityPre:
			a.Kind = markup.KindPre
		case *tg.MessageEntityMentionName:
			a.Kind, a.UserID = markup.KindMentionName, v.UserID
		case *tg.MessageEntityMention:
			a.Kind = markup.KindMention
		case *tg.MessageEntityStrike:
			a.Kind = markup.KindStrike
		case *tg.MessageEntityUnderline:
			a.Kind = markup.KindUnderline
		case *tg.MessageEntityPhone:
			a.Kind = markup.KindPhone
		case *tg.MessageEntityEmail:
			a.Kind = markup.KindEmail
		case *tg.MessageEntityBotCommand:
			a.Kind = markup.KindBotCommand
		default:
			a.Kind = markup.KindUnknown
		}
		anns = append(anns, a)
	}
	return anns
}

func convertMedia(media tg.MessageMediaClass) *models.Media {
	switch m := media.(type) {
	case *tg.MessageMediaPhoto:
		if photo, ok := m.Photo.(*tg.Photo); ok {
			return &models.Media{MIMEType: "image/jpeg", IsPhoto: true, Handle: photo}
		}
	case *tg.MessageMediaDocument:
		if doc, ok := m.Document.(*tg.Document); ok {
			return &models.Media{MIMEType: doc.MimeType, Handle: doc}
		}
	}
	return nil
}

// watched reports whether ch is in the configured list. Entries are
// usernames with or without "@", or numeric ids, optionally in the -100
// prefixed form.
func watched(list []string, ch models.SourceChannel) bool {
	for _, entry := range list {
		entry = strings.TrimSpace(entry)
		if id, err := strconv.ParseInt(strings.TrimPrefix(entry, "-100"), 10, 64); err == nil {
			if id == ch.ID {
				return true
			}
			continue
		}
		if ch.Username != "" && strings.EqualFold(strings.TrimPrefix(entry, "@"), ch.Username) {
			return true
		}
	}
	return false
}

// promptCode reads the login code from the terminal on first start.
func promptCode(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	fmt.Print("Enter the login code: ")
	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read login code: %w", err)
	}
	return strings.TrimSpace(code), nil
}
