package telegram

import (
	"testing"

	"channel-relay/markup"
	"channel-relay/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveChat(t *testing.T) {
	id, name, err := resolveChat("-1001234")
	require.NoError(t, err)
	assert.Equal(t, int64(-1001234), id)
	assert.Empty(t, name)

	_, name, err = resolveChat("mychannel")
	require.NoError(t, err)
	assert.Equal(t, "@mychannel", name)

	_, name, err = resolveChat("@other")
	require.NoError(t, err)
	assert.Equal(t, "@other", name)

	_, _, err = resolveChat(" ")
	assert.Error(t, err)
}

func TestDecisionKeyboard(t *testing.T) {
	kb := decisionKeyboard(17)
	require.Len(t, kb.InlineKeyboard, 1)
	row := kb.InlineKeyboard[0]
	require.Len(t, row, 2)
	require.NotNil(t, row[0].CallbackData)
	assert.Equal(t, "approve:17", *row[0].CallbackData)
	assert.Equal(t, "reject:17", *row[1].CallbackData)
}

func TestToCallback(t *testing.T) {
	upd := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "q1",
		From:    &tgbotapi.User{ID: 42},
		Data:    "approve:3",
		Message: &tgbotapi.Message{MessageID: 9, Chat: &tgbotapi.Chat{ID: 42}},
	}}
	cb := toCallback(upd)
	require.NotNil(t, cb)
	assert.Equal(t, "q1", cb.ID)
	assert.Equal(t, int64(42), cb.FromID)
	assert.Equal(t, 9, cb.MessageID)
	assert.Equal(t, "approve:3", cb.Data)

	assert.Nil(t, toCallback(tgbotapi.Update{}))
}

func TestToCommand(t *testing.T) {
	upd := tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     "/review 12",
		From:     &tgbotapi.User{ID: 42},
		Chat:     &tgbotapi.Chat{ID: 42},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 7}},
	}}
	cmd := toCommand(upd)
	require.NotNil(t, cmd)
	assert.Equal(t, "review", cmd.Name)
	assert.Equal(t, "12", cmd.Args)

	plain := tgbotapi.Update{Message: &tgbotapi.Message{Text: "hi", From: &tgbotapi.User{ID: 1}, Chat: &tgbotapi.Chat{ID: 1}}}
	assert.Nil(t, toCommand(plain))
}

func TestConvertMessage(t *testing.T) {
	msg := &tg.Message{
		ID:      5,
		Message: "bold link @me",
		Entities: []tg.MessageEntityClass{
			&tg.MessageEntityBold{Offset: 0, Length: 4},
			&tg.MessageEntityTextURL{Offset: 5, Length: 4, URL: "https://e.com"},
			&tg.MessageEntityMention{Offset: 10, Length: 3},
			&tg.MessageEntityMentionName{Offset: 10, Length: 3, UserID: 77},
			&tg.MessageEntitySpoiler{Offset: 0, Length: 1},
		},
		Media: &tg.MessageMediaDocument{Document: &tg.Document{ID: 1, MimeType: "video/mp4"}},
	}
	msg.SetGroupedID(99)

	got := convertMessage(msg)
	assert.Equal(t, int64(5), got.ID)
	assert.Equal(t, int64(99), got.GroupID)
	assert.Equal(t, []markup.Annotation{
		{Kind: markup.KindBold, Offset: 0, Length: 4},
		{Kind: markup.KindTextLink, Offset: 5, Length: 4, URL: "https://e.com"},
		{Kind: markup.KindMention, Offset: 10, Length: 3},
		{Kind: markup.KindMentionName, Offset: 10, Length: 3, UserID: 77},
		{Kind: markup.KindUnknown, Offset: 0, Length: 1},
	}, got.Annotations)
	require.NotNil(t, got.Media)
	assert.True(t, got.Media.IsVideo())
}

func TestConvertMedia(t *testing.T) {
	photo := &tg.Photo{ID: 1, AccessHash: 2, Sizes: []tg.PhotoSizeClass{
		&tg.PhotoStrippedSize{Type: "i"},
		&tg.PhotoSize{Type: "m"},
		&tg.PhotoSize{Type: "y"},
	}}
	m := convertMedia(&tg.MessageMediaPhoto{Photo: photo})
	require.NotNil(t, m)
	assert.True(t, m.IsPhoto)
	assert.Equal(t, "image/jpeg", m.MIMEType)

	loc, err := fileLocation(m)
	require.NoError(t, err)
	ploc, ok := loc.(*tg.InputPhotoFileLocation)
	require.True(t, ok)
	assert.Equal(t, "y", ploc.ThumbSize)

	assert.Nil(t, convertMedia(&tg.MessageMediaGeo{}))
	assert.Nil(t, convertMedia(nil))

	_, err = fileLocation(&models.Media{Handle: "nope"})
	assert.Error(t, err)
}

func TestWatched(t *testing.T) {
	ch := models.SourceChannel{ID: 12345, Username: "News"}
	assert.True(t, watched([]string{"@news"}, ch))
	assert.True(t, watched([]string{"news"}, ch))
	assert.True(t, watched([]string{"-10012345"}, ch))
	assert.True(t, watched([]string{"12345"}, ch))
	assert.False(t, watched([]string{"other", "999"}, ch))
	assert.False(t, watched(nil, ch))
}
