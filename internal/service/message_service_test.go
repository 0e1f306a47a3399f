package service

import (
	"Amora/internal/api/dto"
	"Amora/internal/pkg/mongo"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeMessageRepo struct {
	saved []*mongo.Message
}

func (f *fakeMessageRepo) SaveMessage(_ context.Context, msg *mongo.Message) error {
	msg.ID = primitive.NewObjectID()
	f.saved = append(f.saved, msg)
	return nil
}

func (f *fakeMessageRepo) GetHistory(_ context.Context, userID, peerID uint64, beforeID string, _ int) ([]*mongo.Message, error) {
	if beforeID != "" {
		if _, err := primitive.ObjectIDFromHex(beforeID); err != nil {
			return nil, mongo.ErrInvalidCursor
		}
	}
	var out []*mongo.Message
	for i := len(f.saved) - 1; i >= 0; i-- {
		m := f.saved[i]
		if (m.SenderID == userID && m.RecipientID == peerID) ||
			(m.SenderID == peerID && m.RecipientID == userID) {
			out = append(out, m)
		}
	}
	return out, nil
}

type payloadCapturingSvc struct {
	NotificationService
	payloads []map[string]any
}

func (s *payloadCapturingSvc) NotifyMessage(_ context.Context, _, _ uint64, payload map[string]any) error {
	s.payloads = append(s.payloads, payload)
	return nil
}

func newMessageService() (MessageService, *fakeMessageRepo, *payloadCapturingSvc) {
	repo := &fakeMessageRepo{}
	notif := &payloadCapturingSvc{}
	return NewMessageService(repo, notif), repo, notif
}

func TestSendMessagePersistsAndNotifies(t *testing.T) {
	svc, repo, notif := newMessageService()

	d, err := svc.SendMessage(context.Background(), 1, &dto.SendMessageReq{RecipientID: 2, Content: "hello"})
	require.NoError(t, err)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, repo.saved[0].ID.Hex(), d.ID)

	require.Len(t, notif.payloads, 1)
	assert.Equal(t, d.ID, notif.payloads[0]["message_id"])
	assert.Equal(t, "hello", notif.payloads[0]["preview"])
}

func TestSendMessageRejectsSelfAndInvalid(t *testing.T) {
	svc, repo, _ := newMessageService()
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, 1, &dto.SendMessageReq{RecipientID: 1, Content: "hi"})
	assert.ErrorIs(t, err, ErrMessageNotAllowed)

	_, err = svc.SendMessage(ctx, 1, &dto.SendMessageReq{RecipientID: 0, Content: "hi"})
	assert.ErrorIs(t, err, ErrTargetUserInvalid)

	assert.Empty(t, repo.saved)
}

func TestSendMessageTruncatesPreview(t *testing.T) {
	svc, _, notif := newMessageService()

	long := strings.Repeat("消", 100)
	_, err := svc.SendMessage(context.Background(), 1, &dto.SendMessageReq{RecipientID: 2, Content: long})
	require.NoError(t, err)

	preview := notif.payloads[0]["preview"].(string)
	assert.Equal(t, strings.Repeat("消", messagePreviewLimit)+"...", preview)
}

func TestGetHistoryBothDirections(t *testing.T) {
	svc, _, _ := newMessageService()
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, 1, &dto.SendMessageReq{RecipientID: 2, Content: "a"})
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, 2, &dto.SendMessageReq{RecipientID: 1, Content: "b"})
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, 1, &dto.SendMessageReq{RecipientID: 3, Content: "c"})
	require.NoError(t, err)

	history, err := svc.GetHistory(ctx, 1, 2, "", 20)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// 倒序分页：最新在前
	assert.Equal(t, "b", history[0].Content)
	assert.Equal(t, "a", history[1].Content)

	_, err = svc.GetHistory(ctx, 1, 0, "", 20)
	assert.ErrorIs(t, err, ErrTargetUserInvalid)
}

func TestGetHistoryRejectsMalformedCursor(t *testing.T) {
	svc, _, _ := newMessageService()

	// 坏游标按参数错误返回，而不是系统异常
	_, err := svc.GetHistory(context.Background(), 1, 2, "not-an-object-id", 20)
	assert.ErrorIs(t, err, ErrParamInvalid)
}
