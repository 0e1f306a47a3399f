package service

import (
	"Amora/internal/model"
	"Amora/internal/repository"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// recordingDispatcher 只记录投递请求，送达语义由 realtime 包自测
type recordingDispatcher struct {
	mu         sync.Mutex
	dispatched []*model.Notification
}

func (d *recordingDispatcher) Dispatch(n *model.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatched = append(d.dispatched, n)
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dispatched)
}

func newTestService(t *testing.T) (NotificationService, repository.NotificationRepo, *recordingDispatcher) {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Notification{}))

	repo := repository.NewNotificationRepo(db)
	disp := &recordingDispatcher{}
	return NewNotificationService(repo, disp), repo, disp
}

func TestFlashPersistsThenDispatches(t *testing.T) {
	svc, repo, disp := newTestService(t)
	ctx := context.Background()

	d, err := svc.Flash(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "like", d.Kind)
	assert.Equal(t, uint64(1), d.ActorID)
	assert.False(t, d.Delivered)
	assert.Equal(t, 1, disp.count())

	// 接收者离线：通知留存为未读未送达
	list, err := repo.ListUnread(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.KindLike, list[0].Kind)
	assert.Nil(t, list[0].DeliveredAt)
}

func TestFlashRejectsInvalidPair(t *testing.T) {
	svc, _, disp := newTestService(t)
	ctx := context.Background()

	_, err := svc.Flash(ctx, 1, 1)
	assert.ErrorIs(t, err, ErrFlashSelf)

	_, err = svc.Flash(ctx, 1, 0)
	assert.ErrorIs(t, err, ErrTargetUserInvalid)

	assert.Equal(t, 0, disp.count())
}

func TestUnflashBeforeDeliveryCancelsQuietly(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Flash(ctx, 1, 2)
	require.NoError(t, err)

	res, err := svc.Unflash(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Nil(t, res.Notification)

	// 对方从未察觉：未读为空，也没有 Unlike
	list, err := repo.ListUnread(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, list)

	count, err := repo.CountUnread(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUnflashAfterDeliveryEmitsUnlike(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	d, err := svc.Flash(ctx, 1, 2)
	require.NoError(t, err)
	require.NoError(t, repo.MarkDelivered(ctx, []uint64{d.ID}, time.Now()))

	res, err := svc.Unflash(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, res.Cancelled)
	require.NotNil(t, res.Notification)
	assert.Equal(t, "unlike", res.Notification.Kind)

	// Like 已被看见，Unlike 作为新通知补上，两条都在
	list, err := repo.ListUnread(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, model.KindLike, list[0].Kind)
	assert.Equal(t, model.KindUnlike, list[1].Kind)
}

func TestCreateMatchNotifiesBothSides(t *testing.T) {
	svc, repo, disp := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.CreateMatch(ctx, 1, 2))
	assert.Equal(t, 2, disp.count())

	listA, err := repo.ListUnread(ctx, 1)
	require.NoError(t, err)
	require.Len(t, listA, 1)
	assert.Equal(t, model.KindMatch, listA[0].Kind)
	assert.Equal(t, uint64(2), listA[0].ActorID)

	listB, err := repo.ListUnread(ctx, 2)
	require.NoError(t, err)
	require.Len(t, listB, 1)
	assert.Equal(t, uint64(1), listB[0].ActorID)
}

func TestListUnreadOnlySelf(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Flash(ctx, 1, 2)
	require.NoError(t, err)

	_, err = svc.ListUnread(ctx, 3, 2)
	assert.ErrorIs(t, err, ForbiddenError)

	list, err := svc.ListUnread(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMarkReadAuthorization(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	d, err := svc.Flash(ctx, 1, 2)
	require.NoError(t, err)

	// 非接收者不可标记
	err = svc.MarkRead(ctx, 3, d.ID)
	assert.ErrorIs(t, err, ForbiddenError)

	require.NoError(t, svc.MarkRead(ctx, 2, d.ID))
	// 重复标记直接成功
	require.NoError(t, svc.MarkRead(ctx, 2, d.ID))

	count, err := repo.CountUnread(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, count)

	err = svc.MarkRead(ctx, 2, 99999)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestGetUnreadCount(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Flash(ctx, 1, 2)
	require.NoError(t, err)
	_, err = svc.RecordProfileView(ctx, 3, 2)
	require.NoError(t, err)

	res, err := svc.GetUnreadCount(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.UnreadCount)
}

func TestNotifyMessageCarriesPayload(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	payload := map[string]any{"message_id": "abc123", "preview": "hello"}
	require.NoError(t, svc.NotifyMessage(ctx, 1, 2, payload))

	list, err := repo.ListUnread(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.KindMessage, list[0].Kind)
	assert.Equal(t, "hello", list[0].Payload["preview"])
}
