package repository

import (
	"Amora/internal/model"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) NotificationRepo {
	t.Helper()
	// 每个用例独享一个具名内存库，连接池内共享
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Notification{}))
	return NewNotificationRepo(db)
}

func mustCreate(t *testing.T, repo NotificationRepo, n *model.Notification) *model.Notification {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), n))
	require.NotZero(t, n.ID)
	return n
}

func TestCancelPendingLike(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n := mustCreate(t, repo, &model.Notification{RecipientID: 2, ActorID: 1, Kind: model.KindLike})

	ok, err := repo.CancelPendingLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, got.Cancelled)

	// 再次作废扑空
	ok, err = repo.CancelPendingLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCancelPendingLikeSkipsDelivered(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n := mustCreate(t, repo, &model.Notification{RecipientID: 2, ActorID: 1, Kind: model.KindLike})
	require.NoError(t, repo.MarkDelivered(ctx, []uint64{n.ID}, time.Now()))

	// 已送达的 Like 不可作废
	ok, err := repo.CancelPendingLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCancelPendingLikeScopedToPair(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mine := mustCreate(t, repo, &model.Notification{RecipientID: 2, ActorID: 1, Kind: model.KindLike})
	other := mustCreate(t, repo, &model.Notification{RecipientID: 2, ActorID: 3, Kind: model.KindLike})

	ok, err := repo.CancelPendingLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, mine.ID)
	require.NoError(t, err)
	assert.True(t, got.Cancelled)

	// 别人的 Like 不受影响
	got, err = repo.GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.False(t, got.Cancelled)
}

func TestListUnreadOrderAndExclusions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	mustCreate(t, repo, &model.Notification{RecipientID: 5, ActorID: 1, Kind: model.KindLike, CreatedAt: base})
	n2 := mustCreate(t, repo, &model.Notification{RecipientID: 5, ActorID: 2, Kind: model.KindProfileView, CreatedAt: base.Add(time.Minute)})
	n3 := mustCreate(t, repo, &model.Notification{RecipientID: 5, ActorID: 3, Kind: model.KindMatch, CreatedAt: base.Add(2 * time.Minute)})
	mustCreate(t, repo, &model.Notification{RecipientID: 6, ActorID: 1, Kind: model.KindLike, CreatedAt: base})

	// 已读与已作废的均不出现
	require.NoError(t, repo.MarkRead(ctx, n2.ID, time.Now()))
	_, err := repo.CancelPendingLike(ctx, 1, 5)
	require.NoError(t, err)

	list, err := repo.ListUnread(ctx, 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, n3.ID, list[0].ID)

	count, err := repo.CountUnread(ctx, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// 未读按创建时间升序
	require.NoError(t, repo.MarkRead(ctx, n3.ID, time.Now()))
	mustCreate(t, repo, &model.Notification{RecipientID: 7, ActorID: 1, Kind: model.KindLike, CreatedAt: base.Add(2 * time.Minute)})
	mustCreate(t, repo, &model.Notification{RecipientID: 7, ActorID: 2, Kind: model.KindLike, CreatedAt: base})
	list, err = repo.ListUnread(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].CreatedAt.Before(list[1].CreatedAt))
}

func TestMarkReadIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n := mustCreate(t, repo, &model.Notification{RecipientID: 2, ActorID: 1, Kind: model.KindLike})

	first := time.Now().Truncate(time.Second)
	require.NoError(t, repo.MarkRead(ctx, n.ID, first))
	// 第二次标记不覆盖首次的已读时间
	require.NoError(t, repo.MarkRead(ctx, n.ID, first.Add(time.Hour)))

	got, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReadAt)
	assert.WithinDuration(t, first, *got.ReadAt, time.Second)
}

func TestListUndeliveredAndMarkDelivered(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	n1 := mustCreate(t, repo, &model.Notification{RecipientID: 8, ActorID: 1, Kind: model.KindLike, CreatedAt: base})
	n2 := mustCreate(t, repo, &model.Notification{RecipientID: 8, ActorID: 2, Kind: model.KindMessage, CreatedAt: base.Add(time.Minute)})

	list, err := repo.ListUndelivered(ctx, 8)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, n1.ID, list[0].ID)
	assert.Equal(t, n2.ID, list[1].ID)

	require.NoError(t, repo.MarkDelivered(ctx, []uint64{n1.ID, n2.ID}, time.Now()))

	list, err = repo.ListUndelivered(ctx, 8)
	require.NoError(t, err)
	assert.Empty(t, list)

	// 已读不影响送达语义，送达不影响未读语义
	count, err := repo.CountUnread(ctx, 8)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestClaimDelivery(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n := mustCreate(t, repo, &model.Notification{RecipientID: 2, ActorID: 1, Kind: model.KindLike})

	ok, err := repo.ClaimDelivery(ctx, n.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	// 已送达的行抢不到第二次
	ok, err = repo.ClaimDelivery(ctx, n.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	// 回退后重新可补发
	require.NoError(t, repo.ReleaseDelivery(ctx, n.ID))
	list, err := repo.ListUndelivered(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, n.ID, list[0].ID)
}

func TestClaimDeliveryRejectsCancelled(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n := mustCreate(t, repo, &model.Notification{RecipientID: 2, ActorID: 1, Kind: model.KindLike})
	ok, err := repo.CancelPendingLike(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, ok)

	// 投递竞态输给作废：作废行抢不到送达权
	ok, err = repo.ClaimDelivery(ctx, n.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DeliveredAt)
}

func TestMarkDeliveredSkipsCancelled(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n := mustCreate(t, repo, &model.Notification{RecipientID: 2, ActorID: 1, Kind: model.KindLike})
	ok, err := repo.CancelPendingLike(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, ok)

	// 批量标记也不会造出 cancelled + delivered_at 并存的行
	require.NoError(t, repo.MarkDelivered(ctx, []uint64{n.ID}, time.Now()))
	got, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DeliveredAt)
}

func TestPurgeBefore(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -100)
	readOld := mustCreate(t, repo, &model.Notification{RecipientID: 2, ActorID: 1, Kind: model.KindLike, CreatedAt: old})
	require.NoError(t, repo.MarkRead(ctx, readOld.ID, time.Now()))
	unreadOld := mustCreate(t, repo, &model.Notification{RecipientID: 2, ActorID: 3, Kind: model.KindLike, CreatedAt: old})
	fresh := mustCreate(t, repo, &model.Notification{RecipientID: 2, ActorID: 4, Kind: model.KindLike})

	purged, err := repo.PurgeBefore(ctx, time.Now().AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	// 未读的留存，新的留存
	_, err = repo.GetByID(ctx, unreadOld.ID)
	assert.NoError(t, err)
	_, err = repo.GetByID(ctx, fresh.ID)
	assert.NoError(t, err)
	_, err = repo.GetByID(ctx, readOld.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
