package service

import (
	"Parley/internal/api/dto"
	"Parley/internal/pkg/cache"
	"Parley/internal/pkg/consts"
	"Parley/internal/pkg/userclient"
	"Parley/internal/repository"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memberFixture struct {
	svc        MemberService
	convSvc    ConversationService
	memberRepo repository.MemberRepo
	users      *fakeUserClient
}

func newMemberFixture(t *testing.T, db *gorm.DB, userIDs ...uint64) *memberFixture {
	t.Helper()
	convRepo := repository.NewConversationRepo(db)
	memberRepo := repository.NewMemberRepo(db)
	users := newFakeUserClient(userIDs...)
	listCache := cache.NewConversationListCache(cache.NewMemStore())
	return &memberFixture{
		svc:        NewMemberService(convRepo, memberRepo, users, listCache),
		convSvc:    NewConversationService(convRepo, memberRepo, users, listCache),
		memberRepo: memberRepo,
		users:      users,
	}
}

func createGroup(t *testing.T, f *memberFixture, creator uint64, others ...uint64) uint64 {
	t.Helper()
	title := "team"
	view, err := f.convSvc.CreateConversation(context.Background(), creator, &dto.CreateConversationReq{
		Type:    consts.ConvTypeGroup,
		Title:   &title,
		Members: others,
	})
	require.NoError(t, err)
	return view.ID
}

func createDirect(t *testing.T, f *memberFixture, a, b uint64) uint64 {
	t.Helper()
	view, err := f.convSvc.CreateConversation(context.Background(), a, &dto.CreateConversationReq{
		Type:    consts.ConvTypeDirect,
		Members: []uint64{a, b},
	})
	require.NoError(t, err)
	return view.ID
}

func TestCheckIsMember(t *testing.T) {
	ctx := context.Background()
	f := newMemberFixture(t, newTestDB(t), 1, 2, 3)
	convID := createGroup(t, f, 1, 2)

	ok, err := f.svc.CheckIsMember(ctx, convID, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.CheckIsMember(ctx, convID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.svc.CheckIsMember(ctx, 9999, 1)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestGetMemberRole(t *testing.T) {
	ctx := context.Background()
	f := newMemberFixture(t, newTestDB(t), 1, 2, 3)
	convID := createGroup(t, f, 1, 2)

	role, err := f.svc.GetMemberRole(ctx, convID, 1)
	require.NoError(t, err)
	assert.Equal(t, consts.RoleAdmin, role)

	role, err = f.svc.GetMemberRole(ctx, convID, 2)
	require.NoError(t, err)
	assert.Equal(t, consts.RoleMember, role)

	_, err = f.svc.GetMemberRole(ctx, convID, 3)
	assert.ErrorIs(t, err, ErrNotMember)

	// 会话不存在优先报 NotFound, 而不是权限错误
	_, err = f.svc.GetMemberRole(ctx, 9999, 1)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestRequireAdmin(t *testing.T) {
	ctx := context.Background()
	f := newMemberFixture(t, newTestDB(t), 1, 2)
	convID := createGroup(t, f, 1, 2)

	assert.NoError(t, f.svc.RequireAdmin(ctx, convID, 1))
	assert.ErrorIs(t, f.svc.RequireAdmin(ctx, convID, 2), ErrNotAdmin)
	assert.ErrorIs(t, f.svc.RequireAdmin(ctx, convID, 42), ErrNotMember)
}

func TestGetMembersEnrichesProfiles(t *testing.T) {
	ctx := context.Background()
	f := newMemberFixture(t, newTestDB(t), 1, 2)
	convID := createGroup(t, f, 1, 2)

	members, err := f.svc.GetMembers(ctx, convID, 1)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, consts.RoleAdmin, members[0].Role)
	assert.Equal(t, "user-1", members[0].DisplayName)
	assert.Equal(t, "user-2", members[1].DisplayName)

	// 非成员无权查看
	_, err = f.svc.GetMembers(ctx, convID, 42)
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestAddMembers(t *testing.T) {
	ctx := context.Background()
	f := newMemberFixture(t, newTestDB(t), 1, 2, 3, 4)
	convID := createGroup(t, f, 1, 2)

	// 非管理员无权加人
	err := f.svc.AddMembers(ctx, 2, &dto.AddMembersReq{ConversationID: convID, UserIDs: []uint64{3}})
	assert.ErrorIs(t, err, ErrNotAdmin)

	// 不存在的用户
	err = f.svc.AddMembers(ctx, 1, &dto.AddMembersReq{ConversationID: convID, UserIDs: []uint64{99}})
	assert.ErrorIs(t, err, userclient.ErrProfileNotFound)

	// 已在会话中的用户
	err = f.svc.AddMembers(ctx, 1, &dto.AddMembersReq{ConversationID: convID, UserIDs: []uint64{2}})
	assert.ErrorIs(t, err, ErrMemberExist)

	require.NoError(t, f.svc.AddMembers(ctx, 1, &dto.AddMembersReq{ConversationID: convID, UserIDs: []uint64{3, 4}}))
	ids, err := f.memberRepo.MemberUserIDs(ctx, convID)
	require.NoError(t, err)
	assert.Len(t, ids, 4)

	role, err := f.svc.GetMemberRole(ctx, convID, 3)
	require.NoError(t, err)
	assert.Equal(t, consts.RoleMember, role)
}

func TestDirectConversationMembersImmutable(t *testing.T) {
	ctx := context.Background()
	f := newMemberFixture(t, newTestDB(t), 1, 2, 3)
	convID := createDirect(t, f, 1, 2)

	err := f.svc.AddMembers(ctx, 1, &dto.AddMembersReq{ConversationID: convID, UserIDs: []uint64{3}})
	assert.ErrorIs(t, err, ErrDirectImmutable)

	err = f.svc.RemoveMember(ctx, 1, &dto.RemoveMemberReq{ConversationID: convID, UserID: 2})
	assert.ErrorIs(t, err, ErrDirectImmutable)

	err = f.svc.ChangeMemberRole(ctx, 1, &dto.ChangeMemberRoleReq{ConversationID: convID, UserID: 2, NewRole: consts.RoleAdmin})
	assert.ErrorIs(t, err, ErrDirectImmutable)
}

func TestRemoveMember(t *testing.T) {
	ctx := context.Background()
	f := newMemberFixture(t, newTestDB(t), 1, 2, 3)
	convID := createGroup(t, f, 1, 2)

	err := f.svc.RemoveMember(ctx, 1, &dto.RemoveMemberReq{ConversationID: convID, UserID: 3})
	assert.ErrorIs(t, err, ErrMemberNotFound)

	require.NoError(t, f.svc.RemoveMember(ctx, 1, &dto.RemoveMemberReq{ConversationID: convID, UserID: 2}))

	ok, err := f.memberRepo.IsMember(ctx, convID, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChangeMemberRole(t *testing.T) {
	ctx := context.Background()
	f := newMemberFixture(t, newTestDB(t), 1, 2)
	convID := createGroup(t, f, 1, 2)

	// 目标行不存在时直接报错
	err := f.svc.ChangeMemberRole(ctx, 1, &dto.ChangeMemberRoleReq{ConversationID: convID, UserID: 42, NewRole: consts.RoleAdmin})
	assert.ErrorIs(t, err, ErrMemberNotFound)

	require.NoError(t, f.svc.ChangeMemberRole(ctx, 1, &dto.ChangeMemberRoleReq{ConversationID: convID, UserID: 2, NewRole: consts.RoleAdmin}))

	role, err := f.svc.GetMemberRole(ctx, convID, 2)
	require.NoError(t, err)
	assert.Equal(t, consts.RoleAdmin, role)
}
