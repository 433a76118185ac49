package service

import (
	"errors"
	"testing"

	"github.com/ourmemory/ourmemory-server/internal/common"
	"github.com/ourmemory/ourmemory-server/internal/domain"
)

func TestRequestAndAcceptFriend(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	if err := env.friends.RequestFriend(a.ID, b.ID); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	// 요청 직후: a→b WAIT 단방향
	row := env.findFriendRow(t, a.ID, b.ID)
	if row == nil || row.Status != domain.FriendStatusWait {
		t.Fatalf("expected a→b WAIT, got %+v", row)
	}
	if rev := env.findFriendRow(t, b.ID, a.ID); rev != nil {
		t.Fatalf("expected no b→a row before accept, got %+v", rev)
	}

	if err := env.friends.AcceptRequest(b.ID, a.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	// 수락 후: 양방향 FRIEND
	for _, pair := range [][2]int64{{a.ID, b.ID}, {b.ID, a.ID}} {
		row := env.findFriendRow(t, pair[0], pair[1])
		if row == nil || row.Status != domain.FriendStatusFriend {
			t.Fatalf("expected %d→%d FRIEND, got %+v", pair[0], pair[1], row)
		}
	}
}

func TestRequestFriendSelf(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")

	err := env.friends.RequestFriend(a.ID, a.ID)
	if !errors.Is(err, common.ErrFriendStatus) {
		t.Fatalf("expected ErrFriendStatus, got %v", err)
	}
}

func TestAcceptWithoutRequest(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	err := env.friends.AcceptRequest(b.ID, a.ID)
	if !errors.Is(err, common.ErrFriendNotRequested) {
		t.Fatalf("expected ErrFriendNotRequested, got %v", err)
	}
}

func TestRequestAlreadyFriend(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	if err := env.friends.RequestFriend(a.ID, b.ID); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if err := env.friends.AcceptRequest(b.ID, a.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if err := env.friends.RequestFriend(a.ID, b.ID); !errors.Is(err, common.ErrFriendAlreadyAccepted) {
		t.Fatalf("expected ErrFriendAlreadyAccepted on re-request, got %v", err)
	}
	if err := env.friends.AcceptRequest(b.ID, a.ID); !errors.Is(err, common.ErrFriendAlreadyAccepted) {
		t.Fatalf("expected ErrFriendAlreadyAccepted on re-accept, got %v", err)
	}
}

func TestRequestBlockedByTarget(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	// b가 a를 차단
	if _, err := env.friendRepo.Upsert(b.ID, a.ID, domain.FriendStatusBlock); err != nil {
		t.Fatalf("block setup failed: %v", err)
	}

	err := env.friends.RequestFriend(a.ID, b.ID)
	if !errors.Is(err, common.ErrFriendBlocked) {
		t.Fatalf("expected ErrFriendBlocked, got %v", err)
	}
}

func TestCancelRequest(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	if err := env.friends.RequestFriend(a.ID, b.ID); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if err := env.friends.CancelRequest(a.ID, b.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if row := env.findFriendRow(t, a.ID, b.ID); row != nil {
		t.Fatalf("expected row gone after cancel, got %+v", row)
	}

	// 이미 FRIEND인 관계는 취소 대상이 아니다
	if err := env.friends.RequestFriend(a.ID, b.ID); err != nil {
		t.Fatalf("re-request failed: %v", err)
	}
	if err := env.friends.AcceptRequest(b.ID, a.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if err := env.friends.CancelRequest(a.ID, b.ID); !errors.Is(err, common.ErrFriendStatus) {
		t.Fatalf("expected ErrFriendStatus cancelling FRIEND, got %v", err)
	}
}

// 일방 삭제는 상대편 행을 남긴다. 남은 비대칭 상태는 수리 대상이
// 아니라 정상 상태이고, ReAddFriend가 WAIT 없이 대칭을 복구한다.
func TestOneSidedDeleteAndReAdd(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	if err := env.friends.RequestFriend(a.ID, b.ID); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if err := env.friends.AcceptRequest(b.ID, a.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if err := env.friends.DeleteFriend(a.ID, b.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if row := env.findFriendRow(t, a.ID, b.ID); row != nil {
		t.Fatalf("expected a→b gone, got %+v", row)
	}
	rev := env.findFriendRow(t, b.ID, a.ID)
	if rev == nil || rev.Status != domain.FriendStatusFriend {
		t.Fatalf("expected b→a FRIEND to survive one-sided delete, got %+v", rev)
	}

	// b의 친구 목록에는 a가 남고, a의 목록에는 b가 없다
	bFriends, err := env.friends.ListFriends(b.ID)
	if err != nil {
		t.Fatalf("list friends failed: %v", err)
	}
	if len(bFriends) != 1 || bFriends[0].UserID != a.ID {
		t.Fatalf("expected b to still list a, got %+v", bFriends)
	}
	aFriends, err := env.friends.ListFriends(a.ID)
	if err != nil {
		t.Fatalf("list friends failed: %v", err)
	}
	if len(aFriends) != 0 {
		t.Fatalf("expected a to list nobody, got %+v", aFriends)
	}

	// 재추가: WAIT 단계 없이 바로 FRIEND
	if err := env.friends.ReAddFriend(a.ID, b.ID); err != nil {
		t.Fatalf("re-add failed: %v", err)
	}
	row := env.findFriendRow(t, a.ID, b.ID)
	if row == nil || row.Status != domain.FriendStatusFriend {
		t.Fatalf("expected a→b FRIEND after re-add, got %+v", row)
	}
}

func TestDeleteBlockedRelation(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	if err := env.friends.RequestFriend(a.ID, b.ID); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if err := env.friends.AcceptRequest(b.ID, a.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if err := env.friends.PatchStatus(a.ID, b.ID, domain.FriendStatusBlock); err != nil {
		t.Fatalf("block failed: %v", err)
	}

	// BLOCK 행은 먼저 해제해야 삭제할 수 있다
	if err := env.friends.DeleteFriend(a.ID, b.ID); !errors.Is(err, common.ErrFriendStatus) {
		t.Fatalf("expected ErrFriendStatus deleting BLOCK, got %v", err)
	}
	if err := env.friends.PatchStatus(a.ID, b.ID, domain.FriendStatusFriend); err != nil {
		t.Fatalf("unblock failed: %v", err)
	}
	if err := env.friends.DeleteFriend(a.ID, b.ID); err != nil {
		t.Fatalf("delete after unblock failed: %v", err)
	}
}

func TestPatchStatusValidation(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	// REQUESTED_BY는 파생 상태라 저장 불가
	err := env.friends.PatchStatus(a.ID, b.ID, domain.FriendStatusRequestedBy)
	if !errors.Is(err, common.ErrFriendStatus) {
		t.Fatalf("expected ErrFriendStatus for derived status, got %v", err)
	}

	// 행이 없으면 NOT_FOUND
	err = env.friends.PatchStatus(a.ID, b.ID, domain.FriendStatusBlock)
	if !errors.Is(err, common.ErrFriendNotFound) {
		t.Fatalf("expected ErrFriendNotFound, got %v", err)
	}
}

func TestFindUsersDerivesRequestedBy(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")
	c := env.signUp(t, "carol")

	// b가 a에게 요청한 상태에서 a가 검색하면 b는 REQUESTED_BY로 보인다
	if err := env.friends.RequestFriend(b.ID, a.ID); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	results, err := env.friends.FindUsers(a.ID, domain.UserSearchFilter{})
	if err != nil {
		t.Fatalf("find users failed: %v", err)
	}

	byID := map[int64]*domain.SearchedUserResponse{}
	for _, r := range results {
		if r.UserID == a.ID {
			t.Fatalf("caller must not appear in results")
		}
		byID[r.UserID] = r
	}

	bHit, ok := byID[b.ID]
	if !ok || bHit.FriendStatus == nil || *bHit.FriendStatus != domain.FriendStatusRequestedBy {
		t.Fatalf("expected b annotated REQUESTED_BY, got %+v", bHit)
	}
	cHit, ok := byID[c.ID]
	if !ok || cHit.FriendStatus != nil {
		t.Fatalf("expected c with no relation, got %+v", cHit)
	}

	// 상태 필터: REQUESTED_BY만
	status := domain.FriendStatusRequestedBy
	filtered, err := env.friends.FindUsers(a.ID, domain.UserSearchFilter{Status: &status})
	if err != nil {
		t.Fatalf("filtered find failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].UserID != b.ID {
		t.Fatalf("expected only b, got %+v", filtered)
	}
}

func TestFindUsersForwardRowWins(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	// 양쪽 행이 다 있으면 내 방향 행이 우선한다
	if err := env.friends.RequestFriend(b.ID, a.ID); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if _, err := env.friendRepo.Upsert(a.ID, b.ID, domain.FriendStatusBlock); err != nil {
		t.Fatalf("block setup failed: %v", err)
	}

	results, err := env.friends.FindUsers(a.ID, domain.UserSearchFilter{UserID: &b.ID})
	if err != nil {
		t.Fatalf("find users failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one hit, got %d", len(results))
	}
	if results[0].FriendStatus == nil || *results[0].FriendStatus != domain.FriendStatusBlock {
		t.Fatalf("expected BLOCK to win over derived REQUESTED_BY, got %+v", results[0].FriendStatus)
	}
}

func TestFriendRequestCreatesNotice(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	if err := env.friends.RequestFriend(a.ID, b.ID); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	notices, err := env.notices.ListNotices(b.ID)
	if err != nil {
		t.Fatalf("list notices failed: %v", err)
	}
	if len(notices) != 1 {
		t.Fatalf("expected one notice for target, got %d", len(notices))
	}
	if notices[0].Type != domain.NoticeTypeFriendRequest {
		t.Fatalf("expected FRIEND_REQUEST notice, got %s", notices[0].Type)
	}
}
