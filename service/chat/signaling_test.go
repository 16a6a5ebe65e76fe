package chat

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"PPHub/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartCallReachesCallee(t *testing.T) {
	h, _ := newTestHub(t)
	alice, bob := newQueueSession("alice"), newQueueSession("bob")
	connect(h, alice, bob)

	h.StartCall(context.Background(), &StartCall{To: "Bob", From: "alice", CallType: "video", ChannelName: " room-1 "})

	got := drain(bob)
	require.Len(t, got, 1)
	assert.Equal(t, EvIncomingCall, got[0].Event)
	p := dataOf[IncomingCallPayload](t, got[0])
	assert.Equal(t, "alice", p.CallerID)
	assert.Equal(t, "Alice", p.CallerName)
	assert.Equal(t, "video", p.CallType)
	assert.Equal(t, "https://cdn/alice.png", p.Avatar)
	assert.Equal(t, "room-1", p.ChannelName)
	assert.Empty(t, drain(alice))
}

func TestStartCallFallbacks(t *testing.T) {
	h, _ := newTestHub(t)
	bob, carol := newQueueSession("bob"), newQueueSession("carol")
	connect(h, bob, carol)

	h.StartCall(context.Background(), &StartCall{To: "carol", From: "bob"})
	p := dataOf[IncomingCallPayload](t, drain(carol)[0])
	assert.Equal(t, "audio", p.CallType)
	assert.True(t, strings.HasPrefix(p.Avatar, "https://ui-avatars.com/api/?name=Bob&"))
	assert.Empty(t, p.ChannelName)

	h.StartCall(context.Background(), &StartCall{To: "carol", From: "stranger"})
	p = dataOf[IncomingCallPayload](t, drain(carol)[0])
	assert.Equal(t, "Unknown", p.CallerName)
	assert.Contains(t, p.Avatar, "name=Unknown")
}

func TestStartCallOfflineTargetIsNoop(t *testing.T) {
	h, _ := newTestHub(t)
	alice := newQueueSession("alice")
	connect(h, alice)

	h.StartCall(context.Background(), &StartCall{To: "bob", From: "alice"})
	assert.Empty(t, drain(alice))
}

func TestCallAcceptedUsesSessionIdentity(t *testing.T) {
	h, _ := newTestHub(t)
	alice, bob := newQueueSession("alice"), newQueueSession("bob")
	connect(h, alice, bob)

	h.Dispatch(context.Background(), bob, &CallAccepted{To: "  ALICE "})

	got := drain(alice)
	require.Len(t, got, 1)
	assert.Equal(t, EvCallAccepted, got[0].Event)
	assert.Equal(t, "bob", dataOf[CallAcceptedPayload](t, got[0]).From)
}

func TestPeerUIDForwarding(t *testing.T) {
	h, _ := newTestHub(t)
	alice, bob := newQueueSession("alice"), newQueueSession("bob")
	connect(h, alice, bob)

	h.HandleFrame(context.Background(), alice, []byte(`{"event":"call_agora_uid","data":{"channelName":" c1 ","agoraUid":"991","targetUserId":"BOB"}}`))
	h.HandleFrame(context.Background(), alice, []byte(`{"event":"dm_agora_uid","data":{"channelName":"c2","agoraUid":5,"targetUserId":"bob","myUserId":"alice"}}`))

	got := drain(bob)
	require.Len(t, got, 2)
	assert.Equal(t, EvCallPeerAgoraUID, got[0].Event)
	assert.Equal(t, PeerUIDPayload{ChannelName: "c1", AgoraUID: 991}, dataOf[PeerUIDPayload](t, got[0]))
	assert.Equal(t, EvDMPeerAgoraUID, got[1].Event)
	assert.Equal(t, PeerUIDPayload{ChannelName: "c2", AgoraUID: 5}, dataOf[PeerUIDPayload](t, got[1]))
}

func groupCall() *StartGroupCall {
	return &StartGroupCall{
		From: "alice", GroupID: "g1",
		Meeting: Meeting{Code: "123-456", Title: "Standup", ChannelName: "meet-1"},
	}
}

func TestStartGroupCallNotifiesMembersExceptCaller(t *testing.T) {
	h, _ := newTestHub(t)
	alice, bob, carol, dave := newQueueSession("alice"), newQueueSession("bob"), newQueueSession("carol"), newQueueSession("dave")
	connect(h, alice, bob, carol, dave)

	in := groupCall()
	in.Meeting.Token, in.Meeting.AppID = "tok", "app"
	h.StartGroupCall(context.Background(), in)

	for _, s := range []*Session{bob, carol} {
		got := drain(s)
		require.Len(t, got, 1, s.UserID)
		p := dataOf[GroupCallPayload](t, got[0])
		assert.True(t, p.IsGroupCall)
		assert.Equal(t, "Team", p.GroupName)
		assert.Equal(t, "video", p.CallType)
		assert.Equal(t, "meet-1", p.ChannelName)
		assert.Equal(t, "123-456", p.Code)
		assert.Contains(t, p.GroupAvatar, "name=Team")
		require.NotNil(t, p.Token)
		assert.Equal(t, "tok", *p.Token)
	}
	assert.Empty(t, drain(alice))
	assert.Empty(t, drain(dave))
}

func TestStartGroupCallMintsMissingToken(t *testing.T) {
	minter := &fakeMinter{token: "minted", appID: "app-9"}
	h, _ := newTestHub(t, func(o *Options) { o.Minter = minter })
	alice, bob := newQueueSession("alice"), newQueueSession("bob")
	connect(h, alice, bob)

	h.StartGroupCall(context.Background(), groupCall())

	p := dataOf[GroupCallPayload](t, drain(bob)[0])
	require.NotNil(t, p.Token)
	assert.Equal(t, "minted", *p.Token)
	require.NotNil(t, p.AppID)
	assert.Equal(t, "app-9", *p.AppID)
	assert.Equal(t, "meet-1", minter.channel)
}

func TestStartGroupCallProviderUnavailable(t *testing.T) {
	minter := &fakeMinter{err: errs.ErrProviderUnavailable.WrapMsg("no cert")}
	h, _ := newTestHub(t, func(o *Options) { o.Minter = minter })
	alice, bob := newQueueSession("alice"), newQueueSession("bob")
	connect(h, alice, bob)

	h.StartGroupCall(context.Background(), groupCall())

	got := drain(bob)
	require.Len(t, got, 1)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(got[0].Data, &raw))
	assert.Contains(t, raw, "token")
	assert.Nil(t, raw["token"])
	assert.Nil(t, raw["appId"])
}

func TestStartGroupCallMembersFailure(t *testing.T) {
	h, st := newTestHub(t)
	st.Fail = func(op string) error {
		if op == "ListGroupMembers" {
			return errs.ErrTransientStore.WrapMsg("down")
		}
		return nil
	}
	alice, bob := newQueueSession("alice"), newQueueSession("bob")
	connect(h, alice, bob)

	h.StartGroupCall(context.Background(), groupCall())
	assert.Empty(t, drain(bob))
	assert.Empty(t, drain(alice))
}
