package chathub_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fitnest/client/internal/auth"
	"fitnest/client/internal/chathub"
	"fitnest/client/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_OpenRejectsBadIdentity(t *testing.T) {
	p := newPeer(t)

	cases := []struct {
		name    string
		self    *auth.Session
		partner int64
		wantErr error
	}{
		{"no session", nil, partnerID, auth.ErrNotLoggedIn},
		{"no token", &auth.Session{UserID: selfID}, partnerID, auth.ErrNotLoggedIn},
		{"no user", &auth.Session{Token: "tok"}, partnerID, auth.ErrNotLoggedIn},
		{"zero partner", testSelf(), 0, chathub.ErrInvalidPartner},
		{"negative partner", testSelf(), -3, chathub.ErrInvalidPartner},
		{"self as partner", testSelf(), selfID, chathub.ErrInvalidPartner},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := chathub.NewSession(tc.self, tc.partner, &fakeHistory{}, testOptions(p.srv.URL))
			err := s.Open(context.Background())
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, chathub.StateIdle, s.State())
			assert.NoError(t, s.Close())
		})
	}

	select {
	case <-p.conns:
		t.Fatal("rejected session must not dial")
	default:
	}
}

func TestSession_HistoryThenInbound(t *testing.T) {
	p := newPeer(t)
	history := &fakeHistory{messages: []models.ChatMessage{
		{ID: 1, SenderID: partnerID, ReceiverID: selfID, Content: "hi"},
	}}

	s := openSession(t, p, history)
	waitState(t, s, chathub.StateOpen)
	assert.Equal(t, "/chat/ws/2/tok", <-p.paths)
	assert.Equal(t, chathub.StatusOnline, s.Status())

	p.push(t, `{"sender":5,"msg":"yo"}`)

	got := waitMessages(t, s, 2)
	want := []models.ChatMessage{
		{ID: 1, SenderID: partnerID, ReceiverID: selfID, Content: "hi"},
		{SenderID: partnerID, ReceiverID: selfID, Content: "yo", Timestamp: "2024-03-01T12:00:00Z"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, s.HistoryLoaded())
	assert.NoError(t, s.HistoryErr())
}

func TestSession_LiveFramesWaitForHistory(t *testing.T) {
	p := newPeer(t)
	history := newBlockingHistory(t, []models.ChatMessage{
		{ID: 1, SenderID: partnerID, ReceiverID: selfID, Content: "older"},
	})

	s := openSession(t, p, history)
	waitState(t, s, chathub.StateOpen)

	p.push(t, `{"sender":5,"msg":"live"}`)
	pending := waitMessages(t, s, 1)
	assert.Equal(t, "live", pending[0].Content)
	assert.False(t, s.HistoryLoaded())

	history.release()
	require.Eventually(t, s.HistoryLoaded, waitFor, tick)

	got := s.Messages()
	require.Len(t, got, 2)
	assert.Equal(t, "older", got[0].Content)
	assert.Equal(t, "live", got[1].Content)
}

func TestSession_Send(t *testing.T) {
	p := newPeer(t)
	s := openSession(t, p, &fakeHistory{})
	waitState(t, s, chathub.StateOpen)

	require.NoError(t, s.Send(context.Background(), partnerID, "hello"))

	assert.JSONEq(t, `{"to":5,"msg":"hello"}`, string(p.nextFrame(t)))
	got := waitMessages(t, s, 1)
	assert.Equal(t, models.ChatMessage{
		SenderID:   selfID,
		ReceiverID: partnerID,
		Content:    "hello",
		Timestamp:  "2024-03-01T12:00:00Z",
	}, got[0])

	select {
	case raw := <-p.frames:
		t.Fatalf("unexpected second frame %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSession_SendValidation(t *testing.T) {
	p := newPeer(t)
	ctx := context.Background()

	idle := chathub.NewSession(testSelf(), partnerID, &fakeHistory{}, testOptions(p.srv.URL))
	assert.ErrorIs(t, idle.Send(ctx, partnerID, "hi"), chathub.ErrNotConnected)
	require.NoError(t, idle.Close())

	s := openSession(t, p, &fakeHistory{})
	waitState(t, s, chathub.StateOpen)

	assert.ErrorIs(t, s.Send(ctx, partnerID, ""), chathub.ErrEmptyMessage)
	assert.ErrorIs(t, s.Send(ctx, partnerID, "   \n"), chathub.ErrEmptyMessage)
	assert.ErrorIs(t, s.Send(ctx, 9, "hi"), chathub.ErrInvalidPartner)
	assert.Empty(t, s.Messages())

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Send(ctx, partnerID, "hi"), chathub.ErrNotConnected)
	assert.Empty(t, s.Messages())
}

func TestSession_CloseDiscardsLateHistory(t *testing.T) {
	p := newPeer(t)
	history := newBlockingHistory(t, []models.ChatMessage{{ID: 1, Content: "late"}})

	s := openSession(t, p, history)
	waitState(t, s, chathub.StateOpen)

	require.NoError(t, s.Close())
	history.release()
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, s.Messages())
	assert.False(t, s.HistoryLoaded())
	assert.Equal(t, chathub.StateClosed, s.State())
}

func TestSession_HistoryFailureKeepsConnection(t *testing.T) {
	p := newPeer(t)
	s := openSession(t, p, &fakeHistory{err: errors.New("boom")})

	waitState(t, s, chathub.StateOpen)
	require.Eventually(t, s.HistoryLoaded, waitFor, tick)
	assert.EqualError(t, s.HistoryErr(), "boom")
	assert.Empty(t, s.Messages())

	p.push(t, `{"sender":5,"msg":"still here"}`)
	got := waitMessages(t, s, 1)
	assert.Equal(t, "still here", got[0].Content)
}

func TestSession_ServerDropDisconnects(t *testing.T) {
	p := newPeer(t)
	s := openSession(t, p, &fakeHistory{})
	waitState(t, s, chathub.StateOpen)

	require.NoError(t, p.accepted(t).Close())

	waitState(t, s, chathub.StateClosed)
	assert.Equal(t, chathub.StatusDisconnected, s.Status())
	assert.Error(t, s.Err())
	assert.ErrorIs(t, s.Send(context.Background(), partnerID, "anyone?"), chathub.ErrNotConnected)
}

func TestSession_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	history := &fakeHistory{messages: []models.ChatMessage{{ID: 1, Content: "kept"}}}
	s := chathub.NewSession(testSelf(), partnerID, history, testOptions(srv.URL))
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Open(context.Background()))

	waitState(t, s, chathub.StateClosed)
	assert.ErrorContains(t, s.Err(), "401")
	// History still settles into the view.
	waitMessages(t, s, 1)
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	p := newPeer(t)

	t.Run("idle", func(t *testing.T) {
		s := chathub.NewSession(testSelf(), partnerID, &fakeHistory{}, testOptions(p.srv.URL))
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())
		assert.Equal(t, chathub.StateClosed, s.State())
		assert.ErrorIs(t, s.Open(context.Background()), chathub.ErrSessionClosed)
	})

	t.Run("open", func(t *testing.T) {
		s := openSession(t, p, &fakeHistory{})
		waitState(t, s, chathub.StateOpen)
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())
		assert.Equal(t, chathub.StateClosed, s.State())
		<-s.Done()
	})

	t.Run("connecting", func(t *testing.T) {
		release := make(chan struct{})
		stalled := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			<-release
		}))
		t.Cleanup(stalled.Close)
		t.Cleanup(func() { close(release) })

		s := chathub.NewSession(testSelf(), partnerID, &fakeHistory{}, testOptions(stalled.URL))
		require.NoError(t, s.Open(context.Background()))
		assert.Equal(t, chathub.StateConnecting, s.State())
		assert.Equal(t, chathub.StatusConnecting, s.Status())

		require.NoError(t, s.Close())
		require.NoError(t, s.Close())
		assert.Equal(t, chathub.StateClosed, s.State())
	})
}

func TestSession_OpenTwice(t *testing.T) {
	p := newPeer(t)
	s := openSession(t, p, &fakeHistory{})
	assert.ErrorIs(t, s.Open(context.Background()), chathub.ErrAlreadyOpen)
}

func TestSession_ContextCancelCloses(t *testing.T) {
	p := newPeer(t)
	ctx, cancel := context.WithCancel(context.Background())

	s := chathub.NewSession(testSelf(), partnerID, &fakeHistory{}, testOptions(p.srv.URL))
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Open(ctx))
	waitState(t, s, chathub.StateOpen)

	cancel()
	waitState(t, s, chathub.StateClosed)
}

func TestSession_MalformedFrameSkipped(t *testing.T) {
	p := newPeer(t)
	s := openSession(t, p, &fakeHistory{})
	waitState(t, s, chathub.StateOpen)

	p.push(t, `not json`)
	p.push(t, `{"sender":5,"msg":"after"}`)

	got := waitMessages(t, s, 1)
	assert.Equal(t, "after", got[0].Content)
	assert.Equal(t, chathub.StateOpen, s.State())
}

// A relay that echoes the sender's own frames shows the message twice: the
// client does not deduplicate.
func TestSession_EchoAppearsTwice(t *testing.T) {
	p := newPeer(t)
	p.echo.Store(true)
	s := openSession(t, p, &fakeHistory{})
	waitState(t, s, chathub.StateOpen)

	require.NoError(t, s.Send(context.Background(), partnerID, "ping"))
	got := waitMessages(t, s, 2)
	assert.Equal(t, selfID, got[0].SenderID)
	assert.Equal(t, "ping", got[1].Content)
}

func TestSession_KeepAlive(t *testing.T) {
	p := newPeer(t)
	opts := testOptions(p.srv.URL)
	opts.PingPeriod = 20 * time.Millisecond
	opts.PongWait = 100 * time.Millisecond

	s := chathub.NewSession(testSelf(), partnerID, &fakeHistory{}, opts)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Open(context.Background()))
	waitState(t, s, chathub.StateOpen)

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, chathub.StateOpen, s.State())
}

func TestSession_ChangesSignal(t *testing.T) {
	p := newPeer(t)
	s := openSession(t, p, &fakeHistory{})

	select {
	case <-s.Changes():
	case <-time.After(waitFor):
		t.Fatal("no change signalled")
	}
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, partnerID, s.PartnerID())
}
