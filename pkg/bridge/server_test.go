package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"webmoe/pkg/bot"
	"webmoe/pkg/config"
	"webmoe/pkg/version"
)

type fakeAdapter struct {
	*recordingBot
}

func (a *fakeAdapter) Start(context.Context) error {
	a.status = bot.StatusOnline
	return nil
}

func (a *fakeAdapter) Close() error {
	a.status = bot.StatusOffline
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeAdapter) {
	t.Helper()

	adapter := &fakeAdapter{recordingBot: &recordingBot{id: "tg-main", status: bot.StatusOnline}}
	cfg := &config.Config{
		Bridges: []config.BridgeConfig{
			{
				Name:              "webmoe",
				WebhookPath:       "/discourse",
				SelfID:            "tg-main",
				GuildsToBroadcast: []string{"-1001", "-1002"},
				Events:            "posts",
				ForumHost:         "web.moe",
			},
			{
				Name:              "discourse",
				WebhookPath:       "/discourse-topics",
				SelfID:            "tg-main",
				GuildsToBroadcast: []string{"-2001"},
				Events:            "topics",
				ForumHost:         "web.moe",
			},
		},
	}

	svc, err := NewService(cfg, []bot.Adapter{adapter}, nil)
	require.NoError(t, err)

	return svc, adapter
}

func doRequest(t *testing.T, handler http.Handler, method string, path string, eventName string, body string) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if eventName != "" {
		req.Header.Set("x-discourse-event", eventName)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))

	return recorder, envelope
}

func TestServicePostRecognizedEvent(t *testing.T) {
	svc, adapter := newTestService(t)
	handler := svc.Handler()

	payload := `{"post": {"username": "alice", "topic_title": "Hello", "raw": "hi there"}}`
	recorder, envelope := doRequest(t, handler, http.MethodPost, "/discourse", "post_created", payload)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, StatusOK, envelope.Status)
	require.NotNil(t, envelope.BroadcastCount)
	require.Equal(t, 2, *envelope.BroadcastCount)
	require.Equal(t, version.App, envelope.App)
	require.Equal(t, version.Version, envelope.Version)

	require.Eventually(t, func() bool {
		_, messages := adapter.snapshot()
		return len(messages) == 1 && strings.Contains(messages[0], "alice")
	}, time.Second, 10*time.Millisecond)
}

func TestServicePostUnknownEvent(t *testing.T) {
	svc, adapter := newTestService(t)

	recorder, envelope := doRequest(t, svc.Handler(), http.MethodPost, "/discourse", "topic_edited", `{}`)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, StatusIgnored, envelope.Status)
	require.Nil(t, envelope.BroadcastCount)
	requireNoBroadcast(t, adapter.recordingBot)
}

func TestServicePostMissingHeader(t *testing.T) {
	svc, adapter := newTestService(t)

	_, envelope := doRequest(t, svc.Handler(), http.MethodPost, "/discourse", "", `{}`)

	require.Equal(t, StatusIgnored, envelope.Status)
	requireNoBroadcast(t, adapter.recordingBot)
}

func TestServicePostOfflineBot(t *testing.T) {
	svc, adapter := newTestService(t)
	adapter.status = bot.StatusOffline

	recorder, envelope := doRequest(t, svc.Handler(), http.MethodPost, "/discourse", "ping", `{}`)

	// Transport-level success; the envelope carries the failure.
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, StatusError, envelope.Status)
	require.Equal(t, "Bot is not online", envelope.Reason)
}

func TestServiceBridgeVocabulariesAreIndependent(t *testing.T) {
	svc, adapter := newTestService(t)
	handler := svc.Handler()

	// post_created belongs to the posts bridge only.
	_, envelope := doRequest(t, handler, http.MethodPost, "/discourse-topics", "post_created",
		`{"post": {"username": "alice", "topic_title": "Hello", "raw": "hi"}}`)
	require.Equal(t, StatusIgnored, envelope.Status)

	topicPayload := `{"topic": {"id": 7, "title": "Welcome", "created_by": {"username": "bob"}}}`
	_, envelope = doRequest(t, handler, http.MethodPost, "/discourse-topics", "topic_created", topicPayload)
	require.Equal(t, StatusOK, envelope.Status)
	require.NotNil(t, envelope.BroadcastCount)
	require.Equal(t, 1, *envelope.BroadcastCount)

	require.Eventually(t, func() bool {
		targets, messages := adapter.snapshot()
		return len(messages) == 1 &&
			strings.Contains(messages[0], "https://web.moe/t/topic/7") &&
			len(targets[0]) == 1 && targets[0][0] == "-2001"
	}, time.Second, 10*time.Millisecond)
}

func TestServiceGetWebhookHealth(t *testing.T) {
	svc, adapter := newTestService(t)
	adapter.status = bot.StatusOffline

	recorder, envelope := doRequest(t, svc.Handler(), http.MethodGet, "/discourse", "", "")

	// Health answers ok regardless of bot state and reports no fan-out.
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, StatusOK, envelope.Status)
	require.Nil(t, envelope.BroadcastCount)
	require.Equal(t, version.App, envelope.App)
}

func TestServiceReadyz(t *testing.T) {
	svc, adapter := newTestService(t)
	handler := svc.Handler()

	recorder, _ := doRequest(t, handler, http.MethodGet, "/readyz", "", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	adapter.status = bot.StatusOffline
	recorder, _ = doRequest(t, handler, http.MethodGet, "/readyz", "", "")
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestNewServiceRequiresAdapters(t *testing.T) {
	cfg := &config.Config{Bridges: []config.BridgeConfig{{Name: "webmoe", Events: "posts"}}}

	_, err := NewService(cfg, nil, nil)
	require.Error(t, err)
}

func TestNewServiceRejectsUnknownVocabulary(t *testing.T) {
	adapter := &fakeAdapter{recordingBot: &recordingBot{id: "tg-main"}}
	cfg := &config.Config{Bridges: []config.BridgeConfig{{
		Name: "broken", WebhookPath: "/x", SelfID: "tg-main",
		GuildsToBroadcast: []string{"1"}, Events: "nope",
	}}}

	_, err := NewService(cfg, []bot.Adapter{adapter}, nil)
	require.Error(t, err)
}
