package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type botAPIRequest struct {
	method string
	form   map[string]string
}

// fakeBotAPI serves the subset of the Bot API the messenger uses.
type fakeBotAPI struct {
	mu        sync.Mutex
	requests  []botAPIRequest
	failPhoto string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	method := parts[len(parts)-1]

	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	form := map[string]string{}
	for key := range r.PostForm {
		form[key] = r.PostForm.Get(key)
	}

	f.mu.Lock()
	f.requests = append(f.requests, botAPIRequest{method: method, form: form})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case method == "getMe":
		json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"id": 42, "is_bot": true, "first_name": "Relay", "username": "relay_bot"},
		})
	case method == "sendPhoto" && f.failPhoto != "":
		json.NewEncoder(w).Encode(map[string]any{
			"ok":          false,
			"error_code":  400,
			"description": f.failPhoto,
		})
	default:
		json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 1, "date": 0, "chat": map[string]any{"id": -1001, "type": "channel"}},
		})
	}
}

func (f *fakeBotAPI) last() botAPIRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestTelegramMessenger(t *testing.T, api *fakeBotAPI, channel string) *TelegramMessenger {
	t.Helper()

	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	messenger, err := NewTelegramMessengerWithEndpoint("123:token", channel, server.URL+"/bot%s/%s", server.Client())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	return messenger
}

func TestTelegramMessengerUsername(t *testing.T) {
	messenger := newTestTelegramMessenger(t, &fakeBotAPI{}, "@news_channel")

	if messenger.Username() != "relay_bot" {
		t.Errorf("Expected username 'relay_bot', got: %s", messenger.Username())
	}
}

func TestTelegramMessengerSendText(t *testing.T) {
	api := &fakeBotAPI{}
	messenger := newTestTelegramMessenger(t, api, "-1001234567890")

	if err := messenger.SendText(context.Background(), "<b>hi</b>", false); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	req := api.last()
	if req.method != "sendMessage" {
		t.Errorf("Expected sendMessage, got: %s", req.method)
	}
	if req.form["chat_id"] != "-1001234567890" {
		t.Errorf("Expected numeric chat id, got: %s", req.form["chat_id"])
	}
	if req.form["parse_mode"] != "HTML" {
		t.Errorf("Expected HTML parse mode, got: %s", req.form["parse_mode"])
	}
	if req.form["text"] != "<b>hi</b>" {
		t.Errorf("Expected text to be sent verbatim, got: %s", req.form["text"])
	}
	if req.form["disable_web_page_preview"] != "true" {
		t.Errorf("Expected link preview disabled, got: %q", req.form["disable_web_page_preview"])
	}
}

func TestTelegramMessengerSendPhoto(t *testing.T) {
	api := &fakeBotAPI{}
	messenger := newTestTelegramMessenger(t, api, "@news_channel")

	if err := messenger.SendPhoto(context.Background(), "https://example.com/a.jpg", "caption"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	req := api.last()
	if req.method != "sendPhoto" {
		t.Errorf("Expected sendPhoto, got: %s", req.method)
	}
	if req.form["chat_id"] != "@news_channel" {
		t.Errorf("Expected channel username, got: %s", req.form["chat_id"])
	}
	if req.form["photo"] != "https://example.com/a.jpg" {
		t.Errorf("Expected photo URL, got: %s", req.form["photo"])
	}
	if req.form["caption"] != "caption" {
		t.Errorf("Expected caption, got: %s", req.form["caption"])
	}
}

func TestTelegramMessengerClassifiesRejectedPhoto(t *testing.T) {
	api := &fakeBotAPI{failPhoto: "Bad Request: wrong file identifier/HTTP URL specified"}
	messenger := newTestTelegramMessenger(t, api, "@news_channel")

	err := messenger.SendPhoto(context.Background(), "https://example.com/broken.jpg", "caption")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !IsMediaInvalid(err) {
		t.Errorf("Expected media_invalid error, got: %v", err)
	}

	sendErr, ok := err.(*SendError)
	if !ok {
		t.Fatalf("Expected *SendError, got: %T", err)
	}
	if sendErr.Code != 400 {
		t.Errorf("Expected code 400, got: %d", sendErr.Code)
	}
}

func TestParseChannel(t *testing.T) {
	tests := []struct {
		channel string
		wantErr bool
	}{
		{"-1001234567890", false},
		{"@news_channel", false},
		{"", true},
		{"news_channel", true},
	}

	for _, tt := range tests {
		_, err := parseChannel(tt.channel)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseChannel(%q): expected error=%v, got: %v", tt.channel, tt.wantErr, err)
		}
	}
}
