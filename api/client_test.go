package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
	"github.com/neilotoole/slogt"

	"github.com/Doxria/life-invader-frontend/models"
)

// testbackend answers each route with the matching func field; a nil field
// fails the test if that route is hit.
type testbackend struct {
	T           *testing.T
	getChat     func(t *testing.T, w http.ResponseWriter, r *http.Request)
	getMessages func(t *testing.T, w http.ResponseWriter, r *http.Request)
	postMessage func(t *testing.T, w http.ResponseWriter, r *http.Request)
	postPost    func(t *testing.T, w http.ResponseWriter, r *http.Request)
	login       func(t *testing.T, w http.ResponseWriter, r *http.Request)
	me          func(t *testing.T, w http.ResponseWriter, r *http.Request)
}

func (b *testbackend) route(fn *func(t *testing.T, w http.ResponseWriter, r *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if *fn == nil {
			b.T.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
			http.Error(w, "unexpected", http.StatusTeapot)
			return
		}
		(*fn)(b.T, w, r)
	}
}

func (b *testbackend) start(t *testing.T) *Client {
	t.Helper()
	b.T = t
	r := mux.NewRouter()
	r.HandleFunc("/api/chats/{id}", b.route(&b.getChat)).Methods("GET")
	r.HandleFunc("/api/chats/{id}/messages", b.route(&b.getMessages)).Methods("GET")
	r.HandleFunc("/api/messages", b.route(&b.postMessage)).Methods("POST")
	r.HandleFunc("/api/posts", b.route(&b.postPost)).Methods("POST")
	r.HandleFunc("/api/login", b.route(&b.login)).Methods("POST")
	r.HandleFunc("/api/me", b.route(&b.me)).Methods("GET")

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(srv.URL, "tok", 2*time.Second, slogt.New(t))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

var (
	ann = models.User{ID: "u1", FirstName: "Ann", LastName: "Lee"}
	ben = models.User{ID: "u2", FirstName: "Ben", LastName: "Ode"}
)

func TestClient_LoadSession(t *testing.T) {
	tests := []struct {
		name    string
		handler func(t *testing.T, w http.ResponseWriter, r *http.Request)
		want    models.ChatSession
		wantErr error
	}{
		{
			name: "OK",
			handler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				if got := mux.Vars(r)["id"]; got != "c1" {
					t.Errorf("Got chat id %q, want c1", got)
				}
				ck, err := r.Cookie(SessionCookie)
				if err != nil || ck.Value != "tok" {
					t.Errorf("Missing session cookie: %v", err)
				}
				writeJSON(w, 200, `{
					"chat": {
						"_id": "c1",
						"isGroupChat": false,
						"users": [
							{"_id": "u1", "firstName": "Ann", "lastName": "Lee"},
							{"_id": "u2", "firstName": "Ben", "lastName": "Ode"}
						]
					}
				}`)
			},
			want: models.ChatSession{ID: "c1", Users: []models.User{ann, ben}},
		},
		{
			name: "NotFoundStatus",
			handler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 404, `{"error": "Chat not found"}`)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "ServerError",
			handler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 500, `{"error": "boom"}`)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "NullChat",
			handler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 200, `{"chat": null}`)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "InvalidChat",
			handler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 200, `{"chat": {"chatName": "no id"}}`)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "MalformedBody",
			handler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 200, `not json`)
			},
			wantErr: ErrNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &testbackend{getChat: tt.handler}
			c := b.start(t)

			got, err := c.LoadSession(context.Background(), "c1")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Got error %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Chat mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClient_LoadSession_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(srv.URL, "", time.Second, slogt.New(t))
	_, err := c.LoadSession(context.Background(), "c1")
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("Got error %v, want ErrNetwork", err)
	}
}

func TestClient_LoadMessages(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("OK", func(t *testing.T) {
		b := &testbackend{
			getMessages: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 200, `[
					{"_id": "m1", "sender": {"_id": "u1", "firstName": "Ann", "lastName": "Lee"}, "content": "hi", "chat": "c1", "createdAt": "2024-01-01T00:00:00Z"},
					{"_id": "", "sender": {"_id": "u2"}, "content": "dropped"},
					{"_id": "m2", "sender": {"_id": "u2", "firstName": "Ben", "lastName": "Ode"}, "content": "hey", "chat": "c1", "createdAt": "2024-01-01T00:00:00Z"}
				]`)
			},
		}
		c := b.start(t)

		got, err := c.LoadMessages(context.Background(), "c1")
		if err != nil {
			t.Fatal(err)
		}
		want := []models.Message{
			{ID: "m1", Sender: ann, Content: "hi", ChatID: "c1", CreatedAt: created},
			{ID: "m2", Sender: ben, Content: "hey", ChatID: "c1", CreatedAt: created},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Messages mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Failure", func(t *testing.T) {
		b := &testbackend{
			getMessages: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 500, `{"error": "boom"}`)
			},
		}
		c := b.start(t)

		got, err := c.LoadMessages(context.Background(), "c1")
		if err == nil {
			t.Fatal("Expected error")
		}
		if got == nil || len(got) != 0 {
			t.Errorf("Got %v, want empty non-nil slice", got)
		}
	})
}

func TestClient_CreateMessage(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		b := &testbackend{
			postMessage: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				var body map[string]string
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatal(err)
				}
				if diff := cmp.Diff(map[string]string{"content": "hello", "chatId": "c1"}, body); diff != "" {
					t.Errorf("Body mismatch (-want +got):\n%s", diff)
				}
				writeJSON(w, 201, `{"_id": "m9", "sender": {"_id": "u1"}, "content": "hello", "chat": "c1"}`)
			},
		}
		c := b.start(t)

		msg, err := c.CreateMessage(context.Background(), "hello", "c1")
		if err != nil {
			t.Fatal(err)
		}
		if msg.ID != "m9" || msg.Content != "hello" {
			t.Errorf("Got message %+v", msg)
		}
	})

	t.Run("Rejected", func(t *testing.T) {
		b := &testbackend{
			postMessage: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 400, `{"error": "Message content is required"}`)
			},
		}
		c := b.start(t)

		_, err := c.CreateMessage(context.Background(), "hello", "c1")
		if !errors.Is(err, ErrRejected) {
			t.Errorf("Got error %v, want ErrRejected", err)
		}
		var se *StatusError
		if !errors.As(err, &se) || se.Message != "Message content is required" {
			t.Errorf("Got status error %v", se)
		}
	})

	t.Run("TooLong", func(t *testing.T) {
		c := (&testbackend{}).start(t)
		_, err := c.CreateMessage(context.Background(), strings.Repeat("x", 501), "c1")
		if !errors.Is(err, ErrInvalidContent) {
			t.Errorf("Got error %v, want ErrInvalidContent", err)
		}
	})
}

func TestClient_CreatePost(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		replyTo  string
		wantBody map[string]string
		wantErr  error
	}{
		{
			name:     "Post",
			content:  "  what's going on  ",
			wantBody: map[string]string{"content": "what's going on"},
		},
		{
			name:     "Reply",
			content:  "agreed",
			replyTo:  "p1",
			wantBody: map[string]string{"content": "agreed", "replyTo": "p1"},
		},
		{
			name:    "Blank",
			content: "   ",
			wantErr: ErrInvalidContent,
		},
		{
			name:    "TooLong",
			content: strings.Repeat("x", 401),
			wantErr: ErrInvalidContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &testbackend{}
			if tt.wantErr == nil {
				b.postPost = func(t *testing.T, w http.ResponseWriter, r *http.Request) {
					var body map[string]string
					if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
						t.Fatal(err)
					}
					if diff := cmp.Diff(tt.wantBody, body); diff != "" {
						t.Errorf("Body mismatch (-want +got):\n%s", diff)
					}
					writeJSON(w, 201, `{"_id": "p2", "postedBy": {"_id": "u1"}, "content": "ok"}`)
				}
			}
			c := b.start(t)

			post, err := c.CreatePost(context.Background(), tt.content, tt.replyTo)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Got error %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if post.ID != "p2" {
				t.Errorf("Got post %+v", post)
			}
		})
	}
}

func TestClient_Login(t *testing.T) {
	b := &testbackend{
		login: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
			http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "fresh"})
			writeJSON(w, 200, `{"success": true}`)
		},
	}
	c := b.start(t)

	token, err := c.Login(context.Background(), "ann", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if token != "fresh" {
		t.Errorf("Got token %q, want fresh", token)
	}
}

func TestClient_Me(t *testing.T) {
	b := &testbackend{
		me: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
			if ck, err := r.Cookie(SessionCookie); err != nil || ck.Value != "tok" {
				writeJSON(w, 401, `{"error": "Unauthorized"}`)
				return
			}
			writeJSON(w, 200, `{"_id": "u1", "firstName": "Ann", "lastName": "Lee"}`)
		},
	}
	c := b.start(t)

	u, err := c.Me(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(ann, u); diff != "" {
		t.Errorf("User mismatch (-want +got):\n%s", diff)
	}
}
