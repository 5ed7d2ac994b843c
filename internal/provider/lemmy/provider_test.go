package lemmy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/johanforsgren/threadline/internal/domain"
	"github.com/johanforsgren/threadline/internal/provider/common"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewProvider(server.URL, server.Client())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestGetSite(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/site" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("auth"); got != "tok" {
			t.Errorf("auth = %q, want tok", got)
		}
		w.Write([]byte(`{
			"site_view": {"site": {"name": "Lemmy World", "description": "hi"}},
			"version": "0.18.4",
			"my_user": {
				"local_user_view": {"person": {"id": 7, "name": "alice", "actor_id": "https://lemmy.world/u/alice"}},
				"follows": [{"community": {"id": 3, "name": "golang", "title": "Go", "actor_id": "https://lemmy.world/c/golang"}}]
			}
		}`))
	})

	site, err := p.GetSite(context.Background(), "tok")
	if err != nil {
		t.Fatalf("GetSite() error = %v", err)
	}
	if site.Name != "Lemmy World" || site.Version != "0.18.4" {
		t.Errorf("GetSite() = %+v", site)
	}
	if site.MyUser == nil || site.MyUser.Name != "alice" || site.MyUser.DisplayName != "alice" {
		t.Errorf("MyUser = %+v", site.MyUser)
	}
	if len(site.Follows) != 1 || site.Follows[0].Name != "golang" {
		t.Errorf("Follows = %+v", site.Follows)
	}
}

func TestGetSiteAnonymousOmitsAuth(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("auth") {
			t.Error("anonymous request carried an auth parameter")
		}
		w.Write([]byte(`{"site_view": {"site": {"name": "x"}}, "version": "0.18.0"}`))
	})

	site, err := p.GetSite(context.Background(), "")
	if err != nil {
		t.Fatalf("GetSite() error = %v", err)
	}
	if site.MyUser != nil {
		t.Errorf("anonymous site should have no user, got %+v", site.MyUser)
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		body           any
		wantToken      string
		wantSecondStep bool
		wantExchange   bool
	}{
		{
			name:      "success",
			status:    http.StatusOK,
			body:      map[string]string{"jwt": "h.p.s"},
			wantToken: "h.p.s",
		},
		{
			name:           "missing totp",
			status:         http.StatusBadRequest,
			body:           map[string]string{"error": "missing_totp_token"},
			wantSecondStep: true,
			wantExchange:   true,
		},
		{
			name:         "wrong password",
			status:       http.StatusBadRequest,
			body:         map[string]string{"error": "incorrect_login"},
			wantExchange: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/api/v3/user/login" {
					t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
				}
				var req loginRequest
				json.NewDecoder(r.Body).Decode(&req)
				if req.UsernameOrEmail != "alice" || req.Password != "pw" {
					t.Errorf("unexpected login body %+v", req)
				}
				writeJSON(w, tt.status, tt.body)
			})

			token, err := p.Login(context.Background(), "alice", "pw", "")
			if token != tt.wantToken {
				t.Errorf("Login() token = %q, want %q", token, tt.wantToken)
			}
			if got := errors.Is(err, domain.ErrNeedsSecondFactor); got != tt.wantSecondStep {
				t.Errorf("errors.Is(ErrNeedsSecondFactor) = %v, want %v (err %v)", got, tt.wantSecondStep, err)
			}
			if got := errors.Is(err, domain.ErrAuthExchange); got != tt.wantExchange {
				t.Errorf("errors.Is(ErrAuthExchange) = %v, want %v (err %v)", got, tt.wantExchange, err)
			}
		})
	}
}

func TestListInboxMergesAndSorts(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/user/replies":
			w.Write([]byte(`{"replies": [{
				"comment_reply": {"id": 1, "read": false, "published": "2023-07-01T10:00:00.000000"},
				"comment": {"id": 11, "post_id": 5, "content": "reply", "published": "2023-07-01T10:00:00.000000"},
				"creator": {"id": 2, "name": "bob", "actor_id": "https://beehaw.org/u/bob"}
			}]}`))
		case "/api/v3/user/mention":
			w.Write([]byte(`{"mentions": [{
				"person_mention": {"id": 2, "read": true, "published": "2023-07-03T10:00:00Z"},
				"comment": {"id": 12, "post_id": 5, "content": "mention", "published": "2023-07-03T10:00:00Z"},
				"creator": {"id": 3, "name": "carol", "actor_id": "https://lemmy.ml/u/carol"}
			}]}`))
		case "/api/v3/private_message/list":
			w.Write([]byte(`{"private_messages": [
				{"private_message": {"id": 3, "content": "dm", "read": false, "published": "2023-07-02T10:00:00"}, "creator": {"id": 4, "name": "dave"}},
				{"private_message": {"id": 4, "content": "mine", "read": true, "published": "2023-07-04T10:00:00"}, "creator": {"id": 7, "name": "alice"}}
			]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	items, err := p.ListInbox(context.Background(), "tok", domain.InboxOptions{ExcludeCreatorID: 7})
	if err != nil {
		t.Fatalf("ListInbox() error = %v", err)
	}

	wantKinds := []domain.InboxKind{domain.InboxMention, domain.InboxMessage, domain.InboxReply}
	if len(items) != len(wantKinds) {
		t.Fatalf("ListInbox() returned %d items, want %d", len(items), len(wantKinds))
	}
	for i, want := range wantKinds {
		if items[i].Kind != want {
			t.Errorf("items[%d].Kind = %s, want %s", i, items[i].Kind, want)
		}
	}
	if got := common.RemoteHandle(items[2].Creator); got != "bob@beehaw.org" {
		t.Errorf("reply creator handle = %q", got)
	}
}

func TestListInboxPropagatesFailure(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v3/user/mention" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "not_logged_in"})
			return
		}
		w.Write([]byte(`{}`))
	})

	_, err := p.ListInbox(context.Background(), "tok", domain.InboxOptions{})
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "not_logged_in" {
		t.Errorf("ListInbox() error = %v, want APIError not_logged_in", err)
	}
}

func TestListInboxRequiresSession(t *testing.T) {
	p := NewProvider("lemmy.world", nil)
	if _, err := p.ListInbox(context.Background(), "", domain.InboxOptions{}); !errors.Is(err, domain.ErrNoSession) {
		t.Errorf("ListInbox() error = %v, want ErrNoSession", err)
	}
}

func TestGetPersonDetails(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("username"); got != "bob@beehaw.org" {
			t.Errorf("username = %q", got)
		}
		w.Write([]byte(`{
			"person_view": {"person": {"id": 2, "name": "bob", "display_name": "Bob", "actor_id": "https://beehaw.org/u/bob"}},
			"posts": [{"post": {"id": 9, "name": "hello", "community_id": 1, "published": "2023-07-01T10:00:00"}, "creator": {"id": 2, "name": "bob"}}],
			"comments": []
		}`))
	})

	details, err := p.GetPersonDetails(context.Background(), "", "bob@beehaw.org")
	if err != nil {
		t.Fatalf("GetPersonDetails() error = %v", err)
	}
	if details.Person.DisplayName != "Bob" {
		t.Errorf("DisplayName = %q", details.Person.DisplayName)
	}
	if len(details.Posts) != 1 || details.Posts[0].URL != "" {
		t.Errorf("Posts = %+v", details.Posts)
	}
	if len(details.Comments) != 0 {
		t.Errorf("Comments = %+v", details.Comments)
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2023, 7, 1, 10, 0, 0, 500000000, time.UTC)
	for _, in := range []string{"2023-07-01T10:00:00.5", "2023-07-01T10:00:00.500000Z"} {
		if got := parseTime(in); !got.Equal(want) {
			t.Errorf("parseTime(%q) = %v, want %v", in, got, want)
		}
	}
	if got := parseTime("yesterday"); !got.IsZero() {
		t.Errorf("parseTime(garbage) = %v, want zero", got)
	}
}
