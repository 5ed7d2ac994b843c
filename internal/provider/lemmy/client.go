package lemmy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/johanforsgren/threadline/internal/provider/common"
)

const (
	apiPrefix      = "/api/v3"
	defaultTimeout = 30 * time.Second
	DefaultLimit   = 50
)

// Client is a thin JSON client for one instance's v3 API. Session tokens
// are passed per call as the "auth" parameter.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: common.NewLoggingTransport(nil),
			Timeout:   defaultTimeout,
		}
	}
	return &Client{
		baseURL:    common.BaseURL(endpoint),
		httpClient: httpClient,
	}
}

type personJSON struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	DisplayName *string `json:"display_name"`
	ActorID     string  `json:"actor_id"`
}

type communityJSON struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Title   string `json:"title"`
	ActorID string `json:"actor_id"`
}

type postJSON struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	URL         *string `json:"url"`
	Body        *string `json:"body"`
	CommunityID int     `json:"community_id"`
	Published   string  `json:"published"`
}

type commentJSON struct {
	ID        int    `json:"id"`
	PostID    int    `json:"post_id"`
	Content   string `json:"content"`
	Published string `json:"published"`
}

type siteResponse struct {
	SiteView struct {
		Site struct {
			Name        string  `json:"name"`
			Description *string `json:"description"`
		} `json:"site"`
	} `json:"site_view"`
	Version string `json:"version"`
	MyUser  *struct {
		LocalUserView struct {
			Person personJSON `json:"person"`
		} `json:"local_user_view"`
		Follows []struct {
			Community communityJSON `json:"community"`
		} `json:"follows"`
	} `json:"my_user"`
}

type loginRequest struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
	TOTP            string `json:"totp_2fa_token,omitempty"`
}

type loginResponse struct {
	JWT *string `json:"jwt"`
}

type repliesResponse struct {
	Replies []struct {
		CommentReply struct {
			ID        int    `json:"id"`
			Read      bool   `json:"read"`
			Published string `json:"published"`
		} `json:"comment_reply"`
		Comment commentJSON `json:"comment"`
		Creator personJSON  `json:"creator"`
	} `json:"replies"`
}

type mentionsResponse struct {
	Mentions []struct {
		PersonMention struct {
			ID        int    `json:"id"`
			Read      bool   `json:"read"`
			Published string `json:"published"`
		} `json:"person_mention"`
		Comment commentJSON `json:"comment"`
		Creator personJSON  `json:"creator"`
	} `json:"mentions"`
}

type privateMessagesResponse struct {
	PrivateMessages []struct {
		PrivateMessage struct {
			ID        int    `json:"id"`
			Content   string `json:"content"`
			Read      bool   `json:"read"`
			Published string `json:"published"`
		} `json:"private_message"`
		Creator personJSON `json:"creator"`
	} `json:"private_messages"`
}

type personDetailsResponse struct {
	PersonView struct {
		Person personJSON `json:"person"`
	} `json:"person_view"`
	Posts []struct {
		Post    postJSON   `json:"post"`
		Creator personJSON `json:"creator"`
	} `json:"posts"`
	Comments []struct {
		Comment commentJSON `json:"comment"`
		Creator personJSON  `json:"creator"`
	} `json:"comments"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) GetSite(ctx context.Context, auth string) (*siteResponse, error) {
	params := url.Values{}
	if auth != "" {
		params.Set("auth", auth)
	}
	var out siteResponse
	if err := c.get(ctx, "/site", params, &out); err != nil {
		return nil, fmt.Errorf("failed to get site: %w", err)
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, req loginRequest) (string, error) {
	var out loginResponse
	if err := c.post(ctx, "/user/login", req, &out); err != nil {
		return "", fmt.Errorf("failed to login: %w", err)
	}
	if out.JWT == nil || *out.JWT == "" {
		return "", fmt.Errorf("failed to login: no token in response")
	}
	return *out.JWT, nil
}

func inboxParams(auth string, unreadOnly bool, page, limit int) url.Values {
	params := url.Values{}
	params.Set("auth", auth)
	params.Set("unread_only", strconv.FormatBool(unreadOnly))
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))
	return params
}

func (c *Client) GetReplies(ctx context.Context, params url.Values) (*repliesResponse, error) {
	params.Set("sort", "New")
	var out repliesResponse
	if err := c.get(ctx, "/user/replies", params, &out); err != nil {
		return nil, fmt.Errorf("failed to get replies: %w", err)
	}
	return &out, nil
}

func (c *Client) GetPersonMentions(ctx context.Context, params url.Values) (*mentionsResponse, error) {
	params.Set("sort", "New")
	var out mentionsResponse
	if err := c.get(ctx, "/user/mention", params, &out); err != nil {
		return nil, fmt.Errorf("failed to get mentions: %w", err)
	}
	return &out, nil
}

func (c *Client) GetPrivateMessages(ctx context.Context, params url.Values) (*privateMessagesResponse, error) {
	var out privateMessagesResponse
	if err := c.get(ctx, "/private_message/list", params, &out); err != nil {
		return nil, fmt.Errorf("failed to get private messages: %w", err)
	}
	return &out, nil
}

func (c *Client) GetPersonDetails(ctx context.Context, auth, username string) (*personDetailsResponse, error) {
	params := url.Values{}
	params.Set("username", username)
	params.Set("sort", "New")
	params.Set("limit", strconv.Itoa(DefaultLimit))
	if auth != "" {
		params.Set("auth", auth)
	}
	var out personDetailsResponse
	if err := c.get(ctx, "/user", params, &out); err != nil {
		return nil, fmt.Errorf("failed to get person details: %w", err)
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + apiPrefix + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, path, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPrefix+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &common.APIError{StatusCode: resp.StatusCode, Path: path}
		var e errorResponse
		if json.Unmarshal(body, &e) == nil {
			apiErr.Code = e.Error
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
