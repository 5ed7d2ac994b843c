package lemmy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/johanforsgren/threadline/internal/domain"
	"github.com/johanforsgren/threadline/internal/logger"
	"github.com/johanforsgren/threadline/internal/provider/common"
)

// Error codes an instance answers a login with when the account has
// two-factor authentication enabled.
var secondFactorCodes = map[string]bool{
	"missing_totp_token": true,
	"incorrect_totp":     true,
}

// timestamps from older instances carry no zone and are UTC.
var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999"}

type Provider struct {
	endpoint string
	client   *Client
}

func NewProvider(endpoint string, httpClient *http.Client) *Provider {
	return &Provider{
		endpoint: endpoint,
		client:   NewClient(endpoint, httpClient),
	}
}

func (p *Provider) Endpoint() string {
	return p.endpoint
}

func (p *Provider) GetSite(ctx context.Context, token string) (*domain.Site, error) {
	resp, err := p.client.GetSite(ctx, token)
	if err != nil {
		logger.LogError("LEMMY_GET_SITE", p.endpoint, err)
		return nil, err
	}

	site := &domain.Site{
		Name:        resp.SiteView.Site.Name,
		Description: common.Value(resp.SiteView.Site.Description),
		Version:     resp.Version,
	}
	if resp.MyUser != nil {
		me := convertPerson(resp.MyUser.LocalUserView.Person)
		site.MyUser = &me
		site.Follows = make([]domain.Community, 0, len(resp.MyUser.Follows))
		for _, f := range resp.MyUser.Follows {
			site.Follows = append(site.Follows, domain.Community(f.Community))
		}
	}

	logger.Log("Lemmy: Retrieved site %s (%s)", site.Name, p.endpoint)
	return site, nil
}

func (p *Provider) Login(ctx context.Context, usernameOrEmail, password, totp string) (string, error) {
	logger.Log("Lemmy: Logging in %s at %s", usernameOrEmail, p.endpoint)
	jwt, err := p.client.Login(ctx, loginRequest{
		UsernameOrEmail: usernameOrEmail,
		Password:        password,
		TOTP:            totp,
	})
	if err != nil {
		logger.LogError("LEMMY_LOGIN", usernameOrEmail, err)
		return "", classifyLoginError(err)
	}
	return jwt, nil
}

func classifyLoginError(err error) error {
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	if secondFactorCodes[apiErr.Code] {
		return fmt.Errorf("%w: %w", domain.ErrAuthExchange, domain.ErrNeedsSecondFactor)
	}
	return fmt.Errorf("%w: %w", domain.ErrAuthExchange, err)
}

// ListInbox merges replies, mentions and private messages, newest first.
func (p *Provider) ListInbox(ctx context.Context, token string, opts domain.InboxOptions) ([]domain.InboxItem, error) {
	if token == "" {
		return nil, domain.ErrNoSession
	}
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}

	var (
		replies  *repliesResponse
		mentions *mentionsResponse
		messages *privateMessagesResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		replies, err = p.client.GetReplies(gctx, inboxParams(token, opts.UnreadOnly, opts.Page, opts.Limit))
		return err
	})
	g.Go(func() error {
		var err error
		mentions, err = p.client.GetPersonMentions(gctx, inboxParams(token, opts.UnreadOnly, opts.Page, opts.Limit))
		return err
	})
	g.Go(func() error {
		var err error
		messages, err = p.client.GetPrivateMessages(gctx, inboxParams(token, opts.UnreadOnly, opts.Page, opts.Limit))
		return err
	})
	if err := g.Wait(); err != nil {
		logger.LogError("LEMMY_LIST_INBOX", p.endpoint, err)
		return nil, err
	}

	items := make([]domain.InboxItem, 0, len(replies.Replies)+len(mentions.Mentions)+len(messages.PrivateMessages))
	for _, r := range replies.Replies {
		items = append(items, domain.InboxItem{
			Kind:      domain.InboxReply,
			ID:        r.CommentReply.ID,
			Creator:   convertPerson(r.Creator),
			Content:   r.Comment.Content,
			Read:      r.CommentReply.Read,
			Published: parseTime(r.CommentReply.Published),
		})
	}
	for _, m := range mentions.Mentions {
		items = append(items, domain.InboxItem{
			Kind:      domain.InboxMention,
			ID:        m.PersonMention.ID,
			Creator:   convertPerson(m.Creator),
			Content:   m.Comment.Content,
			Read:      m.PersonMention.Read,
			Published: parseTime(m.PersonMention.Published),
		})
	}
	for _, pm := range messages.PrivateMessages {
		if opts.ExcludeCreatorID != 0 && pm.Creator.ID == opts.ExcludeCreatorID {
			continue
		}
		items = append(items, domain.InboxItem{
			Kind:      domain.InboxMessage,
			ID:        pm.PrivateMessage.ID,
			Creator:   convertPerson(pm.Creator),
			Content:   pm.PrivateMessage.Content,
			Read:      pm.PrivateMessage.Read,
			Published: parseTime(pm.PrivateMessage.Published),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Published.After(items[j].Published)
	})

	logger.Log("Lemmy: Found %d inbox items", len(items))
	return items, nil
}

func (p *Provider) GetPersonDetails(ctx context.Context, token, username string) (*domain.PersonDetails, error) {
	resp, err := p.client.GetPersonDetails(ctx, token, username)
	if err != nil {
		logger.LogError("LEMMY_GET_PERSON", username, err)
		return nil, err
	}

	details := &domain.PersonDetails{
		Person:   convertPerson(resp.PersonView.Person),
		Posts:    make([]domain.Post, 0, len(resp.Posts)),
		Comments: make([]domain.Comment, 0, len(resp.Comments)),
	}
	for _, pv := range resp.Posts {
		details.Posts = append(details.Posts, domain.Post{
			ID:          pv.Post.ID,
			Name:        pv.Post.Name,
			URL:         common.Value(pv.Post.URL),
			Body:        common.Value(pv.Post.Body),
			Creator:     convertPerson(pv.Creator),
			CommunityID: pv.Post.CommunityID,
			Published:   parseTime(pv.Post.Published),
		})
	}
	for _, cv := range resp.Comments {
		details.Comments = append(details.Comments, domain.Comment{
			ID:        cv.Comment.ID,
			PostID:    cv.Comment.PostID,
			Content:   cv.Comment.Content,
			Creator:   convertPerson(cv.Creator),
			Published: parseTime(cv.Comment.Published),
		})
	}
	return details, nil
}

func convertPerson(p personJSON) domain.Person {
	return domain.Person{
		ID:          p.ID,
		Name:        p.Name,
		DisplayName: common.ValueOr(p.DisplayName, p.Name),
		ActorID:     p.ActorID,
	}
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
