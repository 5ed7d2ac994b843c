package domain

import "time"

// Site is the instance metadata returned for the active session.
type Site struct {
	Name        string
	Description string
	Version     string
	MyUser      *Person
	Follows     []Community
}

type Person struct {
	ID          int
	Name        string
	DisplayName string
	ActorID     string
}

type Community struct {
	ID      int
	Name    string
	Title   string
	ActorID string
}

type Post struct {
	ID          int
	Name        string
	URL         string
	Body        string
	Creator     Person
	CommunityID int
	Published   time.Time
}

type Comment struct {
	ID        int
	PostID    int
	Content   string
	Creator   Person
	Published time.Time
}

type InboxKind string

const (
	InboxReply   InboxKind = "reply"
	InboxMention InboxKind = "mention"
	InboxMessage InboxKind = "message"
)

type InboxItem struct {
	Kind      InboxKind
	ID        int
	Creator   Person
	Content   string
	Read      bool
	Published time.Time
}

// PersonDetails is a profile page: the person plus their recent content.
type PersonDetails struct {
	Person   Person
	Posts    []Post
	Comments []Comment
}

type OAuthTokens struct {
	AccessToken  string
	RefreshToken string
}
