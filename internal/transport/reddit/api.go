package reddit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"botreplymsg/internal/transport"
)

const (
	maxListingLimit  = 100
	maxModeratorPage = 20
	siteURL          = "https://www.reddit.com"
)

type listing[T any] struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string `json:"kind"`
			Data T      `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type thingData struct {
	Name   string `json:"name"`
	Author string `json:"author"`
}

type commentData struct {
	Name       string  `json:"name"`
	Author     string  `json:"author"`
	ParentID   string  `json:"parent_id"`
	LinkID     string  `json:"link_id"`
	Permalink  string  `json:"permalink"`
	Subreddit  string  `json:"subreddit"`
	CreatedUTC float64 `json:"created_utc"`
}

type moderatorData struct {
	Name           string   `json:"name"`
	ModPermissions []string `json:"mod_permissions"`
}

// userList is the shape of /about/moderators (a "UserList", not a Listing).
type userList struct {
	Data struct {
		After    string          `json:"after"`
		Children []moderatorData `json:"children"`
	} `json:"data"`
}

type userAbout struct {
	Data struct {
		Name string `json:"name"`
		ID   string `json:"id"`
	} `json:"data"`
}

type composeResponse struct {
	JSON struct {
		Errors [][]any `json:"errors"`
	} `json:"json"`
}

func withPrefix(prefix, id string) string {
	if strings.HasPrefix(id, prefix) {
		return id
	}
	return prefix + id
}

// PostByID resolves a post fullname (t3_...) to its author.
func (c *Client) PostByID(ctx context.Context, id string) (transport.Thing, error) {
	return c.info(ctx, withPrefix(transport.KindPost, id))
}

// CommentByID resolves a comment fullname (t1_...) to its author.
func (c *Client) CommentByID(ctx context.Context, id string) (transport.Thing, error) {
	return c.info(ctx, withPrefix(transport.KindComment, id))
}

func (c *Client) info(ctx context.Context, fullname string) (transport.Thing, error) {
	var out listing[thingData]
	if err := c.call(ctx, "info", http.MethodGet, "/api/info", url.Values{"id": {fullname}}, nil, &out); err != nil {
		return transport.Thing{}, err
	}
	for _, ch := range out.Data.Children {
		if ch.Data.Name == fullname {
			return transport.Thing{ID: ch.Data.Name, AuthorName: ch.Data.Author}, nil
		}
	}
	return transport.Thing{}, fmt.Errorf("%s: %w", fullname, ErrNotFound)
}

// Moderators lists every moderator of the subreddit in Reddit's order,
// following pagination.
func (c *Client) Moderators(ctx context.Context, subreddit string) ([]transport.Moderator, error) {
	var (
		mods  []transport.Moderator
		after string
	)
	for page := 0; page < maxModeratorPage; page++ {
		q := url.Values{"limit": {strconv.Itoa(maxListingLimit)}}
		if after != "" {
			q.Set("after", after)
		}
		var out userList
		if err := c.call(ctx, "moderators", http.MethodGet, "/r/"+subreddit+"/about/moderators", q, nil, &out); err != nil {
			return nil, err
		}
		for _, m := range out.Data.Children {
			mods = append(mods, transport.Moderator{Username: m.Name, Permissions: m.ModPermissions})
		}
		if out.Data.After == "" || out.Data.After == after {
			return mods, nil
		}
		after = out.Data.After
	}
	return mods, nil
}

// UserByUsername returns nil (and no error) when the account does not exist.
func (c *Client) UserByUsername(ctx context.Context, name string) (*transport.User, error) {
	var out userAbout
	err := c.call(ctx, "user_about", http.MethodGet, "/user/"+url.PathEscape(name)+"/about", nil, nil, &out)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if out.Data.Name == "" {
		return nil, nil
	}
	return &transport.User{Name: out.Data.Name, ID: out.Data.ID}, nil
}

// ModPermissions returns the user's moderator permissions in the subreddit,
// or nil if the user is not a moderator there.
func (c *Client) ModPermissions(ctx context.Context, user transport.User, subreddit string) ([]string, error) {
	var out userList
	q := url.Values{"user": {user.Name}}
	if err := c.call(ctx, "moderators", http.MethodGet, "/r/"+subreddit+"/about/moderators", q, nil, &out); err != nil {
		return nil, err
	}
	for _, m := range out.Data.Children {
		if strings.EqualFold(m.Name, user.Name) {
			if m.ModPermissions == nil {
				return []string{}, nil
			}
			return m.ModPermissions, nil
		}
	}
	return nil, nil
}

// SendPrivateMessage composes a private message. A recipient that blocks
// messages yields an error matching transport.ErrNotWhitelisted.
func (c *Client) SendPrivateMessage(ctx context.Context, msg transport.PrivateMessage) error {
	form := url.Values{
		"api_type": {"json"},
		"to":       {msg.To},
		"subject":  {msg.Subject},
		"text":     {msg.Text},
	}
	var out composeResponse
	if err := c.call(ctx, "compose", http.MethodPost, "/api/compose", nil, form, &out); err != nil {
		return err
	}
	if len(out.JSON.Errors) == 0 {
		return nil
	}
	// Reddit reports errors as [code, message, field] triples.
	e := out.JSON.Errors[0]
	apiErr := &APIError{Status: http.StatusOK}
	for i, v := range e {
		s, _ := v.(string)
		switch i {
		case 0:
			apiErr.Code = s
		case 1:
			apiErr.Message = s
		case 2:
			apiErr.Field = s
		}
	}
	return apiErr
}

// NewComments lists the most recent comments of the subreddit, newest first.
func (c *Client) NewComments(ctx context.Context, subreddit string, limit int) ([]transport.CommentEvent, error) {
	if limit <= 0 || limit > maxListingLimit {
		limit = maxListingLimit
	}
	var out listing[commentData]
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.call(ctx, "comments", http.MethodGet, "/r/"+subreddit+"/comments", q, nil, &out); err != nil {
		return nil, err
	}
	evs := make([]transport.CommentEvent, 0, len(out.Data.Children))
	for _, ch := range out.Data.Children {
		d := ch.Data
		if ch.Kind != "t1" || d.Name == "" {
			continue
		}
		evs = append(evs, transport.CommentEvent{
			ID:        d.Name,
			Author:    d.Author,
			ParentID:  d.ParentID,
			LinkID:    d.LinkID,
			Permalink: absolutePermalink(d.Permalink),
			Subreddit: d.Subreddit,
			CreatedAt: unixFloat(d.CreatedUTC),
		})
	}
	return evs, nil
}

func absolutePermalink(p string) string {
	if p == "" || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return siteURL + p
}

func unixFloat(f float64) time.Time {
	if f <= 0 {
		return time.Time{}
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}
