package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/roomcast/server/internal/domain"
)

var ErrVideoNotFound = errors.New("video not found")

// YouTubeProvider resolves a video id or URL to its metadata, first through
// the oEmbed endpoint and then by scraping the watch page for videos that
// disable embedding.
type YouTubeProvider struct {
	client *http.Client
}

func NewYouTubeProvider() *YouTubeProvider {
	return &YouTubeProvider{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *YouTubeProvider) Search(ctx context.Context, query string) ([]domain.MediaItem, error) {
	videoId := extractVideoId(query)
	if videoId == "" {
		return nil, ErrVideoNotFound
	}

	item, err := p.getWithOEmbed(ctx, videoId)
	if err != nil {
		item, err = p.getFromPage(ctx, videoId)
		if err != nil {
			return nil, fmt.Errorf("failed to get video data from page: %w", err)
		}
	}

	return []domain.MediaItem{item}, nil
}

// extractVideoId accepts a bare 11-character id, a youtu.be short link or a
// watch URL.
func extractVideoId(query string) string {
	query = strings.TrimSpace(query)

	if len(query) == 11 && !strings.ContainsAny(query, "/?&=. ") {
		return query
	}

	u, err := url.Parse(query)
	if err != nil {
		return ""
	}

	switch {
	case strings.HasSuffix(u.Host, "youtu.be"):
		return strings.TrimPrefix(u.Path, "/")
	case strings.Contains(u.Host, "youtube.com"):
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		if rest, ok := strings.CutPrefix(u.Path, "/embed/"); ok {
			return rest
		}
	}

	return ""
}

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailUrl string `json:"thumbnail_url"`
}

func (p *YouTubeProvider) getWithOEmbed(ctx context.Context, videoId string) (domain.MediaItem, error) {
	endpoint := "https://www.youtube.com/oembed?format=json&url=" +
		url.QueryEscape("https://www.youtube.com/watch?v="+videoId)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.MediaItem{}, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.MediaItem{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.MediaItem{}, ErrVideoNotFound
	}

	var data oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return domain.MediaItem{}, err
	}

	return domain.MediaItem{
		ExternalId:    videoId,
		Title:         data.Title,
		ThumbnailUrl:  data.ThumbnailUrl,
		SourceChannel: data.AuthorName,
	}, nil
}

func (p *YouTubeProvider) getFromPage(ctx context.Context, videoId string) (domain.MediaItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://youtu.be/"+videoId, nil)
	if err != nil {
		return domain.MediaItem{}, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.MediaItem{}, err
	}
	defer resp.Body.Close()

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return domain.MediaItem{}, err
	}

	return domain.MediaItem{
		ExternalId:    videoId,
		Title:         pageTitle(doc),
		ThumbnailUrl:  fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoId),
		SourceChannel: channelName(doc),
	}, nil
}

func pageTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
		return n.FirstChild.Data
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := pageTitle(c); title != "" {
			return title
		}
	}
	return ""
}

func channelName(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "link" {
		isName := false
		content := ""
		for _, attr := range n.Attr {
			if attr.Key == "itemprop" && attr.Val == "name" {
				isName = true
			}
			if attr.Key == "content" {
				content = attr.Val
			}
		}
		if isName {
			return content
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if name := channelName(c); name != "" {
			return name
		}
	}
	return ""
}
