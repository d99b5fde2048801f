// Package catalog — клиент внешнего HTTP API каталога книг (GET /books, GET /books/{id}).
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
)

var errNotFound = errors.New("catalog: not found")

// Client реализует domain.BookCatalog поверх HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	retry   int
	backoff time.Duration
	logger  *log.Entry
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithRetry задаёт число повторов и базовую задержку между ними.
func WithRetry(retry int, backoff time.Duration) Option {
	return func(cl *Client) {
		if retry >= 0 {
			cl.retry = retry
		}
		if backoff > 0 {
			cl.backoff = backoff
		}
	}
}

// WithLogger задаёт логгер.
func WithLogger(logger *log.Entry) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

// NewClient создаёт клиент каталога с базовым адресом baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		retry:   2,
		backoff: 150 * time.Millisecond,
		logger:  log.WithField("component", "catalog-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = NewHTTPClient(0)
	}
	return c
}

// List возвращает все книги каталога.
func (c *Client) List(ctx context.Context) ([]domain.CatalogItem, error) {
	var payload []bookPayload
	if err := c.getWithRetry(ctx, c.baseURL+"/books", &payload); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: list endpoint not found", domain.ErrCatalogUnavailable)
		}
		return nil, err
	}

	items := make([]domain.CatalogItem, 0, len(payload))
	for _, p := range payload {
		items = append(items, p.toDomain())
	}
	return items, nil
}

// GetByID возвращает книгу по идентификатору или domain.ErrCatalogItemNotFound.
func (c *Client) GetByID(ctx context.Context, id string) (domain.CatalogItem, error) {
	if strings.TrimSpace(id) == "" {
		return domain.CatalogItem{}, domain.ErrCatalogItemNotFound
	}

	var payload bookPayload
	if err := c.getWithRetry(ctx, c.baseURL+"/books/"+url.PathEscape(id), &payload); err != nil {
		if errors.Is(err, errNotFound) {
			return domain.CatalogItem{}, fmt.Errorf("%w: %s", domain.ErrCatalogItemNotFound, id)
		}
		return domain.CatalogItem{}, err
	}

	item := payload.toDomain()
	if item.ID == "" {
		item.ID = id
	}
	return item, nil
}

func (c *Client) getWithRetry(ctx context.Context, endpoint string, dst any) error {
	var lastErr error
	attempts := c.retry + 1
	for i := 0; i < attempts; i++ {
		err := c.getOnce(ctx, endpoint, dst)
		if err == nil {
			return nil
		}
		if errors.Is(err, errNotFound) {
			return err
		}
		lastErr = err

		if i < attempts-1 {
			c.logger.WithError(err).WithFields(log.Fields{
				"url":     endpoint,
				"attempt": i + 1,
			}).Warn("catalog request failed, retrying")
			select {
			case <-time.After(time.Duration(i+1) * c.backoff):
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, ctx.Err())
			}
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, lastErr)
}

func (c *Client) getOnce(ctx context.Context, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("catalog: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("catalog: decode response: %w", err)
	}
	return nil
}

var _ domain.BookCatalog = (*Client)(nil)

// bookPayload — форма книги во внешнем API. Поля id/_id и images/image взаимозаменяемы,
// ratings приходит числом или массивом оценок.
type bookPayload struct {
	ID          string          `json:"id"`
	MongoID     string          `json:"_id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Price       flexNumber      `json:"price"`
	Category    string          `json:"category"`
	Images      json.RawMessage `json:"images"`
	Image       json.RawMessage `json:"image"`
	Ratings     json.RawMessage `json:"ratings"`
	Description string          `json:"description"`
}

func (p bookPayload) toDomain() domain.CatalogItem {
	id := p.ID
	if id == "" {
		id = p.MongoID
	}
	images := parseImages(p.Images, p.Title)
	if len(images) == 0 {
		images = parseImages(p.Image, p.Title)
	}
	price := float64(p.Price)
	if price < 0 {
		price = 0
	}
	return domain.CatalogItem{
		ID:          id,
		Title:       p.Title,
		Author:      p.Author,
		Price:       price,
		Images:      images,
		Category:    p.Category,
		Ratings:     parseRatings(p.Ratings),
		Description: p.Description,
	}
}

// flexNumber принимает как число, так и числовую строку.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	*n = flexNumber(v)
	return nil
}

func parseImages(raw json.RawMessage, alt string) []domain.ImageRef {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return nil
		}
		return []domain.ImageRef{{URL: single, Alt: alt}}
	}

	var urls []string
	if err := json.Unmarshal(raw, &urls); err == nil {
		out := make([]domain.ImageRef, 0, len(urls))
		for _, u := range urls {
			if u != "" {
				out = append(out, domain.ImageRef{URL: u, Alt: alt})
			}
		}
		return out
	}

	var refs []domain.ImageRef
	if err := json.Unmarshal(raw, &refs); err == nil {
		out := refs[:0]
		for _, r := range refs {
			if r.URL == "" {
				continue
			}
			if r.Alt == "" {
				r.Alt = alt
			}
			out = append(out, r)
		}
		return out
	}
	return nil
}

func parseRatings(raw json.RawMessage) float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}

	var single flexNumber
	if err := json.Unmarshal(raw, &single); err == nil {
		return float64(single)
	}

	var many []float64
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		var sum float64
		for _, v := range many {
			sum += v
		}
		return sum / float64(len(many))
	}
	return 0
}
