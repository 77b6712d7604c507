package stories

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/abhisek/sanlang/internal/logging"
	"github.com/abhisek/sanlang/internal/store"
)

// maxPageSize bounds the HTML read from an imported page.
const maxPageSize = 10 << 20

// paragraphsPerChapter groups imported paragraphs into chapters.
const paragraphsPerChapter = 8

// Fetcher downloads web pages for import.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher. A nil client uses a 30 second timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{client: client}
}

// Fetch returns the page body with ruby annotations removed.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; sanlang/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "ja,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}
	if resp.ContentLength > maxPageSize {
		return nil, fmt.Errorf("fetch %s: page larger than %d bytes", pageURL, maxPageSize)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pageURL, err)
	}
	if len(body) > maxPageSize {
		return nil, fmt.Errorf("fetch %s: page larger than %d bytes", pageURL, maxPageSize)
	}
	return SanitizeRuby(body), nil
}

var (
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby strips furigana so extracted text is not duplicated.
func SanitizeRuby(html []byte) []byte {
	return reRP.ReplaceAll(reRT.ReplaceAll(html, nil), nil)
}

// ImportURL extracts the main article at pageURL and saves it as a story.
func (c *Catalog) ImportURL(ctx context.Context, pageURL, level, language string) (*store.Story, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q", pageURL)
	}
	if c.model.LevelIndex(language, level) < 0 {
		return nil, fmt.Errorf("%w: %s %q", ErrInvalidLevel, language, level)
	}

	body, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return nil, fmt.Errorf("extract article: %w", err)
	}

	paras := SplitParagraphs(article.TextContent)
	if len(paras) == 0 {
		return nil, errors.New("no article text found")
	}

	st := &store.Story{
		Language:      language,
		Level:         level,
		Title:         strings.TrimSpace(article.Title),
		Genre:         "article",
		Summary:       strings.TrimSpace(article.Excerpt),
		Tags:          []string{"imported"},
		Chapters:      chapters(article.Title, paras),
		CoverImageURL: article.Image,
	}
	if st.Title == "" {
		st.Title = u.Host
	}
	if site := strings.TrimSpace(article.SiteName); site != "" {
		st.Tags = append(st.Tags, site)
	}
	if err := c.Save(ctx, st); err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Str("story_id", st.ID).
		Str("url", pageURL).
		Int("paragraphs", len(paras)).
		Int("vocabulary", len(st.Vocabulary)).
		Msg("article imported")
	return st, nil
}

// SplitParagraphs splits extracted text on line breaks, dropping blank
// lines.
func SplitParagraphs(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func chapters(title string, paras []string) []store.Chapter {
	var out []store.Chapter
	for start := 0; start < len(paras); start += paragraphsPerChapter {
		end := min(start+paragraphsPerChapter, len(paras))
		out = append(out, store.Chapter{
			Title:      fmt.Sprintf("%s (%d)", strings.TrimSpace(title), len(out)+1),
			Paragraphs: paras[start:end],
		})
	}
	if len(out) == 1 {
		out[0].Title = strings.TrimSpace(title)
	}
	return out
}
