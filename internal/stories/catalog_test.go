package stories

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sanlang/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:stories_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	s, err := store.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCatalogSaveAndList(t *testing.T) {
	c := NewCatalog(openTestStore(t), nil)
	ctx := context.Background()

	st := &store.Story{
		Language: "ja",
		Level:    "N5",
		Title:    "Momotaro",
		Genre:    "folk-tale",
		Chapters: []store.Chapter{{Title: "桃", Paragraphs: []string{"むかしむかし。"}}},
		Questions: []store.Question{
			{Question: "Who?", Options: []string{"a", "b"}, AnswerIndex: 1},
		},
	}
	require.NoError(t, c.Save(ctx, st))
	assert.NotEmpty(t, st.ID)

	list, err := c.List(ctx, store.ContentFilter{Language: "ja"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].ChapterCount)
	assert.True(t, list[0].HasQuestions)
	assert.Equal(t, "N5", list[0].ContentLevel())

	got, err := c.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Momotaro", got.Title)

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogSaveValidates(t *testing.T) {
	c := NewCatalog(openTestStore(t), nil)
	ctx := context.Background()

	err := c.Save(ctx, &store.Story{Language: "ja", Level: "B1", Title: "x"})
	assert.ErrorIs(t, err, ErrInvalidLevel)

	err = c.Save(ctx, &store.Story{Language: "ja", Level: "N5"})
	assert.Error(t, err)
}

func TestCatalogVideos(t *testing.T) {
	c := NewCatalog(openTestStore(t), nil)
	ctx := context.Background()

	v := &store.Video{Language: "fr", Level: "A2", Title: "Paris", URL: "https://v.example/1"}
	require.NoError(t, c.SaveVideo(ctx, v))

	vids, err := c.Videos(ctx, store.ContentFilter{Language: "fr"})
	require.NoError(t, err)
	require.Len(t, vids, 1)
	assert.Equal(t, v.ID, vids[0].ContentID())

	_, err = c.Video(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSplitParagraphs(t *testing.T) {
	got := SplitParagraphs("  一行目。\n\n\t二行目。 \n\n\n三行目。")
	assert.Equal(t, []string{"一行目。", "二行目。", "三行目。"}, got)
	assert.Empty(t, SplitParagraphs(" \n \n"))
}

func TestChaptersGroupParagraphs(t *testing.T) {
	paras := make([]string, 20)
	for i := range paras {
		paras[i] = fmt.Sprintf("p%d", i)
	}
	chs := chapters("Title", paras)
	require.Len(t, chs, 3)
	assert.Equal(t, "Title (1)", chs[0].Title)
	assert.Len(t, chs[0].Paragraphs, paragraphsPerChapter)
	assert.Len(t, chs[2].Paragraphs, 4)

	single := chapters("Only", paras[:2])
	require.Len(t, single, 1)
	assert.Equal(t, "Only", single[0].Title)
}

func TestSanitizeRuby(t *testing.T) {
	in := []byte(`<ruby>漢字<rp>(</rp><rt>かんじ</rt><rp>)</rp></ruby>`)
	assert.Equal(t, `<ruby>漢字</ruby>`, string(SanitizeRuby(in)))
}

const articleHTML = `<!doctype html>
<html><head><title>猫の一日</title></head>
<body>
<nav><a href="/">home</a></nav>
<article>
<h1>猫の一日</h1>
%s
</article>
</body></html>`

func TestImportURL(t *testing.T) {
	var paras strings.Builder
	for i := range 12 {
		fmt.Fprintf(&paras, "<p>朝、<ruby>猫<rt>ねこ</rt></ruby>は窓のそばで静かに寝ています。%d回目の朝です。猫はゆっくり起きて、台所へ歩いて行きます。そこで魚を食べます。</p>\n", i)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, articleHTML, paras.String())
	}))
	defer srv.Close()

	s := openTestStore(t)
	c := NewCatalog(s, nil, WithFetcher(NewFetcher(srv.Client())))
	st, err := c.ImportURL(context.Background(), srv.URL+"/article", "N4", "ja")
	require.NoError(t, err)

	assert.Equal(t, "猫の一日", st.Title)
	assert.Equal(t, "article", st.Genre)
	require.NotEmpty(t, st.Chapters)
	text := StoryText(st)
	assert.Contains(t, text, "魚を食べます")
	assert.NotContains(t, text, "ねこは", "furigana must be stripped")

	saved, err := s.Stories().Get(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.Title, saved.Title)
}

func TestImportURLErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewCatalog(openTestStore(t), nil, WithFetcher(NewFetcher(srv.Client())))
	ctx := context.Background()

	_, err := c.ImportURL(ctx, "not a url", "N5", "ja")
	assert.Error(t, err)

	_, err = c.ImportURL(ctx, srv.URL, "Z9", "ja")
	assert.ErrorIs(t, err, ErrInvalidLevel)

	_, err = c.ImportURL(ctx, srv.URL, "N5", "ja")
	assert.ErrorContains(t, err, "status 404")
}
