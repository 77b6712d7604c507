package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Column helpers. JSON payloads are stored as text and decoded by the
// repos, so every column maps onto a plain scannable Go type.
func strCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString}
}

func textCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Size: 1 << 24, Default: ""}
}

func intCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeInt, Default: 0}
}

func int64Col(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeInt64, Default: 0}
}

func floatCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeFloat64, Default: 0}
}

func boolCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeBool, Default: false}
}

func timeCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeTime}
}

func nullTimeCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeTime, Nullable: true}
}

func serialCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeInt64, Increment: true}
}

// newTable builds a table whose primary key is the named columns.
func newTable(name string, cols []*schema.Column, pk ...string) *schema.Table {
	t := &schema.Table{Name: name, Columns: cols}
	for _, c := range cols {
		for _, k := range pk {
			if c.Name == k {
				t.PrimaryKey = append(t.PrimaryKey, c)
			}
		}
	}
	return t
}

// index adds an index over the named columns.
func index(t *schema.Table, name string, unique bool, cols ...string) {
	idx := &schema.Index{Name: name, Unique: unique}
	for _, n := range cols {
		for _, c := range t.Columns {
			if c.Name == n {
				idx.Columns = append(idx.Columns, c)
			}
		}
	}
	t.Indexes = append(t.Indexes, idx)
}

const (
	tableProfiles      = "learner_profiles"
	tableSnapshots     = "skill_snapshots"
	tableVocabulary    = "vocabulary_items"
	tableDecks         = "decks"
	tableDeckWords     = "deck_words"
	tableSubscriptions = "deck_subscriptions"
	tableViews         = "content_views"
	tableStories       = "stories"
	tableVideos        = "videos"
	tableDictionary    = "dictionary_entries"
	tableMedia         = "media_assets"
	tableJobs          = "generation_jobs"
	tableLLMEvents     = "llm_request_events"
)

var (
	ProfilesTable = newTable(tableProfiles, []*schema.Column{
		strCol("user_id"),
		strCol("language"),
		floatCol("vocabulary"),
		floatCol("grammar"),
		floatCol("reading"),
		floatCol("listening"),
		floatCol("writing"),
		floatCol("speaking"),
		floatCol("ability_estimate"),
		floatCol("ability_confidence"),
		intCol("activities"),
		strCol("readiness"),
		textCol("interests"),
		timeCol("created_at"),
		timeCol("updated_at"),
	}, "user_id", "language")

	SnapshotsTable = newTable(tableSnapshots, []*schema.Column{
		strCol("user_id"),
		strCol("language"),
		strCol("day"),
		floatCol("vocabulary"),
		floatCol("grammar"),
		floatCol("reading"),
		floatCol("listening"),
		floatCol("writing"),
		floatCol("speaking"),
		floatCol("ability_estimate"),
	}, "user_id", "language", "day")

	VocabularyTable = newTable(tableVocabulary, []*schema.Column{
		strCol("id"),
		strCol("user_id"),
		strCol("language"),
		strCol("word"),
		strCol("reading"),
		textCol("definitions"),
		strCol("mastery_state"),
		strCol("source_deck_id"),
		intCol("stage"),
		intCol("consecutive_hits"),
		intCol("review_count"),
		timeCol("next_review_at"),
		nullTimeCol("last_reviewed_at"),
		timeCol("created_at"),
		timeCol("updated_at"),
	}, "id")

	DecksTable = newTable(tableDecks, []*schema.Column{
		strCol("id"),
		strCol("language"),
		strCol("name"),
		strCol("level"),
		textCol("description"),
		intCol("total_words"),
		timeCol("created_at"),
	}, "id")

	DeckWordsTable = newTable(tableDeckWords, []*schema.Column{
		strCol("deck_id"),
		intCol("position"),
		strCol("word"),
		strCol("reading"),
		textCol("definitions"),
	}, "deck_id", "position")

	SubscriptionsTable = newTable(tableSubscriptions, []*schema.Column{
		strCol("id"),
		strCol("user_id"),
		strCol("deck_id"),
		strCol("status"),
		intCol("total_words_in_deck"),
		intCol("words_added"),
		intCol("words_studied"),
		intCol("daily_new_cards"),
		intCol("cards_added_today"),
		strCol("last_drip_date"),
		timeCol("created_at"),
		timeCol("updated_at"),
	}, "id")

	ViewsTable = newTable(tableViews, []*schema.Column{
		strCol("user_id"),
		strCol("content_type"),
		strCol("content_id"),
		boolCol("completed"),
		timeCol("viewed_at"),
	}, "user_id", "content_type", "content_id")

	StoriesTable = newTable(tableStories, []*schema.Column{
		strCol("id"),
		strCol("language"),
		strCol("level"),
		strCol("title"),
		strCol("title_native"),
		strCol("genre"),
		textCol("summary"),
		textCol("tags"),
		textCol("chapters"),
		textCol("vocabulary"),
		textCol("questions"),
		boolCol("is_premium"),
		strCol("cover_image_url"),
		timeCol("created_at"),
		timeCol("updated_at"),
	}, "id")

	VideosTable = newTable(tableVideos, []*schema.Column{
		strCol("id"),
		strCol("language"),
		strCol("level"),
		strCol("title"),
		strCol("genre"),
		strCol("url"),
		textCol("transcript"),
		textCol("vocabulary"),
		textCol("questions"),
		timeCol("created_at"),
	}, "id")

	DictionaryTable = newTable(tableDictionary, []*schema.Column{
		serialCol("id"),
		strCol("language"),
		strCol("word"),
		strCol("reading"),
		textCol("meanings"),
		strCol("part_of_speech"),
		strCol("level"),
	}, "id")

	MediaTable = newTable(tableMedia, []*schema.Column{
		strCol("id"),
		strCol("kind"),
		strCol("owner_id"),
		textCol("url"),
		timeCol("updated_at"),
	}, "id")

	JobsTable = newTable(tableJobs, []*schema.Column{
		strCol("id"),
		strCol("status"),
		intCol("progress"),
		textCol("request"),
		strCol("story_id"),
		textCol("error"),
		timeCol("created_at"),
		timeCol("updated_at"),
	}, "id")

	LLMEventsTable = newTable(tableLLMEvents, []*schema.Column{
		serialCol("id"),
		timeCol("created_at"),
		strCol("provider"),
		strCol("model"),
		strCol("purpose"),
		intCol("input_tokens"),
		intCol("output_tokens"),
		int64Col("latency_ms"),
		boolCol("success"),
		textCol("error_message"),
		textCol("request_body"),
		textCol("response_body"),
	}, "id")

	// Tables lists every table migrated by Open.
	Tables = []*schema.Table{
		ProfilesTable,
		SnapshotsTable,
		VocabularyTable,
		DecksTable,
		DeckWordsTable,
		SubscriptionsTable,
		ViewsTable,
		StoriesTable,
		VideosTable,
		DictionaryTable,
		MediaTable,
		JobsTable,
		LLMEventsTable,
	}
)

func init() {
	index(VocabularyTable, "vocabulary_user_lang_word", true, "user_id", "language", "word")
	index(VocabularyTable, "vocabulary_user_next_review", false, "user_id", "next_review_at")
	index(SubscriptionsTable, "subscription_user_deck", true, "user_id", "deck_id")
	index(StoriesTable, "story_lang_level", false, "language", "level")
	index(VideosTable, "video_lang_level", false, "language", "level")
	index(DictionaryTable, "dictionary_lang_word", false, "language", "word")
	index(DictionaryTable, "dictionary_lang_reading", false, "language", "reading")
	index(MediaTable, "media_kind", false, "kind")
	index(LLMEventsTable, "llm_event_purpose", false, "purpose")
}
