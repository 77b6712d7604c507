package store

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicate is returned when a unique key already exists.
var ErrDuplicate = errors.New("already exists")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // id > After
	Before int64     // id < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To

	// Purpose, when set, keeps only events with that purpose.
	Purpose string
}

// Skills holds the six skill scores, each 0–100.
type Skills struct {
	Vocabulary float64 `json:"vocabulary"`
	Grammar    float64 `json:"grammar"`
	Reading    float64 `json:"reading"`
	Listening  float64 `json:"listening"`
	Writing    float64 `json:"writing"`
	Speaking   float64 `json:"speaking"`
}

// Average returns the mean of the six skill scores.
func (s Skills) Average() float64 {
	return (s.Vocabulary + s.Grammar + s.Reading + s.Listening + s.Writing + s.Speaking) / 6
}

// LearnerProfile is the per-user, per-language learner state.
type LearnerProfile struct {
	UserID            string    `json:"user_id"`
	Language          string    `json:"language"`
	Skills            Skills    `json:"skills"`
	AbilityEstimate   float64   `json:"ability_estimate"`
	AbilityConfidence float64   `json:"ability_confidence"`
	Activities        int       `json:"activities"`
	Readiness         string    `json:"readiness"`
	Interests         []string  `json:"interests"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SkillSnapshot is the end-of-day skill state for charting. Day is
// formatted "2006-01-02" in UTC.
type SkillSnapshot struct {
	UserID          string  `json:"-"`
	Language        string  `json:"-"`
	Day             string  `json:"day"`
	Skills          Skills  `json:"skills"`
	AbilityEstimate float64 `json:"ability_estimate"`
}

// VocabularyItem is a word in a learner's personal vocabulary.
type VocabularyItem struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Language        string     `json:"language"`
	Word            string     `json:"word"`
	Reading         string     `json:"reading,omitempty"`
	Definitions     []string   `json:"definitions"`
	MasteryState    string     `json:"mastery_state"`
	SourceDeckID    string     `json:"source_deck_id,omitempty"`
	Stage           int        `json:"stage"`
	ConsecutiveHits int        `json:"consecutive_hits"`
	ReviewCount     int        `json:"review_count"`
	NextReviewAt    time.Time  `json:"next_review_at"`
	LastReviewedAt  *time.Time `json:"last_reviewed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// VocabFilter narrows vocabulary listings. Empty fields match everything.
type VocabFilter struct {
	UserID       string
	Language     string
	MasteryState string
	SourceDeckID string
	Limit        int
	Offset       int
}

// Deck is a premade vocabulary deck.
type Deck struct {
	ID          string    `json:"id"`
	Language    string    `json:"language"`
	Name        string    `json:"name"`
	Level       string    `json:"level"`
	Description string    `json:"description,omitempty"`
	TotalWords  int       `json:"total_words"`
	CreatedAt   time.Time `json:"created_at"`
}

// DeckWord is one entry of a deck, in drip order.
type DeckWord struct {
	DeckID      string   `json:"deck_id"`
	Position    int      `json:"position"`
	Word        string   `json:"word"`
	Reading     string   `json:"reading,omitempty"`
	Definitions []string `json:"definitions"`
}

// DeckSubscription links a learner to a deck.
type DeckSubscription struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	DeckID           string    `json:"deck_id"`
	Status           string    `json:"status"`
	TotalWordsInDeck int       `json:"total_words_in_deck"`
	WordsAdded       int       `json:"words_added"`
	WordsStudied     int       `json:"words_studied"`
	DailyNewCards    int       `json:"daily_new_cards"`
	CardsAddedToday  int       `json:"cards_added_today"`
	LastDripDate     string    `json:"last_drip_date,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ContentView records that a learner opened (or finished) a content item.
type ContentView struct {
	UserID      string    `json:"user_id"`
	ContentType string    `json:"content_type"`
	ContentID   string    `json:"content_id"`
	Completed   bool      `json:"completed"`
	ViewedAt    time.Time `json:"viewed_at"`
}

// Chapter is one chapter of a story.
type Chapter struct {
	Title      string   `json:"title"`
	Paragraphs []string `json:"paragraphs"`
	ImageURL   string   `json:"image_url,omitempty"`
	AudioURL   string   `json:"audio_url,omitempty"`
}

// Question is a multiple-choice comprehension question.
type Question struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
}

// Story is a graded reader.
type Story struct {
	ID            string     `json:"id"`
	Language      string     `json:"language"`
	Level         string     `json:"level"`
	Title         string     `json:"title"`
	TitleNative   string     `json:"title_native,omitempty"`
	Genre         string     `json:"genre"`
	Summary       string     `json:"summary,omitempty"`
	Tags          []string   `json:"tags"`
	Chapters      []Chapter  `json:"chapters"`
	Vocabulary    []string   `json:"vocabulary"`
	Questions     []Question `json:"questions"`
	IsPremium     bool       `json:"is_premium"`
	CoverImageURL string     `json:"cover_image_url,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ContentFilter narrows story and video listings.
type ContentFilter struct {
	Language string
	Level    string
	Limit    int
	Offset   int
}

// Video is a video lesson with a transcript.
type Video struct {
	ID         string     `json:"id"`
	Language   string     `json:"language"`
	Level      string     `json:"level"`
	Title      string     `json:"title"`
	Genre      string     `json:"genre"`
	URL        string     `json:"url"`
	Transcript string     `json:"transcript,omitempty"`
	Vocabulary []string   `json:"vocabulary"`
	Questions  []Question `json:"questions"`
	CreatedAt  time.Time  `json:"created_at"`
}

// DictionaryEntry is one dictionary headword.
type DictionaryEntry struct {
	ID           int64    `json:"id"`
	Language     string   `json:"language"`
	Word         string   `json:"word"`
	Reading      string   `json:"reading,omitempty"`
	Meanings     []string `json:"meanings"`
	PartOfSpeech string   `json:"part_of_speech,omitempty"`
	Level        string   `json:"level,omitempty"`
}

// Media asset kinds.
const (
	MediaImage         = "image"
	MediaSentenceAudio = "sentence_audio"
	MediaWordAudio     = "word_audio"
)

// MediaAsset is a stored media URL owned by a story, sentence or word.
type MediaAsset struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	OwnerID   string    `json:"owner_id"`
	URL       string    `json:"url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GenerationJob tracks an asynchronous story generation. Request holds
// the JSON-encoded request.
type GenerationJob struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	Request   string    `json:"-"`
	StoryID   string    `json:"story_id,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates token usage by purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates token usage by model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// ProfileRepo persists learner profiles. Profiles are never deleted.
type ProfileRepo interface {
	Get(ctx context.Context, userID, language string) (*LearnerProfile, error)
	Upsert(ctx context.Context, p *LearnerProfile) error
}

// SkillSnapshotRepo persists one skill snapshot per user, language and day.
type SkillSnapshotRepo interface {
	Upsert(ctx context.Context, snap SkillSnapshot) error

	// Range returns snapshots with fromDay <= day <= toDay, oldest first.
	Range(ctx context.Context, userID, language, fromDay, toDay string) ([]SkillSnapshot, error)
}

// VocabRepo persists vocabulary items.
type VocabRepo interface {
	// Create inserts item, returning ErrDuplicate when the user already
	// has the word in that language.
	Create(ctx context.Context, item *VocabularyItem) error
	Get(ctx context.Context, id string) (*VocabularyItem, error)
	FindByWord(ctx context.Context, userID, language, word string) (*VocabularyItem, error)
	List(ctx context.Context, f VocabFilter) ([]VocabularyItem, error)
	Update(ctx context.Context, item *VocabularyItem) error
	CountByState(ctx context.Context, userID, language string) (map[string]int, error)
	Due(ctx context.Context, userID, language string, now time.Time, limit int) ([]VocabularyItem, error)
	DueCount(ctx context.Context, userID, language string, now time.Time) (int, error)
	Words(ctx context.Context, userID, language string) ([]string, error)
	CountCreatedSince(ctx context.Context, userID, language string, since time.Time) (int, error)
}

// DeckRepo persists premade decks and their words.
type DeckRepo interface {
	// Save creates or replaces a deck together with its words.
	Save(ctx context.Context, d *Deck, words []DeckWord) error
	Get(ctx context.Context, id string) (*Deck, error)
	List(ctx context.Context, language string) ([]Deck, error)

	// Words returns up to limit words with position >= from, in order.
	Words(ctx context.Context, deckID string, from, limit int) ([]DeckWord, error)
}

// SubscriptionRepo persists deck subscriptions.
type SubscriptionRepo interface {
	// Create inserts sub, returning ErrDuplicate for an existing
	// (user, deck) pair.
	Create(ctx context.Context, sub *DeckSubscription) error
	Get(ctx context.Context, userID, deckID string) (*DeckSubscription, error)
	ListByUser(ctx context.Context, userID string) ([]DeckSubscription, error)
	ListByStatus(ctx context.Context, status string) ([]DeckSubscription, error)
	Update(ctx context.Context, sub *DeckSubscription) error
	Delete(ctx context.Context, userID, deckID string) error
}

// ViewRepo records content consumption.
type ViewRepo interface {
	// Record inserts or refreshes a view. A completed view stays completed.
	Record(ctx context.Context, v ContentView) error
	List(ctx context.Context, userID, contentType string) ([]ContentView, error)
	Since(ctx context.Context, userID string, since time.Time) ([]ContentView, error)
}

// StoryRepo persists stories.
type StoryRepo interface {
	Save(ctx context.Context, s *Story) error
	Get(ctx context.Context, id string) (*Story, error)
	List(ctx context.Context, f ContentFilter) ([]Story, error)

	// MissingQuestions returns stories with no comprehension questions.
	MissingQuestions(ctx context.Context, limit int) ([]Story, error)
}

// VideoRepo persists videos.
type VideoRepo interface {
	Save(ctx context.Context, v *Video) error
	Get(ctx context.Context, id string) (*Video, error)
	List(ctx context.Context, f ContentFilter) ([]Video, error)
}

// DictionaryRepo persists dictionary entries.
type DictionaryRepo interface {
	Insert(ctx context.Context, entries []DictionaryEntry) (int, error)

	// Exact matches term against word or reading.
	Exact(ctx context.Context, language, term string) ([]DictionaryEntry, error)

	// Prefix matches words or readings starting with prefix.
	Prefix(ctx context.Context, language, prefix string, limit int) ([]DictionaryEntry, error)
}

// MediaRepo persists media asset URLs.
type MediaRepo interface {
	Upsert(ctx context.Context, a MediaAsset) error
	Get(ctx context.Context, id string) (*MediaAsset, error)

	// EncodedAfter returns assets whose URL contains a percent sign, with
	// id > afterID, ordered by id.
	EncodedAfter(ctx context.Context, afterID string, limit int) ([]MediaAsset, error)
	UpdateURL(ctx context.Context, id, url string, now time.Time) error
}

// JobRepo persists generation jobs.
type JobRepo interface {
	Create(ctx context.Context, j *GenerationJob) error
	Get(ctx context.Context, id string) (*GenerationJob, error)
	Update(ctx context.Context, j *GenerationJob) error

	// ListByStatus returns jobs in the given status, oldest first.
	ListByStatus(ctx context.Context, status string) ([]GenerationJob, error)

	// Recent returns up to limit jobs, newest first. An empty status matches
	// every job.
	Recent(ctx context.Context, status string, limit int) ([]GenerationJob, error)
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns nil, nil when id does not exist.
	GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEventRecord, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}
