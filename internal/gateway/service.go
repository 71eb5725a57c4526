package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fableforge/fable-engine/internal/analytics"
	"github.com/fableforge/fable-engine/internal/config"
	"github.com/fableforge/fable-engine/internal/consistency"
	"github.com/fableforge/fable-engine/internal/health"
	"github.com/fableforge/fable-engine/internal/metrics"
	"github.com/fableforge/fable-engine/internal/prompt"
	"github.com/fableforge/fable-engine/internal/registry"
	"github.com/fableforge/fable-engine/internal/routing"
	"github.com/fableforge/fable-engine/internal/store/cache"
	"github.com/fableforge/fable-engine/internal/store/model"
	"github.com/fableforge/fable-engine/internal/story"
	"github.com/fableforge/fable-engine/pkg/api"
)

const (
	statusCacheKey = "providers:status"
	statusCacheTTL = 30 * time.Second
	summaryLimit   = 280
)

// Service is the orchestration facade the HTTP layer talks to.
type Service interface {
	GenerateStoryText(ctx context.Context, tier string, req *api.StoryRequest) (*api.StoryResponse, error)
	GenerateChapterImage(ctx context.Context, tier string, req *api.ChapterImageRequest) *api.ImageResult
	IllustrateStory(tier, storyID string, req *api.IllustrateStoryRequest) api.IllustrationJob
	IllustrationStatus(storyID string) (api.IllustrationJob, bool)

	ProvidersStatus(ctx context.Context) []api.ProviderStatusView
	SetProviderKey(ctx context.Context, providerID, key string) error
	Routing() config.RoutingConfig
	UpdateRouting(cfg config.RoutingConfig)
}

type service struct {
	logger      *zap.Logger
	engine      *routing.Engine
	registry    *registry.Registry
	monitor     *health.Monitor
	metrics     *metrics.Tracker
	consistency *consistency.Cache
	ingestor    analytics.Ingestor
	cache       cache.CacheService
	jobs        *jobTracker
}

func NewService(
	logger *zap.Logger,
	engine *routing.Engine,
	reg *registry.Registry,
	monitor *health.Monitor,
	tracker *metrics.Tracker,
	characters *consistency.Cache,
	ingestor analytics.Ingestor,
	cacheService cache.CacheService,
) Service {
	return &service{
		logger:      logger,
		engine:      engine,
		registry:    reg,
		monitor:     monitor,
		metrics:     tracker,
		consistency: characters,
		ingestor:    ingestor,
		cache:       cacheService,
		jobs:        newJobTracker(),
	}
}

// GenerateStoryText routes a story request to a text provider and structures
// the raw output into chapters with reading metadata.
func (s *service) GenerateStoryText(ctx context.Context, tier string, req *api.StoryRequest) (*api.StoryResponse, error) {
	storyID := uuid.NewString()
	start := time.Now()

	textReq := &api.TextRequest{
		SystemPrompt: storySystemPrompt(req.AgeGroup),
		Prompt:       storyUserPrompt(req),
	}

	res, err := s.engine.GenerateText(ctx, tier, textReq)
	if err != nil {
		s.logGeneration(&model.GenerationLog{
			StoryID:   storyID,
			Kind:      model.KindText,
			Tier:      tier,
			Error:     err.Error(),
			LatencyMS: time.Since(start).Milliseconds(),
		})
		return nil, err
	}

	chapters := story.ExtractChapters(res.Content)

	// A text-only story is never illustrated; blank the prompts so the
	// client has nothing to feed back into the image endpoints.
	if req.TextOnly {
		for i := range chapters {
			chapters[i].ImagePrompt = ""
		}
	}

	s.logGeneration(&model.GenerationLog{
		StoryID:    storyID,
		Kind:       model.KindText,
		ProviderID: res.Provider,
		Tier:       tier,
		Success:    true,
		LatencyMS:  time.Since(start).Milliseconds(),
		Attempts:   len(res.AttemptedProviders),
	})

	return &api.StoryResponse{
		ID:                 storyID,
		Title:              deriveTitle(res.Content, req.Theme),
		Content:            res.Content,
		Summary:            story.Summarize(res.Content, summaryLimit),
		ReadingTimeMinutes: story.ReadingTimeMinutes(res.Content),
		Chapters:           chapters,
		Provider:           res.Provider,
	}, nil
}

// GenerateChapterImage enhances the chapter into an illustration prompt,
// routes it, and feeds the produced image back into the consistency cache.
// It never fails; the worst case is a backup placeholder result.
func (s *service) GenerateChapterImage(ctx context.Context, tier string, req *api.ChapterImageRequest) *api.ImageResult {
	start := time.Now()

	sceneText := req.ChapterTitle + ". " + req.ChapterContent

	mood := req.Mood
	if mood == "" {
		mood = prompt.DetectMood(sceneText)
	}

	descriptions := make([]string, 0, len(req.CharacterNames))
	for _, name := range req.CharacterNames {
		descriptions = append(descriptions, s.consistency.Describe(req.StoryID, name))
	}

	enhanced, negative := prompt.Enhance(prompt.Params{
		Text:                  sceneText,
		Style:                 req.Style,
		Mood:                  mood,
		AgeGroup:              req.AgeGroup,
		CharacterDescriptions: descriptions,
	})

	res := s.engine.GenerateImage(ctx, tier, &api.ImageRequest{
		Prompt:         enhanced,
		NegativePrompt: negative,
		Provider:       req.ForceProvider,
		StoryID:        req.StoryID,
		ChapterID:      req.ChapterID,
	})

	if !res.IsBackup && res.ImageURL != "" {
		s.consistency.RecordIllustration(req.StoryID, req.ChapterID, req.CharacterNames, res.ImageURL, enhanced)
	}

	s.logGeneration(&model.GenerationLog{
		StoryID:    req.StoryID,
		ChapterID:  req.ChapterID,
		Kind:       model.KindImage,
		ProviderID: res.Provider,
		Tier:       tier,
		Success:    res.Success,
		IsBackup:   res.IsBackup,
		Error:      res.Error,
		LatencyMS:  time.Since(start).Milliseconds(),
		Attempts:   len(res.AttemptedProviders),
	})

	return res
}

// IllustrateStory kicks off a detached sequential run over every chapter and
// returns the processing acknowledgement immediately. Sequential on purpose:
// later chapters reuse the consistency attributes recorded by earlier ones.
func (s *service) IllustrateStory(tier, storyID string, req *api.IllustrateStoryRequest) api.IllustrationJob {
	ack := s.jobs.start(storyID, req.Chapters)

	go func() {
		ctx := context.Background()

		for i, ch := range req.Chapters {
			chapterID := ch.ID
			if chapterID == "" {
				chapterID = fmt.Sprintf("chapter-%d", i+1)
			}

			res := s.GenerateChapterImage(ctx, tier, &api.ChapterImageRequest{
				ChapterTitle:   ch.Title,
				ChapterContent: ch.Content,
				CharacterNames: namesFromPrompt(ch),
				Style:          req.Style,
				Mood:           req.Mood,
				AgeGroup:       req.AgeGroup,
				StoryID:        storyID,
				ChapterID:      chapterID,
			})

			s.jobs.chapterDone(storyID, i, res.ImageURL)
		}

		s.logger.Info("Illustration run complete",
			zap.String("story_id", storyID),
			zap.Int("chapters", len(req.Chapters)),
		)
	}()

	return ack
}

func (s *service) IllustrationStatus(storyID string) (api.IllustrationJob, bool) {
	return s.jobs.get(storyID)
}

// ProvidersStatus serves the admin listing, cached briefly so status polling
// does not hammer the registry.
func (s *service) ProvidersStatus(ctx context.Context) []api.ProviderStatusView {
	var cached []api.ProviderStatusView
	if err := s.cache.Get(ctx, statusCacheKey, &cached); err == nil {
		return cached
	}

	views := s.registry.StatusViews(s.metrics.SuccessRate)

	if err := s.cache.Set(ctx, statusCacheKey, views, statusCacheTTL); err != nil {
		s.logger.Warn("Failed to cache provider status", zap.Error(err))
	}
	return views
}

// SetProviderKey swaps a credential after syntactic validation and probes the
// provider in the background so the status listing catches up on its own.
func (s *service) SetProviderKey(ctx context.Context, providerID, key string) error {
	p, err := s.registry.SetAPIKey(providerID, key)
	if err != nil {
		return err
	}

	_ = s.cache.Delete(ctx, statusCacheKey)

	go func() {
		checkCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.monitor.Check(checkCtx, p)
	}()

	return nil
}

func (s *service) Routing() config.RoutingConfig {
	return s.engine.Routing()
}

func (s *service) UpdateRouting(cfg config.RoutingConfig) {
	s.engine.UpdateRouting(cfg)
	s.logger.Info("Routing preferences updated",
		zap.String("default_text", cfg.DefaultTextProvider),
		zap.String("default_image", cfg.DefaultImageProvider),
		zap.String("pinned_image", cfg.PinnedImageProvider),
	)
}

func (s *service) logGeneration(log *model.GenerationLog) {
	log.ID = uuid.NewString()
	log.CreatedAt = time.Now()
	s.ingestor.Log(log)
}

func storySystemPrompt(ageGroup string) string {
	return "You are a children's story author writing for the " + ageGroup + " age group. " +
		"Write a complete story split into chapters. Start each chapter with a heading " +
		"of the form 'Chapter N: Title' on its own line. After each chapter, add a line " +
		"'[ILLUSTRATION: a one-sentence visual description of the chapter's key scene]'. " +
		"Keep the language warm, simple and age-appropriate. Never include anything " +
		"frightening or violent."
}

func storyUserPrompt(req *api.StoryRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a story about %s.", strings.Join(req.Characters, " and "))
	if req.Theme != "" {
		fmt.Fprintf(&sb, " The theme is %s.", req.Theme)
	}
	if req.ChildName != "" {
		fmt.Fprintf(&sb, " The story is for a child named %s; address them warmly at the start and the end.", req.ChildName)
	}
	return sb.String()
}

// deriveTitle prefers an explicit "Title:" line in the output and falls back
// to a theme-derived one.
func deriveTitle(content, theme string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, "Title:"); ok {
			if title := strings.TrimSpace(rest); title != "" {
				return title
			}
		}
		if trimmed != "" {
			break
		}
	}

	if theme == "" {
		return "A New Story"
	}
	return "A Story of " + strings.TrimSpace(theme)
}

// namesFromPrompt pulls character names for a chapter from its illustration
// prompt when the caller did not list any.
func namesFromPrompt(ch api.Chapter) []string {
	source := ch.ImagePrompt
	if source == "" {
		source = ch.Content
	}
	return prompt.CharacterNames(source)
}
