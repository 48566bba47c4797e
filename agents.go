package main

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
	"github.com/spf13/cobra"

	"github.com/aktagon/articles-client/internal/api"
	"github.com/aktagon/articles-client/internal/output"
)

//go:embed prompts/draft-system-prompt.md
var draftSystemPrompt string

//go:embed prompts/draft-schema.json
var draftSchema string

// promptFunc sends one structured prompt and returns the first text block
type promptFunc func(systemPrompt, userPrompt, schema, apiKey string, settings types.RequestSettings) (string, error)

func anthropicPrompt(systemPrompt, userPrompt, schema, apiKey string, settings types.RequestSettings) (string, error) {
	response, err := anthropic.PromptWithSettings(systemPrompt, userPrompt, schema, apiKey, settings)
	if err != nil {
		return "", err
	}
	if len(response.Content) == 0 {
		return "", errors.New("no content in response")
	}
	return response.Content[0].Text, nil
}

// Drafter asks the model for an article on a topic
type Drafter struct {
	apiKey       string
	settings     DraftSettings
	systemPrompt string
	prompt       promptFunc
	logger       *slog.Logger
}

// NewDrafter creates a Drafter. The system prompt is read from
// settings.SystemPromptPath when set.
func NewDrafter(apiKey string, settings DraftSettings) (*Drafter, error) {
	if apiKey == "" {
		return nil, errors.New("API key required: use --api-key flag or ANTHROPIC_API_KEY environment variable")
	}

	systemPrompt := draftSystemPrompt
	if settings.SystemPromptPath != "" {
		b, err := os.ReadFile(settings.SystemPromptPath)
		if err != nil {
			return nil, fmt.Errorf("reading draft system prompt: %w", err)
		}
		systemPrompt = string(b)
	}
	if !strings.Contains(systemPrompt, "{{.topic}}") {
		return nil, fmt.Errorf("draft system prompt template must contain {{.topic}} variable")
	}

	l := logger
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	return &Drafter{
		apiKey:       apiKey,
		settings:     settings,
		systemPrompt: systemPrompt,
		prompt:       anthropicPrompt,
		logger:       l,
	}, nil
}

// Draft writes an article about topic. A non-empty title is kept as is.
func (d *Drafter) Draft(topic, title string) (*api.ArticleInput, error) {
	d.logger.Info("drafting article", "topic", topic, "model", d.settings.Model)

	systemPrompt := strings.ReplaceAll(d.systemPrompt, "{{.topic}}", topic)
	userPrompt := fmt.Sprintf("Write an article about %s.", topic)
	if title != "" {
		userPrompt = fmt.Sprintf("Write an article about %s titled %q. Return that title unchanged.", topic, title)
	}

	settings := types.RequestSettings{
		Model:       d.settings.Model,
		MaxTokens:   d.settings.MaxTokens,
		Temperature: d.settings.Temperature,
	}
	text, err := d.prompt(systemPrompt, userPrompt, draftSchema, d.apiKey, settings)
	if err != nil {
		return nil, fmt.Errorf("draft agent failed: %w", err)
	}

	var draft struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	}
	if err := json.Unmarshal([]byte(text), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse draft structured response: %w", err)
	}
	if title != "" {
		draft.Title = title
	}
	if strings.TrimSpace(draft.Title) == "" || strings.TrimSpace(draft.Text) == "" {
		return nil, errors.New("draft response is missing a title or text")
	}

	d.logger.Debug("draft ready", "title", draft.Title, "chars", len(draft.Text))
	return &api.ArticleInput{Title: draft.Title, Text: draft.Text, Topic: topic}, nil
}

func newDraftCmd() *cobra.Command {
	var (
		apiKey string
		topic  string
		title  string
		post   bool
	)

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Draft an article with AI and optionally post it",
		Args:  withUsage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if topic == "" {
				return usageError(errors.New("--topic is required"))
			}
			if err := checkTopic(topic); err != nil {
				return err
			}

			key := apiKey
			if key == "" {
				key = os.Getenv("ANTHROPIC_API_KEY")
			}
			drafter, err := NewDrafter(key, settings.Draft)
			if err != nil {
				return &output.CLIError{Summary: err.Error(), ExitCode: output.ExitConfigError}
			}
			return runDraft(cmd, drafter, topic, title, post)
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "Anthropic API key")
	cmd.Flags().StringVar(&topic, "topic", "", "article topic: "+strings.Join(topics, ", "))
	cmd.Flags().StringVar(&title, "title", "", "use this title instead of a generated one")
	cmd.Flags().BoolVar(&post, "post", false, "post the draft instead of printing it")
	return cmd
}

func runDraft(cmd *cobra.Command, drafter *Drafter, topic, title string, post bool) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	if post {
		if err := app.requireLogin(ctx); err != nil {
			return err
		}
	}

	draft, err := drafter.Draft(topic, title)
	if err != nil {
		return err
	}
	if !post {
		return printArticle(printer, api.Article{Title: draft.Title, Text: draft.Text, Topic: draft.Topic}, false)
	}

	app.run(func() { app.ctrl.PostArticle(ctx, *draft) })
	return app.report()
}
