package gpt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"nutrition-bot/internal/models"
)

const systemPrompt = `You are a nutrition assistant. Break the user's meal description into individual foods.
Respond with JSON only, in the form {"items":[{"food_name":string,"quantity":string,"calories":number,"protein":number,"carbs":number,"fat":number}]}.
Macros are grams, calories are kcal, estimated for the stated or a typical portion.`

type Client struct {
	client *openai.Client
	model  string
}

func NewClient(apiKey string) *Client {
	return &Client{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4oMini,
	}
}

// NewClientWithBaseURL points the client at an OpenAI-compatible endpoint.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.GPT4oMini,
	}
}

func (c *Client) WithModel(model string) *Client {
	if model != "" {
		c.model = model
	}
	return c
}

type parsedMeal struct {
	Items []models.MealItem `json:"items"`
}

// ParseMeal asks the model to itemize a free-text meal description.
func (c *Client) ParseMeal(ctx context.Context, description string) ([]models.MealItem, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: description,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		MaxTokens:   800,
		Temperature: 0.2,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("meal parsing request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from GPT API")
	}

	return decodeItems(resp.Choices[0].Message.Content)
}

func decodeItems(content string) ([]models.MealItem, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var out parsedMeal
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("failed to decode meal items: %w", err)
	}

	items := out.Items[:0]
	for _, it := range out.Items {
		it.FoodName = strings.TrimSpace(it.FoodName)
		if it.FoodName == "" {
			continue
		}
		if it.Calories < 0 || it.Protein < 0 || it.Carbs < 0 || it.Fat < 0 {
			return nil, fmt.Errorf("negative nutrition values for %q", it.FoodName)
		}
		items = append(items, it)
	}
	return items, nil
}
