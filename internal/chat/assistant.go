package chat

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Assistant is the external collaborator contract for generating replies.
// Implementations are invoked asynchronously; the conversation stays
// responsive to further input while a reply is pending.
type Assistant interface {
	Respond(ctx context.Context, history []Message) (string, error)
}

const systemPrompt = "You are a helpful assistant in a medical portal. " +
	"Answer general questions clearly and briefly. You are not a doctor: for " +
	"anything diagnostic, advise the user to consult a medical professional."

type openAIAssistant struct {
	client *openai.Client
	model  string
}

// NewOpenAIAssistant wires the OpenAI chat completion API as the assistant
// collaborator.
func NewOpenAIAssistant(apiKey, model string) Assistant {
	return &openAIAssistant{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (a *openAIAssistant) Respond(ctx context.Context, history []Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Sender == FromAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    msgs,
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
