package port

import "context"

// Generator is a text-completion model used to synthesize answers.
type Generator interface {
	// Complete returns the model's answer for the prompt.
	Complete(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
