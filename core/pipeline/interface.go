package pipeline

// EmbedFunc is a function that generates embeddings for text.
// It must return equal-length vectors for any text within one pipeline run.
type EmbedFunc func(text string) ([]float32, error)

// LabelFunc is a function that generates free text from a prompt.
// Used both for group titling and for relation phrases; failures are surfaced
// as error text in the output structures, not as exceptions escaping a stage.
type LabelFunc func(prompt string) (string, error)

// GenerateFunc is a function that generates a structured event response
// (JSON text) from a prompt.
type GenerateFunc func(prompt string) (string, error)
