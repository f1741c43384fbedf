package llm

import (
	"context"
	"strings"
)

// Static is a Client that returns a fixed reply without any network call.
// It serves offline runs and tests.
type Static struct {
	Reply string
}

// Complete returns the fixed reply.
func (s Static) Complete(ctx context.Context, _ Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(s.Reply) == "" {
		return "", ErrEmptyReply
	}
	return s.Reply, nil
}
