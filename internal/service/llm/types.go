package llm

import (
	"context"
	"errors"
)

// ErrEmptyAnswer 模型没有返回任何文本
var ErrEmptyAnswer = errors.New("llm returned empty answer")

type Question struct {
	// System 系统指令, 可为空
	System  string
	Content string
}

type Answer struct {
	Content     string
	InputToken  int
	OutputToken int
}

type Service interface {
	AskOnce(ctx context.Context, q Question) (Answer, error)
}
