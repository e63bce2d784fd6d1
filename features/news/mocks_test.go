package news_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"governai/internal/article"
	"governai/internal/digest"
	"governai/internal/pipeline"
	"governai/internal/retrieval"
)

type MockSessions struct{ mock.Mock }

func (m *MockSessions) Get(ctx context.Context, w pipeline.Window, refresh bool) (*pipeline.Session, error) {
	args := m.Called(ctx, w, refresh)
	if s := args.Get(0); s != nil {
		return s.(*pipeline.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessions) List() []*pipeline.Session {
	args := m.Called()
	if s := args.Get(0); s != nil {
		return s.([]*pipeline.Session)
	}
	return nil
}

type MockResponder struct{ mock.Mock }

func (m *MockResponder) Answer(ctx context.Context, question string, r retrieval.Retriever) retrieval.Answer {
	args := m.Called(ctx, question, r)
	return args.Get(0).(retrieval.Answer)
}

type MockDigester struct{ mock.Mock }

func (m *MockDigester) Build(ctx context.Context, items []article.Article) digest.Digest {
	args := m.Called(ctx, items)
	return args.Get(0).(digest.Digest)
}
