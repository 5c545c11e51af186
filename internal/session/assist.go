package session

import (
	"context"
	"strings"

	"github.com/matsen/scholargraph/internal/analysis"
	"github.com/matsen/scholargraph/internal/client"
)

// Chat asks a question about the current graph. The question is added to
// the transcript immediately and the answer when it arrives. Papers the
// answer points at become the highlight set.
func (s *Session) Chat(ctx context.Context, question string) (analysis.ChatMessage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return analysis.ChatMessage{}, ErrEmptyQuery
	}
	const mode = graphScoped
	t, st := s.beginOnState(ChannelChat)
	defer s.end(t)

	if !st.HasGraph() {
		return analysis.ChatMessage{}, ErrNoGraph
	}

	user := analysis.ChatMessage{Role: analysis.RoleUser, Content: question}
	if err := s.commit(t, mode, func() { s.store.AddChatMessage(user) }); err != nil {
		return analysis.ChatMessage{}, err
	}

	reply, err := s.backend.Chat(ctx, client.ChatRequest{
		Query:    question,
		Nodes:    st.Graph.Nodes,
		Edges:    st.Graph.Edges,
		Clusters: st.Graph.Clusters,
		History:  st.Chat,
		LLM:      s.llm,
	})
	if err != nil {
		return analysis.ChatMessage{}, s.fail(t, mode, "chat", err)
	}

	err = s.commit(t, mode, func() {
		s.store.AddChatMessage(reply)
		if len(reply.HighlightedPapers) > 0 {
			s.store.SetHighlightedPapers(reply.HighlightedPapers)
		}
	})
	if err != nil {
		return analysis.ChatMessage{}, err
	}
	return reply, nil
}

// GenerateLitReview writes a literature review of the current graph,
// folding in the trend and gap analyses when present.
func (s *Session) GenerateLitReview(ctx context.Context) (*analysis.LitReview, error) {
	const mode = replaces | graphScoped
	t, st := s.beginOnState(ChannelLitReview)
	defer s.end(t)

	if !st.HasGraph() {
		return nil, ErrNoGraph
	}

	req := client.LitReviewRequest{
		Nodes:    st.Graph.Nodes,
		Edges:    st.Graph.Edges,
		Clusters: st.Graph.Clusters,
		Trends:   st.Trends,
		LLM:      s.llm,
	}
	if st.Gaps != nil {
		req.Gaps = st.Gaps.Gaps
	}

	lr, err := s.backend.GenerateLitReview(ctx, req)
	if err != nil {
		return nil, s.fail(t, mode, "literature review", err)
	}
	if err := s.commit(t, mode, func() { s.store.SetLitReview(lr) }); err != nil {
		return nil, err
	}
	return lr, nil
}
