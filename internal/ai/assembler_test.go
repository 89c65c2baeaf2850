package ai

import (
	"testing"
	"time"

	"github.com/Vovarama1992/relay_bot/internal/history"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func TestAssemblePayload_ConversationScenario(t *testing.T) {
	h := history.NewBucket(time.Hour)
	_, err := h.Record("g1:c1", history.RoleUser, "alice", "2+2?")
	require.NoError(t, err)
	_, err = h.Record("g1:c2", history.RoleUser, "bob", "unrelated")
	require.NoError(t, err)

	got := AssemblePayload(h, "g1:c1", "You are terse.")
	require.Equal(t, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "You are terse."},
		{Role: openai.ChatMessageRoleUser, Content: "2+2?", Name: "alice"},
	}, got)
}

func TestAssemblePayload_OrderAndNames(t *testing.T) {
	h := history.NewBucket(time.Hour)
	_, _ = h.Record("k", history.RoleUser, "alice", "hi")
	_, _ = h.Record("k", history.RoleAssistant, "bot", "hello")
	_, _ = h.Record("k", history.RoleUser, "John Smith", "yo")

	got := AssemblePayload(h, "k", "sys")
	require.Len(t, got, 4)
	require.Equal(t, []string{"system", "user", "assistant", "user"},
		[]string{got[0].Role, got[1].Role, got[2].Role, got[3].Role})
	require.Empty(t, got[2].Name)
	require.Equal(t, "John_Smith", got[3].Name)
}

func TestAssemblePayload_Deterministic(t *testing.T) {
	h := history.NewBucket(time.Hour)
	_, _ = h.Record("k", history.RoleUser, "alice", "one")
	_, _ = h.Record("k", history.RoleAssistant, "", "two")

	require.Equal(t, AssemblePayload(h, "k", "sys"), AssemblePayload(h, "k", "sys"))
}

func TestAssemblePayload_EmptyHistory(t *testing.T) {
	got := AssemblePayload(history.NewBucket(time.Minute), "k", "sys")
	require.Len(t, got, 1)
}
