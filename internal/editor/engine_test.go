package editor

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/document"
	"docchat/internal/llm"
)

const seedAck = "Understood. Send me your edit requests."

func newEngine(replies ...llm.Reply) (*Engine, *llm.ScriptedProvider) {
	provider := llm.NewScriptedProvider(replies...)
	return NewEngine(document.NewStore(), provider), provider
}

// firstUserMessage returns the opening message of the conversation the provider saw.
func firstUserMessage(t *testing.T, call []llm.Message) string {
	t.Helper()
	for _, m := range call {
		if m.Role == llm.RoleUser {
			return m.Content
		}
	}
	t.Fatal("conversation has no user message")
	return ""
}

func TestEngine_BoldTotalScenario(t *testing.T) {
	engine, _ := newEngine(
		llm.Reply{Text: seedAck},
		llm.Reply{Text: "EXPLANATION: Bolded the total\nHTML: <p><b>Total: 100</b></p>"},
	)
	ctx := context.Background()

	engine.SetHTML(ctx, "<html><body><p>Total: 100</p></body></html>")
	require.True(t, engine.Seeded())

	turn := engine.Chat(ctx, "make the total bold")

	assert.True(t, turn.Applied)
	assert.Equal(t, "Bolded the total", turn.Explanation)
	assert.Equal(t, "<p><b>Total: 100</b></p>", turn.HTML)
	assert.Equal(t, "<p><b>Total: 100</b></p>", engine.Store().Get())
}

func TestEngine_NonConformingReplyNeverMutates(t *testing.T) {
	const original = "<p>Total: 100</p>"
	const prose = "I'd be happy to help, but could you clarify which total?"

	engine, _ := newEngine(llm.Reply{Text: seedAck}, llm.Reply{Text: prose})
	ctx := context.Background()
	engine.SetHTML(ctx, original)
	revision := engine.Store().Revision()

	for i := 0; i < 3; i++ {
		turn := engine.Chat(ctx, "make it nicer")

		assert.False(t, turn.Applied)
		assert.Equal(t, prose, turn.Explanation)
		assert.Equal(t, original, turn.HTML)
	}

	assert.Equal(t, original, engine.Store().Get())
	assert.Equal(t, revision, engine.Store().Revision())
}

func TestEngine_SecondSetHTMLWins(t *testing.T) {
	engine, provider := newEngine(
		llm.Reply{Text: seedAck},
		llm.Reply{Text: seedAck},
		llm.Reply{Text: "no markers here"},
	)
	ctx := context.Background()

	engine.SetHTML(ctx, "<p>first</p>")
	engine.SetHTML(ctx, "<p>second</p>")
	turn := engine.Chat(ctx, "what do you see?")

	assert.Equal(t, "<p>second</p>", turn.HTML)

	calls := provider.Calls()
	require.Len(t, calls, 3)
	chatCall := calls[2]
	seed := firstUserMessage(t, chatCall)
	assert.Contains(t, seed, "<p>second</p>")
	assert.NotContains(t, seed, "<p>first</p>")
	for _, m := range chatCall {
		assert.NotContains(t, m.Content, "<p>first</p>", "stale document leaked into the conversation")
	}
}

func TestEngine_UpstreamErrorKeepsDocument(t *testing.T) {
	engine, _ := newEngine(
		llm.Reply{Text: seedAck},
		llm.Reply{Err: errors.New("upstream timeout")},
	)
	ctx := context.Background()
	engine.SetHTML(ctx, "<p>keep me</p>")

	turn := engine.Chat(ctx, "delete everything")

	assert.False(t, turn.Applied)
	assert.True(t, strings.HasPrefix(turn.Explanation, "Error processing request: "))
	assert.Contains(t, turn.Explanation, "upstream timeout")
	assert.Equal(t, "<p>keep me</p>", turn.HTML)
	assert.Equal(t, uint64(1), engine.Store().Revision())
}

func TestEngine_FailedSeedIsRetriedOnChat(t *testing.T) {
	engine, provider := newEngine(
		llm.Reply{Err: errors.New("connection reset")},
		llm.Reply{Text: seedAck},
		llm.Reply{Text: "EXPLANATION: ok\nHTML: <p>v2</p>"},
	)
	ctx := context.Background()

	engine.SetHTML(ctx, "<p>v1</p>")
	assert.False(t, engine.Seeded())
	assert.Equal(t, "<p>v1</p>", engine.Store().Get(), "document is installed even if seeding fails")

	turn := engine.Chat(ctx, "edit")
	assert.True(t, turn.Applied)
	assert.True(t, engine.Seeded())

	calls := provider.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, SeedPrompt("<p>v1</p>"), calls[1][0].Content)
	assert.Len(t, calls[2], 3, "seed, acknowledgement and the edit request")
}

func TestEngine_ReseedFailureReturnsErrorTurn(t *testing.T) {
	engine, _ := newEngine(llm.Reply{Err: errors.New("no credentials")})
	ctx := context.Background()

	engine.SetHTML(ctx, "<p>doc</p>")
	turn := engine.Chat(ctx, "edit")

	assert.False(t, turn.Applied)
	assert.Contains(t, turn.Explanation, "Error processing request: ")
	assert.Contains(t, turn.Explanation, "no credentials")
	assert.Equal(t, "<p>doc</p>", turn.HTML)
}

func TestEngine_ExternalStoreWriteTriggersReseed(t *testing.T) {
	engine, provider := newEngine(
		llm.Reply{Text: seedAck},
		llm.Reply{Text: seedAck},
		llm.Reply{Text: "fine"},
	)
	ctx := context.Background()

	engine.SetHTML(ctx, "<p>old</p>")
	engine.Store().Set("<p>replaced elsewhere</p>")

	turn := engine.Chat(ctx, "hi")
	assert.Equal(t, "<p>replaced elsewhere</p>", turn.HTML)

	calls := provider.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, SeedPrompt("<p>replaced elsewhere</p>"), calls[1][0].Content)
}

func TestEngine_AppliedEditDoesNotReseed(t *testing.T) {
	engine, provider := newEngine(
		llm.Reply{Text: seedAck},
		llm.Reply{Text: "EXPLANATION: one\nHTML: <p>1</p>"},
		llm.Reply{Text: "EXPLANATION: two\nHTML: <p>2</p>"},
	)
	ctx := context.Background()

	engine.SetHTML(ctx, "<p>0</p>")
	engine.Chat(ctx, "first")
	turn := engine.Chat(ctx, "second")

	assert.Equal(t, "<p>2</p>", turn.HTML)
	calls := provider.Calls()
	require.Len(t, calls, 3)
	assert.Len(t, calls[2], 5, "conversation continues on the same session")
}

func TestEngine_ChatBeforeAnyDocumentSeedsEmpty(t *testing.T) {
	engine, provider := newEngine(llm.Reply{Text: seedAck}, llm.Reply{Text: "EXPLANATION: made one\nHTML: <p>new</p>"})

	turn := engine.Chat(context.Background(), "write a heading")

	assert.True(t, turn.Applied)
	assert.Equal(t, "<p>new</p>", engine.Store().Get())
	assert.Equal(t, SeedPrompt(""), provider.Calls()[0][0].Content)
}

func TestEngine_ConcurrentChatsAreSerialized(t *testing.T) {
	engine, provider := newEngine(
		llm.Reply{Text: seedAck},
		llm.Reply{Text: "EXPLANATION: ok\nHTML: <p>edited</p>"},
	)
	ctx := context.Background()
	engine.SetHTML(ctx, "<p>start</p>")

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			turn := engine.Chat(ctx, "edit")
			assert.True(t, turn.Applied)
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(1+workers), engine.Store().Revision())
	assert.Len(t, provider.Calls(), 1+workers, "no turn observed a stale session")
}

type slowTransport struct {
	hits atomic.Int32
}

func (s *slowTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	s.hits.Add(1)
	select {
	case <-time.After(3 * time.Second):
	case <-r.Context().Done():
	}
	return nil, errors.New("network disabled")
}

func TestEngine_ChatStaysOffNetworkAtAnyLogLevel(t *testing.T) {
	transport := &slowTransport{}
	saved := http.DefaultTransport
	http.DefaultTransport = transport
	savedLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		http.DefaultTransport = saved
		zerolog.SetGlobalLevel(savedLevel)
	})

	for _, level := range []zerolog.Level{zerolog.InfoLevel, zerolog.DebugLevel} {
		t.Run(level.String(), func(t *testing.T) {
			zerolog.SetGlobalLevel(level)
			engine, _ := newEngine(
				llm.Reply{Text: seedAck},
				llm.Reply{Text: "EXPLANATION: Bolded the total\nHTML: <p><b>Total: 100</b></p>"},
			)
			engine.SetHTML(context.Background(), "<p>Total: 100</p>")

			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			start := time.Now()
			turn := engine.Chat(ctx, "make the total bold")

			assert.True(t, turn.Applied, turn.Explanation)
			assert.Less(t, time.Since(start), 500*time.Millisecond)
			assert.Zero(t, transport.hits.Load())
		})
	}
}
