package analyzer

import (
	"context"
	"fmt"

	"github.com/clothline/dispatch/internal/llm"
	"github.com/clothline/dispatch/internal/message"
	"github.com/clothline/dispatch/internal/session"
)

// systemPromptTemplate is the fixed instruction sent ahead of every
// analysis request. The JSON Schema of llmAnalysisContract is appended so
// the model sees the exact wire contract it must produce (§4.2.1).
const systemPromptTemplate = `你是一个服装零售客服系统的协作分析器。根据用户消息和会话上下文，
判断本轮是否需要多个智能体协作，选择合适的智能体、角色与工作流模式。

可选的智能体：reception_agent（接待）、sales_agent（销售）、order_agent（订单）、
knowledge_agent（知识）、styling_agent（搭配）。

只输出一个符合下列 JSON Schema 的 JSON 对象，不要输出任何其他文字：

%s`

// Analyzer is the Collaboration Analyzer (§4.2): an LLM-driven first pass
// followed by the deterministic override pipeline of §4.2.2.
type Analyzer struct {
	adapter      *llm.Adapter
	systemPrompt string
}

// NewAnalyzer builds an Analyzer over the shared LLM adapter.
func NewAnalyzer(adapter *llm.Adapter) *Analyzer {
	return &Analyzer{
		adapter:      adapter,
		systemPrompt: fmt.Sprintf(systemPromptTemplate, analysisSchemaJSON),
	}
}

// Analyze runs the LLM-driven first pass (§4.2.1) only. sessionContext is a
// caller-supplied snapshot (e.g. session.Session.SnapshotContext()), never
// a live reference, so the Analyzer cannot observe a mutation mid-call.
// Override rules (§4.2.2) are applied separately by ApplyOverrides, which
// needs the live *session.Session and so cannot live inside this method
// without an import cycle between session and analyzer.
func (a *Analyzer) Analyze(ctx context.Context, msg message.Message, sessionContext map[string]any) (*Analysis, error) {
	userPrompt := fmt.Sprintf("用户消息：%s\n\n会话上下文：%s", msg.Content, projectionJSON(sessionContext))

	reply, err := a.adapter.Chat(ctx, llm.ChatRequest{
		Messages: []llm.ChatMessage{
			{Role: "system", Content: a.systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.1,
		MaxTokens:   512,
	})
	if err != nil {
		return fallbackKeywordRoute(msg.Content), nil
	}

	return parseLLMReply(reply.Content), nil
}

// AnalyzeAndOverride runs the full analyzer pipeline: the LLM pass against
// a context snapshot, then the nine deterministic override rules against
// the live session (§4.1 steps 3-4).
func AnalyzeAndOverride(ctx context.Context, a *Analyzer, msg message.Message, sess *session.Session) (*Analysis, error) {
	analysis, err := a.Analyze(ctx, msg, sess.SnapshotContext())
	if err != nil {
		return nil, err
	}
	return ApplyOverrides(msg, analysis, sess), nil
}
