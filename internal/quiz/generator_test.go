package quiz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talent-match-go/internal/config"
	"talent-match-go/internal/types"
)

func TestBuildQuestionPrompt(t *testing.T) {
	existing := []types.QuizQuestion{
		{Question: "What is a goroutine?"},
		{Question: "What does defer do?"},
	}

	prompt := buildQuestionPrompt("Golang", "medium", existing)

	assert.Contains(t, prompt, `"Golang"`)
	assert.Contains(t, prompt, "medium difficulty")
	assert.Contains(t, prompt, "What is a goroutine? What does defer do?")
	assert.Contains(t, prompt, "Only return valid JSON")
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "裸JSON",
			input:    `{"question": "q"}`,
			expected: `{"question": "q"}`,
		},
		{
			name:     "markdown代码块",
			input:    "Here you go:\n```json\n{\"question\": \"q\"}\n```\nDone.",
			expected: `{"question": "q"}`,
		},
		{
			name:     "前后有解释文字",
			input:    `Sure! {"question": "q"} Hope this helps.`,
			expected: `{"question": "q"}`,
		},
		{
			name:     "嵌套花括号",
			input:    `{"options": {"A": "x"}} trailing`,
			expected: `{"options": {"A": "x"}}`,
		},
		{
			name:     "没有JSON",
			input:    "I cannot generate a question.",
			expected: "",
		},
		{
			name:     "花括号未闭合",
			input:    `{"question": "q"`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSON(tt.input))
		})
	}
}

func validQuestionJSON() string {
	return `{
		"question": "Which keyword starts a goroutine?",
		"options": {"A": "go", "B": "async", "C": "spawn", "D": "thread"},
		"answer": "A"
	}`
}

func TestParseQuestionValid(t *testing.T) {
	q, err := parseQuestion(validQuestionJSON())
	require.NoError(t, err)

	assert.Equal(t, "Which keyword starts a goroutine?", q.Question)
	assert.Len(t, q.Options, 4)
	assert.Equal(t, "go", q.Options["A"])
	assert.Equal(t, "A", q.Answer)
}

// TestParseQuestionNormalizesAnswer answer字段的大小写和空白被归一化
func TestParseQuestionNormalizesAnswer(t *testing.T) {
	raw := strings.Replace(validQuestionJSON(), `"answer": "A"`, `"answer": " a "`, 1)
	q, err := parseQuestion(raw)
	require.NoError(t, err)
	assert.Equal(t, "A", q.Answer)
}

// TestParseQuestionRejectsBroken 任何残缺输出都整题作废
func TestParseQuestionRejectsBroken(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"无JSON", "no json here"},
		{"缺question", `{"options": {"A": "1", "B": "2", "C": "3", "D": "4"}, "answer": "A"}`},
		{"选项不足4个", `{"question": "q", "options": {"A": "1", "B": "2", "C": "3"}, "answer": "A"}`},
		{"选项键不合法", `{"question": "q", "options": {"A": "1", "B": "2", "C": "3", "E": "4"}, "answer": "A"}`},
		{"answer不在选项里", `{"question": "q", "options": {"A": "1", "B": "2", "C": "3", "D": "4"}, "answer": "E"}`},
		{"answer为空", `{"question": "q", "options": {"A": "1", "B": "2", "C": "3", "D": "4"}, "answer": ""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseQuestion(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestOpenAIGeneratorGenerate(t *testing.T) {
	var receivedBody chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&receivedBody))

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": validQuestionJSON()}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	g, err := NewOpenAIGenerator(config.QuizGeneratorConfig{
		APIURL:      server.URL,
		APIKey:      "test-key",
		Model:       "mistral",
		Temperature: 0.5,
		MaxTokens:   300,
	})
	require.NoError(t, err)

	existing := []types.QuizQuestion{{Question: "old question"}}
	q, err := g.Generate(context.Background(), "Python", "easy", existing)
	require.NoError(t, err)

	assert.Equal(t, "A", q.Answer)
	assert.Equal(t, "mistral", receivedBody.Model)
	require.Len(t, receivedBody.Messages, 1)
	assert.Equal(t, "user", receivedBody.Messages[0].Role)
	assert.Contains(t, receivedBody.Messages[0].Content, `"Python"`)
	assert.Contains(t, receivedBody.Messages[0].Content, "old question")
	assert.InDelta(t, 0.5, receivedBody.Temperature, 1e-9)
	assert.Equal(t, 300, receivedBody.MaxTokens)
}

func TestOpenAIGeneratorServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	g, err := NewOpenAIGenerator(config.QuizGeneratorConfig{APIURL: server.URL, Model: "mistral"})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "Python", "easy", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestOpenAIGeneratorEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	g, err := NewOpenAIGenerator(config.QuizGeneratorConfig{APIURL: server.URL, Model: "mistral"})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "Python", "easy", nil)
	assert.Error(t, err)
}

func TestNewOpenAIGeneratorValidation(t *testing.T) {
	_, err := NewOpenAIGenerator(config.QuizGeneratorConfig{Model: "mistral"})
	assert.Error(t, err, "缺api_url必须报错")

	_, err = NewOpenAIGenerator(config.QuizGeneratorConfig{APIURL: "http://localhost:1234"})
	assert.Error(t, err, "缺model必须报错")
}

func TestNewGeneratorUnknownBackend(t *testing.T) {
	_, err := NewGenerator(context.Background(), config.QuizGeneratorConfig{Backend: "llamacpp"})
	assert.Error(t, err)
}
