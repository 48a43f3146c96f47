package scorer

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEmbedder 模拟embedding服务，按词汇重合度生成确定性向量
type MockEmbedder struct {
	vectors map[string][]float64
	err     error
	// 记录最近一次收到的文本，用于断言技能富集
	lastTexts []string
}

func (m *MockEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	m.lastTexts = texts
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		if v, ok := m.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = []float64{1, 0, 0}
		}
	}
	return out, nil
}

// TestScoreIdenticalTexts 相同文本的相似度为1
func TestScoreIdenticalTexts(t *testing.T) {
	mock := &MockEmbedder{vectors: map[string][]float64{
		"python developer": {0.6, 0.8, 0},
	}}
	s, err := NewMatchScorer(mock)
	require.NoError(t, err)

	score, err := s.Score(context.Background(), "python developer", "python developer", nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

// TestScoreOrthogonalTexts 不相关文本的相似度为0
func TestScoreOrthogonalTexts(t *testing.T) {
	mock := &MockEmbedder{vectors: map[string][]float64{
		"python developer": {1, 0, 0},
		"pastry chef":      {0, 1, 0},
	}}
	s, err := NewMatchScorer(mock)
	require.NoError(t, err)

	score, err := s.Score(context.Background(), "python developer", "pastry chef", nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, score, 1e-9)
}

// TestScoreNormalizesVectors 未归一化的向量被打分器自行归一化
func TestScoreNormalizesVectors(t *testing.T) {
	mock := &MockEmbedder{vectors: map[string][]float64{
		"a": {3, 4, 0},   // 模长5
		"b": {30, 40, 0}, // 同方向，模长50
	}}
	s, err := NewMatchScorer(mock)
	require.NoError(t, err)

	score, err := s.Score(context.Background(), "a", "b", nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9, "同方向向量归一化后点积应为1")
}

// TestScoreSkillEnrichment 技能被拼接到简历文本末尾后再编码
func TestScoreSkillEnrichment(t *testing.T) {
	mock := &MockEmbedder{}
	s, err := NewMatchScorer(mock)
	require.NoError(t, err)

	_, err = s.Score(context.Background(), "jd", "resume text", []string{"python", "docker"})
	require.NoError(t, err)

	require.Len(t, mock.lastTexts, 2)
	assert.Equal(t, "jd", mock.lastTexts[0])
	assert.Equal(t, "resume text python docker", mock.lastTexts[1])

	// 没有技能时不追加
	_, err = s.Score(context.Background(), "jd", "resume text", nil)
	require.NoError(t, err)
	assert.Equal(t, "resume text", mock.lastTexts[1])
}

// TestScoreEmbeddingFailurePropagates embedding失败必须向上传播而不是返回零分
func TestScoreEmbeddingFailurePropagates(t *testing.T) {
	mock := &MockEmbedder{err: errors.New("embedding服务不可用")}
	s, err := NewMatchScorer(mock)
	require.NoError(t, err)

	_, err = s.Score(context.Background(), "jd", "resume", nil)
	require.Error(t, err, "embedding失败必须是本次提交的硬错误")
	assert.True(t, strings.Contains(err.Error(), "计算文本向量失败"))
}

// TestLocationMatch 简历地点token对岗位地点做大小写不敏感的子串匹配
func TestLocationMatch(t *testing.T) {
	assert.True(t, LocationMatch([]string{"Austin", "Texas"}, "Austin, TX, USA"))
	assert.True(t, LocationMatch([]string{"austin"}, "AUSTIN METRO"))
	assert.False(t, LocationMatch([]string{"Boston"}, "Austin, TX, USA"))
	assert.False(t, LocationMatch([]string{"Austin"}, ""))
	assert.False(t, LocationMatch(nil, "Austin"))
}

// TestApplyLocationBonus 加成一次0.1并截断到1.0
func TestApplyLocationBonus(t *testing.T) {
	assert.InDelta(t, 0.6, ApplyLocationBonus(0.5, true), 1e-9)
	assert.InDelta(t, 0.5, ApplyLocationBonus(0.5, false), 1e-9)
	assert.InDelta(t, 1.0, ApplyLocationBonus(0.95, true), 1e-9, "加成后不能超过1.0")
	assert.InDelta(t, 1.0, ApplyLocationBonus(1.0, true), 1e-9)
}

// TestScoreRangeWithBonus 任意向量下，截断后的分数不超过1.0
func TestScoreRangeWithBonus(t *testing.T) {
	mock := &MockEmbedder{vectors: map[string][]float64{
		"x": {0.1, 0.9, 0.4},
		"y": {0.11, 0.88, 0.41},
	}}
	s, err := NewMatchScorer(mock)
	require.NoError(t, err)

	score, err := s.Score(context.Background(), "x", "y", nil)
	require.NoError(t, err)

	final := ApplyLocationBonus(score, true)
	assert.LessOrEqual(t, final, 1.0)
	assert.False(t, math.IsNaN(final))
}
