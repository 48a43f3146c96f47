package scorer

import (
	"context"
	"fmt"
	"math"
	"strings"

	"talent-match-go/internal/constants"
	"talent-match-go/internal/tracing"

	"github.com/cloudwego/eino/components/embedding"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var scorerTracer = otel.Tracer("talent-match-go/scorer")

// TextEmbedder 文本向量化接口（与 cloudwego/eino 的 embedding.Embedder 一致）
type TextEmbedder interface {
	EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error)
}

// MatchScorer 简历与岗位的语义相似度打分器
// 无状态，可被并发请求共享
type MatchScorer struct {
	embedder TextEmbedder
}

// NewMatchScorer 创建打分器
func NewMatchScorer(embedder TextEmbedder) (*MatchScorer, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder不能为空")
	}
	return &MatchScorer{embedder: embedder}, nil
}

// Score 计算岗位描述与简历文本的余弦相似度
// 简历文本会先用提取出的技能做富集（技能命中时拼接在文本末尾），
// 两段文本用同一个embedding模型编码并做L2归一化，余弦值即两向量点积
// embedding失败必须向上传播：调用方要把失败当作本次提交的硬错误，而不是零分
func (s *MatchScorer) Score(ctx context.Context, jobDescription string, resumeText string, resumeSkills []string) (float64, error) {
	enrichedResume := resumeText
	if len(resumeSkills) > 0 {
		enrichedResume += " " + strings.Join(resumeSkills, " ")
	}

	ctx, span := scorerTracer.Start(ctx, "scorer.embed",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.Int("scorer.job_description_length", len(jobDescription)),
			attribute.Int("scorer.resume_length", len(enrichedResume)),
			attribute.Int("scorer.skills_count", len(resumeSkills)),
			attribute.String("scorer.resume_preview", tracing.SafeResumeContent(enrichedResume)),
		),
	)
	defer span.End()

	vectors, err := s.embedder.EmbedStrings(ctx, []string{jobDescription, enrichedResume})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeEmbedding)
		return 0, fmt.Errorf("计算文本向量失败: %w", err)
	}
	if len(vectors) != 2 {
		err := fmt.Errorf("embedding返回了%d个向量, 期望2个", len(vectors))
		tracing.RecordError(span, err, tracing.ErrorTypeEmbedding)
		return 0, err
	}

	jobVec := normalizeL2(vectors[0])
	resumeVec := normalizeL2(vectors[1])
	if len(jobVec) == 0 || len(jobVec) != len(resumeVec) {
		err := fmt.Errorf("embedding向量维度异常: job=%d, resume=%d", len(jobVec), len(resumeVec))
		tracing.RecordError(span, err, tracing.ErrorTypeEmbedding)
		return 0, err
	}

	score := dotProduct(jobVec, resumeVec)
	span.SetAttributes(attribute.Float64("scorer.base_score", score))
	return score, nil
}

// LocationMatch 判断简历地点是否命中岗位地点
// 任一简历地点token（大小写不敏感地）作为子串出现在岗位地点中即为命中
func LocationMatch(resumeLocations []string, jobLocation string) bool {
	if jobLocation == "" {
		return false
	}
	jobLower := strings.ToLower(jobLocation)
	for _, loc := range resumeLocations {
		if loc == "" {
			continue
		}
		if strings.Contains(jobLower, strings.ToLower(loc)) {
			return true
		}
	}
	return false
}

// ApplyLocationBonus 地点命中时加0.1，最多加一次，加成后截断到1.0
func ApplyLocationBonus(score float64, locationMatch bool) float64 {
	if locationMatch {
		score += constants.LocationBonus
		if score > 1.0 {
			score = 1.0
		}
	}
	return score
}

// normalizeL2 向量L2归一化；零向量原样返回
func normalizeL2(vec []float64) []float64 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}

// dotProduct 两个等长向量的点积
func dotProduct(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
