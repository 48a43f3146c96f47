package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talent-match-go/internal/constants"
	"talent-match-go/internal/quiz"
	"talent-match-go/internal/types"
)

type fixedAnswerGenerator struct{}

func (g *fixedAnswerGenerator) Generate(ctx context.Context, topic, difficulty string, existing []types.QuizQuestion) (*types.QuizQuestion, error) {
	return &types.QuizQuestion{
		Question: "What does a goroutine run on?",
		Options: map[string]string{
			"A": "a scheduler-managed thread",
			"B": "a dedicated OS process",
			"C": "the GPU",
			"D": "a kernel module",
		},
		Answer: "A",
	}, nil
}

func newQuizHandlerForTest(t *testing.T) *QuizHandler {
	t.Helper()
	manager := quiz.NewManager(&fixedAnswerGenerator{}, nil, time.Hour, time.Hour)
	t.Cleanup(manager.Close)
	return NewQuizHandler(manager)
}

func TestQuizHandlerFullFlow(t *testing.T) {
	h := newQuizHandlerForTest(t)
	ctx := context.Background()

	start, err := h.HandleStartQuiz(ctx, &StartQuizRequest{Field: "golang", JobID: "job-1", UserID: "user-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, start.SessionID)
	assert.Contains(t, start.Message, "golang")
	assert.Equal(t, "success", start.Status)

	for i := 1; i <= constants.QuizMaxQuestions; i++ {
		view, err := h.HandleNextQuestion(ctx, &NextQuestionRequest{SessionID: start.SessionID, Difficulty: "easy"})
		require.NoError(t, err)
		require.False(t, view.Finished)
		assert.Equal(t, i, view.QNumber)
		assert.Len(t, view.Options, 4)

		progress, result, err := h.HandleAnswer(ctx, &AnswerRequest{SessionID: start.SessionID, Answer: "a"})
		require.NoError(t, err)
		if i < constants.QuizMaxQuestions {
			require.NotNil(t, progress)
			assert.Nil(t, result)
			assert.Equal(t, i, progress.Score)
		} else {
			assert.Nil(t, progress)
			require.NotNil(t, result)
			assert.True(t, result.Passed)
			assert.Equal(t, constants.QuizMaxQuestions, result.Score)
		}
	}

	// 会话已结束，成绩查询应返回未找到
	_, err = h.HandleResults(ctx, start.SessionID)
	assert.ErrorIs(t, err, quiz.ErrSessionNotFound)
}

func TestQuizHandlerStartRequiresUserID(t *testing.T) {
	h := newQuizHandlerForTest(t)

	resp, err := h.HandleStartQuiz(context.Background(), &StartQuizRequest{Field: "golang"})
	assert.ErrorIs(t, err, quiz.ErrUserIDRequired)
	assert.Nil(t, resp)
}

func TestQuizHandlerResultsLive(t *testing.T) {
	h := newQuizHandlerForTest(t)
	ctx := context.Background()

	start, err := h.HandleStartQuiz(ctx, &StartQuizRequest{Field: "golang", JobID: "job-1", UserID: "user-1"})
	require.NoError(t, err)

	_, err = h.HandleNextQuestion(ctx, &NextQuestionRequest{SessionID: start.SessionID})
	require.NoError(t, err)
	_, _, err = h.HandleAnswer(ctx, &AnswerRequest{SessionID: start.SessionID, Answer: "B"})
	require.NoError(t, err)

	results, err := h.HandleResults(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, results.TotalQuestions)
	assert.Equal(t, 0, results.CorrectAnswers)
	assert.Equal(t, 0, results.Score)
	require.Len(t, results.Details, 1)
	assert.Equal(t, "B", results.Details[0].User)
	assert.False(t, results.Details[0].Correct)
}
