package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartera/pkg/errors"
)

func TestParseStepAction(t *testing.T) {
	step, err := ParseStep("Thought: I should check the portfolio\nAction: get_portfolio_summary\nAction Input: ")
	require.NoError(t, err)

	assert.False(t, step.IsFinal)
	assert.Equal(t, "I should check the portfolio", step.Thought)
	assert.Equal(t, "get_portfolio_summary", step.Action)
	assert.Equal(t, "", step.ActionInput)
}

func TestParseStepActionWithInput(t *testing.T) {
	step, err := ParseStep("Thought: filter by platform\nAction: get_positions\nAction Input: trii")
	require.NoError(t, err)

	assert.Equal(t, "get_positions", step.Action)
	assert.Equal(t, "trii", step.ActionInput)
}

func TestParseStepFinalAnswer(t *testing.T) {
	step, err := ParseStep("Thought: I now know the final answer\nFinal Answer: Your portfolio is worth $4,450,000 COP.")
	require.NoError(t, err)

	assert.True(t, step.IsFinal)
	assert.Equal(t, "Your portfolio is worth $4,450,000 COP.", step.FinalAnswer)
}

func TestParseStepMultilineFinalAnswer(t *testing.T) {
	step, err := ParseStep("Thought: done\nFinal Answer: Summary:\n- COP: 28%\n- USD: 72%")
	require.NoError(t, err)

	assert.True(t, step.IsFinal)
	assert.Equal(t, "Summary:\n- COP: 28%\n- USD: 72%", step.FinalAnswer)
}

func TestParseStepBothShapesIsMalformed(t *testing.T) {
	_, err := ParseStep("Thought: hmm\nAction: get_positions\nAction Input: \nFinal Answer: done")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMalformedOutput))
}

func TestParseStepNeitherShapeIsMalformed(t *testing.T) {
	_, err := ParseStep("I think the portfolio looks great!")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMalformedOutput))
}

func TestParseStepActionWithoutInputIsMalformed(t *testing.T) {
	_, err := ParseStep("Thought: check\nAction: get_positions")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMalformedOutput))
}

func TestParseStepEmptyActionIsMalformed(t *testing.T) {
	_, err := ParseStep("Thought: check\nAction:\nAction Input: x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMalformedOutput))
}

func TestParseStepEmptyResponseIsMalformed(t *testing.T) {
	_, err := ParseStep("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMalformedOutput))
}
