package agents

import (
	"strings"

	"cartera/pkg/errors"
)

// Step is one parsed model response in the reasoning loop
type Step struct {
	Thought     string
	Action      string
	ActionInput string
	FinalAnswer string
	IsFinal     bool
}

const (
	thoughtMarker     = "Thought:"
	actionMarker      = "Action:"
	actionInputMarker = "Action Input:"
	finalAnswerMarker = "Final Answer:"
)

// ParseStep reads a model response against the loop grammar. Exactly
// two shapes are valid: a final answer, or an action with its input.
// A response carrying both markers is ambiguous and rejected, as is one
// carrying neither.
func ParseStep(response string) (Step, error) {
	step := Step{}

	hasAction := false
	hasActionInput := false
	finalAnswerAt := -1

	lines := strings.Split(response, "\n")
	for i, rawLine := range lines {
		line := strings.TrimSpace(rawLine)

		switch {
		case strings.HasPrefix(line, thoughtMarker):
			if step.Thought == "" {
				step.Thought = strings.TrimSpace(strings.TrimPrefix(line, thoughtMarker))
			}
		case strings.HasPrefix(line, actionInputMarker):
			// checked before "Action:" since both share the prefix
			step.ActionInput = strings.TrimSpace(strings.TrimPrefix(line, actionInputMarker))
			hasActionInput = true
		case strings.HasPrefix(line, actionMarker):
			step.Action = strings.TrimSpace(strings.TrimPrefix(line, actionMarker))
			hasAction = true
		case strings.HasPrefix(line, finalAnswerMarker):
			if finalAnswerAt == -1 {
				finalAnswerAt = i
			}
		}
	}

	hasFinal := finalAnswerAt >= 0

	if hasFinal && hasAction {
		return Step{}, errors.Wrap(errors.ErrMalformedOutput,
			"response contains both an action and a final answer")
	}

	if hasFinal {
		step.IsFinal = true
		step.FinalAnswer = collectFinalAnswer(lines, finalAnswerAt)
		return step, nil
	}

	if hasAction {
		if step.Action == "" {
			return Step{}, errors.Wrap(errors.ErrMalformedOutput, "action name is empty")
		}
		if !hasActionInput {
			return Step{}, errors.Wrap(errors.ErrMalformedOutput, "action is missing its input")
		}
		return step, nil
	}

	return Step{}, errors.Wrap(errors.ErrMalformedOutput,
		"response contains neither an action nor a final answer")
}

// collectFinalAnswer captures the answer text from its marker line to
// the end of the response, preserving line breaks
func collectFinalAnswer(lines []string, start int) string {
	first := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[start]), finalAnswerMarker))

	parts := []string{first}
	for _, line := range lines[start+1:] {
		parts = append(parts, strings.TrimRight(line, " \t"))
	}

	return strings.TrimSpace(strings.Join(parts, "\n"))
}
