package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cartera/internal/adapters/ai"
	"cartera/internal/metrics"
	"cartera/internal/tools"
	"cartera/pkg/errors"
	"cartera/pkg/logger"
)

// State tracks where the executor is in its reasoning cycle
type State string

const (
	StateAwaitingModel State = "awaiting_model"
	StateExecutingTool State = "executing_tool"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

const malformedObservation = "Your last response did not follow the required format. " +
	"Reply with either 'Action:' and 'Action Input:' lines, or a 'Final Answer:' line."

// Executor runs the bounded think-act-observe loop against one model
// client and the tool registry
type Executor struct {
	client        ai.Client
	registry      *tools.Registry
	maxIterations int
	toolTimeout   time.Duration
	state         State
	log           *logger.Logger
}

// NewExecutor creates a loop executor
func NewExecutor(client ai.Client, registry *tools.Registry, maxIterations int, toolTimeout time.Duration, log *logger.Logger) *Executor {
	if maxIterations <= 0 {
		maxIterations = 5
	}
	return &Executor{
		client:        client,
		registry:      registry,
		maxIterations: maxIterations,
		toolTimeout:   toolTimeout,
		state:         StateAwaitingModel,
		log:           log,
	}
}

// State returns the executor's current state
func (e *Executor) State() State {
	return e.state
}

// Run drives the loop until a final answer, the iteration cap, or a
// transport failure. Malformed model output and tool errors are folded
// back into the conversation as observations; only the model transport
// itself can fail the query outright.
func (e *Executor) Run(ctx context.Context, question string) (string, error) {
	var scratchpad strings.Builder

	for iteration := 1; iteration <= e.maxIterations; iteration++ {
		e.state = StateAwaitingModel

		prompt := BuildPrompt(e.registry.Describe(), e.registry.List(), question, scratchpad.String())

		completion, err := e.client.Complete(ctx, prompt)
		if err != nil {
			e.state = StateFailed
			return "", errors.Wrapf(err, "model call on iteration %d", iteration)
		}

		step, parseErr := ParseStep(completion.Content)
		if parseErr != nil {
			e.log.Warnw("malformed model output", "iteration", iteration, "error", parseErr)
			writeStep(&scratchpad, Step{
				Thought: firstLine(completion.Content),
			}, malformedObservation)
			continue
		}

		if step.IsFinal {
			e.state = StateDone
			return step.FinalAnswer, nil
		}

		e.state = StateExecutingTool

		tool, ok := e.registry.Get(step.Action)
		if !ok {
			observation := fmt.Sprintf("Error: tool '%s' not found. Available tools: %s",
				step.Action, strings.Join(e.registry.List(), ", "))
			writeStep(&scratchpad, step, observation)
			continue
		}

		observation := e.runTool(ctx, tool, step.ActionInput)
		writeStep(&scratchpad, step, observation)
	}

	e.state = StateFailed
	return "", errors.Wrapf(errors.ErrIterationLimit,
		"could not complete the request within %d reasoning steps", e.maxIterations)
}

// runTool executes one tool, converting every failure mode, panics
// included, into observation text
func (e *Executor) runTool(ctx context.Context, tool tools.Tool, input string) (observation string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("tool %s panicked: %v", tool.Name(), r)
			observation = fmt.Sprintf("Error: tool '%s' failed unexpectedly", tool.Name())
		}
	}()

	if e.toolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.toolTimeout)
		defer cancel()
	}

	start := time.Now()
	out, err := tool.Run(ctx, input)
	metrics.RecordToolExecution(tool.Name(), time.Since(start), err)

	if err != nil {
		e.log.Warnw("tool error", "tool", tool.Name(), "error", err)
		return fmt.Sprintf("Error: %v", errors.Wrap(errors.ErrToolExecution, err.Error()))
	}
	return out
}

func writeStep(scratchpad *strings.Builder, step Step, observation string) {
	scratchpad.WriteString(" " + step.Thought + "\n")
	if step.Action != "" {
		scratchpad.WriteString("Action: " + step.Action + "\n")
		scratchpad.WriteString("Action Input: " + step.ActionInput + "\n")
	}
	scratchpad.WriteString("Observation: " + observation + "\n")
	scratchpad.WriteString("Thought:")
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
