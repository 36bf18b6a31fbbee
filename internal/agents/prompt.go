// Package agents implements the budget-gated reasoning loop that
// answers portfolio questions through tool use.
package agents

import (
	"fmt"
	"strings"
)

const promptTemplate = `You are a helpful financial assistant for a Colombian investment portfolio.

You have access to tools to analyze the user's portfolio across multiple platforms (Lulo, Trii, Dolar App, etc.).

When answering questions:
1. Be concise and clear
2. Use specific numbers and percentages
3. Provide actionable insights when relevant
4. Always use tools to get real data - don't make assumptions
5. Format currency values clearly (COP vs USD)

Answer the following questions as best you can. You have access to the following tools:

%s

Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [%s]
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat N times)
Thought: I now know the final answer
Final Answer: the final answer to the original input question

Begin!

Question: %s
Thought:%s`

// BuildPrompt renders the loop prompt with tool listing, the question
// and the accumulated scratchpad of prior steps
func BuildPrompt(toolDescriptions string, toolNames []string, question, scratchpad string) string {
	return fmt.Sprintf(promptTemplate, toolDescriptions, strings.Join(toolNames, ", "), question, scratchpad)
}
