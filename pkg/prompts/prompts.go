package prompts

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tmc/langchaingo/prompts"
)

// Tool is the catalog line rendered into the planner instruction.
type Tool struct {
	Name        string
	Description string
}

var (
	plannerTemplate = prompts.NewPromptTemplate(`
You are the routing step of a chat assistant. Decide whether the latest user message needs one of the tools below.
If it does, call exactly one tool. If it does not, answer without calling any tool.

Available tools:
{{range .Tools}}- {{.Name}}: {{.Description}}
{{end}}
Guidance:
- Weather, temperature, rain or clothing questions about a place use get_weather with the place in "location".
- Questions about a person, team, organisation, place or event use search_wikipedia with the subject as "query".
  For example "how many titles did Real Madrid win" is a search_wikipedia call with query "Real Madrid",
  and "when was Marie Curie born" is a search_wikipedia call with query "Marie Curie".
- Questions about where the ISS or the space station is right now use get_iss_position with no arguments.
- Greetings, small talk, opinions, creative writing, coding help and anything else get no tool.
- Never call more than one tool. Never invent tools that are not listed.
`, []string{"Tools"})

	chatTemplate = prompts.NewPromptTemplate(`
You are {{.Name}}, a friendly and concise assistant.
Answer the user directly in plain text. Keep answers short unless the user asks for detail.
You can look up weather forecasts, Wikipedia summaries and the live position of the ISS when asked, but in this reply no tool is needed.
`, []string{"Name"})
)

func Planner(tools []Tool) (string, error) {
	out, err := plannerTemplate.Format(map[string]any{"Tools": tools})
	if err != nil {
		return "", goerr.Wrap(err, "failed to render planner prompt")
	}
	return strings.TrimSpace(out), nil
}

func Chat(name string) (string, error) {
	out, err := chatTemplate.Format(map[string]any{"Name": name})
	if err != nil {
		return "", goerr.Wrap(err, "failed to render chat prompt")
	}
	return strings.TrimSpace(out), nil
}
