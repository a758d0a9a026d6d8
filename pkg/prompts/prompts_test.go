package prompts_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"go-toolchat/pkg/prompts"
)

func TestPlanner(t *testing.T) {
	out, err := prompts.Planner([]prompts.Tool{
		{Name: "get_weather", Description: "Get the forecast."},
		{Name: "search_wikipedia", Description: "Look up a topic."},
	})
	gt.NoError(t, err)
	gt.S(t, out).Contains("- get_weather: Get the forecast.")
	gt.S(t, out).Contains("- search_wikipedia: Look up a topic.")
	gt.S(t, out).Contains(`query "Real Madrid"`)
}

func TestChat(t *testing.T) {
	out, err := prompts.Chat("Toolchat")
	gt.NoError(t, err)
	gt.S(t, out).Contains("You are Toolchat")
	gt.S(t, out).NotContains("{{")
}
