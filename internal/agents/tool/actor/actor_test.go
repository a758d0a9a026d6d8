package actor_test

import (
	"context"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/m-mizutani/gt"
	toolactor "go-toolchat/internal/agents/tool/actor"
	"go-toolchat/internal/tools/adapter"
	"go-toolchat/pkg/messages"
	"go-toolchat/pkg/models"
)

type echoRunner struct{}

func (echoRunner) Execute(_ context.Context, tool models.ToolName, args models.Args, progress adapter.Progress) models.ToolResult {
	progress.Step("step for " + string(tool))
	q, _ := args["query"].(string)
	return models.ToolResult{OK: true, Article: &models.Article{Title: q, Extract: "x", URL: "u"}}
}

func TestRunTool(t *testing.T) {
	root := actor.NewActorSystem().Root
	pid := root.Spawn(actor.PropsFromProducer(toolactor.New(echoRunner{})))
	defer root.Stop(pid)

	steps := make(chan string, 1)
	res, err := root.RequestFuture(pid, messages.RunTool{
		Tool:     models.ToolEncyclopedia,
		Args:     models.Args{"query": "Go"},
		Progress: func(s string) { steps <- s },
	}, time.Second).Result()
	gt.NoError(t, err)

	finished, ok := res.(messages.ToolFinished)
	gt.True(t, ok)
	gt.True(t, finished.Result.OK)
	gt.Equal(t, finished.Result.Article.Title, "Go")
	gt.Equal(t, <-steps, "step for search_wikipedia")
}
