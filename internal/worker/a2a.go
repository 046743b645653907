package worker

import (
	"context"
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-a2a-go/client"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"

	log "github.com/ecohq/eco/internal/logging"
)

// A2AInvoker dispatches tasks to remote agents over the A2A protocol.
// Each agent name maps to the endpoint of the service hosting it.
type A2AInvoker struct {
	endpoints map[string]string
	apiKey    string
}

// NewA2AInvoker creates an invoker with a per-agent endpoint map. An
// optional API key is sent as X-API-Key on every request.
func NewA2AInvoker(endpoints map[string]string, apiKey string) *A2AInvoker {
	return &A2AInvoker{endpoints: endpoints, apiKey: apiKey}
}

func (v *A2AInvoker) Invoke(ctx context.Context, task Task) (Result, error) {
	endpoint, ok := v.endpoints[task.Agent]
	if !ok {
		return Result{}, fmt.Errorf("no endpoint configured for agent %s", task.Agent)
	}

	a2aClient, err := v.newClient(endpoint)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create A2A client for %s: %w", task.Agent, err)
	}

	dataPart := protocol.DataPart{
		Type: "data",
		Data: map[string]interface{}{
			"runId":       task.RunID,
			"agent":       task.Agent,
			"taskType":    task.TaskType,
			"description": task.Description,
			"sequence":    task.Sequence,
		},
		Metadata: map[string]interface{}{
			"content-type": "application/json",
		},
	}
	params := protocol.SendTaskParams{
		Message: protocol.Message{Parts: []protocol.Part{&dataPart}},
	}

	resp, err := a2aClient.SendTasks(ctx, params)
	if err != nil {
		return Result{}, fmt.Errorf("SendTasks RPC to %s failed: %w", task.Agent, err)
	}
	log.Infof("agent %s accepted task, remote id %s", task.Agent, resp.ID)

	var parts []string
	for _, art := range resp.Artifacts {
		for _, part := range art.Parts {
			if tp, ok := part.(*protocol.TextPart); ok && tp.Text != "" {
				parts = append(parts, tp.Text)
			}
		}
	}
	output := strings.Join(parts, "\n")
	return Result{
		Output:       output,
		InputTokens:  estimateTokens(task.Description),
		OutputTokens: estimateTokens(output),
	}, nil
}

func (v *A2AInvoker) newClient(endpoint string) (*client.A2AClient, error) {
	if v.apiKey != "" {
		return client.NewA2AClient(endpoint, client.WithAPIKeyAuth(v.apiKey, "X-API-Key"))
	}
	return client.NewA2AClient(endpoint)
}
