package workflows

import (
	"context"
	"errors"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/roomradar/internal/core/domain"
)

type workflowExecutor interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Starter implements ports.WorkflowStarter on a Temporal client.
type Starter struct {
	client    workflowExecutor
	taskQueue string
}

func NewStarter(c client.Client, taskQueue string) *Starter {
	return &Starter{client: c, taskQueue: taskQueue}
}

// ViewingWorkflowID is stable per booking so a redelivered event does not
// notify twice.
func ViewingWorkflowID(event *domain.ViewingRequested) string {
	return fmt.Sprintf("viewing-%d-%d", event.Viewing.RoomID, event.Viewing.ID)
}

// StartViewingWorkflow starts the notification workflow for a booking. A
// booking whose workflow already ran, or is running, is not started again;
// the existing run ID is returned instead.
func (s *Starter) StartViewingWorkflow(ctx context.Context, event *domain.ViewingRequested) (string, error) {
	run, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                                       ViewingWorkflowID(event),
		TaskQueue:                                s.taskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, ViewingWorkflow, *event)
	var started *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &started) {
		return started.RunId, nil
	}
	if err != nil {
		return "", fmt.Errorf("start viewing workflow: %w", err)
	}
	return run.GetRunID(), nil
}
