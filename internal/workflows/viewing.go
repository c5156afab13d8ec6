package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/roomradar/internal/core/domain"
)

// Activity names registered by ViewingActivities.
const (
	ActivityLoadRoom        = "LoadRoom"
	ActivityNotifyLandlord  = "NotifyLandlord"
	ActivityNotifyRequester = "NotifyRequester"
)

// ViewingResult reports which parties were told about a viewing.
type ViewingResult struct {
	LandlordNotified  bool `json:"landlord_notified"`
	RequesterNotified bool `json:"requester_notified"`
}

// ViewingWorkflow notifies the landlord and the requester of a booked
// viewing. A landlord SMS that still fails after retries fails the
// workflow; a failed requester SMS is only logged.
func ViewingWorkflow(ctx workflow.Context, event domain.ViewingRequested) (ViewingResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting viewing workflow", "roomID", event.Viewing.RoomID, "viewingID", event.Viewing.ID)

	var result ViewingResult

	loadCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 15 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	})
	landlordCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    5,
		},
	})
	requesterCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 5 * time.Second,
			MaximumAttempts: 3,
		},
	})

	// Step 1: Load the room for its title and the landlord's phone
	var contact RoomContact
	if err := workflow.ExecuteActivity(loadCtx, ActivityLoadRoom, event.Viewing.RoomID).Get(ctx, &contact); err != nil {
		return result, err
	}
	if contact.Title == "" {
		contact.Title = event.RoomTitle
	}

	// Step 2: Landlord
	if contact.LandlordPhone == "" {
		logger.Warn("room has no landlord phone, skipping landlord SMS", "roomID", event.Viewing.RoomID)
	} else {
		if err := workflow.ExecuteActivity(landlordCtx, ActivityNotifyLandlord, event, contact).Get(ctx, nil); err != nil {
			logger.Error("landlord notification failed", "error", err)
			return result, err
		}
		result.LandlordNotified = true
	}

	// Step 3: Requester
	if err := workflow.ExecuteActivity(requesterCtx, ActivityNotifyRequester, event, contact).Get(ctx, nil); err != nil {
		logger.Warn("requester notification failed", "error", err)
	} else {
		result.RequesterNotified = true
	}

	logger.Info("Viewing workflow finished",
		"landlordNotified", result.LandlordNotified,
		"requesterNotified", result.RequesterNotified)
	return result, nil
}
