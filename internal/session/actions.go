package session

import (
	"context"
	"strings"
)

// Intent is the clock event sent to the portal, in its wire spelling.
type Intent string

const (
	IntentIn  Intent = "IN"
	IntentOut Intent = "OUT"
)

// The portal acknowledges a clock event by embedding this marker in an
// otherwise free-form reply.
const successMarker = "Operation Successful"

// Execute submits a clock intent through the authenticated transport and
// classifies the textual reply. The reply carries no timesheet state, so a
// false result tells the caller nothing beyond "re-refresh and look"; there
// is no retry here.
func Execute(ctx context.Context, t Transport, custID, empID string, intent Intent) (bool, error) {
	resp, err := t.SubmitClockIntent(ctx, custID, empID, string(intent))
	if err != nil {
		return false, err
	}
	return strings.Contains(resp, successMarker), nil
}
