package patterns

import (
	"errors"
	"fmt"
	"net/http"
)

// PricingPath is where plan-restricted users are sent.
const PricingPath = "/pricing"

// Error codes the records API uses for plan restrictions.
const (
	CodePlanLimitReached     = "PLAN_LIMIT_REACHED"
	CodeFeatureNotAvailable  = "FEATURE_NOT_AVAILABLE"
	CodeSubscriptionRequired = "SUBSCRIPTION_REQUIRED"
	CodeUpgradeRequired      = "UPGRADE_REQUIRED"
)

var planCodes = map[string]bool{
	CodePlanLimitReached:     true,
	CodeFeatureNotAvailable:  true,
	CodeSubscriptionRequired: true,
	CodeUpgradeRequired:      true,
}

// APIError is a non-2xx answer from the records API.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("pattern records API: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("pattern records API: %d: %s", e.Status, e.Message)
}

// PlanRestricted reports whether the error is caused by the user's plan.
func (e *APIError) PlanRestricted() bool {
	return planCodes[e.Code]
}

// Redirect returns the path the user should be sent to, or "".
func (e *APIError) Redirect() string {
	if e.PlanRestricted() {
		return PricingPath
	}
	return ""
}

// AsAPIError unwraps err to an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func IsUnauthorized(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == http.StatusUnauthorized
}

func IsForbidden(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == http.StatusForbidden
}

func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == http.StatusNotFound
}
