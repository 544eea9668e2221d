package providers

import "fmt"

// Provider operations reported in *Error
const (
	OpExchangeCode  = "exchange_code"
	OpFetchUserInfo = "fetch_user_info"
)

// Error reports a failed provider call together with the step that failed.
type Error struct {
	Provider string // provider name
	Op       string // OpExchangeCode or OpFetchUserInfo
	Status   int    // upstream HTTP status, 0 when the request never completed
	Err      error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s failed with status %d: %v", e.Provider, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}
