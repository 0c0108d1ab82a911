package types

import "fmt"

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error code areas. Codes are rendered as AREA_STATUS, e.g. POWER_400.
const (
	AreaAuth      = "AUTH"
	AreaUser      = "USER"
	AreaToken     = "TOKEN"
	AreaCatalog   = "CATALOG"
	AreaPower     = "POWER"
	AreaWorkbench = "WORKBENCH"
	AreaDiagram   = "DIAGRAM"
)

// NewErrorResponse builds a consistent API error payload.
// details can be string, map, struct, etc.
func NewErrorResponse(code, message string, details any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func ErrorCode(area string, status int) string {
	return fmt.Sprintf("%s_%d", area, status)
}
