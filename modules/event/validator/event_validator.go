package validator

import (
	"strings"

	"uniplanner/core/controller"
	"uniplanner/core/validation"
	"uniplanner/modules/event/dto"
	"uniplanner/modules/event/recurrence"
)

func ValidateCreateEventRequest(req *dto.CreateEventRequest) *controller.ValidationResponse {
	result := validation.Struct(req)
	if strings.TrimSpace(req.Title) == "" && !hasField(result, "title") {
		result.Add("title", "is required")
	}
	if req.RepeatOption == string(recurrence.RepeatCustom) && len(req.ByDays) == 0 {
		result.Add("byDays", "is required for a custom repeat")
	}
	if req.EndDate != nil && *req.EndDate != "" && *req.EndDate < req.Date && !hasField(result, "endDate") {
		result.Add("endDate", "must not be before date")
	}
	if req.MaterializeUntil != nil && *req.MaterializeUntil != "" && *req.MaterializeUntil < req.Date && !hasField(result, "materializeUntil") {
		result.Add("materializeUntil", "must not be before date")
	}
	return result
}

func ValidateUpdateEventRequest(req *dto.UpdateEventRequest) *controller.ValidationResponse {
	result := validation.Struct(req)
	if req.ClearTime && req.Time != nil {
		result.Add("clearTime", "cannot be combined with time")
	}
	return result
}

func ValidateScopedUpdateRequest(req *dto.ScopedUpdateRequest) *controller.ValidationResponse {
	result := validation.Struct(req)
	if req.Patch.ClearTime && req.Patch.Time != nil {
		result.Add("patch.clearTime", "cannot be combined with time")
	}
	return result
}

func ValidateDeleteEventQuery(query *dto.DeleteEventQuery) *controller.ValidationResponse {
	return validation.Struct(query)
}

func ValidateListEventsQuery(query *dto.ListEventsQuery) *controller.ValidationResponse {
	result := validation.Struct(query)
	// YYYY-MM-DD compares correctly as a string.
	if query.From != "" && query.To != "" && query.To < query.From && !hasField(result, "to") {
		result.Add("to", "must not be before from")
	}
	return result
}

func ValidateCreateTemplateRequest(req *dto.CreateTemplateRequest) *controller.ValidationResponse {
	result := validation.Struct(req)
	if req.RepeatOption == string(recurrence.RepeatCustom) && len(req.ByDays) == 0 {
		result.Add("byDays", "is required for a custom repeat")
	}
	return result
}

func ValidateMaterializeTemplateRequest(req *dto.MaterializeTemplateRequest) *controller.ValidationResponse {
	return validation.Struct(req)
}

func hasField(result *controller.ValidationResponse, field string) bool {
	for _, e := range result.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}
