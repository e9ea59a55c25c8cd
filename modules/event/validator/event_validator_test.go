package validator

import (
	"testing"

	"uniplanner/core/controller"
	"uniplanner/modules/event/dto"

	"github.com/stretchr/testify/assert"
)

func strp(s string) *string { return &s }

func fields(r *controller.ValidationResponse) []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Field)
	}
	return out
}

func TestValidateCreateEventRequest(t *testing.T) {
	ok := &dto.CreateEventRequest{Title: "Lecture", Date: "2025-03-11", Time: strp("09:30"), RepeatOption: "weekly", MaterializeCount: 4}
	assert.False(t, ValidateCreateEventRequest(ok).HasError())

	bad := &dto.CreateEventRequest{
		Title:        "  ",
		Date:         "11/03/2025",
		Time:         strp("9.30"),
		RepeatOption: "yearly",
		ByDays:       []int{1, 9},
	}
	result := ValidateCreateEventRequest(bad)
	assert.True(t, result.HasError())
	assert.ElementsMatch(t, []string{"title", "date", "time", "repeatOption", "byDays[1]"}, fields(result))
}

func TestValidateCreateEventRequest_CrossField(t *testing.T) {
	req := &dto.CreateEventRequest{
		Title:            "Trip",
		Date:             "2025-03-11",
		EndDate:          strp("2025-03-10"),
		RepeatOption:     "custom",
		Materialize:      true,
		MaterializeUntil: strp("2025-03-01"),
	}
	result := ValidateCreateEventRequest(req)
	assert.ElementsMatch(t, []string{"byDays", "endDate", "materializeUntil"}, fields(result))
}

func TestValidateUpdateEventRequest(t *testing.T) {
	assert.False(t, ValidateUpdateEventRequest(&dto.UpdateEventRequest{ClearTime: true}).HasError())

	result := ValidateUpdateEventRequest(&dto.UpdateEventRequest{ClearTime: true, Time: strp("10:00")})
	assert.Equal(t, []string{"clearTime"}, fields(result))
}

func TestValidateScopedUpdateRequest(t *testing.T) {
	result := ValidateScopedUpdateRequest(&dto.ScopedUpdateRequest{Scope: "all"})
	assert.Equal(t, []string{"scope"}, fields(result))

	result = ValidateScopedUpdateRequest(&dto.ScopedUpdateRequest{Scope: "series", Patch: dto.UpdateEventRequest{Date: strp("2025-3-1")}})
	assert.Equal(t, []string{"patch.date"}, fields(result))
}

func TestValidateListEventsQuery(t *testing.T) {
	assert.False(t, ValidateListEventsQuery(&dto.ListEventsQuery{From: "2025-03-01", To: "2025-03-31"}).HasError())

	result := ValidateListEventsQuery(&dto.ListEventsQuery{From: "2025-03-31", To: "2025-03-01", PageSize: 1000})
	assert.ElementsMatch(t, []string{"to", "page_size"}, fields(result))
}

func TestValidateCreateTemplateRequest(t *testing.T) {
	result := ValidateCreateTemplateRequest(&dto.CreateTemplateRequest{Title: "Lab", RepeatOption: "custom", StartDate: "2025-03-11"})
	assert.Equal(t, []string{"byDays"}, fields(result))

	result = ValidateCreateTemplateRequest(&dto.CreateTemplateRequest{})
	assert.ElementsMatch(t, []string{"title", "repeatOption", "startDate"}, fields(result))
}
