package dto

// ExportQuery selects the active events rendered into a feed.
type ExportQuery struct {
	From     string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	SeriesID string `query:"series_id"`
}

// PublishRequest uploads a rendered feed to object storage.
type PublishRequest struct {
	Name     string `json:"name" validate:"omitempty,max=100"`
	From     string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string `json:"to" validate:"omitempty,datetime=2006-01-02"`
	SeriesID string `json:"seriesId"`
}

type PublishResponse struct {
	Key        string `json:"key"`
	EventCount int    `json:"eventCount"`
}
