package models

// Requests for the synthesis HTTP endpoints. Defined in domain for consistency and reuse.

type RunRequest struct {
	Async bool `query:"async" json:"async" default:"false"`
}

type TableRequest struct {
	TF string `query:"tf" json:"tf" validate:"required"`
}

type LogsRequest struct {
	Limit int `query:"limit" json:"limit" default:"200" validate:"gte=1,lte=2000"`
}
