package dto

type PublishResponse struct {
	Tab  string `json:"tab" example:"loans_features"`
	Rows int    `json:"rows" example:"4"`
}

type StatusResponse struct {
	Status string `json:"status" example:"UP"`
}

type TableInfo struct {
	Name    string   `json:"name" example:"loans"`
	Columns []string `json:"columns"`
	Rows    int64    `json:"rows" example:"4"`
}

type SeedResponse struct {
	Customers int `json:"customers" example:"3"`
	Loans     int `json:"loans" example:"4"`
}

type CreateTableResponse struct {
	Name   string `json:"name" example:"customers"`
	PKName string `json:"pk_name" example:"customer_id"`
	PKType string `json:"pk_type" example:"str"`
}

type DistinctValuesResponse struct {
	Table  string `json:"table" example:"loans"`
	Column string `json:"column" example:"term"`
	Values []any  `json:"values"`
}
