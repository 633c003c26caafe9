package models

import "time"

type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ImportSummary struct {
	TotalRows        int              `json:"total_rows"`
	ProcessedRows    int              `json:"processed_rows"`
	SuccessCount     int              `json:"success_count"`
	ErrorCount       int              `json:"error_count"`
	CreatedQuestions []uint           `json:"created_questions"`
	Errors           []ImportRowError `json:"errors"`
	ProcessingTime   time.Duration    `json:"processing_time"`
}

type ExportRequest struct {
	CategoryIDs   []uint `json:"category_ids"`
	IncludeAnswers bool  `json:"include_answers"`
	OnlyActive     bool  `json:"only_active"`
}
