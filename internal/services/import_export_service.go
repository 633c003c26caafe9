package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ot-portal/quiz-service/internal/models"
	"github.com/ot-portal/quiz-service/internal/repositories"
	"github.com/ot-portal/quiz-service/internal/utils"
)

// Spreadsheet layout for question import: a header row naming the columns,
// then one question per row. Up to six answer options (option_a..option_f),
// correct_answer holds the letter of the right option.
var importOptionColumns = []string{"option_a", "option_b", "option_c", "option_d", "option_e", "option_f"}

type importExportService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
}

func NewImportExportService(repo repositories.Repository, logger *slog.Logger, validator *utils.Validator) ImportExportService {
	return &importExportService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ===== IMPORT =====

func (s *importExportService) ImportQuestions(ctx context.Context, r io.Reader, categoryID uint) (*models.ImportSummary, error) {
	start := time.Now()
	s.logger.Info("Starting question import", "category_id", categoryID)

	category, err := s.repo.Category().GetByID(ctx, categoryID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "spreadsheet has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, NewValidationError("file", "spreadsheet must have a header row and at least one data row", len(rows))
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range []string{"question_text", "correct_answer"} {
		if _, exists := headerMap[col]; !exists {
			return nil, NewValidationError("headers", fmt.Sprintf("missing required column: %s", col), col)
		}
	}

	summary := &models.ImportSummary{
		TotalRows: len(rows) - 1,
	}

	var questions []*models.Question
	for rowIndex, row := range rows[1:] {
		question, rowErrors := s.parseQuestionRow(row, headerMap, rowIndex+2, category.ID)
		if len(rowErrors) > 0 {
			summary.Errors = append(summary.Errors, rowErrors...)
			summary.ErrorCount++
		} else {
			questions = append(questions, question)
			summary.SuccessCount++
		}
		summary.ProcessedRows++
	}

	if len(questions) > 0 {
		err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
			return txRepo.Question().CreateBatch(ctx, questions)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to save imported questions: %w", err)
		}
		for _, q := range questions {
			summary.CreatedQuestions = append(summary.CreatedQuestions, q.ID)
		}
	}

	summary.ProcessingTime = time.Since(start)

	s.logger.Info("Question import completed",
		"category_id", categoryID,
		"total_rows", summary.TotalRows,
		"success_count", summary.SuccessCount,
		"error_count", summary.ErrorCount)
	return summary, nil
}

func (s *importExportService) parseQuestionRow(row []string, headerMap map[string]int, rowNum int, categoryID uint) (*models.Question, []models.ImportRowError) {
	var rowErrors []models.ImportRowError

	getColumn := func(name string) string {
		if index, exists := headerMap[name]; exists && index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	questionText := getColumn("question_text")
	if questionText == "" {
		rowErrors = append(rowErrors, models.ImportRowError{
			Row: rowNum, Field: "question_text", Message: "required field",
		})
		return nil, rowErrors
	}

	var answers []models.Answer
	for i, colName := range importOptionColumns {
		optionText := getColumn(colName)
		if optionText == "" {
			continue
		}
		answers = append(answers, models.Answer{
			AnswerText: optionText,
			Order:      i,
		})
	}
	if len(answers) < 2 {
		rowErrors = append(rowErrors, models.ImportRowError{
			Row: rowNum, Field: "options", Message: "must have at least 2 answer options",
		})
		return nil, rowErrors
	}

	correct := strings.ToUpper(getColumn("correct_answer"))
	correctIndex := -1
	if len(correct) == 1 && correct[0] >= 'A' && correct[0] <= 'F' {
		correctIndex = int(correct[0] - 'A')
	}
	if correctIndex < 0 || correctIndex >= len(answers) {
		rowErrors = append(rowErrors, models.ImportRowError{
			Row: rowNum, Field: "correct_answer",
			Message: fmt.Sprintf("must name one of the provided options, got %q", correct),
		})
		return nil, rowErrors
	}
	answers[correctIndex].IsCorrect = true

	question := &models.Question{
		CategoryID:   categoryID,
		QuestionText: questionText,
		Answers:      answers,
		IsActive:     true,
	}
	if explanation := getColumn("explanation"); explanation != "" {
		question.Explanation = &explanation
	}
	if imageURL := getColumn("image_url"); imageURL != "" {
		question.ImageURL = &imageURL
	}
	return question, nil
}

// ===== EXPORT =====

func (s *importExportService) ExportQuestions(ctx context.Context, req *models.ExportRequest) ([]byte, error) {
	s.logger.Info("Exporting questions",
		"category_ids", req.CategoryIDs,
		"only_active", req.OnlyActive)

	categoryIDs := req.CategoryIDs
	if len(categoryIDs) == 0 {
		categories, err := s.repo.Category().List(ctx, req.OnlyActive)
		if err != nil {
			return nil, fmt.Errorf("failed to list categories: %w", err)
		}
		for _, c := range categories {
			categoryIDs = append(categoryIDs, c.ID)
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	sheetName := "Questions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"category", "question_text"}
	for _, col := range importOptionColumns {
		headers = append(headers, col)
	}
	if req.IncludeAnswers {
		headers = append(headers, "correct_answer")
	}
	headers = append(headers, "explanation", "image_url", "is_active")

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	rowNum := 2
	for _, categoryID := range categoryIDs {
		category, err := s.repo.Category().GetByID(ctx, categoryID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				continue
			}
			return nil, fmt.Errorf("failed to get category %d: %w", categoryID, err)
		}

		filters := repositories.QuestionFilters{CategoryID: &category.ID}
		if req.OnlyActive {
			active := true
			filters.IsActive = &active
		}
		questions, _, err := s.repo.Question().List(ctx, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to list questions for category %d: %w", categoryID, err)
		}

		for _, question := range questions {
			row := s.questionToRow(category, question, req.IncludeAnswers)
			for colIndex, value := range row {
				cell, _ := excelize.CoordinatesToCellName(colIndex+1, rowNum)
				f.SetCellValue(sheetName, cell, value)
			}
			rowNum++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *importExportService) questionToRow(category *models.QuizCategory, question *models.Question, includeAnswers bool) []interface{} {
	row := []interface{}{category.Name, question.QuestionText}

	correctLetter := ""
	for i := range importOptionColumns {
		text := ""
		if i < len(question.Answers) {
			text = question.Answers[i].AnswerText
			if question.Answers[i].IsCorrect && correctLetter == "" {
				correctLetter = string(rune('A' + i))
			}
		}
		row = append(row, text)
	}
	if includeAnswers {
		row = append(row, correctLetter)
	}

	explanation := ""
	if question.Explanation != nil {
		explanation = *question.Explanation
	}
	imageURL := ""
	if question.ImageURL != nil {
		imageURL = *question.ImageURL
	}
	return append(row, explanation, imageURL, question.IsActive)
}
