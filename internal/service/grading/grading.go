// Package grading проверяет и оценивает ответы участника.
// Все функции пакета чистые: без ввода-вывода и без зависимости от времени.
package grading

import (
	"fmt"

	"github.com/yourusername/contest-api/internal/domain/entity"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

// CodeInvalidAnswers - код ошибки структурной проверки ответов
const CodeInvalidAnswers = "INVALID_ANSWERS"

// SubmittedAnswer - выбор участника по одному вопросу
type SubmittedAnswer struct {
	QuestionID uint
	OptionIDs  []uint
}

// GradedAnswer - оцененный ответ
type GradedAnswer struct {
	QuestionID uint
	OptionIDs  []uint
	IsCorrect  bool
}

// Result - итог оценки всего набора ответов
type Result struct {
	// Answers идут в порядке вопросов конкурса
	Answers        []GradedAnswer
	Score          int
	TotalQuestions int
}

// Validate выполняет все структурные проверки за один проход и возвращает
// полный список нарушений. Пустой список означает, что ответы можно оценивать.
func Validate(questions []entity.Question, answers []SubmittedAnswer) []apperrors.Violation {
	byID := make(map[uint]*entity.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	var violations []apperrors.Violation
	add := func(field, format string, args ...any) {
		violations = append(violations, apperrors.Violation{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	seen := make(map[uint]bool, len(answers))
	for i, a := range answers {
		field := fmt.Sprintf("answers[%d]", i)
		if seen[a.QuestionID] {
			add(field+".question_id", "duplicate answer for question %d", a.QuestionID)
			continue
		}
		seen[a.QuestionID] = true

		q, ok := byID[a.QuestionID]
		if !ok {
			add(field+".question_id", "question %d does not belong to this contest", a.QuestionID)
			continue
		}

		if len(a.OptionIDs) == 0 {
			add(field+".option_ids", "question %d requires at least one selected option", q.ID)
			continue
		}

		picked := make(map[uint]bool, len(a.OptionIDs))
		for _, optID := range a.OptionIDs {
			if picked[optID] {
				add(field+".option_ids", "option %d selected more than once for question %d", optID, q.ID)
				continue
			}
			picked[optID] = true
			if !q.HasOption(optID) {
				add(field+".option_ids", "option %d does not belong to question %d", optID, q.ID)
			}
		}

		if q.IsSingleChoice() && len(a.OptionIDs) != 1 {
			add(field+".option_ids", "question %d (%s) requires exactly one selected option", q.ID, q.Type)
		}
	}

	for i := range questions {
		if !seen[questions[i].ID] {
			add("answers", "question %d is not answered", questions[i].ID)
		}
	}
	return violations
}

// IsCorrect применяет правило оценки типа вопроса к выбранным вариантам.
//
// single-select и true-false: верно, если единственный выбранный вариант правильный.
// multi-select: верно, только если множество выбранных совпадает с множеством правильных.
func IsCorrect(q *entity.Question, selected []uint) bool {
	correct := q.CorrectOptionIDs()

	if q.IsSingleChoice() {
		if len(selected) != 1 {
			return false
		}
		_, ok := correct[selected[0]]
		return ok
	}

	chosen := make(map[uint]struct{}, len(selected))
	for _, id := range selected {
		chosen[id] = struct{}{}
	}
	if len(chosen) != len(correct) {
		return false
	}
	for id := range chosen {
		if _, ok := correct[id]; !ok {
			return false
		}
	}
	return true
}

// Grade проверяет ответы и оценивает их. Каждый верный ответ дает одно очко.
// При нарушениях возвращается ошибка BadRequest со всеми нарушениями и ничего не оценивается.
func Grade(questions []entity.Question, answers []SubmittedAnswer) (Result, error) {
	if violations := Validate(questions, answers); len(violations) > 0 {
		return Result{}, apperrors.Invalid(CodeInvalidAnswers, violations)
	}

	byQuestion := make(map[uint][]uint, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a.OptionIDs
	}

	res := Result{
		Answers:        make([]GradedAnswer, 0, len(questions)),
		TotalQuestions: len(questions),
	}
	for i := range questions {
		q := &questions[i]
		selected := byQuestion[q.ID]
		ok := IsCorrect(q, selected)
		if ok {
			res.Score++
		}
		res.Answers = append(res.Answers, GradedAnswer{QuestionID: q.ID, OptionIDs: selected, IsCorrect: ok})
	}
	return res, nil
}
