package services

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/ot-portal/quiz-service/internal/models"
	"github.com/ot-portal/quiz-service/internal/repositories"
)

// QuestionSelector produces the ordered question set for a new attempt. The
// randomness source is injected so tests can seed it; selection runs exactly
// once per attempt, at creation time, and its output is persisted as the
// attempt's question ordering.
type QuestionSelector struct {
	repo repositories.Repository
	rng  *rand.Rand
}

func NewQuestionSelector(repo repositories.Repository, rng *rand.Rand) *QuestionSelector {
	return &QuestionSelector{repo: repo, rng: rng}
}

// SelectForTraining returns every active question of the category in stored
// (order, id) order, shuffled when the quiz asks for random order. Training
// has no count cap.
func (s *QuestionSelector) SelectForTraining(ctx context.Context, quiz *models.Quiz, categoryID uint) ([]uint, error) {
	questions, err := s.repo.Question().GetActiveByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load category questions: %w", err)
	}

	ids := make([]uint, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}

	if quiz.RandomOrder {
		s.shuffle(ids)
	}
	return ids, nil
}

// SelectForExam draws questions category by category in the quiz's configured
// category priority, capping each category's contribution at
// questions_per_category and the total at exam_total_questions. Draws within
// a category are uniform without replacement. Guarantees:
//
//	total selected <= exam_total_questions
//	per-category selected <= min(questions_per_category, active in category)
//	categories consume the budget in a fixed deterministic order
func (s *QuestionSelector) SelectForExam(ctx context.Context, quiz *models.Quiz) ([]uint, error) {
	links, err := s.repo.Quiz().GetCategoryLinks(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz categories: %w", err)
	}
	sortCategoryLinks(links)

	budget := quiz.ExamTotalQuestions
	selected := make([]uint, 0, budget)

	for _, link := range links {
		if budget <= 0 {
			break
		}
		if !link.Category.IsActive {
			continue
		}

		questions, err := s.repo.Question().GetActiveByCategory(ctx, link.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to load category questions: %w", err)
		}
		if len(questions) == 0 {
			continue
		}

		take := quiz.QuestionsPerCategory
		if take > len(questions) {
			take = len(questions)
		}
		if take > budget {
			take = budget
		}

		selected = append(selected, s.sample(questions, take)...)
		budget -= take
	}

	if quiz.RandomOrder {
		s.shuffle(selected)
	}
	return selected, nil
}

// sample draws n question IDs uniformly without replacement.
func (s *QuestionSelector) sample(questions []*models.Question, n int) []uint {
	perm := s.rng.Perm(len(questions))[:n]
	// Keep category-major output stable for the non-shuffled case.
	sort.Ints(perm)

	ids := make([]uint, n)
	for i, idx := range perm {
		ids[i] = questions[idx].ID
	}
	return ids
}

func (s *QuestionSelector) shuffle(ids []uint) {
	s.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

// sortCategoryLinks fixes the category priority: join order first, name as
// the tie breaker. This makes budget exhaustion predictable.
func sortCategoryLinks(links []*models.QuizCategoryOrder) {
	sort.SliceStable(links, func(i, j int) bool {
		if links[i].Order != links[j].Order {
			return links[i].Order < links[j].Order
		}
		return links[i].Category.Name < links[j].Category.Name
	})
}
