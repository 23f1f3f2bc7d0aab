// Package questionbank holds the curated static question sets and the
// selection rules used for exams that are not tied to a host instance.
package questionbank

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/dsarena/exam-backend/internal/model"
)

// Bank serves exam questions from the static curated sets, keyed by
// language. Selection is deterministic given the rand source, which makes
// the draw testable.
type Bank struct {
	problems map[model.Language][]model.ExamQuestion
	rng      *rand.Rand
}

// New creates a Bank over the built-in question sets.
func New(rng *rand.Rand) *Bank {
	return &Bank{
		problems: map[model.Language][]model.ExamQuestion{
			model.LanguagePython:     pythonProblems,
			model.LanguageJavaScript: javascriptProblems,
			model.LanguageJava:       javaProblems,
			model.LanguageCPP:        cppProblems,
		},
		rng: rng,
	}
}

// Languages returns the languages the bank has questions for.
func (b *Bank) Languages() []model.Language {
	langs := make([]model.Language, 0, len(b.problems))
	for l := range b.problems {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}

// SelectRandom draws count questions for a language. When count is 3 and
// the set carries all three difficulties, the draw is one easy, one medium
// and one hard question; otherwise it falls back to a shuffled pick sorted
// into a rough easy→hard progression.
func (b *Bank) SelectRandom(language model.Language, count int) ([]model.ExamQuestion, error) {
	pool, ok := b.problems[language]
	if !ok || len(pool) < count {
		return nil, fmt.Errorf("question bank: need %d questions for %s, have %d", count, language, len(pool))
	}

	if count == 3 {
		byDifficulty := map[string][]model.ExamQuestion{}
		for _, q := range pool {
			byDifficulty[q.Difficulty] = append(byDifficulty[q.Difficulty], q)
		}
		easy, medium, hard := byDifficulty["easy"], byDifficulty["medium"], byDifficulty["hard"]
		if len(easy) > 0 && len(medium) > 0 && len(hard) > 0 {
			return []model.ExamQuestion{
				easy[b.rng.Intn(len(easy))],
				medium[b.rng.Intn(len(medium))],
				hard[b.rng.Intn(len(hard))],
			}, nil
		}
	}

	shuffled := make([]model.ExamQuestion, len(pool))
	copy(shuffled, pool)
	b.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	selected := shuffled[:count]

	order := map[string]int{"easy": 1, "medium": 2, "hard": 3}
	sort.SliceStable(selected, func(i, j int) bool {
		oi, oj := order[selected[i].Difficulty], order[selected[j].Difficulty]
		if oi == 0 {
			oi = 99
		}
		if oj == 0 {
			oj = 99
		}
		return oi < oj
	})
	return selected, nil
}

// GetByIDs resolves the exact questions a session was created with,
// preserving their original order. Used on resume so a reloaded session
// never draws a fresh set.
func (b *Bank) GetByIDs(ids []string, language model.Language) ([]model.ExamQuestion, error) {
	pool, ok := b.problems[language]
	if !ok {
		return nil, fmt.Errorf("question bank: unknown language %q", language)
	}

	byID := make(map[string]model.ExamQuestion, len(pool))
	for _, q := range pool {
		byID[q.ID] = q
	}

	questions := make([]model.ExamQuestion, 0, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("question bank: question not found: %s", id)
		}
		questions = append(questions, q)
	}
	return questions, nil
}
