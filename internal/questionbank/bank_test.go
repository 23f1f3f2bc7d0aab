package questionbank

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsarena/exam-backend/internal/model"
)

func newTestBank() *Bank {
	return New(rand.New(rand.NewSource(42)))
}

func TestSelectRandomDifficultySpread(t *testing.T) {
	bank := newTestBank()

	for _, lang := range bank.Languages() {
		questions, err := bank.SelectRandom(lang, 3)
		require.NoError(t, err, "language %s", lang)
		require.Len(t, questions, 3)

		assert.Equal(t, "easy", questions[0].Difficulty)
		assert.Equal(t, "medium", questions[1].Difficulty)
		assert.Equal(t, "hard", questions[2].Difficulty)
	}
}

func TestSelectRandomTooFewQuestions(t *testing.T) {
	bank := newTestBank()

	_, err := bank.SelectRandom(model.LanguageJava, 50)
	assert.Error(t, err)

	_, err = bank.SelectRandom(model.Language("cobol"), 3)
	assert.Error(t, err)
}

func TestGetByIDsPreservesOrder(t *testing.T) {
	bank := newTestBank()

	drawn, err := bank.SelectRandom(model.LanguagePython, 3)
	require.NoError(t, err)

	ids := []string{drawn[2].ID, drawn[0].ID, drawn[1].ID}
	questions, err := bank.GetByIDs(ids, model.LanguagePython)
	require.NoError(t, err)
	require.Len(t, questions, 3)

	for i, id := range ids {
		assert.Equal(t, id, questions[i].ID)
	}
}

func TestGetByIDsUnknownQuestion(t *testing.T) {
	bank := newTestBank()

	_, err := bank.GetByIDs([]string{"no-such-question"}, model.LanguagePython)
	assert.Error(t, err)
}

func TestBankQuestionsCarryHiddenTests(t *testing.T) {
	bank := newTestBank()

	for _, lang := range bank.Languages() {
		for _, q := range bank.problems[lang] {
			assert.NotEmpty(t, q.VisibleTests, "%s has no visible tests", q.ID)
			assert.NotEmpty(t, q.HiddenTests, "%s has no hidden tests", q.ID)
			assert.NotEmpty(t, q.StarterCode, "%s has no starter code", q.ID)
		}
	}
}
