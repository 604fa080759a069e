package trainer

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var strategies = []Strategy{Recount, Incremental}

// generateCorpus returns a deterministic pseudo-random corpus of n words drawn from a small
// alphabet, so that many pairs repeat and ties are common.
func generateCorpus(seed int64, n int) string {
	r := rand.New(rand.NewSource(seed))
	alphabet := []string{"a", "b", "c", "d", "e", "é", "ß"}

	var sb strings.Builder
	for i := 0; i < n; i++ {
		l := 1 + r.Intn(7)
		for j := 0; j < l; j++ {
			sb.WriteString(alphabet[r.Intn(len(alphabet))])
		}
		if i%13 == 12 {
			sb.WriteByte('\n')
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

func train(t testing.TB, v *Vocabulary, opts Options) *Trainer {
	t.Helper()

	tr, err := New(v, opts)
	if err != nil {
		t.Fatalf("failed to create trainer: %v", err)
	}
	if err := tr.Run(context.Background()); err != nil {
		t.Fatalf("training failed: %v", err)
	}
	return tr
}

func TestScenarioTieBreakSingleMerge(t *testing.T) {
	for _, s := range strategies {
		t.Run(string(s), func(t *testing.T) {
			tr := train(t, loadTestVocabulary(t, "aa ab"), Options{Merges: 1, Strategy: s})

			assert.Equal(t, []Pair{{"a", "a</w>"}}, tr.Merges())
			assert.Equal(t, map[SymbolSequence]int64{"aa</w>": 1, "a b</w>": 1}, tr.Vocabulary().Map())
			assert.Equal(t, []string{"a", "aa", "b"}, ExtractTokens(tr.Vocabulary()).Sorted())
			assert.Equal(t, Done, tr.State())
			assert.Equal(t, BudgetReached, tr.StopReason())
		})
	}
}

func TestScenarioRunsToExhaustion(t *testing.T) {
	for _, s := range strategies {
		t.Run(string(s), func(t *testing.T) {
			tr := train(t, loadTestVocabulary(t, "aa ab"), Options{Merges: 10, Strategy: s})

			assert.Equal(t, []Pair{{"a", "a</w>"}, {"a", "b</w>"}}, tr.Merges())
			assert.Equal(t, []string{"aa", "ab"}, ExtractTokens(tr.Vocabulary()).Sorted())
			assert.Equal(t, Exhausted, tr.StopReason())
		})
	}
}

func TestZeroBudget(t *testing.T) {
	for _, budget := range []int{0, -5} {
		for _, s := range strategies {
			tr := train(t, loadTestVocabulary(t, "hello world"), Options{Merges: budget, Strategy: s})

			assert.Empty(t, tr.Merges())
			assert.Equal(t, Done, tr.State())
			assert.Equal(t, BudgetReached, tr.StopReason())
			assert.Equal(t, []string{"d", "e", "h", "l", "o", "r", "w"}, ExtractTokens(tr.Vocabulary()).Sorted())
		}
	}
}

func TestEmptyCorpus(t *testing.T) {
	for _, s := range strategies {
		tr := train(t, loadTestVocabulary(t, "  \n\n"), Options{Merges: 100, Strategy: s})

		assert.Empty(t, tr.Merges())
		assert.Equal(t, Exhausted, tr.StopReason())
		assert.Zero(t, ExtractTokens(tr.Vocabulary()).Len())
		assert.Zero(t, tr.Vocabulary().Total())
	}
}

func TestClassicCorpus(t *testing.T) {
	text := strings.Repeat("low ", 5) + strings.Repeat("lower ", 2) + strings.Repeat("newest ", 6) + strings.Repeat("widest ", 3)

	for _, s := range strategies {
		t.Run(string(s), func(t *testing.T) {
			tr := train(t, loadTestVocabulary(t, text), Options{Merges: 4, Strategy: s})

			// (e,s) and (s,t</w>) both occur 9 times and (e,s) wins the tie.
			// The last step is a three-way tie at 6 between (e,w), (n,e) and (w,est</w>).
			assert.Equal(t, []Pair{
				{"e", "s"},
				{"es", "t</w>"},
				{"l", "o"},
				{"e", "w"},
			}, tr.Merges())
		})
	}
}

func TestStateTransitions(t *testing.T) {
	tr, err := New(loadTestVocabulary(t, "abc abc"), Options{Merges: 5})
	require.NoError(t, err)
	assert.Equal(t, Ready, tr.State())
	assert.Equal(t, NotStopped, tr.StopReason())

	more, err := tr.Step(context.Background())
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, Iterating, tr.State())
	assert.Len(t, tr.Merges(), 1)

	more, err = tr.Step(context.Background())
	require.NoError(t, err)
	assert.True(t, more)

	// abc is now one symbol
	more, err = tr.Step(context.Background())
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, Done, tr.State())
	assert.Equal(t, Exhausted, tr.StopReason())

	more, err = tr.Step(context.Background())
	require.NoError(t, err)
	assert.False(t, more)
	assert.Len(t, tr.Merges(), 2)
}

func TestFrequencyConservation(t *testing.T) {
	v := loadTestVocabulary(t, generateCorpus(11, 1500))
	total := v.Total()
	require.Equal(t, int64(1500), total)

	for _, s := range strategies {
		t.Run(string(s), func(t *testing.T) {
			tr, err := New(v, Options{Merges: 300, Strategy: s})
			require.NoError(t, err)

			for {
				more, err := tr.Step(context.Background())
				require.NoError(t, err)
				require.Equal(t, total, tr.Vocabulary().Total())

				var sum int64
				tr.Vocabulary().Each(func(_ SymbolSequence, _ []Symbol, f int64) { sum += f })
				require.Equal(t, total, sum)

				if !more {
					break
				}
			}
		})
	}
}

func TestBudgetRespected(t *testing.T) {
	v := loadTestVocabulary(t, generateCorpus(5, 800))

	for _, budget := range []int{1, 7, 50, 200} {
		tr := train(t, v, Options{Merges: budget})
		assert.Len(t, tr.Merges(), budget)
		assert.Equal(t, BudgetReached, tr.StopReason())
	}

	tr := train(t, v, Options{Merges: 1_000_000})
	assert.Less(t, len(tr.Merges()), 1_000_000)
	assert.Equal(t, Exhausted, tr.StopReason())

	// every word ends up as a single symbol
	tr.Vocabulary().Each(func(_ SymbolSequence, symbols []Symbol, _ int64) {
		assert.Len(t, symbols, 1)
	})
}

func TestStrategiesAgree(t *testing.T) {
	withSmallShards(t)

	for _, seed := range []int64{1, 2, 3} {
		v := loadTestVocabulary(t, generateCorpus(seed, 2500))

		want := train(t, v, Options{Merges: 400, Strategy: Recount, Workers: 1})
		for _, workers := range []int{1, 4} {
			for _, s := range strategies {
				got := train(t, v, Options{Merges: 400, Strategy: s, Workers: workers})
				require.Equal(t, want.Merges(), got.Merges(), "seed=%d strategy=%s workers=%d", seed, s, workers)
				require.True(t, want.Vocabulary().Equal(got.Vocabulary()))
			}
		}
	}
}

func TestDeterministic(t *testing.T) {
	text := generateCorpus(42, 2000)

	a := train(t, loadTestVocabulary(t, text), Options{Merges: 250})
	b := train(t, loadTestVocabulary(t, text), Options{Merges: 250})
	assert.Equal(t, a.Merges(), b.Merges())
	assert.Equal(t, ExtractTokens(a.Vocabulary()).Sorted(), ExtractTokens(b.Vocabulary()).Sorted())
}

func TestReplayReconstructsVocabulary(t *testing.T) {
	v := loadTestVocabulary(t, generateCorpus(9, 1200))

	for _, s := range strategies {
		tr := train(t, v, Options{Merges: 150, Strategy: s})

		got, err := Replay(context.Background(), v, tr.Merges(), 2)
		require.NoError(t, err)
		assert.True(t, tr.Vocabulary().Equal(got))
	}
}

func TestCoverage(t *testing.T) {
	text := generateCorpus(21, 900) + " xyz q"
	v := loadTestVocabulary(t, text)
	tr := train(t, v, Options{Merges: 120})
	tokens := ExtractTokens(tr.Vocabulary()).Sorted()

	for _, r := range text {
		if r == ' ' || r == '\n' {
			continue
		}
		found := false
		for _, tok := range tokens {
			if strings.ContainsRune(tok, r) {
				found = true
				break
			}
		}
		require.True(t, found, "character %q missing from tokens", r)
	}
}

func TestTokensNeverCarryMarker(t *testing.T) {
	tr := train(t, loadTestVocabulary(t, generateCorpus(4, 600)), Options{Merges: 80})

	for _, tok := range ExtractTokens(tr.Vocabulary()).Sorted() {
		assert.NotContains(t, tok, DefaultEndOfWord)
		assert.True(t, utf8.ValidString(tok))
	}
}

func TestProgressObserver(t *testing.T) {
	var got []Progress
	tr := train(t, loadTestVocabulary(t, generateCorpus(8, 500)), Options{
		Merges:        7,
		ProgressEvery: 2,
		Observer:      func(p Progress) { got = append(got, p) },
	})

	require.Len(t, got, 3)
	for i, p := range got {
		assert.Equal(t, 2*(i+1), p.Merges)
		assert.Equal(t, 7, p.Budget)
		assert.Equal(t, tr.Merges()[p.Merges-1], p.Last)
		assert.Positive(t, p.Freq)
	}
}

func TestProgressDisabled(t *testing.T) {
	called := false
	train(t, loadTestVocabulary(t, generateCorpus(8, 500)), Options{
		Merges:        20,
		ProgressEvery: -1,
		Observer:      func(Progress) { called = true },
	})
	assert.False(t, called)
}

func TestRunCancelled(t *testing.T) {
	for _, s := range strategies {
		t.Run(string(s), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			tr, err := New(loadTestVocabulary(t, generateCorpus(6, 1000)), Options{
				Merges:        500,
				Strategy:      s,
				ProgressEvery: 5,
				Observer:      func(Progress) { cancel() },
			})
			require.NoError(t, err)

			err = tr.Run(ctx)
			require.ErrorIs(t, err, context.Canceled)
			assert.Len(t, tr.Merges(), 5)
			assert.Equal(t, Iterating, tr.State())
		})
	}
}

func TestNewRejectsStrategy(t *testing.T) {
	_, err := New(loadTestVocabulary(t, "a"), Options{Strategy: "fastest"})
	require.ErrorIs(t, err, ErrInvalidStrategy)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, Incremental, s)

	s, err = ParseStrategy("recount")
	require.NoError(t, err)
	assert.Equal(t, Recount, s)
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "iterating", Iterating.String())
	assert.Equal(t, "exhausted", Exhausted.String())
	assert.Equal(t, "budget reached", BudgetReached.String())
	assert.Equal(t, "State(9)", State(9).String())
	assert.Equal(t, "a b</w>", Pair{"a", "b</w>"}.String())
}
