package typeahead

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	inputs   []string
	focuses  int
	blurs    int
	selected []string
	scrolls  []int
}

func (r *recorder) events() Events[string] {
	return Events[string]{
		OnInput:    func(q string, _ []string) { r.inputs = append(r.inputs, q) },
		OnFocus:    func(string, []string) { r.focuses++ },
		OnBlur:     func(string, []string) { r.blurs++ },
		SelectItem: func(item string) { r.selected = append(r.selected, item) },
	}
}

func newFruit(t *testing.T, mutate func(*Config[string])) (*Typeahead[string], *recorder) {
	t.Helper()
	rec := &recorder{}
	cfg := DefaultConfig([]string{"Apple", "Banana", "Apricot"})
	cfg.MinInputLength = 1
	cfg.Events = rec.events()
	cfg.Scroller = ScrollFunc(func(i int) { rec.scrolls = append(rec.scrolls, i) })
	if mutate != nil {
		mutate(&cfg)
	}
	ta, err := New(cfg)
	require.NoError(t, err)
	return ta, rec
}

func TestInitialState(t *testing.T) {
	ta, rec := newFruit(t, nil)

	assert.False(t, ta.Focused())
	assert.Equal(t, "", ta.Query())
	assert.Equal(t, 0, ta.HighlightedIndex())
	assert.False(t, ta.Visible())
	assert.Equal(t, StateIdle, ta.State())
	assert.Len(t, ta.Candidates(), 3)
	assert.Empty(t, rec.selected)
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig([]int{1})
	assert.Equal(t, 2, cfg.MinInputLength)
	assert.Equal(t, 0, cfg.MinItemLength)
	assert.True(t, cfg.SelectOnTab)
	assert.False(t, cfg.TokenizedMatches)
	assert.Nil(t, cfg.DefaultItem)
}

func TestTypingShowsFilteredDropdown(t *testing.T) {
	ta, rec := newFruit(t, nil)

	ta.Focus()
	ta.InputChanged("ap")

	assert.Equal(t, []string{"Apple", "Apricot"}, ta.Candidates())
	assert.True(t, ta.Visible())
	assert.Equal(t, StateOpen, ta.State())
	assert.Equal(t, 0, ta.HighlightedIndex())
	assert.Equal(t, []string{"ap"}, rec.inputs)
	assert.Equal(t, 1, rec.focuses)
}

func TestTokenizedScenario(t *testing.T) {
	cfg := DefaultConfig([]string{"New York", "Los Angeles"})
	cfg.TokenizedMatches = true
	ta, err := New(cfg)
	require.NoError(t, err)

	ta.Focus()
	ta.InputChanged("los new")
	assert.Equal(t, []string{"New York", "Los Angeles"}, ta.Candidates())
	assert.True(t, ta.Visible())
}

func TestMoveDownClampsAtLastCandidate(t *testing.T) {
	ta, rec := newFruit(t, nil)
	ta.Focus()
	ta.InputChanged("ap")

	for range 5 {
		ta.MoveDown()
	}
	assert.Equal(t, 1, ta.HighlightedIndex())
	assert.Equal(t, []int{1, 1, 1, 1, 1}, rec.scrolls)

	for range 3 {
		ta.MoveUp()
	}
	assert.Equal(t, 0, ta.HighlightedIndex())
}

func TestNavigationIgnoredWhenHidden(t *testing.T) {
	ta, rec := newFruit(t, nil)

	ta.MoveDown()
	ta.MoveUp()
	assert.Equal(t, 0, ta.HighlightedIndex())
	assert.Empty(t, rec.scrolls)

	// focused but query below threshold
	ta.Focus()
	ta.MoveDown()
	assert.Equal(t, StateClosedFocused, ta.State())
	assert.Equal(t, 0, ta.HighlightedIndex())
}

func TestInputChangedClampsInsteadOfResetting(t *testing.T) {
	ta, _ := newFruit(t, func(c *Config[string]) {
		c.Items = []string{"ab1", "ab2", "ab3", "abc"}
	})
	ta.Focus()
	ta.InputChanged("ab")
	ta.MoveDown()
	ta.MoveDown()
	require.Equal(t, 2, ta.HighlightedIndex())

	// still in range: kept
	ta.InputChanged("ab ")
	assert.Equal(t, 2, ta.HighlightedIndex())

	// one candidate left: clamped to it
	ta.InputChanged("abc")
	assert.Equal(t, []string{"abc"}, ta.Candidates())
	assert.Equal(t, 0, ta.HighlightedIndex())

	// nothing matches: index 0, dropdown hidden
	ta.InputChanged("zzz")
	assert.Empty(t, ta.Candidates())
	assert.Equal(t, 0, ta.HighlightedIndex())
	assert.False(t, ta.Visible())
}

func TestCommit(t *testing.T) {
	ta, rec := newFruit(t, nil)
	ta.Focus()
	ta.InputChanged("ap")
	ta.MoveDown()

	require.True(t, ta.Commit())
	assert.Equal(t, []string{"Apricot"}, rec.selected)
	assert.Equal(t, "Apricot", ta.Query())
	assert.Equal(t, 0, ta.HighlightedIndex())
	assert.False(t, ta.Focused())
	assert.False(t, ta.Visible())
	assert.Equal(t, 1, rec.blurs)
}

func TestCommitNoopWithoutValidItem(t *testing.T) {
	t.Run("hidden dropdown", func(t *testing.T) {
		ta, rec := newFruit(t, nil)
		ta.InputChanged("ap")
		assert.False(t, ta.Commit())
		assert.Equal(t, "ap", ta.Query())
		assert.Empty(t, rec.selected)
	})

	t.Run("empty candidate set", func(t *testing.T) {
		ta, rec := newFruit(t, nil)
		ta.Focus()
		ta.InputChanged("kiwi")
		assert.False(t, ta.Commit())
		assert.Equal(t, "kiwi", ta.Query())
		assert.True(t, ta.Focused())
		assert.Empty(t, rec.selected)
	})
}

func TestCommitOrDeferToBlur(t *testing.T) {
	t.Run("select on tab", func(t *testing.T) {
		ta, rec := newFruit(t, nil)
		ta.Focus()
		ta.InputChanged("ban")
		ta.CommitOrDeferToBlur(true)
		assert.Equal(t, []string{"Banana"}, rec.selected)
		assert.False(t, ta.Focused())
	})

	t.Run("defer to blur", func(t *testing.T) {
		ta, rec := newFruit(t, nil)
		ta.Focus()
		ta.InputChanged("ban")
		ta.CommitOrDeferToBlur(false)
		assert.Empty(t, rec.selected)
		assert.Equal(t, "ban", ta.Query())
		assert.False(t, ta.Focused())
		assert.Equal(t, 1, rec.blurs)
	})
}

func TestHandleKey(t *testing.T) {
	ta, rec := newFruit(t, func(c *Config[string]) { c.SelectOnTab = false })
	ta.Focus()
	ta.InputChanged("a")

	assert.True(t, ta.HandleKey(KeyDown))
	assert.Equal(t, 1, ta.HighlightedIndex())
	assert.True(t, ta.HandleKey(KeyUp))
	assert.Equal(t, 0, ta.HighlightedIndex())
	assert.False(t, ta.HandleKey(KeyNone))

	assert.True(t, ta.HandleKey(KeyTab))
	assert.Empty(t, rec.selected)
	assert.False(t, ta.Focused())

	ta.Focus()
	assert.True(t, ta.HandleKey(KeyEnter))
	assert.Equal(t, []string{"Apple"}, rec.selected)
}

func TestFocusBlurEvents(t *testing.T) {
	ta, rec := newFruit(t, nil)

	ta.Blur()
	assert.Equal(t, 0, rec.blurs, "blur without focus is silent")

	ta.Focus()
	ta.Focus()
	assert.Equal(t, 1, rec.focuses)

	ta.InputChanged("ap")
	assert.True(t, ta.Visible())
	ta.Blur()
	assert.False(t, ta.Visible())
	assert.Equal(t, 1, rec.blurs)
	assert.Equal(t, "ap", ta.Query())
}

func TestVisibilityThresholds(t *testing.T) {
	tests := []struct {
		name     string
		minInput int
		minItems int
		query    string
		want     bool
	}{
		{"below min input", 2, 0, "a", false},
		{"at min input", 2, 0, "ap", true},
		{"whitespace not counted", 2, 0, " a  ", false},
		{"empty query with zero min input shows all", 0, 0, "", true},
		{"candidates must exceed min items", 1, 2, "ap", false},
		{"candidates above min items", 1, 1, "ap", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta, _ := newFruit(t, func(c *Config[string]) {
				c.MinInputLength = tt.minInput
				c.MinItemLength = tt.minItems
			})
			ta.Focus()
			ta.InputChanged(tt.query)
			assert.Equal(t, tt.want, ta.Visible())
		})
	}
}

func TestMinInputLengthCountsRunes(t *testing.T) {
	ta, _ := newFruit(t, func(c *Config[string]) {
		c.Items = []string{"café"}
		c.MinInputLength = 3
	})
	ta.Focus()

	ta.InputChanged("fé") // three bytes, two runes
	assert.Equal(t, []string{"café"}, ta.Candidates())
	assert.False(t, ta.Visible())

	ta.InputChanged("afé")
	assert.True(t, ta.Visible())
}

func TestDefaultItemCommitsAtStartup(t *testing.T) {
	apple := "Apple"
	ta, rec := newFruit(t, func(c *Config[string]) { c.DefaultItem = &apple })

	assert.Equal(t, "Apple", ta.Query())
	assert.Equal(t, []string{"Apple"}, rec.selected)
	assert.False(t, ta.Focused())
	assert.Equal(t, 0, rec.blurs)
	assert.Equal(t, 0, rec.focuses)
}

func TestClear(t *testing.T) {
	ta, rec := newFruit(t, nil)
	ta.Focus()
	ta.InputChanged("ap")
	ta.MoveDown()
	inputs := len(rec.inputs)

	ta.Clear()
	assert.Equal(t, "", ta.Query())
	assert.Equal(t, 0, ta.HighlightedIndex())
	assert.True(t, ta.Focused())
	assert.Len(t, rec.inputs, inputs)
	assert.Empty(t, rec.selected)
}

func TestSetItemsClamps(t *testing.T) {
	ta, rec := newFruit(t, nil)
	ta.Focus()
	ta.InputChanged("ap")
	ta.MoveDown()
	inputs := len(rec.inputs)

	ta.SetItems([]string{"Apple"})
	assert.Equal(t, []string{"Apple"}, ta.Candidates())
	assert.Equal(t, 0, ta.HighlightedIndex())
	assert.Len(t, rec.inputs, inputs)

	ta.SetItems(nil)
	assert.Empty(t, ta.Candidates())
	assert.False(t, ta.Visible())
}

func TestPointerSelection(t *testing.T) {
	ta, rec := newFruit(t, nil)
	ta.Focus()
	ta.InputChanged("ap")

	ta.HighlightAt(5)
	assert.Equal(t, 0, ta.HighlightedIndex())
	ta.HighlightAt(1)
	assert.Equal(t, 1, ta.HighlightedIndex())

	assert.False(t, ta.SelectAt(-1))
	assert.True(t, ta.SelectAt(0))
	assert.Equal(t, []string{"Apple"}, rec.selected)
}

func TestHighlightedIndexInvariant(t *testing.T) {
	words := []string{"alpha", "alps", "beta", "bet", "gamma", "game", "delta", "a", "b"}
	queries := []string{"", "a", "al", "be", "ga", "zz", "e", "t", "alp", " "}
	rng := rand.New(rand.NewSource(42))

	cfg := DefaultConfig(words)
	cfg.MinInputLength = 0
	ta, err := New(cfg)
	require.NoError(t, err)
	ta.Focus()

	for step := 0; step < 2000; step++ {
		switch rng.Intn(5) {
		case 0, 1:
			ta.InputChanged(queries[rng.Intn(len(queries))])
		case 2:
			ta.MoveDown()
		case 3:
			ta.MoveUp()
		case 4:
			if rng.Intn(10) == 0 {
				ta.Focus()
			}
		}

		n := len(ta.Candidates())
		idx := ta.HighlightedIndex()
		if n == 0 {
			require.Equal(t, 0, idx, "step %d", step)
		} else {
			require.GreaterOrEqual(t, idx, 0, "step %d", step)
			require.Less(t, idx, n, "step %d", step)
		}
	}
}

func TestNewValidation(t *testing.T) {
	cfg := DefaultConfig([]string{"a"})
	cfg.MinInputLength = -1
	cfg.MinItemLength = -3

	ta, err := New(cfg)
	require.Error(t, err)
	assert.Nil(t, ta)
	assert.True(t, errors.Is(err, ErrNegativeMinInputLength))
	assert.True(t, errors.Is(err, ErrNegativeMinItemLength))
	assert.Contains(t, err.Error(), "got -3")
}

func TestNilItemsAndDefaultProjection(t *testing.T) {
	cfg := DefaultConfig[int](nil)
	cfg.MinInputLength = 0
	ta, err := New(cfg)
	require.NoError(t, err)
	ta.Focus()
	ta.InputChanged("1")
	assert.Empty(t, ta.Candidates())
	assert.False(t, ta.Visible())

	ta.SetItems([]int{1, 12, 3})
	assert.Equal(t, []int{1, 12}, ta.Candidates())
	assert.Equal(t, "12", ta.Projection(12))
}

func TestProjectionPanicPropagates(t *testing.T) {
	cfg := DefaultConfig([]int{1})
	cfg.Projection = func(int) string { panic("broken projection") }
	ta, err := New(cfg)
	require.NoError(t, err) // empty query never projects

	assert.Panics(t, func() { ta.InputChanged("x") })
}

func TestSnapshot(t *testing.T) {
	ta, _ := newFruit(t, nil)
	ta.Focus()
	ta.InputChanged("ap")
	ta.MoveDown()

	snap := ta.Snapshot()
	assert.Equal(t, "ap", snap.Query)
	assert.Equal(t, []string{"Apple", "Apricot"}, snap.Candidates)
	assert.Equal(t, 1, snap.HighlightedIndex)
	assert.True(t, snap.Visible)
	assert.True(t, snap.Focused)
	assert.Equal(t, StateOpen, snap.State)
	assert.Equal(t, "open", snap.State.String())
}
