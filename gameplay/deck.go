package gameplay

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
)

// Card is one face-down tile of a dealt deck. PairID, Glyph and Category never
// change after dealing; the remaining fields track live session state.
type Card struct {
	ID        string `json:"id"`
	PairID    string `json:"pair_id"`
	Glyph     string `json:"glyph"`
	Category  string `json:"category"`
	Position  int    `json:"position"`
	IsFlipped bool   `json:"is_flipped"`
	IsMatched bool   `json:"is_matched"`
}

// Generator deals shuffled decks. It is safe for concurrent use.
type Generator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	newID func() string
}

func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{
		rng:   rng,
		newID: uuid.NewString,
	}
}

// Generate deals a deck for the named tier. Templates from the category filter
// are preferred; when the filter cannot fill the deck the remaining pairs are
// drawn from the unfiltered pool.
func (g *Generator) Generate(difficulty string, filter []string) ([]Card, error) {
	tier, err := LookupTier(difficulty)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	selected, err := g.selectTemplates(tier.Pairs(), filter)
	if err != nil {
		return nil, err
	}

	deck := make([]Card, 0, tier.CardCount)
	for _, tpl := range selected {
		for i := 0; i < 2; i++ {
			deck = append(deck, Card{
				ID:       g.newID(),
				PairID:   tpl.PairID,
				Glyph:    tpl.Glyph,
				Category: tpl.Category,
			})
		}
	}

	g.rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	for i := range deck {
		deck[i].Position = i
	}

	return deck, nil
}

func (g *Generator) selectTemplates(need int, filter []string) ([]Template, error) {
	wanted := make(map[string]bool, len(filter))
	for _, c := range filter {
		wanted[c] = true
	}

	var preferred, rest []Template
	for _, tpl := range templates {
		if wanted[tpl.Category] {
			preferred = append(preferred, tpl)
		} else {
			rest = append(rest, tpl)
		}
	}

	g.shuffleTemplates(preferred)
	g.shuffleTemplates(rest)

	selected := make([]Template, 0, need)
	selected = append(selected, preferred[:min(need, len(preferred))]...)
	if missing := need - len(selected); missing > 0 {
		if missing > len(rest) {
			return nil, fmt.Errorf("template pool too small: need %d pairs, have %d", need, len(templates))
		}
		selected = append(selected, rest[:missing]...)
	}

	return selected, nil
}

func (g *Generator) shuffleTemplates(pool []Template) {
	g.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
}
