package cmd

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"
)

var loremSentences = strings.Split(strings.TrimSpace(heredoc.Doc(`
	The viewport only ever renders what it can see.
	Heights start as estimates and settle once an item is drawn.
	Scrolling through a long list never touches the items far away.
	A prefix sum answers where an item starts in logarithmic time.
	Measurements arrive out of order and are applied in one frame.
	Tall items push everything below them down without a full relayout.
	Resizing the terminal rewraps text and the list measures it again.
	Empty lists are a valid state and render nothing at all.
`)), "\n")

var (
	itemTitleStyle = lipgloss.NewStyle().Foreground(charmtone.Malibu).Bold(true)
	itemBodyStyle  = lipgloss.NewStyle().Foreground(charmtone.Squid)
)

// demoItem is a generated list entry whose body wraps to the list width, so
// its height depends on both content and terminal size.
type demoItem struct {
	id    string
	title string
	body  string
}

func (d demoItem) ID() string {
	return d.id
}

func (d demoItem) Render(width int) string {
	title := itemTitleStyle.Render(d.title)
	if d.body == "" {
		return title
	}
	return title + "\n" + itemBodyStyle.Width(width).Render(d.body)
}

// generateItems returns n items with bodies of zero to five sentences. The
// same seed always yields the same items, IDs included.
func generateItems(n int, seed uint64) []demoItem {
	rng := rand.New(rand.NewPCG(seed, seed))
	items := make([]demoItem, n)
	for i := range items {
		sentences := make([]string, rng.IntN(6))
		for j := range sentences {
			sentences[j] = loremSentences[rng.IntN(len(loremSentences))]
		}
		items[i] = demoItem{
			id:    uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "vlist-%d-%d", seed, i)).String(),
			title: fmt.Sprintf("#%d %s", i, strings.TrimSuffix(loremSentences[i%len(loremSentences)], ".")),
			body:  strings.Join(sentences, " "),
		}
	}
	return items
}

type itemSource []demoItem

func (s itemSource) String(i int) string {
	return s[i].title + " " + s[i].body
}

func (s itemSource) Len() int {
	return len(s)
}

// filterItems keeps the items fuzzily matching pattern, best match first. An
// empty pattern keeps everything in order.
func filterItems(items []demoItem, pattern string) []demoItem {
	if pattern == "" {
		return items
	}
	matches := fuzzy.FindFrom(pattern, itemSource(items))
	filtered := make([]demoItem, 0, len(matches))
	for _, match := range matches {
		filtered = append(filtered, items[match.Index])
	}
	return filtered
}
