package seed

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// Factory produces fake but plausible usernames and content.
type Factory struct {
	faker *gofakeit.Faker
	seen  map[string]bool
}

// NewFactory seeds the generator; a zero seed picks one from the clock.
func NewFactory(seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{faker: gofakeit.New(seed), seen: make(map[string]bool)}
}

// Username returns a name not handed out before by this factory.
func (f *Factory) Username() string {
	for {
		name := strings.ToLower(f.faker.Username())
		if len(name) > 32 {
			name = name[:32]
		}
		if f.seen[name] {
			name = fmt.Sprintf("%s%d", name, f.faker.Number(10, 9999))
		}
		if !f.seen[name] {
			f.seen[name] = true
			return name
		}
	}
}

func (f *Factory) PostContent() string {
	switch f.faker.Number(0, 3) {
	case 0:
		return f.faker.HipsterSentence(f.faker.Number(4, 12))
	case 1:
		return f.faker.Paragraph(1, 3, 8, " ")
	case 2:
		return f.faker.Quote()
	default:
		return f.faker.Sentence(f.faker.Number(3, 15))
	}
}

func (f *Factory) CommentContent() string {
	if f.faker.Bool() {
		return f.faker.Phrase()
	}
	return f.faker.Sentence(f.faker.Number(2, 10))
}

func (f *Factory) Bio() string {
	return f.faker.HipsterSentence(f.faker.Number(3, 8))
}

func (f *Factory) DisplayName() string {
	return f.faker.FirstName() + " " + f.faker.LastName()
}

// Intn returns a value in [0, n).
func (f *Factory) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.Number(0, n-1)
}

// Chance reports true with probability pct/100.
func (f *Factory) Chance(pct int) bool {
	return f.faker.Number(1, 100) <= pct
}

// spreadClock hands out strictly increasing instants that start maxDays in
// the past, so seeded feeds look like they grew over time.
type spreadClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

func newSpreadClock(now time.Time, maxDays, events int) *spreadClock {
	if maxDays <= 0 {
		maxDays = 30
	}
	if events <= 0 {
		events = 1
	}
	span := time.Duration(maxDays) * 24 * time.Hour
	return &spreadClock{next: now.Add(-span).UTC(), step: span / time.Duration(events+1)}
}

func (c *spreadClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.step)
	return now
}
