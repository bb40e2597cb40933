// Package carousel drives the hero banner rotation.
package carousel

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is how long a slide stays up before auto-advancing.
const DefaultInterval = 5 * time.Second

type Slide struct {
	ID       int    `json:"id"`
	ImageURL string `json:"imageUrl"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	CTA      string `json:"cta"`
}

// Slides is the fixed hero content.
var Slides = []Slide{
	{
		ID:       1,
		ImageURL: "/assets/hero-banner.jpg",
		Title:    "Bem-vindos à Lojinha das Graças",
		Subtitle: "Produtos artesanais brasileiros com carinho especial",
		CTA:      "Ver Produtos",
	},
	{
		ID:       2,
		ImageURL: "/assets/hero-banner.jpg",
		Title:    "Promoção Especial",
		Subtitle: "Até 30% de desconto em produtos selecionados",
		CTA:      "Aproveitar Oferta",
	},
	{
		ID:       3,
		ImageURL: "/assets/hero-banner.jpg",
		Title:    "Novidades da Semana",
		Subtitle: "Confira os últimos lançamentos da nossa coleção",
		CTA:      "Descobrir",
	},
}

// Carousel holds the current slide index. Manual navigation and the
// auto-advance ticker act on the same index independently; navigating does
// not reset the ticker.
type Carousel struct {
	mu       sync.Mutex
	slides   []Slide
	current  int
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func New(slides []Slide, interval time.Duration) *Carousel {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Carousel{slides: slides, interval: interval}
}

func (c *Carousel) Next() int {
	return c.step(1)
}

func (c *Carousel) Prev() int {
	return c.step(-1)
}

// Select jumps to index i, wrapped into range.
func (c *Carousel) Select(i int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = wrap(i, len(c.slides))
	return c.current
}

func (c *Carousel) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Start launches the auto-advance goroutine. It runs until ctx is done or
// Stop is called. Starting a running carousel is a no-op.
func (c *Carousel) Start(ctx context.Context) {
	if c.Running() {
		return
	}
	ticker := time.NewTicker(c.interval)
	if !c.launch(ctx, ticker.C, ticker.Stop) {
		ticker.Stop()
	}
}

// Stop halts auto-advance and waits for the goroutine to exit.
func (c *Carousel) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *Carousel) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

func (c *Carousel) launch(ctx context.Context, ticks <-chan time.Time, stop func()) bool {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel, c.done = cancel, done
	c.mu.Unlock()

	go func() {
		defer close(done)
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticks:
				c.Next()
			}
		}
	}()
	return true
}

func (c *Carousel) step(delta int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = wrap(c.current+delta, len(c.slides))
	return c.current
}

func wrap(i, n int) int {
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}
