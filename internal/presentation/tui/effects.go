package tui

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/muesli/termenv"

	"github.com/aretw0/genui/pkg/domain"
)

var (
	confettiColors = []string{"#f472b6", "#facc15", "#4ade80", "#60a5fa", "#c084fc", "#fb923c"}
	snowColors     = []string{"#e0f2fe", "#bae6fd", "#ffffff"}
)

// Effects paints cosmetic effects as a short colored burst. It implements
// ports.EffectSink.
type Effects struct {
	mu      sync.Mutex
	w       io.Writer
	width   int
	profile termenv.Profile
	rng     *rand.Rand
}

// NewEffects writes bursts to w, width cells wide.
func NewEffects(w io.Writer, width int) *Effects {
	return &Effects{
		w:       w,
		width:   max(width, minWidth),
		profile: termenv.EnvColorProfile(),
		rng:     rand.New(rand.NewPCG(1, 2)),
	}
}

// Trigger implements ports.EffectSink. Unknown effects are ignored.
func (e *Effects) Trigger(_ context.Context, _ string, effect domain.Effect) error {
	var glyphs, colors []string
	switch effect {
	case domain.EffectConfetti:
		glyphs, colors = []string{"✦", "✧", "•", "▪", "❋"}, confettiColors
	case domain.EffectSnow:
		glyphs, colors = []string{"❄", "❅", "❆", "·"}, snowColors
	default:
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for row := 0; row < 3; row++ {
		var b strings.Builder
		for col := 0; col < e.width; col++ {
			if e.rng.IntN(3) != 0 {
				b.WriteByte(' ')
				continue
			}
			g := glyphs[e.rng.IntN(len(glyphs))]
			c := colors[e.rng.IntN(len(colors))]
			b.WriteString(termenv.String(g).Foreground(e.profile.Color(c)).String())
		}
		if _, err := fmt.Fprintln(e.w, b.String()); err != nil {
			return err
		}
	}
	return nil
}
