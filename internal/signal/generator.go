package signal

import (
	"math/rand"
	"time"

	"github.com/zinal-app/zinal/internal/timeutil"
)

// Source supplies uniform random selection. *math/rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// Suggestion is the generated analysis payload. Field tags match the wire
// format the dashboard consumes.
type Suggestion struct {
	Title       string `json:"titulo"`
	Instrument  string `json:"moeda"`
	Expiration  string `json:"expiracao"`
	Entry       string `json:"entrada"`
	Direction   string `json:"direcao"`
	Protection1 string `json:"protecao1"`
	Protection2 string `json:"protecao2"`
}

// Generator produces randomized analysis suggestions. Selections are
// independent per call; no history is kept.
type Generator struct {
	src   Source
	nowFn func() time.Time
}

// NewGenerator constructs a Generator with default dependencies when nil.
func NewGenerator(src Source, nowFn func() time.Time) *Generator {
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Generator{src: src, nowFn: nowFn}
}

// Suggest picks one instrument and one direction uniformly at random and
// derives the entry and protection display times from the current instant.
func (g *Generator) Suggest() Suggestion {
	instrument := Instruments[g.src.Intn(len(Instruments))]
	direction := Directions[g.src.Intn(len(Directions))]

	entry, protection1, protection2 := DisplayTimes(g.nowFn())

	return Suggestion{
		Title:       Title,
		Instrument:  instrument,
		Expiration:  ExpirationLabel,
		Entry:       entry,
		Direction:   direction,
		Protection1: protection1,
		Protection2: protection2,
	}
}

// DisplayTimes derives the entry and protection labels for the instant:
// truncated to the whole minute, shifted into the fixed reference zone, then
// +3, +4 and +5 minutes as zero-padded HH:MM.
func DisplayTimes(now time.Time) (entry, protection1, protection2 string) {
	base := timeutil.TruncateToMinute(now.UTC())
	entry = timeutil.FormatHHMM(base.Add(3 * time.Minute))
	protection1 = timeutil.FormatHHMM(base.Add(4 * time.Minute))
	protection2 = timeutil.FormatHHMM(base.Add(5 * time.Minute))
	return entry, protection1, protection2
}
