package loadgen

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/sbilibin2017/telemetry-sidecar/internal/lineprotocol"
	"github.com/sbilibin2017/telemetry-sidecar/internal/logger"
)

// BadLine is written in place of every Nth line. It has no metric name, so the
// sidecar must reject it and keep reading.
const BadLine = ",source=loadgen value=1"

// Generator writes collected metrics as newline terminated lines.
type Generator struct {
	w            io.Writer
	collect      CollectorFunc
	badLineEvery int
	lines        int
	log          *zap.Logger
}

// NewGenerator creates a Generator writing to w. badLineEvery of zero never
// writes a bad line.
func NewGenerator(w io.Writer, collect CollectorFunc, badLineEvery int) *Generator {
	return &Generator{
		w:            w,
		collect:      collect,
		badLineEvery: badLineEvery,
		log:          logger.Log,
	}
}

// Batch collects one set of metrics and writes it. It returns the number of
// lines written, bad lines included.
func (g *Generator) Batch(ctx context.Context) (int, error) {
	metrics, err := g.collect(ctx)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, m := range metrics {
		if g.nextIsBad() {
			if err := g.writeLine(BadLine); err != nil {
				return written, err
			}
			written++
			g.log.Debug("bad line sent", zap.Int("line", g.lines))
		}
		if err := g.writeLine(lineprotocol.Format(m)); err != nil {
			return written, err
		}
		written++
	}

	return written, nil
}

func (g *Generator) nextIsBad() bool {
	return g.badLineEvery > 0 && (g.lines+1)%g.badLineEvery == 0
}

func (g *Generator) writeLine(line string) error {
	if _, err := io.WriteString(g.w, line+"\n"); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	g.lines++
	return nil
}
