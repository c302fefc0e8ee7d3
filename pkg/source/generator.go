package source

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/downfa11-org/go-lake/pkg/types"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

const defaultGeneratedBatch = 100

type weighted struct {
	value  string
	weight int
}

var categories = []weighted{
	{"Engineering", 15},
	{"Sales", 20},
	{"Finance", 20},
	{"HR", 20},
	{"Analyst", 20},
	{"Leadership", 5},
}

var locations = []string{"Sonic", "Re-invent", "Grace", "Maverick"}

// Generator produces synthetic badge-style records. Safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

func NewGenerator(seed uint64) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: time.Now,
	}
}

func (g *Generator) Generate(n int) types.Batch {
	g.mu.Lock()
	defer g.mu.Unlock()

	batch := make(types.Batch, n)
	for i := range batch {
		start := g.now().UTC().Truncate(time.Second)
		batch[i] = types.Record{
			ID:            uuid.NewString(),
			Category:      g.pickCategory(),
			Location:      locations[g.rnd.IntN(len(locations))],
			IntervalStart: start,
			IntervalEnd:   start.Add(time.Duration(g.rnd.IntN(36_001)) * time.Second),
			Flag:          g.rnd.IntN(51) != 0,
		}
	}
	return batch
}

func (g *Generator) pickCategory() string {
	total := 0
	for _, c := range categories {
		total += c.weight
	}
	n := g.rnd.IntN(total)
	for _, c := range categories {
		if n < c.weight {
			return c.value
		}
		n -= c.weight
	}
	return categories[len(categories)-1].value
}

// NewGeneratorHandler serves /records?batch=n and /health from g.
func NewGeneratorHandler(g *Generator) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/health":
			writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "OK"})
		case "/records":
			if !ctx.IsGet() {
				writeDetail(ctx, fasthttp.StatusMethodNotAllowed, "Method Not Allowed")
				return
			}
			size := defaultGeneratedBatch
			if ctx.QueryArgs().Has("batch") {
				n, err := ctx.QueryArgs().GetUint("batch")
				if err != nil {
					writeDetail(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("invalid batch %q", ctx.QueryArgs().Peek("batch")))
					return
				}
				size = n
			}
			if size <= 0 {
				writeDetail(ctx, fasthttp.StatusBadRequest, "Batch size must be positive")
				return
			}
			if size > MaxBatchSize {
				writeDetail(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("Limit batch size to %d", MaxBatchSize))
				return
			}
			writeJSON(ctx, fasthttp.StatusOK, g.Generate(size))
		default:
			writeDetail(ctx, fasthttp.StatusNotFound, "Not Found")
		}
	}
}

func writeDetail(ctx *fasthttp.RequestCtx, status int, detail string) {
	writeJSON(ctx, status, map[string]string{"detail": detail})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}
