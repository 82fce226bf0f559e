package pipelens

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/crimson-sun/pipelens/internal/decoder"
	"github.com/crimson-sun/pipelens/internal/event"
	"github.com/crimson-sun/pipelens/internal/model"
	"github.com/crimson-sun/pipelens/internal/reconstruct"
)

// Progress reports how far a parse has advanced, in lines. Delivered at chunk
// boundaries.
type Progress struct {
	Current    int
	Total      int
	Percentage float64
}

// owner is the authoritative (process, thread) pair for a task id, recorded
// from the first Tasker.Task.Starting observed. IPC relay re-delivers the same
// notification from other processes; those must not override the original.
type owner struct {
	pid string
	tid string
}

// Parser ingests one log text at a time and exposes the reconstructed task
// forest. State is confined to the instance and fully cleared at the start of
// every Parse, so a Parser can be reused; it is not safe for concurrent use.
type Parser struct {
	chunkSize int
	logger    *slog.Logger
	decoder   *decoder.Decoder

	events     []model.EventNotification
	pool       *reconstruct.Pool
	processIDs map[string]struct{}
	threadIDs  map[string]struct{}
	owners     map[int64]owner

	tasks []*model.Task
	built bool
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	p := &Parser{
		chunkSize: o.chunkSize,
		logger:    o.logger,
		decoder:   decoder.New(o.logger),
	}
	p.reset()
	return p
}

// Parse ingests a full, newline-delimited log text. Malformed lines are
// dropped with a warning; nothing here fails. Lines are processed in chunks of
// the configured size, with onProgress (optional) invoked after each chunk.
func (p *Parser) Parse(content string, onProgress func(Progress)) {
	p.reset()

	lines := strings.Split(content, "\n")
	total := len(lines)
	for start := 0; start < total; start += p.chunkSize {
		end := start + p.chunkSize
		if end > total {
			end = total
		}
		for i := start; i < end; i++ {
			p.ingestLine(lines[i], i+1)
		}
		if onProgress != nil {
			onProgress(Progress{
				Current:    end,
				Total:      total,
				Percentage: float64(end) / float64(total) * 100,
			})
		}
	}
}

// ingestLine decodes one raw line, registers its ids, and buffers the event it
// carries, if any.
func (p *Parser) ingestLine(raw string, lineNo int) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	line, ok := p.decoder.Decode(raw, lineNo)
	if !ok {
		return
	}
	p.processIDs[line.ProcessID] = struct{}{}
	p.threadIDs[line.ThreadID] = struct{}{}

	ev, ok := event.Extract(line)
	if !ok {
		return
	}
	ev.Timestamp = p.pool.Intern(ev.Timestamp)
	ev.Msg = p.pool.Intern(ev.Msg)
	p.events = append(p.events, ev)

	if ev.Msg == event.TaskStarting {
		if id, ok := model.DetailInt(ev.Details, "task_id"); ok {
			if _, claimed := p.owners[id]; !claimed {
				p.owners[id] = owner{pid: line.ProcessID, tid: line.ThreadID}
			}
		}
	}
}

// Tasks returns the reconstructed task forest. The first call after Parse runs
// the two-pass reconstruction and then releases the event buffer and intern
// pool; their contents have been transferred into the forest by reference.
func (p *Parser) Tasks() []*model.Task {
	if !p.built {
		p.tasks = reconstruct.Build(p.events, p.pool)
		p.events = nil
		p.pool = nil
		p.built = true
	}
	return p.tasks
}

// ProcessIDs returns the sorted process ids that own at least one matched task.
func (p *Parser) ProcessIDs() []string {
	return p.ownedIDs(p.processIDs, func(o owner) string { return o.pid })
}

// ThreadIDs returns the sorted thread ids that own at least one matched task.
func (p *Parser) ThreadIDs() []string {
	return p.ownedIDs(p.threadIDs, func(o owner) string { return o.tid })
}

func (p *Parser) ownedIDs(registered map[string]struct{}, pick func(owner) string) []string {
	set := make(map[string]struct{})
	for _, task := range p.Tasks() {
		o, ok := p.owners[task.TaskID]
		if !ok {
			continue
		}
		id := pick(o)
		if _, seen := registered[id]; seen {
			set[id] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// TaskProcessID returns the authoritative owning process id for a task id.
func (p *Parser) TaskProcessID(taskID int64) (string, bool) {
	o, ok := p.owners[taskID]
	return o.pid, ok
}

// TaskThreadID returns the authoritative owning thread id for a task id.
func (p *Parser) TaskThreadID(taskID int64) (string, bool) {
	o, ok := p.owners[taskID]
	return o.tid, ok
}

// reset clears all per-invocation state so repeated parses cannot contaminate
// each other.
func (p *Parser) reset() {
	p.events = nil
	p.pool = reconstruct.NewPool()
	p.processIDs = make(map[string]struct{})
	p.threadIDs = make(map[string]struct{})
	p.owners = make(map[int64]owner)
	p.tasks = nil
	p.built = false
}
