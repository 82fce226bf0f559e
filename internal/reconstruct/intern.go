package reconstruct

// Pool deduplicates strings that repeat across events: node names, timestamps,
// entries. It is scoped to a single parse invocation and discarded once the
// forest is built; the strings it handed out stay alive through whatever
// Task/Node/Attempt fields reference them.
type Pool struct {
	strings map[string]string
}

// NewPool creates an empty intern pool.
func NewPool() *Pool {
	return &Pool{strings: make(map[string]string)}
}

// Intern returns the pooled instance of s.
func (p *Pool) Intern(s string) string {
	if v, ok := p.strings[s]; ok {
		return v
	}
	p.strings[s] = s
	return s
}

// Len reports the number of distinct strings held.
func (p *Pool) Len() int {
	return len(p.strings)
}
