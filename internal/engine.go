package internal

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/gnoverse/tverify/internal/db"
	tt "github.com/gnoverse/tverify/internal/types"
	"github.com/gnoverse/tverify/internal/unify"
	"github.com/gnoverse/tverify/internal/verify"
)

// Engine verifies the theorems of one statement table.
type Engine struct {
	table   *db.Table
	logger  *zap.Logger
	cache   *Cache
	metrics *Metrics

	mu            sync.RWMutex
	ignoredLabels map[string]bool
	checkDisjoint bool

	fingerprintOnce sync.Once
	fingerprints    []string
}

// NewEngine creates an engine for table. Rules switch checks off; only
// disjoint-violation can be disabled, other rules are reported and kept.
func NewEngine(table *db.Table, rules map[string]tt.ConfigRule, logger *zap.Logger) (*Engine, error) {
	if table == nil {
		return nil, fmt.Errorf("nil statement table")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := &Engine{
		table:         table,
		logger:        logger,
		metrics:       NewMetrics(),
		ignoredLabels: make(map[string]bool),
		checkDisjoint: true,
	}
	engine.applyRules(rules)
	return engine, nil
}

func (e *Engine) applyRules(rules map[string]tt.ConfigRule) {
	for key, rule := range rules {
		if rule.Severity != tt.SeverityOff {
			continue
		}
		if key == tt.RuleDisjointViolation {
			e.IgnoreRule(key)
			continue
		}
		e.logger.Warn("rule cannot be disabled", zap.String("rule", key))
	}
}

// UseCache makes the engine consult and fill c.
func (e *Engine) UseCache(c *Cache) {
	e.cache = c
}

// UseMetrics makes the engine record into m, so several engines can share
// one registry.
func (e *Engine) UseMetrics(m *Metrics) {
	e.metrics = m
}

// Table returns the statement table being verified.
func (e *Engine) Table() *db.Table {
	return e.table
}

// Metrics returns the engine's collectors.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// IgnoreRule disables the check behind rule.
func (e *Engine) IgnoreRule(rule string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rule == tt.RuleDisjointViolation {
		e.checkDisjoint = false
	}
}

// IgnoreLabel skips the theorem with the given label.
func (e *Engine) IgnoreLabel(label string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ignoredLabels[label] = true
}

// Theorems lists the labels of all theorems that are not ignored.
func (e *Engine) Theorems() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var labels []string
	for _, s := range e.table.Theorems() {
		if !e.ignoredLabels[s.Label] {
			labels = append(labels, s.Label)
		}
	}
	return labels
}

func (e *Engine) newVerifier(opts ...verify.Option) *verify.Verifier {
	e.mu.RLock()
	check := e.checkDisjoint
	e.mu.RUnlock()
	u := unify.New(e.table, unify.WithDisjointCheck(check))
	return verify.New(e.table, append([]verify.Option{verify.WithUnifier(u)}, opts...)...)
}

func (e *Engine) lookupTheorem(label string) (*db.Statement, error) {
	s, ok := e.table.Lookup(label)
	if !ok {
		return nil, fmt.Errorf("no statement labeled %q", label)
	}
	if s.Kind != db.KindTheorem {
		return nil, fmt.Errorf("%q is a %s, not a theorem", label, s.Kind)
	}
	return s, nil
}

// Run verifies the theorem labeled label.
func (e *Engine) Run(label string) (tt.Result, error) {
	th, err := e.lookupTheorem(label)
	if err != nil {
		return tt.Result{}, err
	}

	fp := e.fingerprint(th.ID)
	if e.cache != nil {
		if result, ok := e.cache.Get(e.bucket(), label, fp); ok {
			e.metrics.observeCached(result)
			return result, nil
		}
	}

	run, err := e.newVerifier().Verify(th)
	if err != nil {
		return tt.Result{}, err
	}
	e.metrics.observeRun(run)
	result := run.Result()

	if e.cache != nil {
		if err := e.cache.Set(e.bucket(), label, fp, result); err != nil {
			e.logger.Warn("failed to cache result", zap.String("label", label), zap.Error(err))
		}
	}
	return result, nil
}

// Inspect verifies label and records the substitution detail of step.
func (e *Engine) Inspect(label string, step int, reporter verify.Reporter) (*verify.Run, error) {
	th, err := e.lookupTheorem(label)
	if err != nil {
		return nil, err
	}
	return e.newVerifier(verify.WithInspect(step), verify.WithReporter(reporter)).Verify(th)
}

func (e *Engine) bucket() string {
	if e.table.Name == "" {
		return "default"
	}
	return e.table.Name
}

// fingerprint identifies everything the verdict of statement id can depend
// on: the statement itself, every statement declared before it, and the
// engine's checks. Proofs can only refer backwards, so the hashes chain.
func (e *Engine) fingerprint(id db.StatementID) string {
	e.fingerprintOnce.Do(func() {
		stmts := e.table.Statements()
		e.fingerprints = make([]string, len(stmts))
		var prev [md5.Size]byte
		for i, s := range stmts {
			h := md5.New()
			h.Write(prev[:])
			writeStatement(h, e.table, s)
			copy(prev[:], h.Sum(nil))
			e.fingerprints[i] = fmt.Sprintf("%x", prev)
		}
	})
	e.mu.RLock()
	check := e.checkDisjoint
	e.mu.RUnlock()
	return fmt.Sprintf("%s/dv=%t", e.fingerprints[id], check)
}

func writeStatement(w io.Writer, t *db.Table, s *db.Statement) {
	fmt.Fprintf(w, "%s\x00%s\x00%s\x00", s.Label, s.Kind, t.Render(s.Formula))
	for _, h := range s.Hyps {
		binary.Write(w, binary.LittleEndian, int64(h))
	}
	w.Write([]byte{0})
	for _, h := range s.OptHyps {
		binary.Write(w, binary.LittleEndian, int64(h))
	}
	w.Write([]byte{0})
	for _, p := range append(append([]db.Pair(nil), s.Disjoint...), s.OptDisjoint...) {
		fmt.Fprintf(w, "%s %s\x00", t.SymbolName(p.A), t.SymbolName(p.B))
	}
	io.WriteString(w, s.ProofText)
}
