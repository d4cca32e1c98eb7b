// Package coordstate owns the coordinator's single-writer critical
// section: axis selection, target generation, TOON encoding, counter
// increment, instruction-id allocation, log append, and per-instruction
// file write all happen while a single mutex is held, so a failed
// generation never advances a counter and issuance ordering is strictly
// serializable.
//
// Submission validation (leakage scan, name coverage) runs outside the
// lock against an immutable copy of the locked instruction; only the
// commit step (mark-submitted, counter bump, log append, export rewrite)
// takes the lock.
package coordstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/antigravity-dev/corpusgen/internal/axis"
	"github.com/antigravity-dev/corpusgen/internal/config"
	"github.com/antigravity-dev/corpusgen/internal/scheduler"
	"github.com/antigravity-dev/corpusgen/internal/store"
	"github.com/antigravity-dev/corpusgen/internal/targetgen"
	"github.com/antigravity-dev/corpusgen/internal/validator"
)

// ErrExhausted is returned by NextInstruction when the configured
// generation target has already been reached; no counters advance.
var ErrExhausted = errors.New("coordstate: generation target reached")

// ErrGenerationFailed wraps a targetgen.ErrExhausted as a transient
// server error: the retry budget ran out and no partial instruction was
// persisted.
var ErrGenerationFailed = errors.New("coordstate: target generation failed")

// Generator is the subset of *targetgen.Generator the coordinator drives.
type Generator interface {
	Generate(ctx context.Context, sel axis.Selection) (*targetgen.Result, error)
}

// Coordinator wires the scheduler, generator, store, and submission
// validator behind the single-writer critical section.
type Coordinator struct {
	mu sync.Mutex

	cfg        config.ConfigManager
	scheduler  *scheduler.Scheduler
	generator  Generator
	store      *store.Store
	similarity *validator.SimilarityWindow
	logger     *slog.Logger
}

// New builds a Coordinator over its collaborators.
func New(cfg config.ConfigManager, sched *scheduler.Scheduler, gen Generator, st *store.Store, sim *validator.SimilarityWindow, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{cfg: cfg, scheduler: sched, generator: gen, store: st, similarity: sim, logger: logger}
}

// NextInstruction draws axis buckets, generates and encodes a target, and
// persists the resulting instruction, all under the single-writer lock.
func (c *Coordinator) NextInstruction(ctx context.Context, agentID string) (store.InstructionRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg := c.cfg.Get()
	if c.store.Counters().Issued() >= cfg.Generation.GenerationTarget {
		return store.InstructionRecord{}, ErrExhausted
	}

	sel, err := c.scheduler.Pick()
	if err != nil {
		return store.InstructionRecord{}, fmt.Errorf("coordstate: pick axes: %w", err)
	}

	result, err := c.generator.Generate(ctx, sel)
	if err != nil {
		return store.InstructionRecord{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	prompt := targetgen.BuildPrompt(sel, result)
	id := c.store.AllocateInstructionID()
	rec := store.InstructionRecord{
		InstructionID: id,
		AgentID:       agentID,
		Selection:     sel,
		TargetTOON:    result.TOON,
		Prompt:        prompt,
		MustInclude:   result.MustInclude,
		MustAvoid:     result.MustAvoid,
		IssuedAt:      time.Now().UTC(),
	}

	if err := c.store.AppendInstruction(rec); err != nil {
		return store.InstructionRecord{}, fmt.Errorf("coordstate: persist instruction: %w", err)
	}

	c.logger.Info("instruction issued", "instruction_id", id, "agent_id", agentID)
	return rec, nil
}

// SubmitCase validates caseText against the instruction's locked target
// outside the lock, then commits the accepted submission inside it.
func (c *Coordinator) SubmitCase(ctx context.Context, instructionID, caseText, agentID string) (store.SubmissionRecord, error) {
	rec, ok := c.store.Get(instructionID)
	if !ok {
		return store.SubmissionRecord{}, store.ErrUnknownInstruction
	}
	if rec.Submitted {
		return store.SubmissionRecord{}, store.ErrAlreadySubmitted
	}

	if err := validator.CheckLeakage(caseText); err != nil {
		return store.SubmissionRecord{}, err
	}
	if err := validator.CheckNameCoverage(rec.MustInclude, caseText); err != nil {
		return store.SubmissionRecord{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-check under the lock: another request may have submitted this
	// instruction between the unlocked validation above and here.
	rec, ok = c.store.Get(instructionID)
	if !ok {
		return store.SubmissionRecord{}, store.ErrUnknownInstruction
	}
	if rec.Submitted {
		return store.SubmissionRecord{}, store.ErrAlreadySubmitted
	}

	warn, score := c.similarity.Check(caseText)

	sub := store.SubmissionRecord{
		InstructionID:     instructionID,
		AgentID:           agentID,
		CaseText:          caseText,
		Selection:         rec.Selection,
		NameCoverageOK:    true,
		LeakageOK:         true,
		SimilarityWarning: warn,
		SimilarityScore:   score,
		SubmittedAt:       time.Now().UTC(),
	}

	if err := c.store.MarkSubmitted(sub); err != nil {
		return store.SubmissionRecord{}, fmt.Errorf("coordstate: persist submission: %w", err)
	}

	c.logger.Info("case submitted", "instruction_id", instructionID, "agent_id", agentID, "similarity_warning", warn)
	return sub, nil
}

// Dashboard returns the current counters/coverage snapshot for read-only
// consumers (the HTTP dashboard endpoint, a health check).
func (c *Coordinator) Dashboard() store.Dashboard {
	cfg := c.cfg.Get()
	return c.store.Dashboard(cfg.Generation.GenerationTarget)
}

// TraceID mints a correlation id so a 500 response can be matched to
// its server-side log line.
func TraceID() string {
	return uuid.NewString()
}
