// Package store is the coordinator's persistence layer: append-only
// JSONL logs, per-record audit files, axis/bucket counters, and the
// dashboard exports, all under a single state directory.
//
// Every mutating method (AppendInstruction, MarkSubmitted) is expected to
// be called only from inside the caller's single-writer critical section
// (internal/coordstate); Store adds its own RWMutex on top of that so a
// concurrent read (a dashboard poll, a health check) never races a
// mutation even if that discipline is ever violated.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/moby/sys/atomicwriter"

	"github.com/antigravity-dev/corpusgen/internal/axis"
	"github.com/antigravity-dev/corpusgen/internal/scheduler"
)

const (
	issuedLogName       = "issued_instructions.jsonl"
	submittedLogName    = "generated_cases.jsonl"
	trainLogName        = "generated_cases_train_mistral.jsonl"
	mergedExportName    = "full_training_cases_mistral.jsonl"
	summaryJSONName     = "summary.json"
	summaryMDName       = "summary.md"
	countersName        = "counters.json"
	instructionIDPrefix = "INS-"
)

// legacyArtifacts are single-shot files an older schema version of this
// project used to leave behind; startup reconciliation deletes them
// since they reference a retired on-disk shape.
var legacyArtifacts = []string{"last_instruction.json", "last_target.json"}

// Store owns every mutable piece of on-disk coordinator state.
type Store struct {
	dir              string
	catalog          axis.Catalog
	logger           *slog.Logger
	generationTarget int

	mu           sync.RWMutex
	counters     *scheduler.Counters
	instructions map[string]*InstructionRecord
	nextSeq      int

	seedLines  []string
	trainLines []string

	issuedLog    *os.File
	submittedLog *os.File
	trainLog     *os.File
}

// Open reconciles whatever state already exists under dir (replaying the
// two append-only logs to rebuild counters and the instruction table,
// sanitizing legacy rows, deleting stale single-shot artifacts) and
// returns a Store ready to serve requests.
func Open(dir string, catalog axis.Catalog, generationTarget int, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, sub := range []string{"", "instructions", "submissions"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir %s: %w", filepath.Join(dir, sub), err)
		}
	}

	for _, name := range legacyArtifacts {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			logger.Info("removing stale legacy artifact", "path", path)
			os.Remove(path)
		}
	}

	s := &Store{
		dir:              dir,
		catalog:          catalog,
		logger:           logger,
		generationTarget: generationTarget,
		counters:         scheduler.NewCounters(),
		instructions:     make(map[string]*InstructionRecord),
	}

	if err := s.replayInstructions(); err != nil {
		return nil, err
	}
	if err := s.replaySubmissions(); err != nil {
		return nil, err
	}
	if err := s.loadTrainLog(); err != nil {
		return nil, err
	}

	issuedLog, err := os.OpenFile(filepath.Join(dir, issuedLogName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", issuedLogName, err)
	}
	s.issuedLog = issuedLog

	submittedLog, err := os.OpenFile(filepath.Join(dir, submittedLogName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", submittedLogName, err)
	}
	s.submittedLog = submittedLog

	trainLog, err := os.OpenFile(filepath.Join(dir, trainLogName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", trainLogName, err)
	}
	s.trainLog = trainLog

	if err := s.reconcilePerInstructionFiles(); err != nil {
		return nil, err
	}
	if err := s.writeCounters(); err != nil {
		return nil, err
	}
	if err := s.writeSummaries(); err != nil {
		return nil, err
	}

	logger.Info("store reconciled", "issued", s.counters.Issued(), "submitted", s.counters.Submitted())
	return s, nil
}

// Close flushes and releases the append-only log handles.
func (s *Store) Close() error {
	var firstErr error
	for _, f := range []*os.File{s.issuedLog, s.submittedLog, s.trainLog} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Counters returns the live counter set, shared with the scheduler.
func (s *Store) Counters() *scheduler.Counters {
	return s.counters
}

// SetGenerationTarget updates the ceiling used to compute "remaining" in
// the dashboard exports, e.g. once the seed corpus size is known or
// after a config hot-reload changes it, and immediately regenerates the
// on-disk summaries so they don't read stale until the next mutation.
func (s *Store) SetGenerationTarget(n int) error {
	s.mu.Lock()
	s.generationTarget = n
	s.mu.Unlock()
	return s.writeSummaries()
}

// AllocateInstructionID returns the next monotonically increasing,
// zero-padded instruction id. Must be called from inside the caller's
// single-writer critical section.
func (s *Store) AllocateInstructionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	return fmt.Sprintf("%s%04d", instructionIDPrefix, s.nextSeq)
}

// Get returns the instruction record for id, if known.
func (s *Store) Get(id string) (InstructionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.instructions[id]
	if !ok {
		return InstructionRecord{}, false
	}
	return *rec, true
}

// AppendInstruction persists a newly generated instruction: it writes the
// append-only log line (fsynced before returning), the per-instruction
// audit file, and bumps the issued scalar and every axis/bucket counter
// named by rec.Selection. Must be called from inside the caller's
// single-writer critical section, since a failed generation must never
// advance counters.
func (s *Store) AppendInstruction(rec InstructionRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal instruction %s: %w", rec.InstructionID, err)
	}
	if err := appendLine(s.issuedLog, line); err != nil {
		return fmt.Errorf("store: append instruction %s: %w", rec.InstructionID, err)
	}

	path := filepath.Join(s.dir, "instructions", rec.InstructionID+".json")
	if err := atomicwriter.WriteFile(path, append(line, '\n'), 0o644); err != nil {
		return fmt.Errorf("store: write instruction file %s: %w", path, err)
	}

	s.mu.Lock()
	cp := rec
	s.instructions[rec.InstructionID] = &cp
	s.mu.Unlock()

	s.counters.RecordIssued(rec.Selection)

	if err := s.writeCounters(); err != nil {
		return err
	}
	return s.writeSummaries()
}

// MarkSubmitted accepts a validated submission: it checks the instruction
// exists and is not already submitted, then appends to the submission
// log, the training export, writes the per-submission audit file,
// regenerates the merged training export, flips Submitted, and bumps the
// submitted scalar counter. Must be called from inside the caller's
// single-writer critical section.
func (s *Store) MarkSubmitted(rec SubmissionRecord) error {
	s.mu.Lock()
	inst, ok := s.instructions[rec.InstructionID]
	if !ok {
		s.mu.Unlock()
		return ErrUnknownInstruction
	}
	if inst.Submitted {
		s.mu.Unlock()
		return ErrAlreadySubmitted
	}
	s.mu.Unlock()

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal submission %s: %w", rec.InstructionID, err)
	}
	if err := appendLine(s.submittedLog, line); err != nil {
		return fmt.Errorf("store: append submission %s: %w", rec.InstructionID, err)
	}

	submissionPath := filepath.Join(s.dir, "submissions", rec.InstructionID+".json")
	if err := atomicwriter.WriteFile(submissionPath, append(line, '\n'), 0o644); err != nil {
		return fmt.Errorf("store: write submission file %s: %w", submissionPath, err)
	}

	trainLine, err := json.Marshal(newTrainRow(inst.Prompt, rec.CaseText, inst.TargetTOON))
	if err != nil {
		return fmt.Errorf("store: marshal training row %s: %w", rec.InstructionID, err)
	}
	if err := appendLine(s.trainLog, trainLine); err != nil {
		return fmt.Errorf("store: append training row %s: %w", rec.InstructionID, err)
	}

	s.mu.Lock()
	inst.Submitted = true
	instPath := filepath.Join(s.dir, "instructions", rec.InstructionID+".json")
	s.trainLines = append(s.trainLines, string(trainLine))
	s.mu.Unlock()

	if instBytes, err := json.Marshal(inst); err == nil {
		atomicwriter.WriteFile(instPath, append(instBytes, '\n'), 0o644)
	}

	s.counters.RecordSubmitted()

	if err := s.regenerateMergedExport(); err != nil {
		return err
	}
	if err := s.writeCounters(); err != nil {
		return err
	}
	return s.writeSummaries()
}

func appendLine(f *os.File, line []byte) error {
	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

// replayInstructions scans issued_instructions.jsonl, rebuilding the
// instruction table and the axis/bucket counters, and sanitizing any row
// whose target field is absent, empty, or carries a retired legacy name.
func (s *Store) replayInstructions() error {
	path := filepath.Join(s.dir, issuedLogName)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: open %s: %w", issuedLogName, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	maxSeq := 0
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		rec, err := sanitizeInstructionRow(line)
		if err != nil {
			s.logger.Warn("dropping legacy/malformed instruction row at startup", "error", err)
			continue
		}
		cp := rec
		s.instructions[rec.InstructionID] = &cp
		s.counters.RecordIssued(rec.Selection)
		if seq := sequenceOf(rec.InstructionID); seq > maxSeq {
			maxSeq = seq
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("store: scan %s: %w", issuedLogName, err)
	}
	s.nextSeq = maxSeq
	return nil
}

// sanitizeInstructionRow rejects rows whose target field is missing,
// empty, or stored under a retired legacy key name.
func sanitizeInstructionRow(line []byte) (InstructionRecord, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return InstructionRecord{}, fmt.Errorf("%w: %v", ErrLegacyTarget, err)
	}
	if _, hasCurrent := raw["server_target_toon"]; !hasCurrent {
		for _, legacyKey := range []string{"target_toon", "toon_target", "target"} {
			if _, has := raw[legacyKey]; has {
				return InstructionRecord{}, fmt.Errorf("%w: legacy field %q", ErrLegacyTarget, legacyKey)
			}
		}
	}
	var rec InstructionRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return InstructionRecord{}, fmt.Errorf("%w: %v", ErrLegacyTarget, err)
	}
	if rec.InstructionID == "" || rec.TargetTOON == "" {
		return InstructionRecord{}, fmt.Errorf("%w: missing instruction_id or empty target", ErrLegacyTarget)
	}
	return rec, nil
}

// replaySubmissions scans generated_cases.jsonl and flips Submitted on
// every instruction it references, bumping the submitted scalar counter.
// A submission referencing an unknown instruction (truncated write,
// corrupted line) is dropped rather than crashing startup.
func (s *Store) replaySubmissions() error {
	path := filepath.Join(s.dir, submittedLogName)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: open %s: %w", submittedLogName, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	seen := make(map[string]struct{})
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec SubmissionRecord
		if err := json.Unmarshal(line, &rec); err != nil || rec.InstructionID == "" || rec.CaseText == "" {
			s.logger.Warn("dropping malformed submission row at startup")
			continue
		}
		inst, ok := s.instructions[rec.InstructionID]
		if !ok {
			s.logger.Warn("dropping submission referencing unknown instruction", "instruction_id", rec.InstructionID)
			continue
		}
		if _, dup := seen[rec.InstructionID]; dup {
			continue
		}
		seen[rec.InstructionID] = struct{}{}
		inst.Submitted = true
		s.counters.RecordSubmitted()
	}
	return sc.Err()
}

// loadTrainLog caches the already-appended training export lines in
// memory so the merged export can be rebuilt without re-reading the log
// file on every submission.
func (s *Store) loadTrainLog() error {
	path := filepath.Join(s.dir, trainLogName)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: open %s: %w", trainLogName, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			s.trainLines = append(s.trainLines, line)
		}
	}
	return sc.Err()
}

// reconcilePerInstructionFiles ensures every instruction replayed from
// the log has a matching audit file under instructions/, writing it if
// missing (e.g. the process crashed between the log append and the file
// write on a prior run).
func (s *Store) reconcilePerInstructionFiles() error {
	for id, rec := range s.instructions {
		path := filepath.Join(s.dir, "instructions", id+".json")
		if _, err := os.Stat(path); err == nil {
			continue
		}
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("store: marshal instruction %s during reconciliation: %w", id, err)
		}
		if err := atomicwriter.WriteFile(path, append(line, '\n'), 0o644); err != nil {
			return fmt.Errorf("store: reconcile instruction file %s: %w", path, err)
		}
	}
	return nil
}

func sequenceOf(instructionID string) int {
	if len(instructionID) <= len(instructionIDPrefix) {
		return 0
	}
	var seq int
	fmt.Sscanf(instructionID[len(instructionIDPrefix):], "%d", &seq)
	return seq
}

func (s *Store) writeCounters() error {
	snap := s.counters.Snapshot()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal counters: %w", err)
	}
	path := filepath.Join(s.dir, countersName)
	if err := atomicwriter.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", countersName, err)
	}
	return nil
}

// regenerateMergedExport rewrites full_training_cases_mistral.jsonl from
// scratch: the seed corpus rows kept verbatim, followed by every
// accepted synthetic submission's training row.
func (s *Store) regenerateMergedExport() error {
	s.mu.RLock()
	lines := make([]string, 0, len(s.seedLines)+len(s.trainLines))
	lines = append(lines, s.seedLines...)
	lines = append(lines, s.trainLines...)
	s.mu.RUnlock()

	var buf []byte
	for _, line := range lines {
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	path := filepath.Join(s.dir, mergedExportName)
	if err := atomicwriter.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", mergedExportName, err)
	}
	return nil
}
