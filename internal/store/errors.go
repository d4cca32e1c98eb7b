package store

import "errors"

// Sentinel errors for the submission/instruction error taxonomy,
// comparable with errors.Is so the HTTP layer can map them to status
// codes without string matching.
var (
	// ErrUnknownInstruction is returned when a submission names an
	// instruction_id the store never issued.
	ErrUnknownInstruction = errors.New("store: unknown instruction_id")
	// ErrAlreadySubmitted is returned when a submission names an
	// instruction that already has a recorded submission.
	ErrAlreadySubmitted = errors.New("store: instruction already submitted")
	// ErrLegacyTarget marks a persisted row whose target field uses a
	// retired legacy name, or whose target is not a non-empty TOON
	// string; startup reconciliation drops such rows rather than load
	// them.
	ErrLegacyTarget = errors.New("store: legacy or malformed target field")
)
