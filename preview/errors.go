package preview

import "errors"

var (
	// ErrNotReady indicates an operation was posted before Initialize was
	// called. Transient: callers may queue the operation and retry once the
	// runtime signals readiness.
	ErrNotReady = errors.New("preview: runtime not ready")

	// ErrTornDown indicates an operation was posted after Teardown. Terminal.
	ErrTornDown = errors.New("preview: runtime torn down")

	// ErrSuperseded indicates a shader update was replaced by a newer one
	// before it could install. The superseded request performed no GPU work;
	// callers should treat this as a silent no-op.
	ErrSuperseded = errors.New("preview: update superseded by a newer request")

	// ErrContextUnavailable indicates the GPU context could not be acquired
	// (or was lost). Terminal for the runtime instance; the host may recreate
	// the runtime to recover.
	ErrContextUnavailable = errors.New("preview: gpu context unavailable")
)
