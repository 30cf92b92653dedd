package nameserver

import (
	"context"
	"os/exec"

	"github.com/scriptoria/scriptoria/pkg/scerr"
)

// Executor runs the text EXEC fetches via CLEANREAD as a shell command
// and returns its combined output. Executing arbitrary file content is
// a glaring security issue, preserved only for wire compatibility;
// scriptoria
// keeps the wire contract but makes the actual execution an injectable,
// off-by-default collaborator rather than a direct os/exec call in the
// handler.
type Executor interface {
	Run(ctx context.Context, command string) (string, error)
}

// OSExecutor runs command through the host shell. It is only installed
// when the operator has explicitly set exec_enabled in configuration.
type OSExecutor struct{}

func (OSExecutor) Run(ctx context.Context, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// DisabledExecutor is the default Executor: EXEC's network contract
// (CLEANREAD forwarding, response framing) still works end to end, but
// no shell command ever actually runs.
type DisabledExecutor struct{}

func (DisabledExecutor) Run(ctx context.Context, command string) (string, error) {
	return "", scerr.New(scerr.ErrInsufficientPermission, "EXEC is disabled on this name node")
}
