package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/clerky/igdm/internal/api"
	"github.com/clerky/igdm/internal/view"
)

func writeData(cmd *cobra.Command, app *App, meta map[string]any, data any) error {
	out := map[string]any{
		"ok":   true,
		"meta": meta,
		"data": data,
	}
	// Avoid emitting empty meta.
	if meta == nil {
		delete(out, "meta")
	}
	return writeOut(cmd, app, out)
}

func writeFailure(cmd *cobra.Command, app *App, err error, hint string) error {
	if err == nil {
		err = errors.New("unknown error")
	}
	code, details := faultCode(err)
	out := map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":    code,
			"message": err.Error(),
			"details": details,
		},
	}
	if hint != "" {
		out["hint"] = hint
	}
	// We still return an error so Cobra exits non-zero.
	_ = writeOut(cmd, app, out)
	return err
}

// faultCode classifies err for the failure envelope.
func faultCode(err error) (string, map[string]any) {
	var (
		nf *api.NetworkFault
		pf *api.ProtocolFault
		af *api.ApplicationFault
	)
	switch {
	case errors.As(err, &af):
		return "api_error", map[string]any{"status": af.Status, "reason": af.Reason()}
	case errors.As(err, &pf):
		return "protocol_error", map[string]any{"status": pf.Status}
	case errors.As(err, &nf):
		return "network_error", nil
	case errors.Is(err, view.ErrIncompleteDraft):
		return "invalid_input", nil
	default:
		return "error", nil
	}
}
