package speech

import (
	"context"
	"runtime"

	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/proc"
)

// OpenCommand returns the platform command that opens path with its
// default application.
func OpenCommand(goos, path string) proc.Command {
	switch goos {
	case "windows":
		return proc.Command{Name: "rundll32", Args: []string{"url.dll,FileProtocolHandler", path}}
	case "darwin":
		return proc.Command{Name: "open", Args: []string{path}}
	default:
		return proc.Command{Name: "xdg-open", Args: []string{path}}
	}
}

// Open opens path (a file or folder) with the default application.
func Open(ctx context.Context, r proc.Runner, path string) error {
	_, err := r.Run(ctx, OpenCommand(runtime.GOOS, path))
	return err
}
