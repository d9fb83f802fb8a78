package orlop

import "context"

func optional(arg string) []string {
	if arg == "" {
		return nil
	}
	return []string{arg}
}

// Ripgrep searches for pattern with rg.
func Ripgrep(ctx context.Context, pattern string, opts Options) (Result, error) {
	return Exec(ctx, "ripgrep", []string{pattern}, opts)
}

// RipgrepStream is Ripgrep with streamed output.
func RipgrepStream(ctx context.Context, pattern string, opts Options) (*Stream, error) {
	return StreamTool(ctx, "ripgrep", []string{pattern}, opts)
}

// Bat prints file with syntax highlighting. An empty file reads stdin.
func Bat(ctx context.Context, file string, opts Options) (Result, error) {
	return Exec(ctx, "bat", optional(file), opts)
}

// BatStream is Bat with streamed output.
func BatStream(ctx context.Context, file string, opts Options) (*Stream, error) {
	return StreamTool(ctx, "bat", optional(file), opts)
}

// Fd finds files matching pattern. An empty pattern lists everything.
func Fd(ctx context.Context, pattern string, opts Options) (Result, error) {
	return Exec(ctx, "fd", optional(pattern), opts)
}

// FdStream is Fd with streamed output.
func FdStream(ctx context.Context, pattern string, opts Options) (*Stream, error) {
	return StreamTool(ctx, "fd", optional(pattern), opts)
}

// Delta renders a diff, usually passed through Options.Input.
func Delta(ctx context.Context, opts Options) (Result, error) {
	return Exec(ctx, "delta", nil, opts)
}

// DeltaStream is Delta with streamed output.
func DeltaStream(ctx context.Context, opts Options) (*Stream, error) {
	return StreamTool(ctx, "delta", nil, opts)
}

// Lsd lists path, or the working directory when path is empty.
func Lsd(ctx context.Context, path string, opts Options) (Result, error) {
	return Exec(ctx, "lsd", optional(path), opts)
}

// LsdStream is Lsd with streamed output.
func LsdStream(ctx context.Context, path string, opts Options) (*Stream, error) {
	return StreamTool(ctx, "lsd", optional(path), opts)
}

// Gdu reports disk usage of path. It always runs non-interactively.
func Gdu(ctx context.Context, path string, opts Options) (Result, error) {
	return Exec(ctx, "gdu", append([]string{"--non-interactive"}, optional(path)...), opts)
}

// GduStream is Gdu with streamed output.
func GduStream(ctx context.Context, path string, opts Options) (*Stream, error) {
	return StreamTool(ctx, "gdu", append([]string{"--non-interactive"}, optional(path)...), opts)
}

// Fzf filters the lines given in Options.Input.
func Fzf(ctx context.Context, opts Options) (Result, error) {
	return Exec(ctx, "fzf", nil, opts)
}

// FzfStream is Fzf with streamed output.
func FzfStream(ctx context.Context, opts Options) (*Stream, error) {
	return StreamTool(ctx, "fzf", nil, opts)
}

// Starship runs a starship subcommand such as "prompt" or "init".
func Starship(ctx context.Context, command string, opts Options) (Result, error) {
	return Exec(ctx, "starship", []string{command}, opts)
}

// StarshipStream is Starship with streamed output.
func StarshipStream(ctx context.Context, command string, opts Options) (*Stream, error) {
	return StreamTool(ctx, "starship", []string{command}, opts)
}

// Tokei counts lines of code under path.
func Tokei(ctx context.Context, path string, opts Options) (Result, error) {
	return Exec(ctx, "tokei", optional(path), opts)
}

// TokeiStream is Tokei with streamed output.
func TokeiStream(ctx context.Context, path string, opts Options) (*Stream, error) {
	return StreamTool(ctx, "tokei", optional(path), opts)
}

// Hexyl dumps file as hex.
func Hexyl(ctx context.Context, file string, opts Options) (Result, error) {
	return Exec(ctx, "hexyl", []string{file}, opts)
}

// HexylStream is Hexyl with streamed output.
func HexylStream(ctx context.Context, file string, opts Options) (*Stream, error) {
	return StreamTool(ctx, "hexyl", []string{file}, opts)
}

// Hyperfine benchmarks each command.
func Hyperfine(ctx context.Context, commands []string, opts Options) (Result, error) {
	return Exec(ctx, "hyperfine", commands, opts)
}

// HyperfineStream is Hyperfine with streamed output.
func HyperfineStream(ctx context.Context, commands []string, opts Options) (*Stream, error) {
	return StreamTool(ctx, "hyperfine", commands, opts)
}

// Procs lists processes.
func Procs(ctx context.Context, opts Options) (Result, error) {
	return Exec(ctx, "procs", nil, opts)
}

// ProcsStream is Procs with streamed output.
func ProcsStream(ctx context.Context, opts Options) (*Stream, error) {
	return StreamTool(ctx, "procs", nil, opts)
}

// Gron flattens the JSON in file, or in Options.Input when file is empty.
func Gron(ctx context.Context, file string, opts Options) (Result, error) {
	return Exec(ctx, "gron", optional(file), opts)
}

// GronStream is Gron with streamed output.
func GronStream(ctx context.Context, file string, opts Options) (*Stream, error) {
	return StreamTool(ctx, "gron", optional(file), opts)
}

// Glab runs a GitLab CLI command such as "mr".
func Glab(ctx context.Context, command string, opts Options) (Result, error) {
	return Exec(ctx, "glab", []string{command}, opts)
}

// GlabStream is Glab with streamed output.
func GlabStream(ctx context.Context, command string, opts Options) (*Stream, error) {
	return StreamTool(ctx, "glab", []string{command}, opts)
}

// Gh runs a GitHub CLI command such as "pr".
func Gh(ctx context.Context, command string, opts Options) (Result, error) {
	return Exec(ctx, "gh", []string{command}, opts)
}

// GhStream is Gh with streamed output.
func GhStream(ctx context.Context, command string, opts Options) (*Stream, error) {
	return StreamTool(ctx, "gh", []string{command}, opts)
}

// Dust shows a disk usage tree for path.
func Dust(ctx context.Context, path string, opts Options) (Result, error) {
	return Exec(ctx, "dust", optional(path), opts)
}

// DustStream is Dust with streamed output.
func DustStream(ctx context.Context, path string, opts Options) (*Stream, error) {
	return StreamTool(ctx, "dust", optional(path), opts)
}

// Mc runs a MinIO client command such as "ls".
func Mc(ctx context.Context, command string, opts Options) (Result, error) {
	return Exec(ctx, "mc", []string{command}, opts)
}

// McStream is Mc with streamed output.
func McStream(ctx context.Context, command string, opts Options) (*Stream, error) {
	return StreamTool(ctx, "mc", []string{command}, opts)
}
