package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/cruciblehq/ctrstep/internal"
	"github.com/cruciblehq/ctrstep/internal/paths"
	"github.com/cruciblehq/ctrstep/internal/runtime"
	"github.com/joho/godotenv"
)

// Represents the root command for ctrstep.
var RootCmd struct {
	Quiet    bool        `short:"q" help:"Suppress informational output."`
	Verbose  bool        `short:"v" help:"Enable verbose output."`
	Debug    bool        `short:"d" help:"Enable debug output."`
	CacheDir string      `help:"Directory where pulled images are cached." env:"CTRSTEP_CACHE_DIR" default:"${cache_dir}" type:"path" placeholder:"DIR"`
	Runtime  string      `help:"Container CLI to invoke." env:"CTRSTEP_RUNTIME" default:"${runtime}" placeholder:"NAME"`
	Check    CheckCmd    `cmd:"" help:"Verify the container CLI is installed and recent enough."`
	Pull     PullCmd     `cmd:"" help:"Pull an image into the cache."`
	Inspect  InspectCmd  `cmd:"" help:"Show how an image reference resolves."`
	Shellcmd ShellcmdCmd `cmd:"" help:"Print the command line that runs a command in an image."`
	Run      RunCmd      `cmd:"" help:"Run the steps of a step file."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// A missing .env file is not an error.
	_ = godotenv.Load()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("Runs workflow steps inside containers.\n\nPulls images through a Docker-compatible CLI and builds the command lines that run steps in them."),
		kong.UsageOnError(),
		kong.Vars{
			"version":   internal.VersionString(),
			"cache_dir": paths.Images(),
			"runtime":   runtime.DefaultCLI,
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Configures the global log level based on CLI flags.
func configureLogger() {
	internal.SetDebug(RootCmd.Debug || internal.IsDebug())
	internal.SetQuiet(RootCmd.Quiet || internal.IsQuiet())
	internal.SetVerbose(RootCmd.Verbose || internal.IsVerbose())
	internal.ApplyLogLevel()
}

// Returns the checker for the configured CLI. The default CLI shares the
// process-wide checker.
func checker() *runtime.Checker {
	if RootCmd.Runtime == "" || RootCmd.Runtime == runtime.DefaultCLI {
		return runtime.DefaultChecker()
	}
	return runtime.NewChecker(RootCmd.Runtime, nil)
}

// Creates an image reference against the configured cache and CLI.
func newImage(url string, containerized bool) (*runtime.Image, error) {
	return runtime.NewImage(url, RootCmd.CacheDir, containerized, runtime.WithChecker(checker()))
}
