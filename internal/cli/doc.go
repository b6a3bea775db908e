// Parses flags, loads configuration and runs ctrstep subcommands.
//
// Global flags:
//
//	-q, --quiet       Suppress informational output.
//	-v, --verbose     Enable verbose output.
//	-d, --debug       Enable debug output.
//	    --cache-dir   Directory for pulled images ($CTRSTEP_CACHE_DIR).
//	    --runtime     Container CLI to invoke ($CTRSTEP_RUNTIME).
//
// Environment variables may also come from a .env file in the working
// directory, loaded before flags are parsed. Flags override build-time
// defaults set via linker flags. After parsing, the log level is adjusted to
// the final quiet/verbose/debug settings before the subcommand runs.
package cli
