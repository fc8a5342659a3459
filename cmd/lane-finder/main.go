package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// logLevelEnv overrides the log level when -debug is not given.
const logLevelEnv = "LANE_FINDER_LOG_LEVEL"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "video":
		err = runVideo(rest, stderr)
	case "image":
		err = runImage(rest, stderr)
	case "serve":
		err = runServe(rest, stderr)
	case "config":
		err = runConfig(rest, stdout, stderr)
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "lane-finder %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		printUsage(stderr)
		return 2
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			if ue.msg != "" {
				fmt.Fprintln(stderr, ue.msg)
			}
			return 2
		}
		// Logged by the command; the exit code is all that is left.
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "lane-finder - lane line estimation for dashcam footage")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: lane-finder <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  video     Annotate a video file or a directory of frames")
	fmt.Fprintln(w, "  image     Annotate a single frame")
	fmt.Fprintln(w, "  serve     Run the MCP server on stdin/stdout")
	fmt.Fprintln(w, "  config    Print the effective configuration as YAML")
	fmt.Fprintln(w, "  version   Print version information")
	fmt.Fprintln(w, "  help      Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'lane-finder <command> -h' for the options of a command.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintf(w, "  %s=debug    Set the log level (ignored with -debug)\n", logLevelEnv)
}

// usageError reports bad command line arguments.
type usageError struct {
	msg string
}

func (e usageError) Error() string {
	return e.msg
}

func usagef(format string, args ...interface{}) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// initLogger returns the logger shared by every component. Logs go to
// stderr so stdout stays free for the MCP protocol.
func initLogger(debugMode bool, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		logger.Debug("Debug logging enabled")
		return logger
	}

	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if env := strings.TrimSpace(os.Getenv(logLevelEnv)); env != "" {
		level, err := logrus.ParseLevel(env)
		if err != nil {
			logger.WithField("value", env).Warnf("ignoring invalid %s", logLevelEnv)
		} else {
			logger.SetLevel(level)
		}
	}
	return logger
}
