package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/antonio-alexander/go-employees/internal"
	"github.com/antonio-alexander/go-employees/internal/cache"
	"github.com/antonio-alexander/go-employees/internal/client"
	"github.com/antonio-alexander/go-employees/internal/command"
	"github.com/antonio-alexander/go-employees/internal/data"
	"github.com/antonio-alexander/go-employees/internal/generator"
	"github.com/antonio-alexander/go-employees/internal/logic"
	"github.com/antonio-alexander/go-employees/internal/sql"
	"github.com/antonio-alexander/go-employees/internal/utilities"

	"github.com/spf13/cobra"
)

var (
	Version   string
	GitCommit string
	GitBranch string
)

func init() {
	if Version = data.Version; Version == "" {
		Version = "<no_version_provided>"
	}
	if GitCommit = data.GitCommit; GitCommit == "" {
		GitCommit = "<no_git_commit>"
	}
	if GitBranch = data.GitBranch; GitBranch == "" {
		GitBranch = "<no_git_branch>"
	}
}

func main() {
	args := os.Args[1:]
	envs, err := internal.Envs(os.Getenv("ENV_FILE"))
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal, syscall.SIGINT, syscall.SIGTERM)
	if err := Main(args, envs, os.Stdout, osSignal); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func usage() string {
	var commands []string

	for _, c := range command.Commands {
		commands = append(commands, fmt.Sprintf("  %s, %s", c.Code(), c))
	}
	return "Executes a single command against the employees table.\n\n" +
		"Commands:\n" + strings.Join(commands, "\n") + "\n\n" +
		"add-one expects: <full_name> <birth_date YYYY-MM-DD> <Male|Female>\n" +
		"6 is an alias of 5; configuration is read from the environment and .env"
}

// local wires the logic to the database, closers are returned in the
// order they should be called
func local(ctx context.Context, envs map[string]string, logger utilities.Logger) (logic.Logic, []internal.Closer, error) {
	var closers []internal.Closer

	sql := sql.NewSql(logger)
	if err := sql.Configure(envs); err != nil {
		return nil, nil, err
	}
	if err := sql.Open(ctx); err != nil {
		return nil, nil, err
	}
	closers = append(closers, sql)
	parameters := []any{sql, logger}
	if cacheType := envs["CACHE_TYPE"]; cacheType != "" {
		cache, err := cache.New(cacheType, logger)
		if err != nil {
			return nil, closers, err
		}
		if err := cache.Configure(envs); err != nil {
			return nil, closers, err
		}
		if err := cache.Open(ctx); err != nil {
			return nil, closers, err
		}
		closers = append([]internal.Closer{cache}, closers...)
		parameters = append(parameters, cache)
	}
	generator := generator.NewGenerator()
	if err := generator.Configure(envs); err != nil {
		return nil, closers, err
	}
	logic := logic.NewLogic(append(parameters, generator, os.Stderr)...)
	if err := logic.Configure(envs); err != nil {
		return nil, closers, err
	}
	return logic, closers, nil
}

// remote wires the logic to a running service
func remote(ctx context.Context, envs map[string]string, logger utilities.Logger) (logic.Logic, []internal.Closer, error) {
	client := client.NewClient(logger)
	if err := client.Configure(envs); err != nil {
		return nil, nil, err
	}
	if err := client.Open(ctx); err != nil {
		return nil, nil, err
	}
	return client, []internal.Closer{client}, nil
}

func Main(args []string, envs map[string]string, stdout io.Writer, osSignal chan os.Signal) error {
	var wg sync.WaitGroup

	//create context
	ctx, cancel := internal.LaunchContext(&wg, osSignal)
	defer func() {
		cancel()
		wg.Wait()
	}()
	ctx = internal.CtxWithCorrelationId(ctx, internal.GenerateId())

	root := &cobra.Command{
		Use:           "employees <command> [args...]",
		Short:         "employees: create, seed and query the employees table",
		Long:          usage(),
		Version:       fmt.Sprintf("%s (%s) built from: %s", Version, GitCommit, GitBranch),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var closers []internal.Closer
			var l logic.Logic
			var err error

			ctx := cmd.Context()

			//create utilities
			logger := utilities.NewLogger()
			if err := logger.Configure(envs); err != nil {
				return err
			}
			timers := utilities.NewTimers()
			logger.Debug(ctx, "employees v%s (%s) built from: %s",
				Version, GitCommit, GitBranch)

			//an invalid command shouldn't touch the database
			c := command.Invalid
			if len(args) > 0 {
				c = command.Parse(args[0])
				args = args[1:]
			}
			if c != command.Invalid {
				remoteEnabled, _ := strconv.ParseBool(envs["EMPLOYEES_REMOTE"])
				switch {
				default:
					l, closers, err = local(ctx, envs, logger)
				case remoteEnabled:
					l, closers, err = remote(ctx, envs, logger)
				}
				defer func() {
					for _, closer := range closers {
						if err := closer.Close(context.Background()); err != nil {
							logger.Error(ctx, "error while closing: %s", err)
						}
					}
				}()
				if err != nil {
					return err
				}
			}

			//create executor, configure and execute
			executor := command.NewExecutor(l, timers, logger, cmd.OutOrStdout())
			if err := executor.Configure(envs); err != nil {
				return err
			}
			return executor.Execute(ctx, c, args...)
		},
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	return root.ExecuteContext(ctx)
}
