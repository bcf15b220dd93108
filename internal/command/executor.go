package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employees/internal"
	"github.com/antonio-alexander/go-employees/internal/data"
	"github.com/antonio-alexander/go-employees/internal/logic"
	"github.com/antonio-alexander/go-employees/internal/utilities"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

const (
	OutputFormatLines string = "lines"
	OutputFormatTable string = "table"
)

const (
	defaultSeedQuantity         int      = 1000000
	defaultSeedFixedQuantity    int      = 100
	defaultSeedFixedSex         data.Sex = data.SexMale
	defaultSeedFixedFirstLetter string   = "F"
)

var (
	ErrInsufficientArguments = errors.New("insufficient arguments")
	ErrUnsupportedCommand    = errors.New("unsupported command")
)

type Executor interface {
	Execute(ctx context.Context, command Command, args ...string) error
}

type executor struct {
	sync.RWMutex
	writer io.Writer
	now    func() time.Time
	config struct {
		outputFormat         string
		seedQuantity         int
		seedFixedQuantity    int
		seedFixedSex         data.Sex
		seedFixedFirstLetter string
	}
	logic.Logic
	utilities.Timers
	utilities.Logger
}

// NewExecutor creates an executor that runs commands against the given
// logic and writes their output to stdout unless an io.Writer is provided
func NewExecutor(parameters ...any) interface {
	internal.Configurer
	Executor
} {
	e := &executor{
		writer: os.Stdout,
		now:    time.Now,
		Logger: utilities.NewNopLogger(),
	}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case logic.Logic:
			e.Logic = p
		case utilities.Timers:
			e.Timers = p
		case utilities.Logger:
			e.Logger = p
		case io.Writer:
			e.writer = p
		case func() time.Time:
			e.now = p
		}
	}
	e.config.outputFormat = OutputFormatLines
	e.config.seedQuantity = defaultSeedQuantity
	e.config.seedFixedQuantity = defaultSeedFixedQuantity
	e.config.seedFixedSex = defaultSeedFixedSex
	e.config.seedFixedFirstLetter = defaultSeedFixedFirstLetter
	return e
}

func (e *executor) Configure(envs map[string]string) error {
	e.Lock()
	defer e.Unlock()

	if outputFormat := envs["OUTPUT_FORMAT"]; outputFormat != "" {
		switch outputFormat = strings.ToLower(outputFormat); outputFormat {
		default:
			return errors.Errorf("unsupported output format: %s", outputFormat)
		case OutputFormatLines, OutputFormatTable:
			e.config.outputFormat = outputFormat
		}
	}
	if s := envs["SEED_QUANTITY"]; s != "" {
		seedQuantity, err := strconv.Atoi(s)
		if err != nil {
			return errors.Wrap(err, "unable to parse SEED_QUANTITY")
		}
		e.config.seedQuantity = seedQuantity
	}
	if s := envs["SEED_FIXED_QUANTITY"]; s != "" {
		seedFixedQuantity, err := strconv.Atoi(s)
		if err != nil {
			return errors.Wrap(err, "unable to parse SEED_FIXED_QUANTITY")
		}
		e.config.seedFixedQuantity = seedFixedQuantity
	}
	if s := envs["SEED_FIXED_SEX"]; s != "" {
		if sex := data.Sex(s); !sex.Valid() {
			return errors.Errorf("unsupported SEED_FIXED_SEX: %s", s)
		}
		e.config.seedFixedSex = data.Sex(s)
	}
	if s := envs["SEED_FIXED_FIRST_LETTER"]; s != "" {
		e.config.seedFixedFirstLetter = s
	}
	return nil
}

// Execute runs a single command, an Invalid command only prints a message
func (e *executor) Execute(ctx context.Context, command Command, args ...string) error {
	e.RLock()
	defer e.RUnlock()

	if internal.CorrelationIdFromCtx(ctx) == "" {
		ctx = internal.CtxWithCorrelationId(ctx, internal.GenerateId())
	}
	e.Debug(ctx, "executing command: %s", command)
	switch command {
	default:
		return errors.Wrapf(ErrUnsupportedCommand, "%d", int(command))
	case Invalid:
		e.println("invalid command")
		return nil
	case CreateSchema:
		return e.createSchema(ctx)
	case AddOne:
		return e.addOne(ctx, args)
	case ListUnique:
		return e.listUnique(ctx)
	case SeedLoad:
		return e.seedLoad(ctx)
	case FilteredCount:
		return e.filteredCount(ctx)
	}
}

func (e *executor) println(a ...any) {
	_, _ = fmt.Fprintln(e.writer, a...)
}

func (e *executor) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(e.writer, format, a...)
}

// formatCount prints counts as plain integers, the table output groups
// the thousands
func (e *executor) formatCount(n int64) string {
	if e.config.outputFormat == OutputFormatTable {
		return humanize.Comma(n)
	}
	return strconv.FormatInt(n, 10)
}

func (e *executor) printElapsed(command Command, elapsed time.Duration) {
	e.printf("elapsed time (%s): %.4f seconds\n", command, elapsed.Seconds())
}

func (e *executor) createSchema(ctx context.Context) error {
	if err := e.SchemaCreate(ctx); err != nil {
		return err
	}
	e.println("table created")
	return nil
}

func (e *executor) addOne(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return errors.Wrapf(ErrInsufficientArguments,
			"%s expects full_name, birth_date and sex", AddOne)
	}
	birthDate, err := data.ParseBirthDate(args[1])
	if err != nil {
		return errors.Wrap(err, "unable to parse birth_date")
	}
	employee, err := e.EmployeeCreate(ctx,
		data.NewEmployee(args[0], birthDate, data.Sex(args[2])))
	if err != nil {
		return err
	}
	e.printf("employee added. age: %d\n", employee.CalculateAge(e.now()))
	return nil
}

func (e *executor) listUnique(ctx context.Context) error {
	employees, err := e.EmployeesUnique(ctx)
	if err != nil {
		return err
	}
	switch e.config.outputFormat {
	default:
		for _, employee := range employees {
			e.printf("full_name: %s, sex: %s, birth_date: %s\n", employee.FullName,
				employee.Sex, employee.BirthDate.Format(data.DateFormat))
		}
	case OutputFormatTable:
		table := tablewriter.NewWriter(e.writer)
		table.SetHeader([]string{"full_name", "sex", "birth_date"})
		for _, employee := range employees {
			table.Append([]string{employee.FullName, string(employee.Sex),
				employee.BirthDate.Format(data.DateFormat)})
		}
		table.SetAutoFormatHeaders(false)
		table.Render()
	}
	return nil
}

func (e *executor) seedLoad(ctx context.Context) error {
	elapsed, err := utilities.Measure(e.Timers, SeedLoad.String(), func() error {
		n, err := e.EmployeesSeed(ctx, e.config.seedQuantity, data.EmployeeTemplate{})
		if err != nil {
			return err
		}
		e.printf("%s employees added\n", e.formatCount(int64(n)))
		sex, firstLetter := e.config.seedFixedSex, e.config.seedFixedFirstLetter
		n, err = e.EmployeesSeed(ctx, e.config.seedFixedQuantity, data.EmployeeTemplate{
			Sex:         &sex,
			FirstLetter: &firstLetter,
		})
		if err != nil {
			return err
		}
		e.printf("%s employees added\n", e.formatCount(int64(n)))
		return nil
	})
	if err != nil {
		return err
	}
	e.printElapsed(SeedLoad, elapsed)
	return nil
}

// filteredCount counts the employees matching the fixed part of the
// seed, by default male employees whose full name starts with F
func (e *executor) filteredCount(ctx context.Context) error {
	var count int64

	elapsed, err := utilities.Measure(e.Timers, FilteredCount.String(), func() (err error) {
		count, err = e.EmployeesCount(ctx, data.EmployeeSearch{
			Sex:            e.config.seedFixedSex,
			FullNamePrefix: e.config.seedFixedFirstLetter,
		})
		return
	})
	if err != nil {
		return err
	}
	e.println(e.formatCount(count))
	e.printElapsed(FilteredCount, elapsed)
	return nil
}
