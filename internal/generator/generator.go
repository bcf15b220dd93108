package generator

import (
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employees/internal"
	"github.com/antonio-alexander/go-employees/internal/data"

	"github.com/jaswdr/faker"
)

const (
	minimumAge int = 18
	maximumAge int = 70
)

type Generator interface {
	Generate(quantity int, template data.EmployeeTemplate) []*data.Employee
}

type generator struct {
	sync.Mutex
	faker.Faker
	now func() time.Time
}

// NewGenerator creates a generator backed by faker, a func() time.Time
// can be provided as a parameter to replace the clock used to compute
// birth dates
func NewGenerator(parameters ...any) interface {
	internal.Configurer
	Generator
} {
	g := &generator{
		Faker: faker.New(),
		now:   time.Now,
	}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case func() time.Time:
			g.now = p
		}
	}
	return g
}

func (g *generator) Configure(envs map[string]string) error {
	g.Lock()
	defer g.Unlock()

	if s := envs["GENERATOR_SEED"]; s != "" {
		seed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		g.Faker = faker.NewWithSeed(rand.NewSource(seed))
	}
	return nil
}

func (g *generator) sex(template data.EmployeeTemplate) data.Sex {
	if template.Sex != nil {
		return *template.Sex
	}
	return data.Sex(g.RandomStringElement([]string{
		string(data.SexMale),
		string(data.SexFemale),
	}))
}

func (g *generator) fullName(sex data.Sex, template data.EmployeeTemplate) string {
	person := g.Person()
	givenNameFx := person.FirstName
	switch sex {
	case data.SexMale:
		givenNameFx = person.FirstNameMale
	case data.SexFemale:
		givenNameFx = person.FirstNameFemale
	}
	fullName := person.LastName() + " " + givenNameFx() + " " + givenNameFx()
	if template.FirstLetter != nil {
		if runes := []rune(fullName); len(runes) > 0 {
			fullName = *template.FirstLetter + string(runes[1:])
		}
	}
	return fullName
}

// yearsAgo returns the same month and day n years before t, February
// 29th becomes February 28th when the earlier year isn't a leap year
func yearsAgo(t time.Time, n int) time.Time {
	firstOfMonth := time.Date(t.Year()-n, t.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstOfMonth.AddDate(0, 1, -1).Day()
	return firstOfMonth.AddDate(0, 0, min(t.Day(), lastDay)-1)
}

// birthDate draws a date uniformly from the days that give an
// age between minimumAge and maximumAge as of today
func (g *generator) birthDate(today time.Time) time.Time {
	earliest := yearsAgo(today, maximumAge)
	latest := yearsAgo(today, minimumAge)
	days := int(latest.Sub(earliest).Hours() / 24)
	return earliest.AddDate(0, 0, g.IntBetween(0, days))
}

// Generate creates quantity employees that haven't been persisted,
// each call is an independent draw
func (g *generator) Generate(quantity int, template data.EmployeeTemplate) []*data.Employee {
	g.Lock()
	defer g.Unlock()

	if quantity < 0 {
		quantity = 0
	}
	now := g.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	employees := make([]*data.Employee, 0, quantity)
	for i := 0; i < quantity; i++ {
		sex := g.sex(template)
		employees = append(employees, data.NewEmployee(
			g.fullName(sex, template),
			g.birthDate(today),
			sex,
		))
	}
	return employees
}
