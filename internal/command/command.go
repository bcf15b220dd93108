package command

import "strings"

// Command enumerates the operations that can be executed, each command
// has a numeric code and a name either of which can be parsed
type Command int

const (
	Invalid Command = iota
	CreateSchema
	AddOne
	ListUnique
	SeedLoad
	FilteredCount
)

// Commands lists every valid command in code order
var Commands = []Command{
	CreateSchema,
	AddOne,
	ListUnique,
	SeedLoad,
	FilteredCount,
}

func (c Command) String() string {
	switch c {
	default:
		return "invalid"
	case CreateSchema:
		return "create-schema"
	case AddOne:
		return "add-one"
	case ListUnique:
		return "list-unique"
	case SeedLoad:
		return "seed-load"
	case FilteredCount:
		return "filtered-count"
	}
}

func (c Command) Code() string {
	switch c {
	default:
		return ""
	case CreateSchema:
		return "1"
	case AddOne:
		return "2"
	case ListUnique:
		return "3"
	case SeedLoad:
		return "4"
	case FilteredCount:
		return "5"
	}
}

// Parse returns the command for a code or a name, anything it doesn't
// recognize is Invalid
func Parse(s string) Command {
	switch strings.ToLower(strings.TrimSpace(s)) {
	default:
		return Invalid
	case "1", CreateSchema.String():
		return CreateSchema
	case "2", AddOne.String():
		return AddOne
	case "3", ListUnique.String():
		return ListUnique
	case "4", SeedLoad.String():
		return SeedLoad
	//KIM: 6 has always been an alias for 5
	case "5", "6", FilteredCount.String():
		return FilteredCount
	}
}
