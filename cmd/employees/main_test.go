package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newEnvs(t *testing.T) map[string]string {
	return map[string]string{
		"DATABASE_DRIVER":         "sqlite",
		"DATABASE_NAME":           filepath.Join(t.TempDir(), "employees.db"),
		"SEED_QUANTITY":           "40",
		"SEED_FIXED_QUANTITY":     "5",
		"SEED_FIXED_SEX":          "Male",
		"SEED_FIXED_FIRST_LETTER": "F",
		"LOGIC_CACHE_ENABLED":     "true",
		"CACHE_TYPE":              "memory",
	}
}

func execute(t *testing.T, envs map[string]string, args ...string) (string, error) {
	stdout := &bytes.Buffer{}
	err := Main(args, envs, stdout, make(chan os.Signal, 1))
	return stdout.String(), err
}

func TestEmployees(t *testing.T) {
	envs := newEnvs(t)

	//invalid commands don't need a database
	for _, args := range [][]string{{}, {"9"}, {"0", "a", "b"}} {
		output, err := execute(t, envs, args...)
		assert.Nil(t, err)
		assert.Equal(t, "invalid command\n", output)
	}

	output, err := execute(t, envs, "1")
	assert.Nil(t, err)
	assert.Equal(t, "table created\n", output)

	output, err = execute(t, envs, "2", "Fisher John Paul", "1990-01-01", "Male")
	assert.Nil(t, err)
	assert.True(t, strings.HasPrefix(output, "employee added. age: "), output)

	_, err = execute(t, envs, "2", "Fisher John Paul", "01-01-1990", "Male")
	assert.NotNil(t, err)

	output, err = execute(t, envs, "3")
	assert.Nil(t, err)
	assert.Equal(t, "full_name: Fisher John Paul, sex: Male, birth_date: 1990-01-01\n", output)

	output, err = execute(t, envs, "4")
	assert.Nil(t, err)
	assert.Contains(t, output, "40 employees added\n")
	assert.Contains(t, output, "5 employees added\n")

	output, err = execute(t, envs, "6")
	assert.Nil(t, err)
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if assert.Len(t, lines, 2) {
		assert.NotEqual(t, "0", lines[0])
		assert.Contains(t, lines[1], "elapsed time (filtered-count)")
	}
}

func TestMainVersion(t *testing.T) {
	output, err := execute(t, newEnvs(t), "--version")
	assert.Nil(t, err)
	assert.Contains(t, output, "employees version")
}
