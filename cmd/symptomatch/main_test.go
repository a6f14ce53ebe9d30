package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/symptomatch/advisor"
	"github.com/poiesic/symptomatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const testKB = "../../kb/testdata/dental_conditions.yaml"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp(&out)
	app.ErrWriter = &bytes.Buffer{}
	err := app.Run(append([]string{"symptomatch"}, args...))
	return out.String(), err
}

type rankOutput struct {
	Language core.Language    `json:"language"`
	Result   *core.RankResult `json:"result"`
}

func TestRankCommand(t *testing.T) {
	t.Run("ranks text from a yaml file", func(t *testing.T) {
		out, err := run(t, "rank", "--kb", testKB, "sharp", "toothache", "after", "sweets")
		require.NoError(t, err)

		var got rankOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, core.English, got.Language)
		assert.Equal(t, "cavity", got.Result.ConditionID)
		assert.Contains(t, got.Result.MatchedSymptoms, "toothache")
	})

	t.Run("knowledge base from environment", func(t *testing.T) {
		t.Setenv("SYMPTOMATCH_KB", testKB)
		out, err := run(t, "rank", "bleeding gums")
		require.NoError(t, err)
		assert.Contains(t, out, `"id": "gum_disease"`)
	})

	t.Run("text is required", func(t *testing.T) {
		_, err := run(t, "rank", "--kb", testKB)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query text is required")
	})

	t.Run("knowledge base source is required", func(t *testing.T) {
		t.Setenv("SYMPTOMATCH_KB", "")
		t.Setenv("SYMPTOMATCH_DB", "")
		_, err := run(t, "rank", "toothache")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--kb or --db")
	})

	t.Run("unsupported default language", func(t *testing.T) {
		_, err := run(t, "rank", "--kb", testKB, "--default-language", "fr", "toothache")
		assert.Error(t, err)
	})
}

func TestImportAndInfoCommands(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db")

	out, err := run(t, "import", "--kb", testKB, "--db", dbPath, "--batch-size", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "imported 4 conditions in 2 batches")

	out, err = run(t, "info", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Conditions: 4")
	assert.Contains(t, out, "tooth_abscess")

	fromFile, err := run(t, "info", "--kb", testKB)
	require.NoError(t, err)
	assert.Equal(t, fromFile, out)

	out, err = run(t, "rank", "--db", dbPath, "pus", "and", "fever")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "tooth_abscess"`)

	t.Run("append rejects existing ids", func(t *testing.T) {
		_, err := run(t, "import", "--kb", testKB, "--db", dbPath, "--append", "--max-retries", "1")
		assert.Error(t, err)
	})
}

func TestImportCommandValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"kb required", []string{"import", "--db", "/tmp/unused"}, "kb"},
		{"db required", []string{"import", "--kb", testKB}, "db"},
		{"batch size", []string{"import", "--kb", testKB, "--db", "/tmp/unused", "--batch-size", "0"}, "batch-size"},
		{"max retries", []string{"import", "--kb", testKB, "--db", "/tmp/unused", "--max-retries", "0"}, "max-retries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SYMPTOMATCH_KB", "")
			t.Setenv("SYMPTOMATCH_DB", "")
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAdviseCommand(t *testing.T) {
	out, err := run(t, "advise", "--kb", testKB, "--location", "Kolkata", "--limit", "2", "--seed", "5",
		"my", "gums", "are", "bleeding")
	require.NoError(t, err)

	var resp advisor.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "gum_disease", resp.Result.ConditionID)
	require.Len(t, resp.NearbySpecialists, 2)
	assert.Equal(t, "Kolkata", resp.NearbySpecialists[0].City)

	again, err := run(t, "advise", "--kb", testKB, "--location", "Kolkata", "--limit", "2", "--seed", "5",
		"my", "gums", "are", "bleeding")
	require.NoError(t, err)
	var second advisor.Response
	require.NoError(t, json.Unmarshal([]byte(again), &second))
	assert.Equal(t, resp.NearbySpecialists, second.NearbySpecialists)
}

func TestBatchCommand(t *testing.T) {
	input := filepath.Join(t.TempDir(), "queries.txt")
	content := "toothache after sweets\n\nbleeding gums\nswollen face and fever\n"
	require.NoError(t, os.WriteFile(input, []byte(content), 0644))

	out, err := run(t, "batch", "--kb", testKB, "--input", input, "--workers", "2")
	require.NoError(t, err)

	var lines []batchLine
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var line batchLine
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 3)

	assert.Equal(t, 1, lines[0].Line)
	assert.Equal(t, "cavity", lines[0].Result.ConditionID)
	assert.Equal(t, 3, lines[1].Line)
	assert.Equal(t, "gum_disease", lines[1].Result.ConditionID)
	assert.Equal(t, 4, lines[2].Line)
	assert.Equal(t, "tooth_abscess", lines[2].Result.ConditionID)
	for _, line := range lines {
		assert.Empty(t, line.Error)
	}

	t.Run("with metrics", func(t *testing.T) {
		out, err := run(t, "batch", "--kb", testKB, "--input", input, "--metrics")
		require.NoError(t, err)
		assert.Equal(t, 3, strings.Count(out, "\n"))
	})

	t.Run("missing input", func(t *testing.T) {
		_, err := run(t, "batch", "--kb", testKB, "--input", filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})
}

func TestRequestErrors(t *testing.T) {
	assert.Empty(t, requestErrors(nil))

	failures := requestErrors(errors.Join(
		&advisor.RequestError{Index: 2, Err: assert.AnError},
		&advisor.RequestError{Index: 5, Err: assert.AnError},
	))
	assert.Len(t, failures, 2)
	assert.Equal(t, assert.AnError, failures[5])

	single := requestErrors(&advisor.RequestError{Index: 0, Err: assert.AnError})
	assert.Equal(t, assert.AnError, single[0])
}

func TestSetupLogger(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			_, err := run(t, "--log-level", level, "info", "--kb", testKB)
			assert.NoError(t, err)
		})
	}

	_, err := run(t, "--log-level", "verbose", "info", "--kb", testKB)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestCommandFlags(t *testing.T) {
	app := newApp(&bytes.Buffer{})

	find := func(command, name string) cli.Flag {
		for _, cmd := range app.Commands {
			if cmd.Name != command {
				continue
			}
			for _, flag := range cmd.Flags {
				if flag.Names()[0] == name {
					return flag
				}
			}
		}
		return nil
	}

	t.Run("db has env var", func(t *testing.T) {
		flag, ok := find("rank", "db").(*cli.StringFlag)
		require.True(t, ok)
		assert.Equal(t, []string{"SYMPTOMATCH_DB"}, flag.EnvVars)
	})

	t.Run("import requires kb", func(t *testing.T) {
		flag, ok := find("import", "kb").(*cli.StringFlag)
		require.True(t, ok)
		assert.True(t, flag.Required)
	})

	t.Run("radius defaults to five kilometres", func(t *testing.T) {
		flag, ok := find("advise", "radius").(*cli.Float64Flag)
		require.True(t, ok)
		assert.Equal(t, 5000.0, flag.Value)
	})

	t.Run("batch reads stdin by default", func(t *testing.T) {
		flag, ok := find("batch", "input").(*cli.StringFlag)
		require.True(t, ok)
		assert.Equal(t, "-", flag.Value)
	})
}
