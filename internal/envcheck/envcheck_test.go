package envcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestMask(t *testing.T) {
	tests := []struct{ in, want string }{
		{"gsk_abcdef123456", "gsk_****"},
		{"abcd", "****"},
		{"ab", "****"},
		{"", "****"},
		{"pässwort", "päss****"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Mask(tt.in))
		})
	}
}

func TestCheck_AllPresent(t *testing.T) {
	rep := Check(Options{Lookup: lookupFrom(map[string]string{
		"DB_HOST":      "localhost",
		"DB_NAME":      "urbanpulse",
		"DB_USER":      "root",
		"GROQ_API_KEY": "gsk_secretvalue",
	})})

	assert.True(t, rep.OK)
	assert.Empty(t, rep.Issues)

	k, ok := rep.Key("GROQ_API_KEY")
	require.True(t, ok)
	assert.True(t, k.Present)
	assert.Equal(t, "gsk_****", k.Masked)
	assert.Equal(t, SourceProcess, k.Source)

	k, _ = rep.Key("OPENROUTER_API_KEY")
	assert.False(t, k.Present)
	assert.Empty(t, k.Masked)

	_, ok = rep.Key("HEATMAP_URL")
	assert.True(t, ok, "optional keys are listed")
}

func TestCheck_MissingRequiredAndLLM(t *testing.T) {
	rep := Check(Options{Lookup: lookupFrom(map[string]string{"DB_HOST": "localhost", "DB_USER": ""})})

	assert.False(t, rep.OK)
	assert.Equal(t, []string{
		"required variable DB_NAME is not set",
		"required variable DB_USER is not set",
		"no LLM API key set (need one of GROQ_API_KEY, OPENROUTER_API_KEY)",
	}, rep.Issues)
}

func TestCheck_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"DB_HOST=file-host\nDB_NAME=urbanpulse\nDB_USER=app\nOPENROUTER_API_KEY=sk-or-v1-xyz\n"), 0o600))

	rep := Check(Options{
		EnvFile: path,
		Lookup:  lookupFrom(map[string]string{"DB_HOST": "process-host"}),
	})

	assert.True(t, rep.OK)
	assert.True(t, rep.EnvFileFound)

	host, _ := rep.Key("DB_HOST")
	assert.Equal(t, SourceProcess, host.Source)
	assert.Equal(t, "proc****", host.Masked)

	or, _ := rep.Key("OPENROUTER_API_KEY")
	assert.Equal(t, SourceFile, or.Source)
	assert.Equal(t, "sk-o****", or.Masked)
}

func TestCheck_MissingEnvFileIsNote(t *testing.T) {
	rep := Check(Options{
		EnvFile:  filepath.Join(t.TempDir(), ".env"),
		Required: []string{},
		LLMKeys:  []string{},
		Lookup:   lookupFrom(nil),
	})

	assert.True(t, rep.OK)
	assert.False(t, rep.EnvFileFound)
	require.Len(t, rep.Notes, 1)
	assert.Contains(t, rep.Notes[0], "not found")
}

func TestCheck_UnreadableEnvFileIsIssue(t *testing.T) {
	rep := Check(Options{
		EnvFile:  t.TempDir(), // a directory
		Required: []string{},
		LLMKeys:  []string{},
		Lookup:   lookupFrom(nil),
	})

	assert.False(t, rep.OK)
	require.Len(t, rep.Issues, 1)
	assert.Contains(t, rep.Issues[0], "could not be read")
}
