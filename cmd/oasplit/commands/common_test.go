package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/oasplit/internal/config"
)

const testSpec = `openapi: 3.0.3
info:
  title: Petstore
  version: "1.0"
servers:
  - url: https://api.example.com
paths:
  /api/v1/pets:
    get:
      operationId: listPets
      summary: List all pets
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
    post:
      operationId: createPet
      responses:
        "201":
          description: created
  /pets/{petId}:
    get:
      operationId: showPetById
      responses:
        "200":
          description: ok
components:
  schemas:
    Pet:
      type: object
    Error:
      type: object
`

// captureOutput swaps the command streams for buffers until the test ends.
func captureOutput(t *testing.T) (stdout, stderr *bytes.Buffer) {
	t.Helper()
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	oldOut, oldErr := Stdout, Stderr
	Stdout, Stderr = stdout, stderr
	t.Cleanup(func() { Stdout, Stderr = oldOut, oldErr })
	return stdout, stderr
}

func writeTestSpec(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSpec), 0o600))
	return path
}

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{"valid text", FormatText, false},
		{"valid json", FormatJSON, false},
		{"valid yaml", FormatYAML, false},
		{"invalid format", "xml", true},
		{"empty format", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, FormatText, FormatJSON, FormatYAML)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "text, json, yaml")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOutputStructured(t *testing.T) {
	data := map[string]string{"key": "value"}

	t.Run("json", func(t *testing.T) {
		stdout, _ := captureOutput(t)
		require.NoError(t, OutputStructured(data, FormatJSON))

		var got map[string]string
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
		assert.Equal(t, data, got)
	})

	t.Run("yaml", func(t *testing.T) {
		stdout, _ := captureOutput(t)
		require.NoError(t, OutputStructured(data, FormatYAML))
		assert.Equal(t, "key: value\n", stdout.String())
	})

	t.Run("invalid", func(t *testing.T) {
		captureOutput(t)
		assert.Error(t, OutputStructured(data, FormatText))
	})
}

func TestFormatSpecPath(t *testing.T) {
	assert.Equal(t, "<stdin>", FormatSpecPath(StdinFilePath))
	assert.Equal(t, "api.yaml", FormatSpecPath("api.yaml"))
}

func TestStringList(t *testing.T) {
	var s stringList
	require.NoError(t, s.Set("/users"))
	require.NoError(t, s.Set("/orders, /stores,,"))
	assert.Equal(t, stringList{"/users", "/orders", "/stores"}, s)
	assert.Equal(t, "/users,/orders,/stores", s.String())
}

func TestParseArgsReportsSetFlags(t *testing.T) {
	fs, _ := SetupSplitFlags()
	fs.SetOutput(&bytes.Buffer{})

	set, err := parseArgs(fs, []string{"-format", "json", "-prune", "spec.yaml"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"format": true, "prune": true}, set)
	assert.Equal(t, []string{"spec.yaml"}, fs.Args())

	_, err = parseArgs(fs, []string{"-h"})
	assert.True(t, isHelp(err))
}

func TestLoadSpecs(t *testing.T) {
	cfg := config.Default()
	l := newLoader(cfg, nil)

	t.Run("file and stdin", func(t *testing.T) {
		old := Stdin
		Stdin = strings.NewReader(testSpec)
		t.Cleanup(func() { Stdin = old })

		docs, err := loadSpecs(context.Background(), l, []string{writeTestSpec(t), StdinFilePath})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "stdin", docs[1].Source)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadSpecs(context.Background(), l, []string{filepath.Join(t.TempDir(), "nope.yaml")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nope.yaml")
	})
}

func TestNewPaletteWithoutTerminal(t *testing.T) {
	captureOutput(t)
	assert.False(t, useColor())
	p := newPalette()
	assert.Equal(t, "x", p.ok.Sprint("x"))
}
