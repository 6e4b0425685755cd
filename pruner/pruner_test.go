package pruner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/erraggy/oasplit/document"
	"github.com/erraggy/oasplit/logging"
)

const oas3 = `openapi: 3.0.3
info:
  title: Zoo
components:
  schemas:
    Pet:
      type: object
      properties:
        owner:
          $ref: '#/components/schemas/Owner'
        tags:
          type: array
          items:
            $ref: '#/components/schemas/Tag'
    Owner:
      type: object
      properties:
        pets:
          type: array
          items:
            $ref: '#/components/schemas/Pet'
    Tag:
      type: string
    Error:
      type: object
    Unused:
      type: object
  responses:
    NotFound:
      description: missing
      content:
        application/json:
          schema:
            $ref: '#/components/schemas/Error'
`

const oas2 = `swagger: "2.0"
definitions:
  User:
    properties:
      address:
        $ref: '#/definitions/Address'
  Address:
    type: object
  a/b:
    type: string
  Unused:
    type: object
`

func mustYAML(t *testing.T, s string) document.Node {
	t.Helper()
	n, err := document.DecodeYAML([]byte(s))
	require.NoError(t, err)
	return n
}

func TestPruneOAS3Closure(t *testing.T) {
	skeleton := mustYAML(t, oas3)
	before := document.Clone(skeleton)
	body := mustYAML(t, `
responses:
  "200":
    content:
      application/json:
        schema:
          $ref: '#/components/schemas/Pet'
  "404":
    $ref: '#/components/responses/NotFound'
`)

	got := Prune(skeleton, body)

	assert.Equal(t, []string{"Pet", "Owner", "Tag", "Error"}, document.Keys(document.GetPath(got, "components", "schemas")),
		"closure follows cycles and other components, keeps source order")
	assert.Equal(t, []string{"NotFound"}, document.Keys(document.GetPath(got, "components", "responses")))
	assert.Equal(t, "Zoo", document.GetPath(got, "info", "title").Value)
	assert.True(t, document.Equal(before, skeleton), "input must not change")
}

func TestPruneOAS2(t *testing.T) {
	skeleton := mustYAML(t, oas2)
	body := mustYAML(t, `
parameters:
  - in: body
    schema:
      $ref: '#/definitions/User'
  - in: body
    schema:
      $ref: '#/definitions/a~1b'
`)
	got := Prune(skeleton, body)
	assert.Equal(t, []string{"User", "Address", "a/b"}, document.Keys(document.Get(got, "definitions")))
}

func TestPruneNoRefs(t *testing.T) {
	got := Prune(mustYAML(t, oas3), mustYAML(t, "summary: plain\n"))
	schemas := document.GetPath(got, "components", "schemas")
	require.NotNil(t, schemas)
	assert.Empty(t, document.Keys(schemas))
}

func TestPruneWithoutSchemaSection(t *testing.T) {
	skeleton := mustYAML(t, "openapi: 3.1.0\ninfo: {title: x}\n")
	assert.Same(t, skeleton, Prune(skeleton, mustYAML(t, "$ref: '#/components/schemas/X'\n")))
}

func TestPruneMultipleBodies(t *testing.T) {
	skeleton := mustYAML(t, oas2)
	got := Prune(skeleton,
		mustYAML(t, "schema: {$ref: '#/definitions/Address'}\n"),
		mustYAML(t, "schema: {$ref: '#/definitions/Unused'}\n"),
	)
	assert.Equal(t, []string{"Address", "Unused"}, document.Keys(document.Get(got, "definitions")))
}

func TestPruneLogsMissingTargets(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	p := New(logging.NewZapAdapter(zap.New(core)))

	got := p.Prune(mustYAML(t, oas2), mustYAML(t, "schema: {$ref: '#/definitions/Ghost'}\nother: {$ref: 'remote.yaml#/X'}\n"))

	assert.Empty(t, document.Keys(document.Get(got, "definitions")))
	assert.Equal(t, 1, logs.FilterMessage("reference target not found").Len())
	external := logs.FilterMessage("skipping external reference").All()
	require.Len(t, external, 1)
	assert.Equal(t, "#/other/$ref", external[0].ContextMap()["at"])
}

func TestCollectRefs(t *testing.T) {
	n := mustYAML(t, `
a:
  $ref: '#/definitions/A'
b:
  - $ref: '#/definitions/B'
  - $ref: '#/definitions/A'
c: &shared
  $ref: '#/definitions/C'
d: *shared
`)
	assert.Equal(t, []string{"#/definitions/A", "#/definitions/B", "#/definitions/C"}, CollectRefs(n))
	assert.Empty(t, CollectRefs(nil))
}
