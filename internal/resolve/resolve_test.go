package resolve

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"

	"github.com/cameronsjo/dockergen/internal/descriptor"
	"github.com/cameronsjo/dockergen/internal/environ"
)

const baseDescriptor = `
versions:
  spark: 3.5.0
  hadoop: 3.3.4
  scala:
    version: 2.12
    full_version: 2.12.18
  java:
    version: "11"
    full_version: 11.0.21+9
  delta:
    core: 2.4.0
    spark: 3.3.2
    storage: 2.4.0
    jar: "delta-spark_{{versions.scala.version}}-{{versions.delta.spark}}.jar"
  hive: 3.1.3
  postgres: 42.6.0
components:
  spark:
    home: /opt/spark
    delta_log_store: org.apache.spark.sql.delta.storage.S3SingleDriverLogStore
    s3a:
      path_style_access: true
      connection_ssl_enabled: false
    master:
      host: spark-master
      port: 7077
`

func parse(t *testing.T, extra string) *descriptor.Document {
	t.Helper()
	doc, err := descriptor.Parse([]byte(baseDescriptor+extra), "test.yaml")
	require.NoError(t, err)
	return doc
}

func TestBuild_ResolvesNestedExpression(t *testing.T) {
	ctx, err := Build(parse(t, ""), environ.FromPairs(nil))
	require.NoError(t, err)

	delta := ctx.Section("versions")["delta"].(map[string]any)
	assert.Equal(t, "delta-spark_2.12-3.3.2.jar", delta["jar"])
	assert.Empty(t, ctx.Unresolved)
	assert.NoError(t, ctx.Err())
}

func TestBuild_ContextKeys(t *testing.T) {
	env := environ.FromPairs([]string{
		"HOME=/root",
		"SPARK_WORKER_CORES=4",
		"MINIO_BUCKET=data",
	})

	ctx, err := Build(parse(t, ""), env)
	require.NoError(t, err)

	data := ctx.Data()
	assert.Contains(t, data, KeyVersions)
	assert.Contains(t, data, KeyComponents)
	assert.Equal(t, map[string]any{
		"HOME":               "/root",
		"SPARK_WORKER_CORES": "4",
		"MINIO_BUCKET":       "data",
	}, data[KeyEnv])
	assert.Equal(t, map[string]any{
		"SPARK_WORKER_CORES": "4",
		"MINIO_BUCKET":       "data",
	}, data[KeyOverrides])
	assert.Same(t, env, ctx.Env())
}

func TestBuild_OverridePrefixes(t *testing.T) {
	env := environ.FromPairs([]string{"SPARK_HOME=/x", "CUSTOM_FLAG=1"})

	ctx, err := Build(parse(t, ""), env, WithOverridePrefixes("CUSTOM_"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"CUSTOM_FLAG": "1"}, ctx.Data()[KeyOverrides])
}

func TestBuild_ExpressionSources(t *testing.T) {
	tests := []struct {
		name  string
		value string
		env   []string
		want  string
	}{
		{
			name:  "env reference",
			value: `"{{ env.SPARK_HOME }}/jars"`,
			env:   []string{"SPARK_HOME=/opt/spark"},
			want:  "/opt/spark/jars",
		},
		{
			name:  "dotted reference",
			value: `"{{ .versions.spark }}"`,
			want:  "3.5.0",
		},
		{
			name:  "integer leaf",
			value: `"{{ components.spark.master.host }}:{{ components.spark.master.port }}"`,
			want:  "spark-master:7077",
		},
		{
			name:  "sprig function",
			value: `"{{ versions.spark | replace \".\" \"_\" }}"`,
			want:  "3_5_0",
		},
		{
			name:  "override with default",
			value: `"{{ index .overrides \"SPARK_MASTER_URL\" | default \"local\" }}"`,
			want:  "local",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, "  extra:\n    value: "+tt.value+"\n")
			ctx, err := Build(doc, environ.FromPairs(tt.env))
			require.NoError(t, err)
			require.Empty(t, ctx.Unresolved)

			extra := ctx.Section("components")["extra"].(map[string]any)
			assert.Equal(t, tt.want, extra["value"])
		})
	}
}

func TestBuild_LiteralsUnchanged(t *testing.T) {
	ctx, err := Build(parse(t, ""), environ.FromPairs(nil))
	require.NoError(t, err)

	spark := ctx.Section("components")["spark"].(map[string]any)
	assert.Equal(t, "/opt/spark", spark["home"])
	assert.Equal(t, 7077, spark["master"].(map[string]any)["port"])
	assert.Equal(t, true, spark["s3a"].(map[string]any)["path_style_access"])
	assert.Equal(t, "2.12", ctx.Section("versions")["scala"].(map[string]any)["version"])
}

func TestBuild_MissingReferenceIsRecorded(t *testing.T) {
	doc := parse(t, "  extra:\n    value: \"{{ versions.nope }}\"\n")

	ctx, err := Build(doc, environ.FromPairs(nil))
	require.NoError(t, err)

	require.Len(t, ctx.Unresolved, 1)
	u := ctx.Unresolved[0]
	assert.Equal(t, "components.extra.value", u.Path)
	assert.Equal(t, "{{ versions.nope }}", u.Value)
	assert.NotEmpty(t, u.Reason)

	extra := ctx.Section("components")["extra"].(map[string]any)
	assert.Equal(t, "{{ versions.nope }}", extra["value"], "kept verbatim")
	assert.Error(t, ctx.Err())
}

func TestBuild_SinglePass(t *testing.T) {
	// b resolves to c's raw text, which is itself an expression.
	doc := parse(t, `
urls:
  a: "{{ versions.spark }}"
  b: "{{ .urls.c }}"
  c: "{{ \"{{\" }} nested }}"
`)

	ctx, err := Build(doc, environ.FromPairs(nil))
	require.NoError(t, err)

	urls := ctx.Section("urls")
	assert.Equal(t, "3.5.0", urls["a"])

	paths := make([]string, len(ctx.Unresolved))
	for i, u := range ctx.Unresolved {
		paths[i] = u.Path
		assert.Equal(t, ReasonNotSinglePass, u.Reason)
	}
	assert.Equal(t, []string{"urls.b", "urls.c"}, paths)
}

func TestBuild_CycleTerminates(t *testing.T) {
	doc := parse(t, `
urls:
  a: "{{ .urls.b }}"
  b: "{{ .urls.a }}"
`)

	ctx, err := Build(doc, environ.FromPairs(nil))
	require.NoError(t, err)

	require.NotEmpty(t, ctx.Unresolved)
	for _, u := range ctx.Unresolved {
		assert.Contains(t, u.Value, "{{")
	}
	assert.Error(t, ctx.Err())
}

func TestBuild_ListValues(t *testing.T) {
	doc := parse(t, `
urls:
  mirrors:
    - "https://a/{{ versions.spark }}"
    - plain
    - 3
`)

	ctx, err := Build(doc, environ.FromPairs(nil))
	require.NoError(t, err)

	assert.Equal(t, []any{"https://a/3.5.0", "plain", 3}, ctx.Section("urls")["mirrors"])
}

func TestBuild_DocumentUntouched(t *testing.T) {
	doc := parse(t, "")

	_, err := Build(doc, environ.FromPairs(nil))
	require.NoError(t, err)

	delta := doc.Section("versions")["delta"].(map[string]any)
	assert.Equal(t, "delta-spark_{{versions.scala.version}}-{{versions.delta.spark}}.jar", delta["jar"])
}

func TestBuild_NilDocument(t *testing.T) {
	_, err := Build(nil, environ.FromPairs(nil))
	assert.Error(t, err)
}

func TestLiteralRoundTrip(t *testing.T) {
	literal := rapid.StringMatching(`[a-zA-Z0-9 ._/:=-]{0,24}`)
	key := rapid.StringMatching(`[a-z][a-z_]{0,8}`)

	rapid.Check(t, func(rt *rapid.T) {
		values := rapid.MapOfN(key, literal, 1, 6).Draw(rt, "values")

		extra, err := yaml.Marshal(map[string]any{"literals": values})
		if err != nil {
			rt.Fatalf("marshal: %v", err)
		}
		doc, err := descriptor.Parse([]byte(baseDescriptor+string(extra)), "prop.yaml")
		if err != nil {
			rt.Fatalf("parse: %v", err)
		}

		ctx, err := Build(doc, environ.FromPairs(nil))
		if err != nil {
			rt.Fatalf("build: %v", err)
		}
		if len(ctx.Unresolved) != 0 {
			rt.Fatalf("unexpected unresolved: %v", ctx.Unresolved)
		}

		got := ctx.Section("literals")
		for k, v := range values {
			if got[k] != v {
				rt.Fatalf("literal %q changed: %q -> %v", k, v, got[k])
			}
		}
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{{versions.spark}}", "{{.versions.spark}}"},
		{"{{ env.HOME }}/x", "{{ .env.HOME }}/x"},
		{"{{ .versions.spark }}", "{{ .versions.spark }}"},
		{"{{ $.versions.spark }}", "{{ $.versions.spark }}"},
		{"versions.spark outside", "versions.spark outside"},
		{"{{ myversions.x }}", "{{ myversions.x }}"},
		{"{{ printf \"%s-%s\" versions.a components.b }}", "{{ printf \"%s-%s\" .versions.a .components.b }}"},
		{"{{ printf \"a versions.x\" }}", "{{ printf \"a versions.x\" }}"},
		{"{{ printf `b env.X` env.Y }}", "{{ printf `b env.X` .env.Y }}"},
		{"{{ printf \"q\\\" versions.x\" versions.y }}", "{{ printf \"q\\\" versions.x\" .versions.y }}"},
		{"{{ env \"HOME\" }}", "{{ env \"HOME\" }}"},
		{"{{ urls.jar }}", "{{ urls.jar }}"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Roots(t *testing.T) {
	roots := []string{"urls", "versions", "not-an-ident"}

	assert.Equal(t, "{{ .urls.jar }}-{{ .versions.spark }}", Normalize("{{ urls.jar }}-{{ versions.spark }}", roots...))
	assert.Equal(t, "{{ env.HOME }}", Normalize("{{ env.HOME }}", roots...), "env is not a root here")
	assert.Equal(t, "{{ x }}", Normalize("{{ x }}", "not-an-ident"))
}

func TestBuild_BareSectionReference(t *testing.T) {
	doc := parse(t, `
urls:
  base: "https://repo/{{ versions.spark }}"
  mirror: "{{ urls.base }}/mirror"
`)

	ctx, err := Build(doc, environ.FromPairs(nil))
	require.NoError(t, err)

	assert.Equal(t, "https://repo/{{ versions.spark }}/mirror", ctx.Section("urls")["mirror"])
	assert.Contains(t, ctx.Roots(), "urls")

	tmpl, err := NewTemplate("spark", "ADD {{ urls.base }} /jars/", ctx.Roots())
	require.NoError(t, err)
	var b strings.Builder
	require.NoError(t, tmpl.Execute(&b, ctx.Data()))
	assert.Equal(t, "ADD https://repo/3.5.0 /jars/", b.String())
}

func TestNewTemplate_ToYaml(t *testing.T) {
	tmpl, err := NewTemplate("t", "{{ toYaml .m }}", nil)
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, tmpl.Execute(&b, map[string]any{"m": map[string]any{"a": 1}}))
	assert.Equal(t, "a: 1", b.String())
}
