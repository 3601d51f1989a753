package config

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type renderCase struct {
	name           string
	files          []string
	env            map[string]string
	expectedMerged string
	expected       string
	expectedErr    error
}

func newTestRenderer(files []string, env map[string]string) *Renderer {
	data := make([]FileData, len(files))
	for i, content := range files {
		data[i] = FileData{Name: fmt.Sprintf("file%d.toml", i), Content: content}
	}
	r := NewRenderer(data, "TSEQ")
	r.LookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	return r
}

func runRenderCases(t *testing.T, cases []renderCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRenderer(tc.files, tc.env)
			if tc.expectedMerged != "" {
				merged, err := r.Merge()
				require.NoError(t, err)
				require.Equal(t, tc.expectedMerged, merged)
			}
			rendered, err := r.Render()
			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
			} else {
				require.NoError(t, err)
			}
			if tc.expected != "" {
				require.Equal(t, tc.expected, rendered)
			}
		})
	}
}

func TestRenderMerge(t *testing.T) {
	runRenderCases(t, []renderCase{
		{
			name:     "disjoint keys",
			files:    []string{"MailboxSize=1\n", "PageSize=2\n"},
			expected: "MailboxSize = 1\nPageSize = 2\n",
		},
		{
			name:     "later files override",
			files:    []string{"PageSize=1\n", "PageSize=2\nPort=2\n", "PageSize=3\nMailboxSize=3\n"},
			expected: "MailboxSize = 3\nPageSize = 3\nPort = 2\n",
		},
		{
			name:        "last value is an undefined var",
			files:       []string{"PageSize=1\n", "PageSize={{Size}}\nPort=2\n"},
			expected:    "PageSize = {{Size}}\nPort = 2\n",
			expectedErr: ErrMissingVars,
		},
	})
}

func TestRenderCycles(t *testing.T) {
	runRenderCases(t, []renderCase{
		{
			name:           "three vars",
			files:          []string{"A= {{B}}\n", "B= {{C}}\nC={{A}}\n"},
			expectedMerged: "A = {{B}}\nB = {{C}}\nC = {{A}}\n",
			expected:       "A = {{B}}\nB = {{C}}\nC = {{A}}\n",
			expectedErr:    ErrCycleVars,
		},
		{
			name:        "two vars",
			files:       []string{"A= {{B}}\n", "B= {{A}}\n"},
			expected:    "A = {{B}}\nB = {{A}}\n",
			expectedErr: ErrCycleVars,
		},
		{
			name:        "self reference",
			files:       []string{"A= {{A}}\n", ""},
			expected:    "A = {{A}}\n",
			expectedErr: ErrCycleVars,
		},
		{
			name:     "chain",
			files:    []string{"A= {{B}}\n", "B= {{C}}\nC=4\n"},
			expected: "A = 4\nB = 4\nC = 4\n",
		},
	})
}

func TestRenderCycleBrokenByEnv(t *testing.T) {
	for _, key := range []string{"A", "B", "C"} {
		runRenderCases(t, []renderCase{{
			name:     "env " + key,
			files:    []string{"A= {{B}}\n", "B= {{C}}\nC={{A}}\n"},
			env:      map[string]string{"TSEQ_" + key: "4"},
			expected: "A = 4\nB = 4\nC = 4\n",
		}})
	}
}

func TestRenderValueTypes(t *testing.T) {
	runRenderCases(t, []renderCase{
		{
			name: "int, string and bool",
			files: []string{"MAILBOX={{MY_INT}}\n STATUS= \"{{MY_STR}}\"\n ENABLED={{MY_BOOL}}\n",
				"MY_STR=\"ReadOnly\"\nMY_INT=4\nMY_BOOL=true\nUNRESOLVED={{NOT_DEFINED}}\n"},
			expectedErr: ErrMissingVars,
			expected: "ENABLED = true\nMAILBOX = 4\nMY_BOOL = true\nMY_INT = 4\n" +
				"MY_STR = \"ReadOnly\"\nSTATUS = \"ReadOnly\"\nUNRESOLVED = {{NOT_DEFINED}}\n",
		},
		{
			name:     "composed string",
			files:    []string{"Dir=\"/data\"\n", "Path= \"{{Dir}}/sequencer.sqlite\"\n"},
			expected: "Dir = \"/data\"\nPath = \"/data/sequencer.sqlite\"\n",
		},
		{
			name:     "string from env keeps the quotes of the file",
			files:    []string{"Status=\"Active\"\n", "Initial=\"{{Status}}\"\n"},
			env:      map[string]string{"TSEQ_Status": "Maintenance"},
			expected: "Initial = \"Maintenance\"\nStatus = \"Active\"\n",
		},
		{
			name:     "undefined in files but set as number in env",
			files:    []string{"Port={{RPCPort}}\n"},
			env:      map[string]string{"TSEQ_RPCPort": "5576"},
			expected: "Port = 5576\n",
		},
		{
			name:     "undefined in files but set as string in env",
			files:    []string{"Host={{RPCHost}}\n"},
			env:      map[string]string{"TSEQ_RPCHost": "\"localhost\""},
			expected: "Host = \"localhost\"\n",
		},
	})
}

func TestRenderNestedTables(t *testing.T) {
	defaults := `
[DA]
  Backend="localfs"
  PageSize=100
  [DA.LocalFS]
    Dir="/tmp/da"
`
	node := `
[DA.LocalFS]
  Dir="{{DA.Backend}}"
`
	runRenderCases(t, []renderCase{
		{
			name:     "dotted var",
			files:    []string{defaults, node},
			expected: "\n[DA]\n  Backend = \"localfs\"\n  PageSize = 100\n\n  [DA.LocalFS]\n    Dir = \"localfs\"\n",
		},
		{
			// only the reference is replaced, DA.Backend itself is overridden later by viper
			name:     "dotted var from env",
			files:    []string{defaults, node},
			env:      map[string]string{"TSEQ_DA_Backend": "env"},
			expected: "\n[DA]\n  Backend = \"localfs\"\n  PageSize = 100\n\n  [DA.LocalFS]\n    Dir = \"env\"\n",
		},
	})
}

func TestRenderInvalidToml(t *testing.T) {
	_, err := newTestRenderer([]string{"[DA\n"}, nil).Render()
	require.Error(t, err)
}

func TestConvertFileToToml(t *testing.T) {
	jsonFile := `{
  "PathRWData": "/data",
  "DA": {
    "PageSize": 50,
    "Backend": "localfs"
  }
}
`
	data, err := convertFileToToml(jsonFile, "json")
	require.NoError(t, err)
	require.Equal(t, "PathRWData = \"/data\"\n\n[DA]\n  Backend = \"localfs\"\n  PageSize = 50.0\n", data)

	_, err = convertFileToToml("a: 1", "yaml")
	require.ErrorIs(t, err, ErrUnsupportedConfigFileType)

	data, err = convertFileToToml("A = 1\n", "toml")
	require.NoError(t, err)
	require.Equal(t, "A = 1\n", data)
}
