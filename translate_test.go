package auto_install

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestTranslator(t *testing.T) {
	translator := newTranslator(map[string]StringMap{
		"en": {"hello": "Hello {{.name}}", "only_en": "English only"},
		"de": {"hello": "Hallo {{.name}}"},
	}, StringMap{"name": "World"})

	require.NoError(t, translator.SetLanguage("de"))
	require.Equal(t, "de", translator.GetLanguage())
	require.Equal(t, "Hallo World", translator.Get("hello"))
	require.Equal(t, "English only", translator.Get("only_en"))
	require.Equal(t, "Hallo Moon", translator.GetVar("hello", StringMap{"name": "Moon"}))
	require.Equal(t, "", translator.Get("missing"))

	require.Equal(t, []string{"en", "de"}, translator.GetLanguages())
	require.Equal(t, StringMap{"en": "Hello World", "de": "Hallo World"}, translator.GetAll("hello"))

	require.Error(t, translator.SetLanguage("fr"))
	require.Equal(t, "de", translator.GetLanguage())
}

func TestTranslatorResources(t *testing.T) {
	translator := testTranslator(t, StringMap{"name": "auto_moos", "title": "MOOS"})
	require.Equal(t, "Usage: auto_moos [options]", translator.Get("cli_usage"))
	require.Equal(t, "Enabling sshd.service", translator.GetVar("step_service", StringMap{"service": "sshd.service"}))
	require.Contains(t, translator.GetLanguages(), "de")
	require.Equal(t, "en", translator.GetLanguages()[0])
}

// Every translated string must exist in the default language, which is the fallback.
func TestLanguageFilesComplete(t *testing.T) {
	files, err := GetResourceFiltered("languages", regexp.MustCompile(`\.ya?ml$`))
	require.NoError(t, err)
	languages := map[string]StringMap{}
	for name, content := range files {
		strs := StringMap{}
		require.NoError(t, yaml.Unmarshal([]byte(content), strs), name)
		languages[name] = strs
	}
	defaults, ok := languages["languages/en.yml"]
	require.True(t, ok)
	for _, key := range FieldKeys() {
		require.Contains(t, defaults, "field_"+key)
	}
	for name, strs := range languages {
		for key := range strs {
			require.Contains(t, defaults, key, "%s: %s", name, key)
		}
	}
}
