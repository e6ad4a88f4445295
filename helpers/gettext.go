package helpers

import (
	_ "embed"
	"fmt"
	"math/rand"
	"sync"

	"github.com/Jeffail/gabs"
)

//go:embed assets/i18n.json
var translationsJSON []byte

var (
	translations     *gabs.Container
	translationsOnce sync.Once
)

// LoadTranslations parses the embedded translation file. GetText calls it
// lazily, the launcher calls it early to fail fast on a broken file.
func LoadTranslations() {
	translationsOnce.Do(func() {
		json, err := gabs.ParseJSON(translationsJSON)
		Relax(err)

		translations = json
	})
}

func GetText(id string) string {
	LoadTranslations()

	if !translations.ExistsP(id) {
		return id
	}

	item := translations.Path(id)

	// If this is an object return __
	if _, ok := item.Data().(map[string]interface{}); ok {
		item = item.Path("__")
	}

	// If this is an array return a random item
	if arr, ok := item.Data().([]interface{}); ok {
		if len(arr) == 0 {
			return id
		}
		if text, ok := arr[rand.Intn(len(arr))].(string); ok {
			return text
		}
		return id
	}

	if text, ok := item.Data().(string); ok {
		return text
	}
	return id
}

func GetTextF(id string, replacements ...interface{}) string {
	return fmt.Sprintf(GetText(id), replacements...)
}
