// i18n: загрузка переводов из встроенных JSON (ru, en, uz); язык только из Accept-Language.
package i18n

import (
	"embed"
	"encoding/json"
	"sync"
)

//go:embed ru/*.json en/*.json uz/*.json
var fs embed.FS

var (
	mu    sync.RWMutex
	packs = make(map[string]map[string]string) // язык -> ключ -> сообщение
)

// Поддерживаемые языки (только эти; язык берётся только из заголовка Accept-Language).
const (
	LangRU = "ru"
	LangEN = "en"
	LangUZ = "uz"
)

// Load загружает встроенные JSON по каждому языку; ключи: error.unauthorized, permit.not_ready и т.д.
func Load() error {
	mu.Lock()
	defer mu.Unlock()
	for _, lang := range []string{LangRU, LangEN, LangUZ} {
		data, err := fs.ReadFile(lang + "/messages.json")
		if err != nil {
			packs[lang] = defaultMessages(lang)
			continue
		}
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			packs[lang] = defaultMessages(lang)
			continue
		}
		packs[lang] = m
	}
	return nil
}

// defaultMessages — запасные сообщения при отсутствии или ошибке JSON.
func defaultMessages(lang string) map[string]string {
	return map[string]string{
		"error.unauthorized": "unauthorized",
		"error.forbidden":    "forbidden",
		"error.not_found":    "not found",
		"error.rate_limit":   "rate limit exceeded",
		"error.internal":     "internal server error",
		"ok":                 "ok",
	}
}

// T возвращает сообщение по языку и ключу; при отсутствии — fallback на ru, иначе сам ключ.
func T(lang, key string) string {
	mu.RLock()
	defer mu.RUnlock()
	if m, ok := packs[lang]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	if m, ok := packs[LangRU]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	return key
}
