package language

import (
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
	deepl   bool     // Accepted by DeepL as a translation target
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}, true},
	{"es", "spa", "", "Spanish", []string{"spanish"}, true},
	{"fr", "fra", "fre", "French", []string{"french"}, true},
	{"de", "deu", "ger", "German", []string{"german"}, true},
	{"it", "ita", "", "Italian", []string{"italian"}, true},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}, true},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}, true},
	{"ko", "kor", "", "Korean", []string{"korean"}, true},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}, true},
	{"ru", "rus", "", "Russian", []string{"russian"}, true},
	{"uk", "ukr", "", "Ukrainian", []string{"ukrainian"}, true},
	{"ar", "ara", "", "Arabic", []string{"arabic"}, true},
	{"hi", "hin", "", "Hindi", []string{"hindi"}, false},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}, true},
	{"pl", "pol", "", "Polish", []string{"polish"}, true},
	{"sv", "swe", "", "Swedish", []string{"swedish"}, true},
	{"da", "dan", "", "Danish", []string{"danish"}, true},
	{"nb", "nob", "", "Norwegian Bokmål", []string{"norwegian"}, true},
	{"fi", "fin", "", "Finnish", []string{"finnish"}, true},
	{"cs", "ces", "cze", "Czech", []string{"czech"}, true},
	{"tr", "tur", "", "Turkish", []string{"turkish"}, true},
	{"el", "ell", "gre", "Greek", []string{"greek"}, true},
	{"bg", "bul", "", "Bulgarian", []string{"bulgarian"}, true},
	{"ro", "ron", "rum", "Romanian", []string{"romanian"}, true},
	{"hu", "hun", "", "Hungarian", []string{"hungarian"}, true},
	{"id", "ind", "", "Indonesian", []string{"indonesian"}, true},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
	// "no" is the macrolanguage; WhisperX and DeepL both treat it as Bokmål.
	byCode2["no"] = byCode2["nb"]
	byCode3["nor"] = byCode2["nb"]
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// ToISO2 converts any recognized language code, word or BCP 47 tag to
// ISO 639-1. Unknown 2-letter codes pass through; anything else unknown
// returns the empty string.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if tag, err := parseTag(code); err == nil {
		base, _ := tag.Base()
		if e := lookup(base.String()); e != nil {
			return e.code2
		}
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if iso := ToISO2(code); iso != "" {
		if e := lookup(iso); e != nil {
			return e.display
		}
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// DeepLTarget converts a language code into DeepL's target_lang value.
// English and Portuguese always carry a region (EN-US by default, PT-PT by
// default) and Chinese keeps an explicit script when one is given.
func DeepLTarget(code string) (string, error) {
	e, tag, err := resolveDeepL(code)
	if err != nil {
		return "", err
	}
	region, regionConf := tag.Region()
	script, scriptConf := tag.Script()
	switch e.code2 {
	case "en":
		if regionConf == xlanguage.Exact && region.String() == "GB" {
			return "EN-GB", nil
		}
		return "EN-US", nil
	case "pt":
		if regionConf == xlanguage.Exact && region.String() == "BR" {
			return "PT-BR", nil
		}
		return "PT-PT", nil
	case "zh":
		if scriptConf == xlanguage.Exact {
			switch script.String() {
			case "Hant":
				return "ZH-HANT", nil
			case "Hans":
				return "ZH-HANS", nil
			}
		}
		return "ZH", nil
	}
	return strings.ToUpper(e.code2), nil
}

// DeepLSource converts a language code into DeepL's source_lang value, which
// never carries a region.
func DeepLSource(code string) (string, error) {
	e, _, err := resolveDeepL(code)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(e.code2), nil
}

func resolveDeepL(code string) (*entry, xlanguage.Tag, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, xlanguage.Und, fmt.Errorf("empty language code")
	}
	if e := lookup(trimmed); e != nil {
		if !e.deepl {
			return nil, xlanguage.Und, fmt.Errorf("language %q is not supported by DeepL", code)
		}
		tag, _ := parseTag(e.code2)
		return e, tag, nil
	}
	tag, err := parseTag(trimmed)
	if err != nil {
		return nil, xlanguage.Und, fmt.Errorf("unrecognized language %q: %w", code, err)
	}
	base, _ := tag.Base()
	e := lookup(base.String())
	if e == nil || !e.deepl {
		return nil, xlanguage.Und, fmt.Errorf("language %q is not supported by DeepL", code)
	}
	return e, tag, nil
}

func parseTag(code string) (xlanguage.Tag, error) {
	return xlanguage.Parse(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
}
