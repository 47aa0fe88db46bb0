package service

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"storefront_v1_202610/internal/model"
)

// baseLanguage 取语言标签的基础语言，如 en-US -> en
func baseLanguage(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		locale = strings.ToLower(strings.TrimSpace(locale))
		if i := strings.IndexAny(locale, "-_"); i > 0 {
			return locale[:i]
		}
		return locale
	}
	base, _ := tag.Base()
	return base.String()
}

// isTurkish 判断 locale 是否为土耳其语
func isTurkish(locale string) bool {
	return baseLanguage(locale) == model.LocaleTR
}

// translationLookup 按 locale 精确匹配，其次匹配基础语言
func translationLookup(locale string, byLocale map[string]string) (string, bool) {
	if name, ok := byLocale[locale]; ok && name != "" {
		return name, true
	}
	base := baseLanguage(locale)
	if name, ok := byLocale[base]; ok && name != "" {
		return name, true
	}
	locales := make([]string, 0, len(byLocale))
	for loc := range byLocale {
		locales = append(locales, loc)
	}
	sort.Strings(locales)
	for _, loc := range locales {
		if name := byLocale[loc]; name != "" && baseLanguage(loc) == base {
			return name, true
		}
	}
	return "", false
}

// attributeName 属性显示名：locale -> 基础语言 -> key
func attributeName(attr *model.Attribute, locale string) string {
	byLocale := make(map[string]string, len(attr.Translations))
	for _, tr := range attr.Translations {
		byLocale[tr.Locale] = tr.Name
	}
	if name, ok := translationLookup(locale, byLocale); ok {
		return name
	}
	return attr.Key
}

// optionName 选项显示名：locale -> 基础语言 -> key -> 任意译名 -> #id，结果不为空
func optionName(opt *model.AttributeOption, locale string) string {
	byLocale := make(map[string]string, len(opt.Translations))
	for _, tr := range opt.Translations {
		byLocale[tr.Locale] = tr.Name
	}
	if name, ok := translationLookup(locale, byLocale); ok {
		return name
	}
	if opt.Key != nil && *opt.Key != "" {
		return *opt.Key
	}
	if name, ok := translationLookup(model.FallbackLocale, byLocale); ok {
		return name
	}
	for _, tr := range opt.Translations {
		if tr.Name != "" {
			return tr.Name
		}
	}
	return "#" + strconv.FormatInt(opt.ID, 10)
}

// hasTranslation 是否存在该 locale (或其基础语言) 的译名
func hasTranslation(opt *model.AttributeOption, locale string) bool {
	byLocale := make(map[string]string, len(opt.Translations))
	for _, tr := range opt.Translations {
		byLocale[tr.Locale] = tr.Name
	}
	_, ok := translationLookup(locale, byLocale)
	return ok
}

// renderValue 把取值渲染为展示文本，无取值返回空串
func renderValue(val model.AttributeValue, options map[int64]*model.AttributeOption, locale string) string {
	switch v := val.(type) {
	case model.TextValue:
		return strings.TrimSpace(string(v))
	case model.NumberValue:
		return strconv.FormatFloat(float64(v), 'f', -1, 64)
	case model.BoolValue:
		if isTurkish(locale) {
			if v {
				return "Evet"
			}
			return "Hayır"
		}
		if v {
			return "Yes"
		}
		return "No"
	case model.OptionValue:
		if opt, ok := options[int64(v)]; ok {
			return optionName(opt, locale)
		}
		return "#" + strconv.FormatInt(int64(v), 10)
	}
	return ""
}

// foldKey 大小写无关比较用的键 (Caser 有状态，不能跨 goroutine 共享)
func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
