package config

import "github.com/minios-linux/mdtranslate/placeholder"

// DefaultBodyRules returns the built-in boilerplate rules applied to the
// whole document before translation.
func DefaultBodyRules() []placeholder.Rule {
	return []placeholder.Rule{
		{
			// Source link notice.
			Source: "> 原文地址：<https://wiki-power.com/>",
			Replacements: map[string]string{
				"en": "> Original: <https://wiki-power.com/>",
				"es": "> Dirección original del artículo: <https://wiki-power.com/>",
				"ar": "> عنوان النص: <https://wiki-power.com/>",
				"ja": "> 原文のアドレス：<https://wiki-power.com/>",
				"ko": "> 원문 주소：<https://wiki-power.com/>",
				"zh": "> 原文地址：<https://wiki-power.com/>",
			},
		},
		{
			// License notice.
			Source: "> 本篇文章受 [CC BY-NC-SA 4.0](https://creativecommons.org/licenses/by/4.0/deed.zh) 协议保护，转载请注明出处。",
			Replacements: map[string]string{
				"en": "> This post is protected by [CC BY-NC-SA 4.0](https://creativecommons.org/licenses/by/4.0/deed.en) agreement, should be reproduced with attribution.",
				"es": "> Este artículo está protegido por la licencia [CC BY-NC-SA 4.0](https://creativecommons.org/licenses/by/4.0/deed.zh). Si desea reproducirlo, por favor indique la fuente.",
				"ar": "> يتم حماية هذا المقال بموجب اتفاقية [CC BY-NC-SA 4.0](https://creativecommons.org/licenses/by/4.0/deed.zh)، يُرجى ذكر المصدر عند إعادة النشر.",
				"ja": "> この記事は [CC BY-NC-SA 4.0](https://creativecommons.org/licenses/by/4.0/deed.ja) ライセンスで保護されています。転載の際は出典を明記してください。",
				"ko": "> 이 글은 [CC BY-NC-SA 4.0](https://creativecommons.org/licenses/by/4.0/deed.ko) 라이선스로 보호됩니다. 출처를 명시하여 재게시해 주세요.",
				"zh": "> 本篇文章受 [CC BY-NC-SA 4.0](https://creativecommons.org/licenses/by/4.0/deed.zh) 协议保护，转载请注明出处。",
			},
		},
		{
			// Internal links point to the same-language site.
			Source: "](https://wiki-power.com/",
			Replacements: map[string]string{
				"en": "](https://wiki-power.com/en/",
				"es": "](https://wiki-power.com/es/",
				"ar": "](https://wiki-power.com/ar/",
				"ja": "](https://wiki-power.com/ja/",
				"ko": "](https://wiki-power.com/ko/",
				"zh": "](https://wiki-power.com/",
			},
		},
	}
}

// DefaultFrontMatterRules returns the built-in category and tag names.
func DefaultFrontMatterRules() []placeholder.Rule {
	return []placeholder.Rule{
		numbered("类别 1", "Categories 1", "Categorías 1", "الفئة 1", "カテゴリー 1", "카테고리 1"),
		numbered("类别 2", "Categories 2", "Categorías 2", "الفئة 2", "カテゴリー 2", "카테고리 2"),
		numbered("标签 1", "Tags 1", "Etiquetas 1", "بطاقة 1", "タグ 1", "태그 1"),
		numbered("标签 2", "Tags 2", "Etiquetas 2", "بطاقة 2", "タグ 2", "태그 2"),
	}
}

func numbered(zh, en, es, ar, ja, ko string) placeholder.Rule {
	return placeholder.Rule{
		Source: zh,
		Replacements: map[string]string{
			"en": en, "es": es, "ar": ar, "ja": ja, "ko": ko, "zh": zh,
		},
	}
}
